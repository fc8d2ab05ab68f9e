//go:build rp2040 || rp2350

// Package mqtt publishes counter snapshots to an MQTT broker over the
// Pico W's WiFi link.
package mqtt

import (
	"errors"
	"io"
	"log/slog"
	"net/netip"
	"runtime"
	"time"

	"github.com/harveysanders/pulsecounter/pulsecounter/cyw43439"
	"github.com/harveysanders/pulsecounter/pulsecounter/lcd"
	"github.com/harveysanders/pulsecounter/pulsecounter/report"
	"github.com/soypat/lneto/tcp"
	mqtt "github.com/soypat/natiu-mqtt"
)

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

// Publisher owns one broker connection.
type Publisher struct {
	ID                string
	Timeout           time.Duration
	TCPBufSize        int
	Logger            *slog.Logger
	HeartbeatInterval time.Duration // Defaults to 10s.
	Username          string        // Optional.
	Password          string        // Optional, requires Username.
}

// Run connects to the broker at addr (host:port, host may be a DNS name)
// and publishes every snapshot received. Connection failures are retried
// forever; Run only returns on errors that retrying cannot fix. Connection
// state goes to lcdMessages without blocking; nil means no display.
func (p *Publisher) Run(
	stack *cyw43439.Stack,
	addr string,
	snapshots <-chan report.Snapshot,
	lcdMessages chan<- lcd.Message,
) error {
	const pollTime = 5 * time.Millisecond

	host, portStr, err := splitHostPort(addr)
	if err != nil {
		return errors.New("parsing host:port from " + addr + ": " + err.Error())
	}
	port := parsePort(portStr)
	if port == 0 {
		return errors.New("invalid port in " + addr)
	}

	lnetoStack := stack.Lneto()
	rstack := lnetoStack.StackRetrying(pollTime)

	brokerIP, err := netip.ParseAddr(host)
	if err != nil {
		p.Logger.Info("dns:resolving", slog.String("host", host))
		addrs, err := rstack.DoLookupIP(host, 5*time.Second, 3)
		if err != nil {
			return errors.New("dns lookup for " + host + ": " + err.Error())
		}
		if len(addrs) == 0 {
			return errors.New("dns lookup for " + host + ": no addresses returned")
		}
		brokerIP = addrs[0]
	}
	serverAddr := netip.AddrPortFrom(brokerIP, port)
	p.Logger.Info("mqtt:broker", slog.String("addr", serverAddr.String()))

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
		OnPub: func(pubHead mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
			p.Logger.Info("mqtt:received", slog.String("topic", string(varPub.TopicName)))
			return nil
		},
	})
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(p.ID))
	if p.Username != "" {
		varconn.Username = []byte(p.Username)
		if p.Password != "" {
			varconn.Password = []byte(p.Password)
		}
	}
	pubVar := mqtt.VariablesPublish{TopicName: []byte(Topic)}

	var conn tcp.Conn
	err = conn.Configure(tcp.ConnConfig{
		RxBuf:             make([]byte, p.TCPBufSize),
		TxBuf:             make([]byte, p.TCPBufSize),
		TxPacketQueueSize: 3,
	})
	if err != nil {
		return errors.New("tcp configure:" + err.Error())
	}
	closeConn := func(reason string) {
		p.Logger.Error("tcp:closing", slog.String("reason", reason))
		conn.Close()
		for i := 0; i < 50 && !conn.State().IsClosed(); i++ {
			time.Sleep(100 * time.Millisecond)
		}
		conn.Abort()
	}

	heartbeatInterval := p.HeartbeatInterval
	if heartbeatInterval <= 0 {
		heartbeatInterval = 10 * time.Second
	}
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		localPort := uint16(lnetoStack.Prand32()>>17) + 1024
		p.Logger.Info("tcp:dialing", slog.Uint64("localPort", uint64(localPort)))
		showStatus(lcdMessages, stateDialing)
		err = rstack.DoDialTCP(&conn, localPort, serverAddr, 10*time.Second, 3)
		if err != nil {
			closeConn("dial failed: " + err.Error())
			time.Sleep(2 * time.Second)
			continue
		}

		conn.SetDeadline(time.Now().Add(p.Timeout))
		if err = client.StartConnect(&conn, &varconn); err != nil {
			showStatus(lcdMessages, stateConnectFail)
			closeConn("connect failed: " + err.Error())
			continue
		}
		for retries := 50; retries > 0 && !client.IsConnected(); retries-- {
			time.Sleep(100 * time.Millisecond)
			if err = client.HandleNext(); err != nil {
				p.Logger.Error("mqtt:handle-next", slog.String("err", err.Error()))
			}
		}
		if !client.IsConnected() {
			showStatus(lcdMessages, stateTimedOut)
			closeConn("connect timed out")
			continue
		}
		p.Logger.Info("mqtt:connected")
		showStatus(lcdMessages, stateConnected)

		for client.IsConnected() {
			select {
			case s := <-snapshots:
				payload, err := Payload(s)
				if err != nil {
					p.Logger.Error("mqtt:marshal", slog.String("err", err.Error()))
					continue
				}
				conn.SetDeadline(time.Now().Add(p.Timeout))
				pubVar.PacketIdentifier = uint16(lnetoStack.Prand32())
				if err = client.PublishPayload(pubFlags, pubVar, payload); err != nil {
					p.Logger.Error("mqtt:publish", slog.String("err", err.Error()))
					continue
				}
				p.Logger.Debug("mqtt:published", slog.Uint64("count", uint64(s.Count)))
				if err = client.HandleNext(); err != nil {
					p.Logger.Error("mqtt:handle-next", slog.String("err", err.Error()))
				}
			case <-heartbeat.C:
				// Nothing published for a while, let the client keep the
				// connection alive.
				if err = client.HandleNext(); err != nil {
					p.Logger.Error("mqtt:handle-next", slog.String("err", err.Error()))
				}
			default:
				// TinyGo runs goroutines on a single core.
				runtime.Gosched()
			}
		}

		p.Logger.Error("mqtt:disconnected", slog.Any("reason", client.Err()))
		showStatus(lcdMessages, stateReconnecting)
		closeConn("disconnected")
	}
}
