//go:build rp2040 || rp2350

// Package cyw43439 brings up WiFi on a Pico W so the pulse counter can
// publish readings. It joins a WPA2 (or open) network, runs DHCP with a
// static fallback and exposes the lneto stack for TCP.
//
// Adapted from github.com/soypat/cyw43439/examples/common.
package cyw43439

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/lneto/x/xnet"
)

const mtu = cyw43439.MTU

// Config configures the WiFi link and the lneto stack.
type Config struct {
	SSID     string
	Password string // Empty joins an open network.
	Hostname string
	// RequestedAddr is asked for during DHCP and used as a static address
	// if DHCP does not complete.
	RequestedAddr netip.Addr
	Logger        *slog.Logger
}

// Stack is a joined WiFi device plus the lneto stack running on it.
type Stack struct {
	s       xnet.StackAsync
	dev     *cyw43439.Device
	log     *slog.Logger
	sendbuf []byte
}

// Connect initializes the CYW43439, joins the network (retrying every five
// seconds until it succeeds) and configures the stack with one TCP port.
func Connect(cfg Config) (*Stack, error) {
	if cfg.Hostname == "" {
		return nil, errors.New("empty hostname")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	start := time.Now()
	dev := cyw43439.NewPicoWDevice()
	dev.SetLogger(logger)
	if err := dev.Init(cyw43439.DefaultWifiConfig()); err != nil {
		return nil, errors.New("wifi init:" + err.Error())
	}
	logger.Info("wifi:init", slog.Duration("duration", time.Since(start)))

	for {
		err := dev.JoinWPA2(cfg.SSID, cfg.Password)
		if err == nil {
			break
		}
		logger.Error("wifi:join failed", slog.String("ssid", cfg.SSID), slog.String("err", err.Error()))
		time.Sleep(5 * time.Second)
	}

	mac, err := dev.HardwareAddr6()
	if err != nil {
		return nil, errors.New("wifi hardware address:" + err.Error())
	}
	logger.Info("wifi:joined", slog.String("ssid", cfg.SSID), slog.String("mac", net.HardwareAddr(mac[:]).String()))

	stack := &Stack{
		dev:     dev,
		log:     logger,
		sendbuf: make([]byte, mtu),
	}
	err = stack.s.Reset(xnet.StackConfig{
		Hostname:        cfg.Hostname,
		MaxTCPConns:     1,
		RandSeed:        time.Since(start).Nanoseconds(),
		HardwareAddress: mac,
		MTU:             mtu,
	})
	if err != nil {
		return nil, errors.New("stack reset:" + err.Error())
	}
	dev.RecvEthHandle(func(pkt []byte) error {
		return stack.s.Demux(pkt, 0)
	})
	return stack, nil
}

// DHCP acquires an address. It must run while a goroutine is calling
// RecvAndSend.
func (s *Stack) DHCP(requested netip.Addr) error {
	if !requested.IsValid() {
		requested = netip.AddrFrom4([4]byte{})
	} else if !requested.Is4() {
		return errors.New("dhcp: only IPv4 supported")
	}

	rstack := s.s.StackRetrying(50 * time.Millisecond)
	s.log.Info("dhcp:starting")
	results, err := rstack.DoDHCPv4(requested.As4(), 3*time.Second, 3)
	if err != nil {
		if requested.IsUnspecified() {
			return errors.New("dhcp:" + err.Error())
		}
		s.log.Info("dhcp:incomplete, using static address", slog.String("ip", requested.String()))
		s.s.SetIPAddr(requested)
		return nil
	}
	if err = s.s.AssimilateDHCPResults(results); err != nil {
		return errors.New("dhcp assimilate:" + err.Error())
	}
	gatewayHW, err := rstack.DoResolveHardwareAddress6(results.Router, 500*time.Millisecond, 4)
	if err != nil {
		return errors.New("dhcp resolve gateway:" + err.Error())
	}
	s.s.SetGateway6(gatewayHW)
	s.log.Info("dhcp:complete",
		slog.String("ip", results.AssignedAddr.String()),
		slog.String("router", results.Router.String()),
		slog.Uint64("lease_sec", uint64(results.TLease)),
	)
	return nil
}

// RecvAndSend moves at most one packet in and one packet out. Call it in a
// loop from its own goroutine.
func (s *Stack) RecvAndSend() (send, recv int, err error) {
	gotPacket, errRecv := s.dev.PollOne()
	if gotPacket {
		recv = 1
	}
	if errRecv != nil {
		s.log.Error("stack:poll", slog.String("err", errRecv.Error()))
	}

	send, err = s.s.Encapsulate(s.sendbuf, -1, 0)
	if err != nil {
		s.log.Error("stack:encapsulate", slog.Int("plen", send), slog.String("err", err.Error()))
	} else {
		err = errRecv
	}
	if send == 0 {
		return send, recv, err
	}
	if err = s.dev.SendEth(s.sendbuf[:send]); err != nil {
		s.log.Error("stack:send", slog.Int("plen", send), slog.String("err", err.Error()))
	}
	return send, recv, err
}

// Loop runs RecvAndSend forever, sleeping briefly when idle so other
// goroutines get scheduled.
func (s *Stack) Loop() {
	for {
		send, recv, _ := s.RecvAndSend()
		if send == 0 && recv == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// Lneto returns the underlying stack for dialing and DNS.
func (s *Stack) Lneto() *xnet.StackAsync {
	return &s.s
}
