//go:build rp2040 || rp2350

// pulsecounter counts rising edges on GP16 and prints the count once per
// second. Pressing a button between GP20 and ground clears the count. GP15
// outputs a 100 kHz test signal; jumper it to GP16 to see the count move.
//
// Optional extras, selected at link time:
//
//	tinygo flash -target=pico2-w \
//	  -ldflags="-X 'main.ssid=...' -X 'main.pass=...' -X 'main.broker=10.0.0.9:1883' -X 'main.withLCD=true'" \
//	  ./pulsecounter
package main

import (
	"errors"
	"log/slog"
	"machine"
	"net/netip"
	"time"

	"github.com/harveysanders/pulsecounter/pulsecounter/config"
	"github.com/harveysanders/pulsecounter/pulsecounter/cyw43439"
	"github.com/harveysanders/pulsecounter/pulsecounter/edge"
	"github.com/harveysanders/pulsecounter/pulsecounter/lcd"
	"github.com/harveysanders/pulsecounter/pulsecounter/mqtt"
	"github.com/harveysanders/pulsecounter/pulsecounter/pwm"
	"github.com/harveysanders/pulsecounter/pulsecounter/report"
	"tinygo.org/x/drivers/hd44780i2c"
)

const (
	pwmPin   = machine.GP15 // Test signal output. PWM slice 7, channel B.
	countPin = machine.GP16 // Counter input, pulled up, rising edge.
	clearPin = machine.GP20 // Clear button to ground, pulled up, both edges.
	debugLED = machine.GP21 // Toggles on every report.
)

// Set with -ldflags -X. Empty disables the feature; withLCD must be "true".
var (
	ssid    string
	pass    string
	broker  string
	withLCD string
)

func main() {
	start := time.Now()
	// Give the serial monitor a moment to attach.
	time.Sleep(2 * time.Second)
	println("pulsecounter starting")

	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	opts := config.Options{SSID: ssid, Password: pass, Broker: broker, LCD: withLCD}

	// Nil when the display is disabled or missing; sends to it are no-ops.
	var lcdMessages chan<- lcd.Message
	if opts.LCDEnabled() {
		lcdMessages = lcd.Start(func() (lcd.Screen, error) {
			return configureLCD(machine.I2C0)
		}, logger)
	}

	counter := &edge.Counter{}
	events := edge.NewQueue(edge.QueueCapacity)
	handler := edge.NewHandler(counter, events, uint32(clearPin))

	consumer := edge.NewConsumer(events, uint32(clearPin), logger, func() {
		lcd.Send(lcdMessages, "counts: 0", "cleared")
	})
	go consumer.Run()

	isr := func(p machine.Pin) {
		handler.OnEdge(uint32(p), p.Get())
	}
	countPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	clearPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	if err := countPin.SetInterrupt(machine.PinRising, isr); err != nil {
		printErrForever(logger, "counter pin interrupt", slog.String("reason", err.Error()))
	}
	if err := clearPin.SetInterrupt(machine.PinRising|machine.PinFalling, isr); err != nil {
		printErrForever(logger, "clear pin interrupt", slog.String("reason", err.Error()))
	}

	pwmCfg := pwm.DefaultConfig()
	if err := startPWM(machine.PWM7, pwmPin, pwmCfg); err != nil {
		printErrForever(logger, "configure PWM", slog.String("reason", err.Error()))
	}
	logger.Info("pwm:running",
		slog.Uint64("hz", pwmCfg.FrequencyHz),
		slog.Uint64("duty", uint64(pwmCfg.Duty)),
		slog.Uint64("resolution_bits", uint64(pwmCfg.ResolutionBits)),
	)

	debugLED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	reporter := &report.Reporter{
		Out:     machine.Serial,
		Counter: counter,
		Queue:   events,
		Logger:  logger,
		Start:   start,
		Sinks: []report.Sink{
			func(report.Snapshot) { debugLED.Set(!debugLED.Get()) },
		},
	}

	if lcdMessages != nil {
		reporter.Sinks = append(reporter.Sinks, lcd.SnapshotSink(lcdMessages))
	}

	if opts.NetworkEnabled() {
		snapshots := make(chan report.Snapshot, 10)
		reporter.Sinks = append(reporter.Sinks, report.ChannelSink(snapshots))
		go publish(logger, opts, snapshots, lcdMessages)
	}

	reporter.Run()
}

// startPWM configures slice to run cfg on pin.
func startPWM(slice interface {
	Configure(machine.PWMConfig) error
	Channel(machine.Pin) (uint8, error)
	pwm.Slice
}, pin machine.Pin, cfg pwm.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := slice.Configure(machine.PWMConfig{Period: cfg.Period()}); err != nil {
		return errors.New("pwm configure:" + err.Error())
	}
	ch, err := slice.Channel(pin)
	if err != nil {
		return errors.New("pwm channel:" + err.Error())
	}
	cfg.Apply(slice, ch)
	return nil
}

// configureLCD sets up I2C0 on GP4/GP5 and initializes the HD44780 at the
// first of the common backpack addresses (0x27, 0x3F) that ACKs a write.
func configureLCD(i2c *machine.I2C) (*hd44780i2c.Device, error) {
	err := i2c.Configure(machine.I2CConfig{
		SDA: machine.GP4,
		SCL: machine.GP5,
	})
	if err != nil {
		return nil, errors.New("i2c configure:" + err.Error())
	}
	for _, addr := range []uint8{0x27, 0x3F} {
		// All backpack outputs low, which also turns the backlight off
		// until Configure runs.
		if i2c.Tx(uint16(addr), []byte{0}, nil) != nil {
			continue
		}
		dev := hd44780i2c.New(i2c, addr)
		dev.Configure(hd44780i2c.Config{
			Width:  16,
			Height: 2,
		})
		return &dev, nil
	}
	return nil, errors.New("LCD not found on addresses: 0x27, 0x3f")
}

// publish brings up WiFi and streams snapshots to the broker. Network
// failures never stop counting: they are logged and publishing is abandoned.
func publish(logger *slog.Logger, opts config.Options, snapshots <-chan report.Snapshot, lcdMessages chan<- lcd.Message) {
	stack, err := cyw43439.Connect(cyw43439.Config{
		SSID:     opts.SSID,
		Password: opts.Password,
		Hostname: "pulsecounter",
		Logger:   logger,
	})
	if err != nil {
		logger.Error("wifi:connect", slog.String("reason", err.Error()))
		return
	}
	go stack.Loop()

	if err = stack.DHCP(netip.Addr{}); err != nil {
		logger.Error("wifi:dhcp", slog.String("reason", err.Error()))
		return
	}

	p := mqtt.Publisher{
		ID:         "pulsecounter",
		Logger:     logger,
		Timeout:    5 * time.Second,
		TCPBufSize: 2030, // MTU - ethhdr - iphdr - tcphdr
	}
	if err = p.Run(stack, opts.Broker, snapshots, lcdMessages); err != nil {
		logger.Error("mqtt:publish", slog.String("reason", err.Error()))
	}
}

// printErrForever logs msg at 1 Hz so a serial monitor attached late still
// sees it. It blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
