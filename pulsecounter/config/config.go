// Package config interprets the build options linked into the firmware
// with -ldflags -X. Link-time values are plain strings, so this is where
// they get their meaning.
package config

// Options holds the raw linker-flag values.
type Options struct {
	SSID     string
	Password string
	Broker   string // host:port of the MQTT broker.
	LCD      string // "true" enables the HD44780 display.
}

// LCDEnabled reports whether the display was requested. Only the exact
// value "true" enables it, so -X main.withLCD=false leaves it off.
func (o Options) LCDEnabled() bool {
	return o.LCD == "true"
}

// NetworkEnabled reports whether both WiFi credentials and a broker were
// linked in. An empty password is allowed for open networks.
func (o Options) NetworkEnabled() bool {
	return o.SSID != "" && o.Broker != ""
}
