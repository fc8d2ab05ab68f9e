package config

import "testing"

func TestLCDEnabled(t *testing.T) {
	tests := map[string]bool{
		"true":  true,
		"":      false,
		"false": false,
		"0":     false,
		"TRUE":  false,
	}
	for in, want := range tests {
		if got := (Options{LCD: in}).LCDEnabled(); got != want {
			t.Errorf("LCD=%q: want %v, got %v", in, want, got)
		}
	}
}

func TestNetworkEnabled(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want bool
	}{
		{"nothing linked", Options{}, false},
		{"ssid only", Options{SSID: "home"}, false},
		{"broker only", Options{Broker: "10.0.0.9:1883"}, false},
		{"open network", Options{SSID: "home", Broker: "10.0.0.9:1883"}, true},
		{"wpa2", Options{SSID: "home", Password: "secret", Broker: "10.0.0.9:1883"}, true},
	}
	for _, tt := range tests {
		if got := tt.opts.NetworkEnabled(); got != tt.want {
			t.Errorf("%s: want %v, got %v", tt.name, tt.want, got)
		}
	}
}
