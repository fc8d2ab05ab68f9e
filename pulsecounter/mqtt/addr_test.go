package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/harveysanders/pulsecounter/pulsecounter/report"
)

func TestSplitHostPort(t *testing.T) {
	tests := []struct {
		addr     string
		host     string
		port     string
		wantFail bool
	}{
		{addr: "10.0.0.9:1883", host: "10.0.0.9", port: "1883"},
		{addr: "broker.local:8883", host: "broker.local", port: "8883"},
		{addr: "fe80::1:1883", host: "fe80::1", port: "1883"},
		{addr: "broker.local", wantFail: true},
		{addr: ":1883", wantFail: true},
		{addr: "broker.local:", wantFail: true},
	}
	for _, tt := range tests {
		host, port, err := splitHostPort(tt.addr)
		if tt.wantFail {
			if err == nil {
				t.Errorf("%q: expected error", tt.addr)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tt.addr, err)
			continue
		}
		if host != tt.host || port != tt.port {
			t.Errorf("%q: want %q %q, got %q %q", tt.addr, tt.host, tt.port, host, port)
		}
	}
}

func TestParsePort(t *testing.T) {
	tests := map[string]uint16{
		"1883":  1883,
		"65535": 65535,
		"65536": 0,
		"99999": 0,
		"18a3":  0,
		"":      0,
	}
	for in, want := range tests {
		if got := parsePort(in); got != want {
			t.Errorf("parsePort(%q): want %d, got %d", in, want, got)
		}
	}
}

func TestPayload(t *testing.T) {
	b, err := Payload(report.Snapshot{Count: 7, Clears: 2, Dropped: 1, SinceBoot: 3 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]int64
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]int64{"count": 7, "clears": 2, "dropped": 1, "since_boot": int64(3 * time.Second)}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: want %d, got %d", k, v, got[k])
		}
	}
}
