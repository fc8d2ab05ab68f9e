package mqtt

import (
	"testing"

	"github.com/harveysanders/pulsecounter/pulsecounter/lcd"
)

func TestShowStatus(t *testing.T) {
	messages := make(chan lcd.Message, 1)
	if !showStatus(messages, stateConnected) {
		t.Fatal("status not queued")
	}
	msg := <-messages
	if string(msg.Line1) != "MQTT" || string(msg.Line2) != stateConnected {
		t.Errorf("unexpected message %q / %q", msg.Line1, msg.Line2)
	}
}

func TestShowStatusNoDisplay(t *testing.T) {
	if showStatus(nil, stateDialing) {
		t.Error("status reported as shown without a display")
	}
}
