package mqtt

import "github.com/harveysanders/pulsecounter/pulsecounter/lcd"

// Connection states shown on the second display line.
const (
	stateDialing      = "dialing..."
	stateConnectFail  = "connect failed"
	stateTimedOut     = "timed out"
	stateConnected    = "connected"
	stateReconnecting = "reconnecting..."
)

// showStatus puts the connection state on the display, if there is one.
func showStatus(lcdMessages chan<- lcd.Message, state string) bool {
	return lcd.Send(lcdMessages, "MQTT", state)
}
