package mqtt

import (
	"encoding/json"
	"errors"

	"github.com/harveysanders/pulsecounter/pulsecounter/report"
)

// Topic is where snapshots are published.
const Topic = "pulsecounter/counts"

// Payload encodes a snapshot as the JSON message body.
func Payload(s report.Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// splitHostPort splits a host:port string into separate host and port components.
// Returns an error if the format is invalid.
func splitHostPort(addr string) (host, port string, err error) {
	// Last colon, so bracketless IPv6 hosts keep their colons.
	colonIdx := -1
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			colonIdx = i
			break
		}
	}
	if colonIdx == -1 {
		return "", "", errors.New("missing port in address")
	}

	host = addr[:colonIdx]
	port = addr[colonIdx+1:]
	if host == "" {
		return "", "", errors.New("empty host")
	}
	if port == "" {
		return "", "", errors.New("empty port")
	}
	return host, port, nil
}

// parsePort converts a decimal port string to uint16.
// Returns 0 if the string is not a valid port.
func parsePort(portStr string) uint16 {
	var port uint32
	for i := 0; i < len(portStr); i++ {
		if portStr[i] < '0' || portStr[i] > '9' {
			return 0
		}
		port = port*10 + uint32(portStr[i]-'0')
		if port > 65535 {
			return 0
		}
	}
	return uint16(port)
}
