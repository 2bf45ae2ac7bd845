// Package baselinerd wires the orchestrator and trainer daemons and their
// cobra commands.
package baselinerd

import "time"

var (
	logLevel    = "info"
	mqttAddress = "tcp://localhost:1883"
	mqttTimeout = 30 * time.Second
	mqttQOS     = 2
	channelID   = ""
	clientID    = ""
	clientKey   = ""
	dataDir     = "./data"
)
