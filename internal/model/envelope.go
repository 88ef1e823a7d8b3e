package model

// Envelope is the JSON frame exchanged over the WebSocket.
type Envelope struct {
	Type string `json:"type"`
	Body any    `json:"body,omitempty"`
}

const (
	EnvelopeNotification = "notification"
	EnvelopePing         = "ping"
	EnvelopePong         = "pong"
	EnvelopeEcho         = "echo"
)
