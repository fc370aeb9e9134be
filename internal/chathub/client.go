package chathub

import "forensiai/backend/internal/models"

// Client is a connected consumer of a case's team chat (e.g., a browser
// over WebSocket). The bus pushes every merged message into its send
// channel without blocking; a client that falls behind is dropped.
type Client interface {
	// GetOfficerID returns the officer the connection belongs to.
	GetOfficerID() string

	// GetSendChannel returns the channel the bus writes merged messages to.
	GetSendChannel() chan<- models.TeamMessage

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the send side; it must be safe to call twice.
	Close()
}
