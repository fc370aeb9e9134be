package chathub_test

import (
	"forensiai/backend/internal/models"
	"sync"
)

type MockClient struct {
	officerID   string
	RecvChannel chan models.TeamMessage

	mu     sync.Mutex
	closed bool
}

func newMockClient(officerID string, buffer int) *MockClient {
	return &MockClient{
		officerID:   officerID,
		RecvChannel: make(chan models.TeamMessage, buffer),
	}
}

func (c *MockClient) GetOfficerID() string {
	return c.officerID
}

func (c *MockClient) GetSendChannel() chan<- models.TeamMessage {
	return c.RecvChannel
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
