package chathub

import (
	"context"
	"encoding/json"
	"forensiai/backend/internal/config"
	"forensiai/backend/internal/models"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// outgoing is what a browser sends: the bus fills in id, sender and time.
type outgoing struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	FileName string `json:"fileName,omitempty"`
}

// WebSocketClient implements Client over a gorilla websocket.
type WebSocketClient struct {
	OfficerID string
	Conn      *websocket.Conn
	Bus       *Bus
	Send      chan models.TeamMessage

	closeOnce sync.Once
}

func NewWebSocketClient(officerID string, conn *websocket.Conn, bus *Bus) *WebSocketClient {
	return &WebSocketClient{
		OfficerID: officerID,
		Conn:      conn,
		Bus:       bus,
		Send:      make(chan models.TeamMessage, config.ClientBufferSize),
	}
}

func (c *WebSocketClient) GetOfficerID() string                      { return c.OfficerID }
func (c *WebSocketClient) GetSendChannel() chan<- models.TeamMessage { return c.Send }

// Run starts both pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes Send, which stops writePump.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Bus.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			break
		}

		var in outgoing
		if err := json.Unmarshal(data, &in); err != nil {
			log.Printf("Error decoding JSON from officer %s: %v", c.OfficerID, err)
			continue
		}
		if in.Content == "" && in.FileName == "" {
			continue
		}

		msg := models.TeamMessage{
			SenderID: c.OfficerID,
			Content:  in.Content,
			Type:     in.Type,
			FileName: in.FileName,
		}
		if _, err := c.Bus.Send(context.Background(), msg); err != nil {
			log.Printf("WARNING: Chat message from %s rejected: %v", c.OfficerID, err)
		}
	}
}

// writePump writes every message from Send to the socket, one frame each.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The bus closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				log.Printf("Error writing to officer %s: %v", c.OfficerID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
