package handler

import (
	"forensiai/backend/internal/chathub"
	"forensiai/backend/internal/models"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict to the dashboard origin once it is served from a fixed host.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type chatResponse struct {
	Messages []models.TeamMessage `json:"messages"`
	Unread   bool                 `json:"unread"`
	State    string               `json:"state"`
	Failed   []string             `json:"failed"`
}

// ChatMessages returns the team chat as this officer sees it.
func (h *Handler) ChatMessages(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	msgs := s.Chat.Messages()
	if msgs == nil {
		msgs = []models.TeamMessage{}
	}
	failed := s.Chat.FailedSends()
	if failed == nil {
		failed = []string{}
	}
	c.JSON(http.StatusOK, chatResponse{
		Messages: msgs,
		Unread:   s.Chat.HasUnread(),
		State:    s.Chat.State().String(),
		Failed:   failed,
	})
}

type chatRequest struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	FileName string `json:"fileName"`
}

// SendChat posts a team message. The message is shown at once; its write
// to the store finishes in the background.
func (h *Handler) SendChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Content == "" && req.FileName == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content or fileName is required"})
		return
	}
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	msg, err := s.Chat.Send(c.Request.Context(), models.TeamMessage{
		SenderID: actor(c).ID,
		Content:  req.Content,
		Type:     req.Type,
		FileName: req.FileName,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, msg)
}

func (h *Handler) MarkChatRead(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	s.Chat.MarkOpened()
	c.Status(http.StatusNoContent)
}

// ServeWebSocket upgrades the request and attaches the connection to the
// officer's chat for the case.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WARNING: WebSocket upgrade failed for officer %s: %v", actor(c).ID, err)
		return
	}

	client := chathub.NewWebSocketClient(actor(c).ID, conn, s.Chat)
	s.Chat.Register(client)
	client.Run()
}
