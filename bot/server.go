package bot

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type inboundMessage struct {
	ChatID string `json:"chat_id" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

type outboundMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Router builds the inbound webhook endpoint for the chat gateway. The
// reply to each message is returned synchronously in the response body.
func (b *Bot) Router() *gin.Engine {
	router := gin.Default()

	router.POST("/webhook", func(c *gin.Context) {
		var msg inboundMessage
		if err := c.ShouldBindJSON(&msg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message"})
			return
		}

		reply := b.HandleMessage(c.Request.Context(), msg.ChatID, msg.Text)
		c.JSON(http.StatusOK, outboundMessage{ChatID: msg.ChatID, Text: reply})
	})

	return router
}
