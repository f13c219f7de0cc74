package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/convoflow/engine/internal/store"
	"github.com/convoflow/engine/pkg/api"
	"github.com/convoflow/engine/pkg/log"
)

// Provider payload paths for the first message of a webhook delivery
const (
	msgPath     = "entry.0.changes.0.value.messages.0"
	channelPath = "entry.0.changes.0.value.metadata.phone_number_id"
)

// handleWebhookVerify answers the provider's subscription handshake:
// echo hub.challenge when the verify token matches
func (s *Server) handleWebhookVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == s.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.Status(http.StatusForbidden)
}

// handleWebhookMessage extracts the sender address and message text from
// the provider payload and hands them to the engine. Deliveries without a
// message (status updates and the like) are acknowledged and ignored
func (s *Server) handleWebhookMessage(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  "Failed to read request body",
			Status: http.StatusBadRequest,
		})
		return
	}

	message := gjson.GetBytes(body, msgPath)
	if !message.Exists() {
		c.Status(http.StatusOK)
		return
	}

	msg := api.InboundMessage{
		FromAddress: message.Get("from").String(),
		Text:        message.Get("text.body").String(),
		ChannelID:   api.ChannelID(gjson.GetBytes(body, channelPath).String()),
	}

	err = s.engine.ProcessIncomingMessage(c.Request.Context(), msg)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Fatal for this message only; the webhook is still
			// acknowledged so the provider does not retry it
			slog.Error("Message from unknown user",
				log.Address(msg.FromAddress),
				log.ChannelID(msg.ChannelID))
			c.Status(http.StatusOK)
			return
		}

		slog.Error("Failed to process inbound message",
			log.ChannelID(msg.ChannelID),
			log.Error(err))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Error:  "Failed to process message",
			Status: http.StatusInternalServerError,
		})
		return
	}

	c.Status(http.StatusOK)
}
