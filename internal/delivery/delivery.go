// Package delivery renders flow steps and pushes them to users over their
// messaging channel. The engine treats delivery as fire and forget; retries,
// if any, belong to the provider.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/convoflow/engine/pkg/api"
	"github.com/convoflow/engine/pkg/log"
)

type (
	// Sender delivers one rendered step to the session's user. A nil step
	// is valid (empty flow) and sends the configured fallback text
	Sender interface {
		SendStep(
			ctx context.Context, user *api.User, session *api.Session,
			step *api.Step, channel *api.ChannelConfig,
		) error
	}

	// HTTPSender delivers steps through a Graph-API-style messages
	// endpoint: POST {endpoint}/{channelID}/messages with bearer auth
	HTTPSender struct {
		httpClient *http.Client
		endpoint   string
		token      string
		fallback   string
	}

	textPayload struct {
		MessagingProduct string   `json:"messaging_product"`
		To               string   `json:"to"`
		Type             string   `json:"type"`
		Text             textBody `json:"text"`
	}

	textBody struct {
		Body string `json:"body"`
	}
)

// DefaultFallbackText is sent when a session has no step to deliver
const DefaultFallbackText = "Sorry, there is nothing to do here right now."

var (
	ErrDeliveryFailed = errors.New("delivery request failed")
	ErrUserNil        = errors.New("cannot deliver to nil user")
)

var _ Sender = (*HTTPSender)(nil)

// NewHTTPSender creates a sender against the given messages endpoint
func NewHTTPSender(
	endpoint, token, fallback string, timeout time.Duration,
) *HTTPSender {
	if fallback == "" {
		fallback = DefaultFallbackText
	}
	return &HTTPSender{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint: endpoint,
		token:    token,
		fallback: fallback,
	}
}

// SendStep renders the step and posts it to the user's channel
func (d *HTTPSender) SendStep(
	ctx context.Context, user *api.User, session *api.Session,
	step *api.Step, channel *api.ChannelConfig,
) error {
	if user == nil {
		return ErrUserNil
	}

	body := d.fallback
	if step != nil {
		body = RenderStep(step)
	}

	payload := textPayload{
		MessagingProduct: "whatsapp",
		To:               user.Address,
		Type:             "text",
		Text:             textBody{Body: body},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", d.endpoint, channel.ID)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewBuffer(data),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.token)

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	dur := time.Since(start)

	if err != nil {
		slog.Error("Delivery request failed",
			log.SessionID(session.ID),
			log.ChannelID(channel.ID),
			slog.Duration("duration", dur),
			log.Error(err))
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		slog.Error("Delivery rejected",
			log.SessionID(session.ID),
			log.ChannelID(channel.ID),
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(respBody)))
		return fmt.Errorf("%w: HTTP %d", ErrDeliveryFailed, resp.StatusCode)
	}

	return nil
}
