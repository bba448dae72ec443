package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"WaReply/entity"
	"WaReply/internal/config"
	"WaReply/internal/lib/sl"
)

var ErrMissingCredentials = errors.New("missing WHATSAPP_TOKEN or PHONE_ID")

// APIError is a non-2xx answer from the Graph API.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	TraceID    string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("API error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	log           *slog.Logger
	accessToken   string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
}

func NewClient(conf *config.Config, log *slog.Logger) *Client {
	return &Client{
		log:           log.With(sl.Module("whatsapp.client")),
		accessToken:   conf.WhatsApp.AccessToken,
		phoneNumberID: conf.WhatsApp.PhoneNumberID,
		baseURL:       fmt.Sprintf("%s/%s", strings.TrimRight(conf.WhatsApp.GraphURL, "/"), conf.WhatsApp.APIVersion),
		httpClient:    &http.Client{Timeout: conf.SendTimeout()},
	}
}

// SendMessage sends a text message and returns the platform response, or
// nil when the message could not be sent. Errors are logged, never returned.
func (c *Client) SendMessage(ctx context.Context, recipientPhone, text string) *entity.SendResult {
	result, err := c.SendText(ctx, recipientPhone, text)
	if err != nil {
		c.log.Error("sending message",
			slog.String("recipient_phone", recipientPhone),
			sl.Err(err),
		)
		return nil
	}

	c.log.Info("message sent successfully",
		slog.String("recipient_phone", recipientPhone),
		slog.String("message_id", result.MessageID()),
	)
	return result
}

// SendText sends a text message to the specified recipient
func (c *Client) SendText(ctx context.Context, recipientPhone, text string) (*entity.SendResult, error) {
	if c.accessToken == "" || c.phoneNumberID == "" {
		return nil, ErrMissingCredentials
	}

	msg := entity.NewTextMessage(recipientPhone, text)
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	jsonBody, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}

	var result entity.SendResult
	if err = json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

func parseAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	envelope.Error.StatusCode = status
	return envelope.Error
}
