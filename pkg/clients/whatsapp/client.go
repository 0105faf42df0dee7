package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/stockscan/internal/config"
)

// Client sends operator notifications over the WhatsApp Cloud API.
type Client interface {
	SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient    *resty.Client
	phoneNumberID string
}

// NewClient builds a WhatsApp API client using the provided configuration values.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New().
		SetBaseURL(fmt.Sprintf("%s/%s", base, cfg.APIVersion)).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{
		httpClient:    restyClient,
		phoneNumberID: cfg.PhoneNumberID,
	}
}

// SendTextMessageRequest is a plain text message for one recipient.
type SendTextMessageRequest struct {
	To   string
	Body string
}

// SendTextMessageResponse mirrors the successful response from Meta.
type SendTextMessageResponse struct {
	Messages []MessageID `json:"messages"`
}

// MessageID identifies an accepted outbound message.
type MessageID struct {
	ID string `json:"id"`
}

// APIError is returned when Meta rejects a request.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	FBTraceID  string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	code := e.Code
	if code == 0 {
		code = e.StatusCode
	}
	return fmt.Sprintf("whatsapp api error: code=%d, message=%s", code, e.Message)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// SendTextMessage posts a text message to the configured phone number.
func (c *APIClient) SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error) {
	payload := textMessage{
		MessagingProduct: "whatsapp",
		To:               req.To,
		Type:             "text",
		Text:             textBody{Body: req.Body},
	}

	result := new(SendTextMessageResponse)
	envelope := new(errorEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(result).
		SetError(envelope).
		Post(fmt.Sprintf("%s/messages", c.phoneNumberID))
	if err != nil {
		return nil, fmt.Errorf("send whatsapp message: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		apiErr := envelope.Error
		apiErr.StatusCode = resp.StatusCode()
		return nil, &apiErr
	}

	return result, nil
}
