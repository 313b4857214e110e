package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ExpoPushClient sends push notifications via Expo's Push API.
//
// The mobile app obtains an Expo push token ("ExponentPushToken[xxx]") and
// registers it with the backend; we POST to Expo's API with the recipient's
// tokens and Expo handles delivery to both iOS and Android.
type ExpoPushClient struct {
	httpClient *http.Client
}

// ExpoPushMessage is the payload for Expo's Push API.
type ExpoPushMessage struct {
	To       []string               `json:"to"`                 // Expo push tokens
	Title    string                 `json:"title,omitempty"`    // Notification title
	Body     string                 `json:"body"`               // Notification body (required)
	Data     map[string]interface{} `json:"data,omitempty"`     // Custom data payload
	Sound    string                 `json:"sound,omitempty"`    // "default" or custom sound
	Badge    *int                   `json:"badge,omitempty"`    // iOS badge count
	Priority string                 `json:"priority,omitempty"` // "default", "normal", "high"
}

// ExpoPushResponse is the response from Expo's API.
type ExpoPushResponse struct {
	Data []ExpoPushTicket `json:"data"`
}

type ExpoPushTicket struct {
	Status  string `json:"status"` // "ok" or "error"
	ID      string `json:"id"`     // Ticket ID for receipt checking
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"` // "DeviceNotRegistered", "MessageTooBig", etc.
	} `json:"details,omitempty"`
}

const expoPushURL = "https://exp.host/--/api/v2/push/send"

// NewExpoPushClient creates a new Expo Push client. No credentials needed.
func NewExpoPushClient() *ExpoPushClient {
	return &ExpoPushClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendToTokens sends a push notification to multiple Expo push tokens.
func (c *ExpoPushClient) SendToTokens(tokens []string, title, body string, data map[string]interface{}) error {
	if len(tokens) == 0 {
		return nil
	}

	// Filter to only valid Expo push tokens
	validTokens := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[") {
			validTokens = append(validTokens, token)
		} else {
			n := len(token)
			if n > 20 {
				n = 20
			}
			log.Printf("[ExpoPush] Skipping invalid token format: %s", token[:n])
		}
	}

	if len(validTokens) == 0 {
		log.Printf("[ExpoPush] No valid Expo tokens to send to")
		return nil
	}

	message := ExpoPushMessage{
		To:       validTokens,
		Title:    title,
		Body:     body,
		Sound:    "default",
		Priority: "high",
		Data:     data,
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequest("POST", expoPushURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expo api error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var pushResp ExpoPushResponse
	if err := json.Unmarshal(respBody, &pushResp); err != nil {
		log.Printf("[ExpoPush] Failed to parse response: %v", err)
		return nil // Push was accepted, don't fail on a parse error
	}

	successCount := 0
	failCount := 0
	for i, ticket := range pushResp.Data {
		if ticket.Status == "ok" {
			successCount++
		} else {
			failCount++
			log.Printf("[ExpoPush] Token %d failed: %s (error: %s)",
				i, ticket.Message, ticket.Details.Error)
		}
	}

	log.Printf("[ExpoPush] Sent to %d tokens: %d success, %d failed",
		len(validTokens), successCount, failCount)

	return nil
}

// SendToToken sends a push notification to a single token.
func (c *ExpoPushClient) SendToToken(token, title, body string, data map[string]interface{}) error {
	return c.SendToTokens([]string{token}, title, body, data)
}
