package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// WebhookNotifier implements LoginNotifier by sending a POST request to a
// webhook URL for every kicked login attempt.
type WebhookNotifier struct {
	url         string
	requireUser bool

	client *http.Client
}

const webhookEventLoginKicked = "login-kicked"

// WebhookNotifierPayload is the JSON body posted to the webhook URL.
type WebhookNotifierPayload struct {
	Event       string      `json:"event"`
	Timestamp   time.Time   `json:"timestamp"`
	Client      *ClientInfo `json:"client"`
	PlayerInfo  *PlayerInfo `json:"player,omitempty"`
	KickMessage string      `json:"kick_message"`
}

func NewWebhookNotifier(url string, requireUser bool) *WebhookNotifier {
	return &WebhookNotifier{
		url:         url,
		requireUser: requireUser,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *WebhookNotifier) NotifyKickedLogin(ctx context.Context, clientAddr net.Addr, playerInfo *PlayerInfo, kickMessage string) error {
	if w.requireUser && (playerInfo == nil || playerInfo.Name == "") {
		return nil
	}

	payload := &WebhookNotifierPayload{
		Event:       webhookEventLoginKicked,
		Timestamp:   time.Now(),
		Client:      ClientInfoFromAddr(clientAddr),
		PlayerInfo:  playerInfo,
		KickMessage: kickMessage,
	}

	return w.send(ctx, payload)
}

func (w *WebhookNotifier) send(ctx context.Context, payload *WebhookNotifierPayload) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %v", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		w.url,
		bytes.NewBuffer(jsonPayload),
	)
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")

	go func() {
		resp, err := w.client.Do(req)
		if err != nil {
			log.Printf("Failed to send webhook notification: %v", err)
			return
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 400 {
			logrus.
				WithField("status", resp.StatusCode).
				Warn("webhook receiver responded with an error")
		}
	}()

	return nil
}
