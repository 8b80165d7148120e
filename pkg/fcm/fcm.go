// Package fcm is a minimal client for the FCM legacy HTTP send API.
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type Client struct {
	endpoint  string
	serverKey string
	http      *http.Client
}

func New(endpoint, serverKey string) *Client {
	return &Client{endpoint: endpoint, serverKey: serverKey, http: &http.Client{}}
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type message struct {
	To           string            `json:"to"`
	Notification notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

// SendToTopic delivers a notification to all subscribers of the named topic.
func (c *Client) SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error {
	payload, err := json.Marshal(message{
		To:           "/topics/" + topic,
		Notification: notification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("marshal fcm message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send to topic %s: %w", topic, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fcm API returned %d for topic %s: %s", resp.StatusCode, topic, string(b))
	}
	return nil
}
