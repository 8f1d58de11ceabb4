// Package notify provides a webhook client for announcing platform events.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ranz0c/leakhub/internal/config"
	"github.com/ranz0c/leakhub/internal/models"
	"github.com/ranz0c/leakhub/pkg/logger"
)

// Client posts announcement messages to a chat webhook.
type Client struct {
	webhookURL string
	channel    string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new webhook client.
func NewClient(cfg *config.NotifyConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		enabled:    cfg.Enabled,
		httpClient: http.DefaultClient,
		log:        log,
	}
}

// Message represents a webhook message payload.
type Message struct {
	Channel  string `json:"channel,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text,omitempty"`
	IconURL  string `json:"icon_url,omitempty"`
}

// SendMessage sends a message to the webhook.
func (c *Client) SendMessage(ctx context.Context, msg *Message) error {
	if !c.enabled {
		c.log.Debug().Msg("Notifications are disabled, skipping message")
		return nil
	}

	if msg.Channel == "" {
		msg.Channel = c.channel
	}
	if msg.Username == "" {
		msg.Username = "LeakHub"
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	c.log.Debug().
		Str("channel", msg.Channel).
		Msg("Sent webhook message")

	return nil
}

// AnnounceAchievement announces an achievement unlock.
func (c *Client) AnnounceAchievement(ctx context.Context, username string, achievement models.Achievement) error {
	text := fmt.Sprintf("%s **%s** unlocked **%s** (+%d points)\n_%s_",
		achievement.Icon, username, achievement.Name, achievement.Points, achievement.Description)
	return c.SendMessage(ctx, &Message{Text: text})
}

// AnnounceFirstDiscovery announces the first leak of a target.
func (c *Client) AnnounceFirstDiscovery(ctx context.Context, username, targetKey string) error {
	text := fmt.Sprintf("🔍 **First discovery!** @%s leaked `%s`", username, targetKey)
	return c.SendMessage(ctx, &Message{Text: text})
}

// SendDailyDigest summarizes the day's activity and the current challenge.
func (c *Client) SendDailyDigest(ctx context.Context, submissions, verifications, unlocks int, challenge *models.DailyChallenge) error {
	text := fmt.Sprintf("### 📋 Daily Digest\n\n**%d** new submissions, **%d** newly verified leaks, **%d** achievements unlocked.\n",
		submissions, verifications, unlocks)

	if challenge != nil {
		text += fmt.Sprintf("\n🎯 Today's challenge: leak **%s** for **%d** points!", challenge.TargetModel, challenge.Reward)
	}

	return c.SendMessage(ctx, &Message{Text: text})
}
