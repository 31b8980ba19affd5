package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PatrickWalther/twitch-favorites-go/internal/models"
	"github.com/PatrickWalther/twitch-favorites-go/internal/util"
)

// Client performs anonymous GQL lookups against Twitch. It is the live
// status boundary: ChannelStatus never fails past it — every network or
// shape error degrades to the offline-default record, so the refresh
// cycle's fan-out never has to special-case errors.
type Client struct {
	gqlURL        string
	deviceID      string
	clientSession string
	userAgent     string
	client        *http.Client
}

func NewClient() *Client {
	return &Client{
		gqlURL:        GQLURL,
		deviceID:      util.RandomHex(16),
		clientSession: util.RandomHex(16),
		userAgent:     BrowserUserAgent,
		client:        &http.Client{Timeout: 20 * time.Second},
	}
}

// NewClientWithURL is used by tests to point the client at a stub server.
func NewClientWithURL(gqlURL string) *Client {
	c := NewClient()
	c.gqlURL = gqlURL
	return c
}

// ChannelStatus looks up the live status of a channel login. On any failure
// it returns the offline-default record for that login.
func (c *Client) ChannelStatus(ctx context.Context, login string) models.LiveStatus {
	login = models.NormalizeLogin(login)
	status := models.OfflineStatus(login)
	if login == "" {
		return status
	}

	op := VideoPlayerStreamInfoOverlayChannel.WithVariables(map[string]interface{}{
		"channel": login,
	})

	resp, err := c.postGQL(ctx, op)
	if err != nil {
		slog.Debug("Live status lookup failed", "login", login, "error", err)
		return status
	}

	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		return status
	}
	user, ok := data["user"].(map[string]interface{})
	if !ok || user == nil {
		return status
	}

	if displayName, ok := user["displayName"].(string); ok && displayName != "" {
		status.DisplayName = displayName
	}
	if avatar, ok := user["profileImageURL"].(string); ok && avatar != "" {
		status.AvatarURL = avatar
	}

	broadcastSettings, _ := user["broadcastSettings"].(map[string]interface{})

	stream, ok := user["stream"].(map[string]interface{})
	if !ok || stream == nil {
		return status
	}

	status.IsLive = true
	if viewers, ok := stream["viewersCount"].(float64); ok {
		status.Viewers = int(viewers)
	}
	if createdAt, ok := stream["createdAt"].(string); ok {
		if startedAt, err := time.Parse(time.RFC3339, createdAt); err == nil {
			status.StartedAt = startedAt
		}
	}
	if broadcastSettings != nil {
		if title, ok := broadcastSettings["title"].(string); ok {
			status.Title = strings.TrimSpace(title)
		}
		if game, ok := broadcastSettings["game"].(map[string]interface{}); ok && game != nil {
			if name, ok := game["displayName"].(string); ok && name != "" {
				status.Game = name
			} else if name, ok := game["name"].(string); ok {
				status.Game = name
			}
		}
	}

	return status
}

func (c *Client) postGQL(ctx context.Context, operation GQLOperation) (map[string]interface{}, error) {
	body, err := json.Marshal(operation)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal operation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.gqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Client-Id", ClientIDBrowser)
	req.Header.Set("Client-Session-Id", c.clientSession)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Device-Id", c.deviceID)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return result, nil
}
