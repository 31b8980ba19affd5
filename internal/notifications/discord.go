package notifications

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Discord notification embed colors
const (
	ColorOnline  = 0x00FF00 // Green
	ColorOffline = 0xFF4545 // Red
)

type Notification struct {
	Title     string
	Message   string
	Channel   string
	ChannelID string
	Color     int
}

// DiscordProvider delivers notifications as embeds through a bot session.
type DiscordProvider struct {
	botToken string
	session  *discordgo.Session

	mu sync.RWMutex
}

func NewDiscordProvider(botToken string) *DiscordProvider {
	return &DiscordProvider{botToken: botToken}
}

func (d *DiscordProvider) IsConfigured() bool {
	return d.botToken != ""
}

// Connect establishes the Discord session.
func (d *DiscordProvider) Connect() error {
	if !d.IsConfigured() {
		return fmt.Errorf("discord not configured: missing bot token")
	}

	session, err := discordgo.New("Bot " + d.botToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	d.mu.Lock()
	d.session = session
	d.mu.Unlock()

	slog.Info("Discord notification provider connected")
	return nil
}

func (d *DiscordProvider) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session != nil {
		if err := d.session.Close(); err != nil {
			return err
		}
		d.session = nil
	}
	return nil
}

// Send delivers a notification to its Discord channel.
func (d *DiscordProvider) Send(notification Notification) error {
	d.mu.RLock()
	session := d.session
	d.mu.RUnlock()

	if session == nil {
		return fmt.Errorf("discord not connected")
	}

	if notification.ChannelID == "" {
		return fmt.Errorf("no channel ID specified for notification")
	}

	embed := &discordgo.MessageEmbed{
		Title:       notification.Title,
		Description: notification.Message,
		Color:       notification.Color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Twitch Favorites",
		},
	}

	if notification.Channel != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name: notification.Channel,
			URL:  fmt.Sprintf("https://twitch.tv/%s", notification.Channel),
		}
	}

	if _, err := session.ChannelMessageSendEmbed(notification.ChannelID, embed); err != nil {
		slog.Error("Failed to send Discord notification",
			"channel", notification.ChannelID,
			"error", err,
		)
		return fmt.Errorf("failed to send Discord message: %w", err)
	}

	slog.Debug("Discord notification sent", "channel", notification.ChannelID)
	return nil
}
