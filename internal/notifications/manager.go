package notifications

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/PatrickWalther/twitch-favorites-go/internal/config"
	"github.com/PatrickWalther/twitch-favorites-go/internal/favorites"
	"github.com/PatrickWalther/twitch-favorites-go/internal/models"
	"github.com/PatrickWalther/twitch-favorites-go/internal/util"
)

// Manager watches the store's live-data events and dispatches go-live
// notifications when a favorite transitions from offline to live.
type Manager struct {
	settings config.DiscordSettings
	discord  *DiscordProvider
	store    *favorites.Store

	events   chan favorites.Event
	done     chan struct{}
	previous map[string]bool
	mu       sync.Mutex
}

func NewManager(settings config.DiscordSettings, store *favorites.Store) *Manager {
	m := &Manager{
		settings: settings,
		store:    store,
		previous: make(map[string]bool),
	}
	if settings.Enabled {
		m.discord = NewDiscordProvider(settings.BotToken)
	}
	return m
}

// Start connects the provider and begins consuming store events.
func (m *Manager) Start() error {
	if m.discord == nil {
		return nil
	}
	if m.settings.ChannelID == "" {
		return fmt.Errorf("discord notifications enabled but no channel ID configured")
	}
	if err := m.discord.Connect(); err != nil {
		return err
	}

	m.events = m.store.Subscribe()
	m.done = make(chan struct{})
	go m.consume()
	return nil
}

func (m *Manager) Stop() {
	if m.discord == nil {
		return
	}
	if m.events != nil {
		m.store.Unsubscribe(m.events)
		<-m.done
	}
	if err := m.discord.Disconnect(); err != nil {
		slog.Error("Failed to disconnect Discord provider", "error", err)
	}
}

func (m *Manager) consume() {
	defer close(m.done)

	for event := range m.events {
		liveEvent, ok := event.(favorites.LiveDataChanged)
		if !ok {
			continue
		}
		m.handleLiveData(liveEvent.Statuses)
	}
}

func (m *Manager) handleLiveData(statuses map[string]models.LiveStatus) {
	m.mu.Lock()
	next := make(map[string]bool, len(statuses))
	var wentLive []models.LiveStatus
	for login, status := range statuses {
		next[login] = status.IsLive
		if status.IsLive && !m.previous[login] {
			wentLive = append(wentLive, status)
		}
	}
	first := len(m.previous) == 0
	m.previous = next
	m.mu.Unlock()

	// The first pass after startup only seeds the baseline; favorites that
	// were already live do not produce a notification storm.
	if first {
		return
	}

	for _, status := range wentLive {
		m.notifyOnline(status)
	}
}

func (m *Manager) notifyOnline(status models.LiveStatus) {
	message := status.Title
	if status.Game != "" {
		message = fmt.Sprintf("%s\nPlaying **%s** for %s viewers", status.Title, status.Game, util.FormatNumber(status.Viewers))
	}

	notification := Notification{
		Title:     fmt.Sprintf("🔴 %s is live", status.DisplayName),
		Message:   message,
		Channel:   status.Login,
		ChannelID: m.settings.ChannelID,
		Color:     ColorOnline,
	}

	if err := m.discord.Send(notification); err != nil {
		slog.Error("Failed to send go-live notification", "channel", status.Login, "error", err)
	}
}
