package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PatrickWalther/twitch-favorites-go/internal/document"
	"github.com/PatrickWalther/twitch-favorites-go/internal/models"
)

// Adapter is the durable, replicated key-value boundary the store persists
// through. Reads return found=false on first run; writes are whole-document
// replacements; Watch fires when another context writes the same key.
type Adapter interface {
	Load(ctx context.Context) (raw []byte, found bool, err error)
	Store(ctx context.Context, raw []byte) error
	Watch(fn func(raw []byte))
	Close() error
}

// StatusClient is the live-status lookup boundary. Implementations must not
// fail: any error degrades to the offline-default record.
type StatusClient interface {
	ChannelStatus(ctx context.Context, login string) models.LiveStatus
}

// Store is the single source of truth for the favorites document and the
// live-status cache. Every mutation goes through one serialized path:
// clone the current document, apply the draft edit, re-normalize, persist,
// swap, broadcast. Subscribers only ever receive deep-copied snapshots.
type Store struct {
	adapter Adapter
	client  StatusClient
	events  *broadcaster

	refreshInterval time.Duration

	mu         sync.Mutex
	doc        *models.StateDocument
	live       map[string]models.LiveStatus
	refreshing bool

	refreshCancel context.CancelFunc
	refreshDone   chan struct{}

	// now is swapped out by tests that pin the clock.
	now func() time.Time
}

func NewStore(adapter Adapter, client StatusClient, refreshInterval time.Duration) *Store {
	if refreshInterval <= 0 {
		refreshInterval = 2 * time.Minute
	}
	return &Store{
		adapter:         adapter,
		client:          client,
		events:          newBroadcaster(),
		refreshInterval: refreshInterval,
		doc:             models.DefaultDocument(),
		live:            make(map[string]models.LiveStatus),
		now:             time.Now,
	}
}

// Load bootstraps the in-memory document from the adapter and begins
// watching for writes from other contexts. A missing or undecodable
// persisted document falls back to the default one; a corrupted document
// must never leave the store permanently broken.
func (s *Store) Load(ctx context.Context) error {
	raw, found, err := s.adapter.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state document: %w", err)
	}

	doc := models.DefaultDocument()
	if found {
		doc = decodeDocument(raw)
	}
	document.Normalize(doc)

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	if !found {
		normalized, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode state document: %w", err)
		}
		if err := s.adapter.Store(ctx, normalized); err != nil {
			return fmt.Errorf("failed to bootstrap state document: %w", err)
		}
		slog.Info("Bootstrapped default state document")
	}

	s.adapter.Watch(s.handleRemoteChange)
	return nil
}

func decodeDocument(raw []byte) *models.StateDocument {
	var doc models.StateDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Warn("Persisted state document is undecodable, starting fresh", "error", err)
		return models.DefaultDocument()
	}
	return &doc
}

// handleRemoteChange treats a write from another context as an
// authoritative overwrite: normalized, swapped in, broadcast. In-flight
// local edits are not merged; last writer wins at the persistence layer.
func (s *Store) handleRemoteChange(raw []byte) {
	doc := decodeDocument(raw)
	document.Normalize(doc)

	s.mu.Lock()
	s.doc = doc
	snapshot := doc.Clone()
	s.mu.Unlock()

	slog.Debug("Applied remote state document")
	s.events.publish(StateChanged{Document: snapshot})
}

// mutate is the single serialized mutation path. apply edits a deep copy of
// the current document and reports whether anything changed; unchanged
// drafts skip persistence and broadcast entirely (the idempotence
// contract). The mutex is held across the persistence write so two
// mutations never interleave their read-modify-write.
func (s *Store) mutate(ctx context.Context, apply func(doc *models.StateDocument) bool) error {
	s.mu.Lock()

	draft := s.doc.Clone()
	if !apply(draft) {
		s.mu.Unlock()
		return nil
	}
	document.Normalize(draft)

	raw, err := json.Marshal(draft)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to encode state document: %w", err)
	}
	if err := s.adapter.Store(ctx, raw); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to persist state document: %w", err)
	}

	s.doc = draft
	snapshot := draft.Clone()
	s.mu.Unlock()

	s.events.publish(StateChanged{Document: snapshot})
	return nil
}

// Subscribe registers an event listener. Callers must Unsubscribe on
// teardown.
func (s *Store) Subscribe() chan Event {
	return s.events.Subscribe()
}

func (s *Store) Unsubscribe(ch chan Event) {
	s.events.Unsubscribe(ch)
}

// Document returns a deep-copied snapshot of the current document.
func (s *Store) Document() *models.StateDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// LiveStatuses returns a copy of the live-status cache.
func (s *Store) LiveStatuses() map[string]models.LiveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLive(s.live)
}

func cloneLive(live map[string]models.LiveStatus) map[string]models.LiveStatus {
	clone := make(map[string]models.LiveStatus, len(live))
	for login, status := range live {
		clone[login] = status
	}
	return clone
}

// CategoriesTree builds the validated category forest for UI consumers.
func (s *Store) CategoriesTree() []*document.TreeNode {
	s.mu.Lock()
	categories := s.doc.Clone().Categories
	s.mu.Unlock()
	return document.BuildTree(categories)
}

// AddFavorite pins a channel. The live status is fetched as part of the add
// so the new entry starts with the correct display name and avatar; a
// failed lookup falls back to the login and the default avatar. Adding an
// already-present login is a no-op.
func (s *Store) AddFavorite(ctx context.Context, login string) error {
	login = models.NormalizeLogin(login)
	if login == "" {
		return nil
	}

	status := s.client.ChannelStatus(ctx, login)
	addedAt := s.now().UnixMilli()

	err := s.mutate(ctx, func(doc *models.StateDocument) bool {
		if _, exists := doc.Favorites[login]; exists {
			return false
		}
		doc.Favorites[login] = &models.FavoriteEntry{
			Login:       login,
			DisplayName: status.DisplayName,
			AvatarURL:   status.AvatarURL,
			AddedAt:     addedAt,
		}
		return true
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if _, exists := s.doc.Favorites[login]; exists {
		s.live[login] = status
	}
	snapshot := cloneLive(s.live)
	s.mu.Unlock()

	s.events.publish(LiveDataChanged{Statuses: snapshot})
	return nil
}

// RemoveFavorite deletes the entry and its cached live-status record.
func (s *Store) RemoveFavorite(ctx context.Context, login string) error {
	login = models.NormalizeLogin(login)

	err := s.mutate(ctx, func(doc *models.StateDocument) bool {
		if _, exists := doc.Favorites[login]; !exists {
			return false
		}
		delete(doc.Favorites, login)
		return true
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	_, hadStatus := s.live[login]
	delete(s.live, login)
	snapshot := cloneLive(s.live)
	s.mu.Unlock()

	if hadStatus {
		s.events.publish(LiveDataChanged{Statuses: snapshot})
	}
	return nil
}

// SetFavoriteCategory assigns a favorite to a category, or to none when
// categoryID is "". Unknown logins and unknown category ids are no-ops, as
// is re-assigning the current category.
func (s *Store) SetFavoriteCategory(ctx context.Context, login, categoryID string) error {
	login = models.NormalizeLogin(login)

	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		entry, exists := doc.Favorites[login]
		if !exists {
			return false
		}
		if categoryID != "" && doc.Category(categoryID) == nil {
			return false
		}
		if entry.CategoryID() == categoryID {
			return false
		}
		if categoryID == "" {
			entry.Categories = nil
		} else {
			entry.Categories = models.CategoryRefs{categoryID}
		}
		return true
	})
}

// FilterUpdate is a partial edit of a favorite's category filter. Nil
// fields keep the current value.
type FilterUpdate struct {
	Enabled    *bool
	Categories []string
}

// SetFavoriteCategoryFilter merges the update onto the existing filter.
// Any effective change resets filterMatchSince to zero: the recently-live
// window is conservatively re-established from scratch after a filter edit.
func (s *Store) SetFavoriteCategoryFilter(ctx context.Context, login string, update FilterUpdate) error {
	login = models.NormalizeLogin(login)

	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		entry, exists := doc.Favorites[login]
		if !exists {
			return false
		}

		next := entry.CategoryFilter.Clone()
		if update.Enabled != nil {
			next.Enabled = *update.Enabled
		}
		if update.Categories != nil {
			next.Categories = document.SanitizeFilterNames(update.Categories)
		}
		if next.Equal(entry.CategoryFilter) {
			return false
		}

		entry.CategoryFilter = next
		entry.FilterMatchSince = 0
		return true
	})
}

// SetFavoriteRecentHighlight opts a favorite in or out of the
// recently-live grouping.
func (s *Store) SetFavoriteRecentHighlight(ctx context.Context, login string, enabled bool) error {
	login = models.NormalizeLogin(login)

	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		entry, exists := doc.Favorites[login]
		if !exists || entry.RecentHighlight() == enabled {
			return false
		}
		entry.RecentHighlightRaw = &enabled
		return true
	})
}

// CreateCategory appends a new category under parentID (root when "" or
// unknown) and returns its id. A blank name is silently ignored.
func (s *Store) CreateCategory(ctx context.Context, name, parentID string) (string, error) {
	name = trimmedName(name)
	if name == "" {
		return "", nil
	}

	id := uuid.NewString()
	err := s.mutate(ctx, func(doc *models.StateDocument) bool {
		if parentID != "" && doc.Category(parentID) == nil {
			parentID = ""
		}
		maxOrder := 0.0
		for _, category := range doc.Categories {
			if category.SortOrder > maxOrder {
				maxOrder = category.SortOrder
			}
		}
		doc.Categories = append(doc.Categories, &models.Category{
			ID:        id,
			Name:      name,
			SortOrder: maxOrder + 1,
			ParentID:  parentID,
		})
		return true
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) RenameCategory(ctx context.Context, id, name string) error {
	name = trimmedName(name)
	if name == "" {
		return nil
	}

	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		category := doc.Category(id)
		if category == nil || category.Name == name {
			return false
		}
		category.Name = name
		return true
	})
}

// RemoveCategory deletes a category and reparents its direct children to
// the deleted node's own parent, never cascading. Favorites assigned to the
// deleted category keep their now-dangling reference; consumers treat
// unresolvable ids as uncategorized.
func (s *Store) RemoveCategory(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		removed := doc.Category(id)
		if removed == nil {
			return false
		}

		kept := doc.Categories[:0]
		for _, category := range doc.Categories {
			if category.ID == id {
				continue
			}
			if category.ParentID == id {
				category.ParentID = removed.ParentID
			}
			kept = append(kept, category)
		}
		doc.Categories = kept
		return true
	})
}

func (s *Store) ToggleCategoryCollapse(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		category := doc.Category(id)
		if category == nil {
			return false
		}
		category.Collapsed = !category.Collapsed
		return true
	})
}

func (s *Store) SetSortMode(ctx context.Context, mode models.SortMode) error {
	switch mode {
	case models.SortViewersDesc, models.SortAlphabetical, models.SortRecent:
	default:
		return nil
	}

	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		if doc.Preferences.SortMode == mode {
			return false
		}
		doc.Preferences.SortMode = mode
		return true
	})
}

func (s *Store) SetUncategorizedCollapsed(ctx context.Context, collapsed bool) error {
	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		if doc.Preferences.UncategorizedCollapsed == collapsed {
			return false
		}
		doc.Preferences.UncategorizedCollapsed = collapsed
		return true
	})
}

func (s *Store) ToggleLiveFavoritesCollapsed(ctx context.Context) error {
	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		doc.Preferences.LiveFavoritesCollapsed = !doc.Preferences.LiveFavoritesCollapsed
		return true
	})
}

func (s *Store) ToggleRecentLiveCollapsed(ctx context.Context) error {
	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		doc.Preferences.RecentLiveCollapsed = !doc.Preferences.RecentLiveCollapsed
		return true
	})
}

func (s *Store) SetRecentLiveEnabled(ctx context.Context, enabled bool) error {
	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		if doc.Preferences.RecentLiveEnabled() == enabled {
			return false
		}
		doc.Preferences.RecentLiveEnabledRaw = &enabled
		return true
	})
}

// SetRecentLiveThreshold sets the recently-live window in minutes, clamped
// to [1,120].
func (s *Store) SetRecentLiveThreshold(ctx context.Context, minutes int) error {
	minutes = document.ClampRecentLiveThreshold(minutes)

	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		if doc.Preferences.RecentLiveThresholdMinutes == minutes {
			return false
		}
		doc.Preferences.RecentLiveThresholdMinutes = minutes
		return true
	})
}

// SetToastDuration sets the toast display time in seconds, clamped to
// [2,60].
func (s *Store) SetToastDuration(ctx context.Context, seconds int) error {
	seconds = document.ClampToastDuration(seconds)

	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		if doc.Preferences.ToastDurationSeconds == seconds {
			return false
		}
		doc.Preferences.ToastDurationSeconds = seconds
		return true
	})
}

func (s *Store) SetChatHistoryEnabled(ctx context.Context, enabled bool) error {
	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		if doc.Preferences.ChatHistoryEnabled == enabled {
			return false
		}
		doc.Preferences.ChatHistoryEnabled = enabled
		return true
	})
}

func (s *Store) SetModerationHistoryEnabled(ctx context.Context, enabled bool) error {
	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		if doc.Preferences.ModerationHistoryEnabled == enabled {
			return false
		}
		doc.Preferences.ModerationHistoryEnabled = enabled
		return true
	})
}

// Close stops the refresh loop and the adapter watcher.
func (s *Store) Close() error {
	s.StopRefresh()
	return s.adapter.Close()
}

func trimmedName(name string) string {
	return strings.TrimSpace(name)
}
