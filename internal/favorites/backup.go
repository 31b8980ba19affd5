package favorites

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/PatrickWalther/twitch-favorites-go/internal/document"
	"github.com/PatrickWalther/twitch-favorites-go/internal/models"
)

// Restore errors are the one place the store raises distinguishable,
// catchable failures: import is the only user-triggered operation handling
// untrusted external data wholesale, and the UI needs a precise message.
var (
	ErrEmptyBackup     = errors.New("empty content")
	ErrInvalidBackup   = errors.New("invalid JSON")
	ErrMalformedBackup = errors.New("backup payload is not an object")
)

const backupVersion = 1

// Backup is the user-facing export format.
type Backup struct {
	Version     int                              `json:"version"`
	GeneratedAt string                           `json:"generatedAt"`
	Favorites   map[string]*models.FavoriteEntry `json:"favorites"`
	Categories  []*models.Category               `json:"categories"`
	Preferences models.Preferences               `json:"preferences"`
}

// BackupData produces a versioned export built from deep copies.
func (s *Store) BackupData() *Backup {
	s.mu.Lock()
	snapshot := s.doc.Clone()
	s.mu.Unlock()

	return &Backup{
		Version:     backupVersion,
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
		Favorites:   snapshot.Favorites,
		Categories:  snapshot.Categories,
		Preferences: snapshot.Preferences,
	}
}

// RestoreBackup fully replaces favorites, categories, and preference
// overrides from an untrusted payload. Every field is re-validated
// independently before any state is touched (all-or-nothing): entries that
// are not objects or carry no login are dropped, duplicate category ids are
// de-duplicated by suffixing, and numeric preferences are re-clamped by the
// normalizer on the way in.
func (s *Store) RestoreBackup(ctx context.Context, data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ErrEmptyBackup
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		var probe interface{}
		if json.Unmarshal(trimmed, &probe) != nil {
			return ErrInvalidBackup
		}
		return ErrMalformedBackup
	}

	favorites := restoreFavorites(payload["favorites"])
	categories := restoreCategories(payload["categories"])
	preferences := restorePreferences(payload["preferences"])

	return s.mutate(ctx, func(doc *models.StateDocument) bool {
		doc.Favorites = favorites
		doc.Categories = categories
		doc.Preferences = preferences
		return true
	})
}

func restoreFavorites(raw json.RawMessage) map[string]*models.FavoriteEntry {
	favorites := make(map[string]*models.FavoriteEntry)
	if len(raw) == 0 {
		return favorites
	}

	var entries map[string]json.RawMessage
	if json.Unmarshal(raw, &entries) != nil {
		return favorites
	}

	for key, rawEntry := range entries {
		login := models.NormalizeLogin(key)
		if login == "" {
			continue
		}
		var entry models.FavoriteEntry
		if json.Unmarshal(rawEntry, &entry) != nil {
			continue
		}
		entry.Login = login
		favorites[login] = &entry
	}
	return favorites
}

func restoreCategories(raw json.RawMessage) []*models.Category {
	var categories []*models.Category
	if len(raw) == 0 {
		return nil
	}
	if json.Unmarshal(raw, &categories) != nil {
		return nil
	}

	kept := categories[:0]
	for _, category := range categories {
		if category != nil {
			kept = append(kept, category)
		}
	}
	return kept
}

func restorePreferences(raw json.RawMessage) models.Preferences {
	preferences := models.DefaultPreferences()
	if len(raw) == 0 {
		return preferences
	}
	// Unknown keys are ignored. A zero means the key was absent (or
	// useless) and keeps its default; the normalizer re-clamps again when
	// the mutation applies.
	_ = json.Unmarshal(raw, &preferences)
	if preferences.RecentLiveThresholdMinutes != 0 {
		preferences.RecentLiveThresholdMinutes = document.ClampRecentLiveThreshold(preferences.RecentLiveThresholdMinutes)
	}
	if preferences.ToastDurationSeconds != 0 {
		preferences.ToastDurationSeconds = document.ClampToastDuration(preferences.ToastDurationSeconds)
	}
	return preferences
}
