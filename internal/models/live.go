package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAvatarURL is the Twitch placeholder avatar, used whenever a lookup
// could not resolve a real profile image.
const DefaultAvatarURL = "https://static-cdn.jtvnw.net/user-default-pictures-uv/75305d54-c7cc-40d1-bb9c-91fbe85943c7-profile_image-70x70.png"

// LiveStatus is the ephemeral per-channel broadcast state. It is never
// persisted; the refresh cycle rebuilds the whole map on every pass.
type LiveStatus struct {
	Login       string    `json:"login"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
	IsLive      bool      `json:"isLive"`
	Viewers     int       `json:"viewers"`
	Title       string    `json:"title"`
	Game        string    `json:"game"`
	StartedAt   time.Time `json:"startedAt"`
}

// OfflineStatus is the fixed shape every failed lookup degrades to. The
// login is echoed as display name so callers never see an empty record.
func OfflineStatus(login string) LiveStatus {
	login = NormalizeLogin(login)
	return LiveStatus{
		Login:       login,
		DisplayName: login,
		AvatarURL:   DefaultAvatarURL,
	}
}

// Resolved reports whether the record carries real profile metadata rather
// than the offline-default echo, i.e. whether it is safe to fold its display
// name and avatar back into the persisted favorite.
func (s LiveStatus) Resolved() bool {
	return s.IsLive || s.DisplayName != s.Login || s.AvatarURL != DefaultAvatarURL
}

// NewDefaultCategory synthesizes the category every document starts with.
func NewDefaultCategory() *Category {
	return &Category{
		ID:   uuid.NewString(),
		Name: DefaultCategoryName,
	}
}

// DefaultDocument bootstraps the document used on first run, before anything
// has been persisted.
func DefaultDocument() *StateDocument {
	return &StateDocument{
		Favorites:   make(map[string]*FavoriteEntry),
		Categories:  []*Category{NewDefaultCategory()},
		Preferences: DefaultPreferences(),
	}
}
