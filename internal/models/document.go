package models

import (
	"encoding/json"
	"strings"
)

type SortMode string

const (
	SortViewersDesc  SortMode = "viewersDesc"
	SortAlphabetical SortMode = "alphabetical"
	SortRecent       SortMode = "recent"
)

// DefaultCategoryName is assigned to the category synthesized when a
// document ends up with no categories at all.
const DefaultCategoryName = "Favorites"

// StateDocument is the single persisted root: every favorite, the category
// forest, and the preference record. One document per installation.
type StateDocument struct {
	Favorites   map[string]*FavoriteEntry `json:"favorites"`
	Categories  []*Category               `json:"categories"`
	Preferences Preferences               `json:"preferences"`
}

type FavoriteEntry struct {
	Login              string         `json:"login"`
	DisplayName        string         `json:"displayName"`
	AvatarURL          string         `json:"avatarUrl"`
	Categories         CategoryRefs   `json:"categories"`
	AddedAt            int64          `json:"addedAt"`
	CategoryFilter     CategoryFilter `json:"categoryFilter"`
	FilterMatchSince   int64          `json:"filterMatchSince"`
	RecentHighlightRaw *bool          `json:"recentHighlightEnabled,omitempty"`
}

// CategoryRefs holds the category assignment of a favorite. Legacy documents
// stored either a bare string or a multi-element array; both decode here and
// the normalizer truncates to at most one id.
type CategoryRefs []string

func (c *CategoryRefs) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = CategoryRefs{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*c = CategoryRefs(many)
		return nil
	}
	*c = nil
	return nil
}

// CategoryID returns the assigned category id, or "" when uncategorized.
func (f *FavoriteEntry) CategoryID() string {
	if len(f.Categories) == 0 {
		return ""
	}
	return f.Categories[0]
}

// RecentHighlight reports whether this favorite participates in the
// recently-live grouping. Defaults to true when the field was never set.
func (f *FavoriteEntry) RecentHighlight() bool {
	return f.RecentHighlightRaw == nil || *f.RecentHighlightRaw
}

func (f *FavoriteEntry) Clone() *FavoriteEntry {
	if f == nil {
		return nil
	}
	clone := *f
	clone.Categories = append(CategoryRefs(nil), f.Categories...)
	clone.CategoryFilter = f.CategoryFilter.Clone()
	if f.RecentHighlightRaw != nil {
		v := *f.RecentHighlightRaw
		clone.RecentHighlightRaw = &v
	}
	return &clone
}

// CategoryFilter restricts a favorite's visibility to specific live
// categories. While enabled and non-empty, the favorite is only displayable
// when its live category matches one of the names.
type CategoryFilter struct {
	Enabled    bool     `json:"enabled"`
	Categories []string `json:"categories"`
}

func (c CategoryFilter) Clone() CategoryFilter {
	c.Categories = append([]string(nil), c.Categories...)
	return c
}

func (c CategoryFilter) Equal(other CategoryFilter) bool {
	if c.Enabled != other.Enabled || len(c.Categories) != len(other.Categories) {
		return false
	}
	for i := range c.Categories {
		if c.Categories[i] != other.Categories[i] {
			return false
		}
	}
	return true
}

// Active reports whether the filter actually constrains visibility.
func (c CategoryFilter) Active() bool {
	return c.Enabled && len(c.Categories) > 0
}

// Category is a user-defined hierarchical grouping. ParentID is "" for
// roots; the normalizer guarantees the parent graph is a forest.
type Category struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Collapsed bool    `json:"collapsed"`
	SortOrder float64 `json:"sortOrder"`
	ParentID  string  `json:"parentId,omitempty"`
}

func (c *Category) Clone() *Category {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

type Preferences struct {
	SortMode                   SortMode `json:"sortMode"`
	UncategorizedCollapsed     bool     `json:"uncategorizedCollapsed"`
	LiveFavoritesCollapsed     bool     `json:"liveFavoritesCollapsed"`
	RecentLiveCollapsed        bool     `json:"recentLiveCollapsed"`
	RecentLiveEnabledRaw       *bool    `json:"recentLiveEnabled,omitempty"`
	RecentLiveThresholdMinutes int      `json:"recentLiveThresholdMinutes"`
	ToastDurationSeconds       int      `json:"toastDurationSeconds"`
	ChatHistoryEnabled         bool     `json:"chatHistoryEnabled"`
	ModerationHistoryEnabled   bool     `json:"moderationHistoryEnabled"`
}

// RecentLiveEnabled defaults to true when the key was never persisted.
func (p Preferences) RecentLiveEnabled() bool {
	return p.RecentLiveEnabledRaw == nil || *p.RecentLiveEnabledRaw
}

func (p Preferences) Clone() Preferences {
	if p.RecentLiveEnabledRaw != nil {
		v := *p.RecentLiveEnabledRaw
		p.RecentLiveEnabledRaw = &v
	}
	return p
}

func DefaultPreferences() Preferences {
	enabled := true
	return Preferences{
		SortMode:                   SortViewersDesc,
		RecentLiveEnabledRaw:       &enabled,
		RecentLiveThresholdMinutes: 10,
		ToastDurationSeconds:       8,
	}
}

func (d *StateDocument) Clone() *StateDocument {
	if d == nil {
		return nil
	}
	clone := &StateDocument{
		Favorites:   make(map[string]*FavoriteEntry, len(d.Favorites)),
		Categories:  make([]*Category, 0, len(d.Categories)),
		Preferences: d.Preferences.Clone(),
	}
	for login, entry := range d.Favorites {
		clone.Favorites[login] = entry.Clone()
	}
	for _, category := range d.Categories {
		clone.Categories = append(clone.Categories, category.Clone())
	}
	return clone
}

// Category returns the category with the given id, or nil.
func (d *StateDocument) Category(id string) *Category {
	for _, category := range d.Categories {
		if category.ID == id {
			return category
		}
	}
	return nil
}

// NormalizeLogin canonicalizes a channel login for use as a favorites key.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}
