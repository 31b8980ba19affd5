package document

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/PatrickWalther/twitch-favorites-go/internal/models"
)

// UnnamedCategory replaces a blank category name during repair.
const UnnamedCategory = "Unnamed"

// repairStep is one discrete, independently testable rule of the integrity
// pass. Steps run in a fixed order; each must be idempotent so the pass as a
// whole is.
type repairStep struct {
	name string
	fn   func(doc *models.StateDocument)
}

var repairSteps = []repairStep{
	{"preferences", repairPreferences},
	{"categories", repairCategories},
	{"category-parents", breakParentCycles},
	{"default-category", ensureDefaultCategory},
	{"favorites", repairFavorites},
}

// Normalize deterministically repairs a document into a structurally valid
// one. It runs after every load, every remote overwrite, and every mutation;
// mutations are arbitrary draft edits and are not trusted to preserve
// invariants themselves. Idempotent: Normalize(Normalize(d)) == Normalize(d).
func Normalize(doc *models.StateDocument) {
	for _, step := range repairSteps {
		step.fn(doc)
	}
}

func repairPreferences(doc *models.StateDocument) {
	prefs := &doc.Preferences
	switch prefs.SortMode {
	case models.SortViewersDesc, models.SortAlphabetical, models.SortRecent:
	default:
		prefs.SortMode = models.SortViewersDesc
	}
	if prefs.RecentLiveEnabledRaw == nil {
		enabled := true
		prefs.RecentLiveEnabledRaw = &enabled
	}
	if prefs.RecentLiveThresholdMinutes == 0 {
		prefs.RecentLiveThresholdMinutes = models.DefaultPreferences().RecentLiveThresholdMinutes
	}
	prefs.RecentLiveThresholdMinutes = ClampRecentLiveThreshold(prefs.RecentLiveThresholdMinutes)
	if prefs.ToastDurationSeconds == 0 {
		prefs.ToastDurationSeconds = models.DefaultPreferences().ToastDurationSeconds
	}
	prefs.ToastDurationSeconds = ClampToastDuration(prefs.ToastDurationSeconds)
}

// ClampRecentLiveThreshold bounds the recently-live window to [1,120] minutes.
func ClampRecentLiveThreshold(minutes int) int {
	if minutes < 1 {
		return 1
	}
	if minutes > 120 {
		return 120
	}
	return minutes
}

// ClampToastDuration bounds the toast display time to [2,60] seconds.
func ClampToastDuration(seconds int) int {
	if seconds < 2 {
		return 2
	}
	if seconds > 60 {
		return 60
	}
	return seconds
}

func repairCategories(doc *models.StateDocument) {
	if doc.Categories == nil {
		doc.Categories = []*models.Category{}
	}

	kept := doc.Categories[:0]
	for _, category := range doc.Categories {
		if category == nil {
			continue
		}
		kept = append(kept, category)
	}
	doc.Categories = kept

	seen := make(map[string]bool, len(doc.Categories))
	for i, category := range doc.Categories {
		category.ID = strings.TrimSpace(category.ID)
		if category.ID == "" {
			category.ID = uuid.NewString() + "-" + strconv.Itoa(i)
		}
		category.ID = dedupeID(category.ID, seen)
		seen[category.ID] = true

		if strings.TrimSpace(category.Name) == "" {
			category.Name = UnnamedCategory
		}
		if math.IsNaN(category.SortOrder) || math.IsInf(category.SortOrder, 0) {
			category.SortOrder = 0
		}
		category.ParentID = strings.TrimSpace(category.ParentID)
	}
}

// dedupeID suffixes a duplicate id until it is unique within the repair pass.
func dedupeID(id string, seen map[string]bool) string {
	if !seen[id] {
		return id
	}
	for n := 2; ; n++ {
		candidate := id + "-" + strconv.Itoa(n)
		if !seen[candidate] {
			return candidate
		}
	}
}

// breakParentCycles severs any parent link that is dangling, self-referring,
// or part of a cycle, so the final parent graph is a forest regardless of how
// the cycle was introduced (manual edit, backup import, remote write).
func breakParentCycles(doc *models.StateDocument) {
	byID := make(map[string]*models.Category, len(doc.Categories))
	for _, category := range doc.Categories {
		byID[category.ID] = category
	}

	for _, category := range doc.Categories {
		if category.ParentID == "" {
			continue
		}
		visited := map[string]bool{category.ID: true}
		current := category
		for current.ParentID != "" {
			parent, ok := byID[current.ParentID]
			if !ok || visited[parent.ID] {
				category.ParentID = ""
				break
			}
			visited[parent.ID] = true
			current = parent
		}
	}
}

func ensureDefaultCategory(doc *models.StateDocument) {
	if len(doc.Categories) == 0 {
		doc.Categories = append(doc.Categories, models.NewDefaultCategory())
	}
}

func repairFavorites(doc *models.StateDocument) {
	if doc.Favorites == nil {
		doc.Favorites = make(map[string]*models.FavoriteEntry)
	}

	for key, entry := range doc.Favorites {
		login := models.NormalizeLogin(key)
		if entry == nil || login == "" {
			delete(doc.Favorites, key)
			continue
		}
		if login != key {
			delete(doc.Favorites, key)
			doc.Favorites[login] = entry
		}
		entry.Login = login

		// Legacy multi-value assignment collapses to the first element.
		// A dangling id is deliberately left in place; tree consumers
		// treat unresolvable ids as uncategorized.
		if len(entry.Categories) > 1 {
			entry.Categories = entry.Categories[:1]
		}
		if len(entry.Categories) == 1 && strings.TrimSpace(entry.Categories[0]) == "" {
			entry.Categories = nil
		}

		entry.CategoryFilter.Categories = SanitizeFilterNames(entry.CategoryFilter.Categories)
		if entry.FilterMatchSince < 0 {
			entry.FilterMatchSince = 0
		}
		if entry.AddedAt < 0 {
			entry.AddedAt = 0
		}
		if entry.RecentHighlightRaw == nil {
			enabled := true
			entry.RecentHighlightRaw = &enabled
		}
	}
}
