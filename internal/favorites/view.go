package favorites

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/PatrickWalther/twitch-favorites-go/internal/models"
)

// FavoriteView pairs a favorite with its current live status plus the
// derived flags UI consumers group on.
type FavoriteView struct {
	Entry        *models.FavoriteEntry `json:"entry"`
	Status       models.LiveStatus     `json:"status"`
	Displayable  bool                  `json:"displayable"`
	RecentlyLive bool                  `json:"recentlyLive"`
}

// Overview is the grouped, sorted snapshot consumed by renderers. Within
// each group the configured sort mode applies.
type Overview struct {
	Live        []FavoriteView     `json:"live"`
	RecentLive  []FavoriteView     `json:"recentLive"`
	Offline     []FavoriteView     `json:"offline"`
	Preferences models.Preferences `json:"preferences"`
}

// Overview derives the grouped favorites listing from the current document
// and live cache. A favorite with an active category filter is displayable
// only while the filter matches; the recently-live window is anchored on
// filterMatchSince when present, falling back to the stream start.
func (s *Store) Overview() *Overview {
	s.mu.Lock()
	doc := s.doc.Clone()
	live := cloneLive(s.live)
	now := s.now()
	s.mu.Unlock()

	prefs := doc.Preferences
	window := time.Duration(prefs.RecentLiveThresholdMinutes) * time.Minute

	overview := &Overview{Preferences: prefs}
	for login, entry := range doc.Favorites {
		status, ok := live[login]
		if !ok {
			status = models.OfflineStatus(login)
		}

		view := FavoriteView{
			Entry:       entry,
			Status:      status,
			Displayable: !entry.CategoryFilter.Active() || entry.FilterMatchSince > 0,
		}

		if !status.IsLive || !view.Displayable {
			overview.Offline = append(overview.Offline, view)
			continue
		}

		if prefs.RecentLiveEnabled() && entry.RecentHighlight() {
			anchor := time.UnixMilli(entry.FilterMatchSince)
			if entry.FilterMatchSince == 0 {
				anchor = status.StartedAt
			}
			if !anchor.IsZero() && now.Sub(anchor) <= window {
				view.RecentlyLive = true
			}
		}

		if view.RecentlyLive {
			overview.RecentLive = append(overview.RecentLive, view)
		} else {
			overview.Live = append(overview.Live, view)
		}
	}

	sortViews(overview.Live, prefs.SortMode)
	sortViews(overview.RecentLive, prefs.SortMode)
	sortViews(overview.Offline, prefs.SortMode)
	return overview
}

func sortViews(views []FavoriteView, mode models.SortMode) {
	collator := collate.New(language.Und, collate.IgnoreCase)

	sort.SliceStable(views, func(i, j int) bool {
		switch mode {
		case models.SortAlphabetical:
			return collator.CompareString(views[i].Entry.DisplayName, views[j].Entry.DisplayName) < 0
		case models.SortRecent:
			return views[i].Entry.AddedAt > views[j].Entry.AddedAt
		default: // viewersDesc
			if views[i].Status.Viewers != views[j].Status.Viewers {
				return views[i].Status.Viewers > views[j].Status.Viewers
			}
			return collator.CompareString(views[i].Entry.DisplayName, views[j].Entry.DisplayName) < 0
		}
	})
}
