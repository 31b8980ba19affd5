package favorites

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/PatrickWalther/twitch-favorites-go/internal/document"
	"github.com/PatrickWalther/twitch-favorites-go/internal/models"
)

// StartRefresh runs the live refresh cycle on the configured interval until
// StopRefresh or ctx cancellation. The first pass runs immediately.
func (s *Store) StartRefresh(ctx context.Context) {
	s.mu.Lock()
	if s.refreshCancel != nil {
		s.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.refreshCancel = cancel
	done := make(chan struct{})
	s.refreshDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)

		s.Refresh(loopCtx)

		ticker := time.NewTicker(s.refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.Refresh(loopCtx)
			}
		}
	}()
}

func (s *Store) StopRefresh() {
	s.mu.Lock()
	cancel := s.refreshCancel
	done := s.refreshDone
	s.refreshCancel = nil
	s.refreshDone = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Refresh runs one live refresh pass: fan out one status lookup per
// favorite, rebuild the live cache wholesale, self-heal drifted display
// metadata, and maintain the edge-triggered filter-match timestamps. A pass
// already in flight makes this call a no-op.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		return
	}
	s.refreshing = true
	logins := make([]string, 0, len(s.doc.Favorites))
	for login := range s.doc.Favorites {
		logins = append(logins, login)
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refreshing = false
		s.mu.Unlock()
	}()

	if len(logins) == 0 {
		s.mu.Lock()
		s.live = make(map[string]models.LiveStatus)
		s.mu.Unlock()
		s.events.publish(LiveDataChanged{Statuses: map[string]models.LiveStatus{}})
		return
	}

	// Fan out; a failed lookup degrades to an offline record for that
	// login only and never aborts the batch.
	results := make([]models.LiveStatus, len(logins))
	var wg sync.WaitGroup
	for i, login := range logins {
		wg.Add(1)
		go func(i int, login string) {
			defer wg.Done()
			results[i] = s.client.ChannelStatus(ctx, login)
		}(i, login)
	}
	wg.Wait()

	next := make(map[string]models.LiveStatus, len(results))
	for _, status := range results {
		next[models.NormalizeLogin(status.Login)] = status
	}

	now := s.now().UnixMilli()
	if err := s.mutate(ctx, func(doc *models.StateDocument) bool {
		return mergeRefreshResults(doc, next, now)
	}); err != nil {
		slog.Error("Failed to persist refresh results", "error", err)
	}

	// Swap the cache, discarding records for logins removed while the
	// pass was in flight.
	s.mu.Lock()
	for login := range next {
		if _, exists := s.doc.Favorites[login]; !exists {
			delete(next, login)
		}
	}
	s.live = next
	snapshot := cloneLive(s.live)
	s.mu.Unlock()

	s.events.publish(LiveDataChanged{Statuses: snapshot})
}

// mergeRefreshResults folds one pass's results into the document draft.
// Display metadata drifts server-side over time and self-heals here without
// user action; filterMatchSince transitions are edge-triggered so a stream
// that switched into a filtered category hours after going live still opens
// a fresh recently-live window.
func mergeRefreshResults(doc *models.StateDocument, statuses map[string]models.LiveStatus, now int64) bool {
	changed := false

	for login, entry := range doc.Favorites {
		status, ok := statuses[login]
		if !ok {
			continue
		}

		// Offline-default records echo the login; folding those back
		// would clobber real stored metadata.
		if status.Resolved() {
			if status.DisplayName != "" && status.DisplayName != entry.DisplayName {
				entry.DisplayName = status.DisplayName
				changed = true
			}
			if status.AvatarURL != "" && status.AvatarURL != entry.AvatarURL {
				entry.AvatarURL = status.AvatarURL
				changed = true
			}
		}

		if entry.CategoryFilter.Active() {
			matches := status.IsLive && filterMatches(entry.CategoryFilter.Categories, status.Game)
			if matches && entry.FilterMatchSince == 0 {
				entry.FilterMatchSince = now
				changed = true
			} else if !matches && entry.FilterMatchSince != 0 {
				entry.FilterMatchSince = 0
				changed = true
			}
		} else if entry.FilterMatchSince != 0 {
			// A disabled filter must not leave a stale window open.
			entry.FilterMatchSince = 0
			changed = true
		}
	}

	return changed
}

func filterMatches(names []string, game string) bool {
	if game == "" {
		return false
	}
	key := document.FoldName(game)
	for _, name := range names {
		if document.FoldName(name) == key {
			return true
		}
	}
	return false
}
