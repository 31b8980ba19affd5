package favorites

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrickWalther/twitch-favorites-go/internal/models"
)

func TestRefresh_NoFavoritesClearsCache(t *testing.T) {
	store, adapter := newTestStore(t, newScriptedClient())

	events := store.Subscribe()
	defer store.Unsubscribe(events)

	writes := adapter.writes()
	store.Refresh(context.Background())

	assert.Empty(t, store.LiveStatuses())
	assert.Equal(t, writes, adapter.writes())

	received := drainEvents(events)
	require.Len(t, received, 1)
	live, ok := received[0].(LiveDataChanged)
	require.True(t, ok)
	assert.Empty(t, live.Statuses)
}

func TestRefresh_PopulatesLiveCache(t *testing.T) {
	client := newScriptedClient()
	store, _ := newTestStore(t, client)
	require.NoError(t, store.AddFavorite(context.Background(), "alpha"))
	require.NoError(t, store.AddFavorite(context.Background(), "beta"))

	client.set("alpha", models.LiveStatus{DisplayName: "Alpha", IsLive: true, Viewers: 10, Game: "Music"})
	store.Refresh(context.Background())

	live := store.LiveStatuses()
	require.Len(t, live, 2)
	assert.True(t, live["alpha"].IsLive)
	assert.False(t, live["beta"].IsLive, "failed lookups degrade to the offline record")
	assert.Equal(t, "beta", live["beta"].DisplayName)
}

func TestRefresh_SelfHealsDisplayMetadata(t *testing.T) {
	client := newScriptedClient()
	client.set("chan", models.LiveStatus{DisplayName: "OldName", AvatarURL: "https://example.com/old.png", IsLive: true})
	store, adapter := newTestStore(t, client)
	require.NoError(t, store.AddFavorite(context.Background(), "chan"))

	client.set("chan", models.LiveStatus{DisplayName: "NewName", AvatarURL: "https://example.com/new.png", IsLive: true})
	writes := adapter.writes()
	store.Refresh(context.Background())

	entry := store.Document().Favorites["chan"]
	assert.Equal(t, "NewName", entry.DisplayName)
	assert.Equal(t, "https://example.com/new.png", entry.AvatarURL)
	assert.Equal(t, writes+1, adapter.writes())
}

func TestRefresh_OfflineDefaultDoesNotClobberMetadata(t *testing.T) {
	client := newScriptedClient()
	client.set("chan", models.LiveStatus{DisplayName: "RealName", AvatarURL: "https://example.com/real.png", IsLive: true})
	store, adapter := newTestStore(t, client)
	require.NoError(t, store.AddFavorite(context.Background(), "chan"))

	// The next lookup fails and produces the offline echo.
	client.clear("chan")
	writes := adapter.writes()
	store.Refresh(context.Background())

	entry := store.Document().Favorites["chan"]
	assert.Equal(t, "RealName", entry.DisplayName)
	assert.Equal(t, "https://example.com/real.png", entry.AvatarURL)
	assert.Equal(t, writes, adapter.writes(), "an unresolved pass must not rewrite the document")

	assert.False(t, store.LiveStatuses()["chan"].IsLive)
}

func TestRefresh_FilterMatchWindowIsEdgeTriggered(t *testing.T) {
	client := newScriptedClient()
	store, _ := newTestStore(t, client)
	require.NoError(t, store.AddFavorite(context.Background(), "chan"))

	enabled := true
	require.NoError(t, store.SetFavoriteCategoryFilter(context.Background(), "chan", FilterUpdate{
		Enabled:    &enabled,
		Categories: []string{"Music"},
	}))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	// Live in a non-matching category: the window stays closed.
	client.set("chan", models.LiveStatus{DisplayName: "Chan", IsLive: true, Game: "Just Chatting"})
	store.Refresh(context.Background())
	assert.Zero(t, store.Document().Favorites["chan"].FilterMatchSince)

	// Switching into a matching category opens the window at that instant.
	matchTime := base.Add(5 * time.Minute)
	store.now = func() time.Time { return matchTime }
	client.set("chan", models.LiveStatus{DisplayName: "Chan", IsLive: true, Game: "Music"})
	store.Refresh(context.Background())
	assert.Equal(t, matchTime.UnixMilli(), store.Document().Favorites["chan"].FilterMatchSince)

	// Still matching on a later pass: the timestamp does not advance.
	store.now = func() time.Time { return base.Add(30 * time.Minute) }
	store.Refresh(context.Background())
	assert.Equal(t, matchTime.UnixMilli(), store.Document().Favorites["chan"].FilterMatchSince)

	// Switching away closes the window.
	client.set("chan", models.LiveStatus{DisplayName: "Chan", IsLive: true, Game: "Art"})
	store.Refresh(context.Background())
	assert.Zero(t, store.Document().Favorites["chan"].FilterMatchSince)
}

func TestRefresh_FilterMatchesIgnoreCaseAndDiacritics(t *testing.T) {
	client := newScriptedClient()
	store, _ := newTestStore(t, client)
	require.NoError(t, store.AddFavorite(context.Background(), "chan"))

	enabled := true
	require.NoError(t, store.SetFavoriteCategoryFilter(context.Background(), "chan", FilterUpdate{
		Enabled:    &enabled,
		Categories: []string{"Día de Juegos"},
	}))

	client.set("chan", models.LiveStatus{DisplayName: "Chan", IsLive: true, Game: "dia de juegos"})
	store.Refresh(context.Background())

	assert.NotZero(t, store.Document().Favorites["chan"].FilterMatchSince)
}

func TestRefresh_DisabledFilterClearsStaleWindow(t *testing.T) {
	client := newScriptedClient()
	store, _ := newTestStore(t, client)
	require.NoError(t, store.AddFavorite(context.Background(), "chan"))

	enabled := true
	require.NoError(t, store.SetFavoriteCategoryFilter(context.Background(), "chan", FilterUpdate{
		Enabled:    &enabled,
		Categories: []string{"Music"},
	}))

	client.set("chan", models.LiveStatus{DisplayName: "Chan", IsLive: true, Game: "Music"})
	store.Refresh(context.Background())
	require.NotZero(t, store.Document().Favorites["chan"].FilterMatchSince)

	disabled := false
	require.NoError(t, store.SetFavoriteCategoryFilter(context.Background(), "chan", FilterUpdate{Enabled: &disabled}))
	assert.Zero(t, store.Document().Favorites["chan"].FilterMatchSince)

	store.Refresh(context.Background())
	assert.Zero(t, store.Document().Favorites["chan"].FilterMatchSince)
}

func TestRefresh_OfflineChannelClosesWindow(t *testing.T) {
	client := newScriptedClient()
	store, _ := newTestStore(t, client)
	require.NoError(t, store.AddFavorite(context.Background(), "chan"))

	enabled := true
	require.NoError(t, store.SetFavoriteCategoryFilter(context.Background(), "chan", FilterUpdate{
		Enabled:    &enabled,
		Categories: []string{"Music"},
	}))

	client.set("chan", models.LiveStatus{DisplayName: "Chan", IsLive: true, Game: "Music"})
	store.Refresh(context.Background())
	require.NotZero(t, store.Document().Favorites["chan"].FilterMatchSince)

	client.set("chan", models.LiveStatus{DisplayName: "Chan", IsLive: false, Game: "Music"})
	store.Refresh(context.Background())
	assert.Zero(t, store.Document().Favorites["chan"].FilterMatchSince)
}

func TestStartRefresh_StopIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t, newScriptedClient())

	store.StartRefresh(context.Background())
	store.StartRefresh(context.Background()) // second start is a no-op

	store.StopRefresh()
	store.StopRefresh()
}

func TestRefresh_CoalescesEvents(t *testing.T) {
	client := newScriptedClient()
	store, _ := newTestStore(t, client)
	require.NoError(t, store.AddFavorite(context.Background(), "chan"))

	client.set("chan", models.LiveStatus{DisplayName: "Renamed", IsLive: true, Viewers: 5})
	events := store.Subscribe()
	defer store.Unsubscribe(events)

	store.Refresh(context.Background())

	received := drainEvents(events)
	require.Len(t, received, 2, "one coalesced state event plus one live event per pass")
	assert.IsType(t, StateChanged{}, received[0])
	assert.IsType(t, LiveDataChanged{}, received[1])
}
