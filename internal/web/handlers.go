package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/PatrickWalther/twitch-favorites-go/internal/favorites"
	"github.com/PatrickWalther/twitch-favorites-go/internal/models"
	"github.com/PatrickWalther/twitch-favorites-go/internal/util"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeNotAllowed(w)
		return
	}
	writeJSONOK(w, s.store.Overview())
}

type favoriteItem struct {
	Entry    *models.FavoriteEntry `json:"entry"`
	Status   models.LiveStatus     `json:"status"`
	AddedAgo string                `json:"addedAgo"`
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		doc := s.store.Document()
		live := s.store.LiveStatuses()

		items := make([]favoriteItem, 0, len(doc.Favorites))
		for login, entry := range doc.Favorites {
			status, ok := live[login]
			if !ok {
				status = models.OfflineStatus(login)
			}
			items = append(items, favoriteItem{
				Entry:    entry,
				Status:   status,
				AddedAgo: util.FormatTimeAgo(entry.AddedAt),
			})
		}
		writeJSONOK(w, items)

	case http.MethodPost:
		var req struct {
			Login string `json:"login"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Login) == "" {
			writeBadRequest(w, "login is required")
			return
		}
		if err := s.store.AddFavorite(r.Context(), req.Login); err != nil {
			writeInternalError(w, err.Error())
			return
		}
		writeSuccess(w)

	default:
		writeNotAllowed(w)
	}
}

type favoriteUpdate struct {
	CategoryID      *string `json:"categoryId"`
	RecentHighlight *bool   `json:"recentHighlight"`
	Filter          *struct {
		Enabled    *bool    `json:"enabled"`
		Categories []string `json:"categories"`
	} `json:"filter"`
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	login := strings.TrimPrefix(r.URL.Path, "/api/favorites/")
	if login == "" {
		writeBadRequest(w, "login is required")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		if err := s.store.RemoveFavorite(r.Context(), login); err != nil {
			writeInternalError(w, err.Error())
			return
		}
		writeSuccess(w)

	case http.MethodPatch:
		var req favoriteUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
		if req.CategoryID != nil {
			if err := s.store.SetFavoriteCategory(r.Context(), login, *req.CategoryID); err != nil {
				writeInternalError(w, err.Error())
				return
			}
		}
		if req.Filter != nil {
			update := favorites.FilterUpdate{
				Enabled:    req.Filter.Enabled,
				Categories: req.Filter.Categories,
			}
			if err := s.store.SetFavoriteCategoryFilter(r.Context(), login, update); err != nil {
				writeInternalError(w, err.Error())
				return
			}
		}
		if req.RecentHighlight != nil {
			if err := s.store.SetFavoriteRecentHighlight(r.Context(), login, *req.RecentHighlight); err != nil {
				writeInternalError(w, err.Error())
				return
			}
		}
		writeSuccess(w)

	default:
		writeNotAllowed(w)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSONOK(w, s.store.Document().Categories)

	case http.MethodPost:
		var req struct {
			Name     string `json:"name"`
			ParentID string `json:"parentId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
			writeBadRequest(w, "name is required")
			return
		}
		id, err := s.store.CreateCategory(r.Context(), req.Name, req.ParentID)
		if err != nil {
			writeInternalError(w, err.Error())
			return
		}
		writeJSONOK(w, map[string]string{"id": id})

	default:
		writeNotAllowed(w)
	}
}

func (s *Server) handleCategoriesTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeNotAllowed(w)
		return
	}
	writeJSONOK(w, s.store.CategoriesTree())
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/categories/")
	if id == "" || id == "tree" {
		writeBadRequest(w, "category id is required")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		if err := s.store.RemoveCategory(r.Context(), id); err != nil {
			writeInternalError(w, err.Error())
			return
		}
		writeSuccess(w)

	case http.MethodPatch:
		var req struct {
			Name           *string `json:"name"`
			ToggleCollapse bool    `json:"toggleCollapse"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
		if req.Name != nil {
			if err := s.store.RenameCategory(r.Context(), id, *req.Name); err != nil {
				writeInternalError(w, err.Error())
				return
			}
		}
		if req.ToggleCollapse {
			if err := s.store.ToggleCategoryCollapse(r.Context(), id); err != nil {
				writeInternalError(w, err.Error())
				return
			}
		}
		writeSuccess(w)

	default:
		writeNotAllowed(w)
	}
}

type preferencesUpdate struct {
	SortMode                   *string `json:"sortMode"`
	UncategorizedCollapsed     *bool   `json:"uncategorizedCollapsed"`
	RecentLiveEnabled          *bool   `json:"recentLiveEnabled"`
	RecentLiveThresholdMinutes *int    `json:"recentLiveThresholdMinutes"`
	ToastDurationSeconds       *int    `json:"toastDurationSeconds"`
	ChatHistoryEnabled         *bool   `json:"chatHistoryEnabled"`
	ModerationHistoryEnabled   *bool   `json:"moderationHistoryEnabled"`
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSONOK(w, s.store.Document().Preferences)

	case http.MethodPatch:
		var req preferencesUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
		ctx := r.Context()
		if req.SortMode != nil {
			if err := s.store.SetSortMode(ctx, models.SortMode(*req.SortMode)); err != nil {
				writeInternalError(w, err.Error())
				return
			}
		}
		if req.UncategorizedCollapsed != nil {
			if err := s.store.SetUncategorizedCollapsed(ctx, *req.UncategorizedCollapsed); err != nil {
				writeInternalError(w, err.Error())
				return
			}
		}
		if req.RecentLiveEnabled != nil {
			if err := s.store.SetRecentLiveEnabled(ctx, *req.RecentLiveEnabled); err != nil {
				writeInternalError(w, err.Error())
				return
			}
		}
		if req.RecentLiveThresholdMinutes != nil {
			if err := s.store.SetRecentLiveThreshold(ctx, *req.RecentLiveThresholdMinutes); err != nil {
				writeInternalError(w, err.Error())
				return
			}
		}
		if req.ToastDurationSeconds != nil {
			if err := s.store.SetToastDuration(ctx, *req.ToastDurationSeconds); err != nil {
				writeInternalError(w, err.Error())
				return
			}
		}
		if req.ChatHistoryEnabled != nil {
			if err := s.store.SetChatHistoryEnabled(ctx, *req.ChatHistoryEnabled); err != nil {
				writeInternalError(w, err.Error())
				return
			}
		}
		if req.ModerationHistoryEnabled != nil {
			if err := s.store.SetModerationHistoryEnabled(ctx, *req.ModerationHistoryEnabled); err != nil {
				writeInternalError(w, err.Error())
				return
			}
		}
		writeSuccess(w)

	default:
		writeNotAllowed(w)
	}
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Disposition", `attachment; filename="favorites-backup.json"`)
		writeJSONOK(w, s.store.BackupData())

	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeBadRequest(w, "failed to read request body")
			return
		}
		if err := s.store.RestoreBackup(r.Context(), body); err != nil {
			switch {
			case errors.Is(err, favorites.ErrEmptyBackup),
				errors.Is(err, favorites.ErrInvalidBackup),
				errors.Is(err, favorites.ErrMalformedBackup):
				writeBadRequest(w, err.Error())
			default:
				writeInternalError(w, err.Error())
			}
			return
		}
		writeSuccess(w)

	default:
		writeNotAllowed(w)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeNotAllowed(w)
		return
	}
	s.store.Refresh(r.Context())
	writeSuccess(w)
}
