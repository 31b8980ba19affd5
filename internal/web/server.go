package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/PatrickWalther/twitch-favorites-go/internal/config"
	"github.com/PatrickWalther/twitch-favorites-go/internal/favorites"
)

// Server exposes the store's subscribe/mutate/query contract over a local
// JSON API. It is a subscriber surface only; all state logic lives in the
// store.
type Server struct {
	host  string
	port  int
	store *favorites.Store

	server *http.Server
}

func NewServer(settings config.WebSettings, store *favorites.Store) *Server {
	return &Server{
		host:  settings.Host,
		port:  settings.Port,
		store: store,
	}
}

func getAuthCredentials() (username, password string) {
	return os.Getenv("DASHBOARD_USERNAME"), os.Getenv("DASHBOARD_PASSWORD")
}

func authEnabled() bool {
	username, password := getAuthCredentials()
	return username != "" && password != ""
}

func basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expectedUser, expectedPass := getAuthCredentials()
		if expectedUser == "" || expectedPass == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || user != expectedUser || pass != expectedPass {
			w.Header().Set("WWW-Authenticate", `Basic realm="Twitch Favorites"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/overview", s.handleOverview)
	mux.HandleFunc("/api/favorites", s.handleFavorites)
	mux.HandleFunc("/api/favorites/", s.handleFavorite)
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/categories/", s.handleCategory)
	mux.HandleFunc("/api/categories/tree", s.handleCategoriesTree)
	mux.HandleFunc("/api/preferences", s.handlePreferences)
	mux.HandleFunc("/api/backup", s.handleBackup)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
	mux.HandleFunc("/api/events", s.handleEvents)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var handler http.Handler = mux
	if authEnabled() {
		handler = basicAuthMiddleware(mux)
		slog.Info("Web server authentication enabled")
	}

	s.server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	slog.Info("Web server starting", "url", "http://"+addr+"/")

	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("Web server error", "error", err)
		}
	}()
}

func (s *Server) Stop() {
	if s.server != nil {
		_ = s.server.Close()
	}
}
