// Package api serves the liveness probe, the Telegram webhook and the
// read-only admin API.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/susu3304/tipbot/internal/db"
	"github.com/susu3304/tipbot/internal/logging"
)

// Store is the data the admin API reads.
type Store interface {
	ListGroups(ctx context.Context) ([]db.Group, error)
	GetGroup(ctx context.Context, id int64) (*db.Group, error)
	ListReactions(ctx context.Context, groupID int64, messageID string) ([]db.Reaction, error)
	ListPendingRewards(ctx context.Context) ([]db.Reward, error)
	GetReward(ctx context.Context, username string) (int, error)
}

type Options struct {
	Store  Store
	Logger logging.Logger
	// Webhook receives Telegram updates on WebhookPath when both are set.
	Webhook     http.Handler
	WebhookPath string
	JWTSecret   string
	Bind        string
}

type API struct {
	router    *mux.Router
	store     Store
	logger    logging.Logger
	jwtSecret []byte
	bind      string
}

func New(opts Options) *API {
	api := &API{
		router:    mux.NewRouter(),
		store:     opts.Store,
		logger:    opts.Logger,
		jwtSecret: []byte(opts.JWTSecret),
		bind:      opts.Bind,
	}

	api.setupRoutes(opts.Webhook, opts.WebhookPath)
	return api
}

func (a *API) setupRoutes(webhook http.Handler, webhookPath string) {
	a.router.Use(a.logRequests)

	a.router.HandleFunc("/", a.handleRoot).Methods("GET")
	if webhook != nil && webhookPath != "" {
		a.router.Handle(webhookPath, webhook).Methods("POST")
	}

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/groups", a.handleListGroups).Methods("GET")
	protected.HandleFunc("/groups/{group_id}", a.handleGetGroup).Methods("GET")
	protected.HandleFunc("/groups/{group_id}/messages/{message_id}/reactions", a.handleListReactions).Methods("GET")
	protected.HandleFunc("/rewards", a.handleListRewards).Methods("GET")
	protected.HandleFunc("/rewards/{username}", a.handleGetReward).Methods("GET")
}

// Handler returns the router wrapped with CORS.
func (a *API) Handler() http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Start serves until ctx is done, then shuts down gracefully.
func (a *API) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.bind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "API server listening", "addr", a.bind)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		// the webhook path embeds the bot token
		path := r.URL.Path
		if strings.HasPrefix(path, "/bot") {
			path = "/bot<token>"
		}
		a.logger.Debug(r.Context(), "http request",
			"method", r.Method, "path", path, "status", rec.status, "duration", time.Since(start))
	})
}
