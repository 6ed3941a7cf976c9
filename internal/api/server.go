// Package api exposes the application over HTTP: auth, event CRUD,
// wishlist, bookings and the dashboard projections. Handlers are thin;
// every mutation goes through the gateway and every read drains one
// snapshot from the corresponding live collection.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/eventflow-app/eventflow/internal/auth"
	"github.com/eventflow-app/eventflow/internal/collection"
	"github.com/eventflow-app/eventflow/internal/gateway"
	"github.com/eventflow-app/eventflow/internal/models"
	"github.com/eventflow-app/eventflow/internal/store"
)

const snapshotTimeout = 5 * time.Second

type Server struct {
	auth     *auth.Service
	gw       *gateway.Gateway
	events   *collection.Collection[models.Event]
	wishlist *collection.Collection[models.Event]
	bookings *collection.Collection[models.Booking]
	profile  *collection.Node[models.User]
	log      *logrus.Logger
	router   chi.Router
}

func NewServer(
	authSvc *auth.Service,
	gw *gateway.Gateway,
	events *collection.Collection[models.Event],
	wishlist *collection.Collection[models.Event],
	bookings *collection.Collection[models.Booking],
	profile *collection.Node[models.User],
	log *logrus.Logger,
) *Server {
	s := &Server{
		auth:     authSvc,
		gw:       gw,
		events:   events,
		wishlist: wishlist,
		bookings: bookings,
		profile:  profile,
		log:      log,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/signup", s.handleSignUp)
	r.Post("/api/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/api/logout", s.handleLogout)
		r.Put("/api/profile", s.handleUpdateProfile)
		r.Get("/api/profile", s.handleGetProfile)
		r.Delete("/api/account", s.handleDeleteAccount)

		r.Get("/api/events", s.handleListEvents)
		r.Post("/api/events", s.handleSaveEvent)
		r.Get("/api/events/{eventID}", s.handleGetEvent)
		r.Delete("/api/events/{eventID}", s.handleDeleteEvent)

		r.Get("/api/wishlist", s.handleListWishlist)
		r.Put("/api/wishlist/{eventID}", s.handleAddToWishlist)
		r.Delete("/api/wishlist/{eventID}", s.handleRemoveFromWishlist)

		r.Get("/api/bookings", s.handleListBookings)
		r.Post("/api/bookings", s.handleCreateBooking)

		r.Get("/api/dashboard", s.handleDashboard)
	})

	s.router = r
}

type contextKey string

const userIDKey contextKey = "userID"

// requireAuth resolves the bearer token into the caller's user id. The
// token must carry a live session, so a logout revokes it immediately.
// It alone does not grant access to data: collections and the gateway
// still compare the id against the signed-in identity.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			s.respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.auth.Authenticate(r.Context(), header[len(prefix):])
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// respondOpError maps domain errors onto HTTP statuses.
func (s *Server) respondOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingField):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		s.respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, gateway.ErrWrongOwner), errors.Is(err, auth.ErrNotSignedIn):
		s.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrEmailExists):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrTimeout):
		s.respondError(w, http.StatusGatewayTimeout, "store timed out")
	default:
		s.log.WithError(err).Error("operation failed")
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// firstSnapshot opens a stream, takes one complete snapshot and cancels.
// The identity check inside Subscribe makes a mismatched owner come back
// as an empty snapshot, which serves an empty list here.
func firstSnapshot[T any](ctx context.Context, col *collection.Collection[T], ownerID string) (map[string]T, error) {
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	stream := col.Subscribe(ctx, ownerID)
	defer stream.Cancel()

	select {
	case snap, ok := <-stream.Snapshots():
		if !ok {
			return map[string]T{}, nil
		}
		return snap, nil
	case <-ctx.Done():
		return nil, store.ErrTimeout
	}
}
