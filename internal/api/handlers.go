package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eventflow-app/eventflow/internal/models"
	"github.com/eventflow-app/eventflow/internal/view"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	userID, err := s.auth.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.respondOpError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]string{"userId": userID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	resp, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondOpError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"token":     resp.Token,
		"expiresAt": resp.ExpiresAt,
		"userId":    resp.UserID,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if err := s.auth.Logout(r.Context(), header[len("Bearer "):]); err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	userID := callerID(r)
	if err := s.auth.UpdateProfile(r.Context(), userID, req.Name, req.Email, req.Password); err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	stream := s.profile.Subscribe(r.Context(), callerID(r))
	defer stream.Cancel()

	select {
	case user := <-stream.Values():
		if user == nil {
			s.respondError(w, http.StatusNotFound, "profile not found")
			return
		}
		s.respondJSON(w, http.StatusOK, user)
	case <-time.After(snapshotTimeout):
		s.respondError(w, http.StatusGatewayTimeout, "store timed out")
	}
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.gw.DeleteAccount(r.Context(), callerID(r), req.Password); err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	snap, err := firstSnapshot(r.Context(), s.events, callerID(r))
	if err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view.SortByDate(view.Events(snap), time.Now()))
}

func (s *Server) handleSaveEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if ok, msg := s.decodeJSON(r, &event); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	saved, err := s.gw.SaveEvent(r.Context(), callerID(r), event)
	if err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.gw.EventByID(r.Context(), callerID(r), chi.URLParam(r, "eventID"))
	if err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.gw.DeleteEvent(r.Context(), callerID(r), chi.URLParam(r, "eventID")); err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListWishlist(w http.ResponseWriter, r *http.Request) {
	snap, err := firstSnapshot(r.Context(), s.wishlist, callerID(r))
	if err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view.SortByDate(view.Events(snap), time.Now()))
}

// handleAddToWishlist fetches the event then stores a copy of it. The
// event can be deleted between the read and the write; the stale copy is
// accepted rather than prevented.
func (s *Server) handleAddToWishlist(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	event, err := s.gw.EventByID(r.Context(), userID, chi.URLParam(r, "eventID"))
	if err != nil {
		s.respondOpError(w, err)
		return
	}

	if err := s.gw.AddToWishlist(r.Context(), userID, event); err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

func (s *Server) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	if err := s.gw.RemoveFromWishlist(r.Context(), callerID(r), chi.URLParam(r, "eventID")); err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	snap, err := firstSnapshot(r.Context(), s.bookings, callerID(r))
	if err != nil {
		s.respondOpError(w, err)
		return
	}

	bookings := make([]models.Booking, 0, len(snap))
	for _, booking := range snap {
		bookings = append(bookings, booking)
	}
	s.respondJSON(w, http.StatusOK, bookings)
}

type createBookingRequest struct {
	EventID string `json:"eventId"`
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	userID := callerID(r)
	event, err := s.gw.EventByID(r.Context(), userID, req.EventID)
	if err != nil {
		s.respondOpError(w, err)
		return
	}

	booking, err := s.gw.CreateBooking(r.Context(), userID, event)
	if err != nil {
		s.respondOpError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := firstSnapshot(r.Context(), s.events, callerID(r))
	if err != nil {
		s.respondOpError(w, err)
		return
	}

	now := time.Now()
	events := view.Events(snap)
	soonest := view.TakeSoonest(events, 5, now)

	upcoming := make([]map[string]any, 0, len(soonest))
	for _, event := range soonest {
		upcoming = append(upcoming, map[string]any{
			"event":      event,
			"day":        view.EventDay(event.Date),
			"month":      view.EventMonth(event.Date),
			"isUpcoming": view.IsUpcoming(event.Date, now),
		})
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"closestEvent": view.ClosestEventLabel(events, now),
		"totalEvents":  len(events),
		"upcoming":     upcoming,
	})
}
