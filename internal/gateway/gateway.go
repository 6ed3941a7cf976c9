// Package gateway performs validated writes against the remote store.
// Every operation checks required fields before touching the network,
// re-reads the signed-in identity at call time and reports a plain error
// as its outcome; nothing here panics or retries.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eventflow-app/eventflow/internal/auth"
	"github.com/eventflow-app/eventflow/internal/metrics"
	"github.com/eventflow-app/eventflow/internal/models"
	"github.com/eventflow-app/eventflow/internal/store"
)

var (
	// ErrWrongOwner means the caller asked to mutate data outside the
	// signed-in user's scope. Fail-closed: no remote call is made.
	ErrWrongOwner = errors.New("owner does not match signed-in user")
)

const defaultReadTimeout = 5 * time.Second

type Gateway struct {
	db          store.Database
	identity    *auth.Identity
	backend     auth.Backend
	sessions    auth.SessionRepository
	log         *logrus.Logger
	readTimeout time.Duration
}

func New(db store.Database, identity *auth.Identity, backend auth.Backend, sessions auth.SessionRepository, log *logrus.Logger) *Gateway {
	return &Gateway{
		db:          db,
		identity:    identity,
		backend:     backend,
		sessions:    sessions,
		log:         log,
		readTimeout: defaultReadTimeout,
	}
}

// checkOwner re-reads the current identity; a stale ownerID held across a
// logout is rejected here.
func (g *Gateway) checkOwner(ownerID string) error {
	if ownerID == "" || ownerID != g.identity.UserID() {
		return ErrWrongOwner
	}
	return nil
}

// SaveEvent creates or updates an event. An empty id means first save: a
// fresh id is requested from the store and stamped onto the event together
// with the owner. A present id is a straight last-writer-wins overwrite.
func (g *Gateway) SaveEvent(ctx context.Context, ownerID string, event models.Event) (models.Event, error) {
	if strings.TrimSpace(event.Title) == "" {
		return event, fmt.Errorf("%w: title", auth.ErrMissingField)
	}
	if strings.TrimSpace(event.Date) == "" {
		return event, fmt.Errorf("%w: date", auth.ErrMissingField)
	}
	if strings.TrimSpace(event.Time) == "" {
		return event, fmt.Errorf("%w: time", auth.ErrMissingField)
	}
	if err := g.checkOwner(ownerID); err != nil {
		return event, err
	}

	if event.ID == "" {
		id, err := g.db.GenerateID(ctx, store.EventsPath(ownerID))
		if err != nil {
			metrics.ObserveWrite(store.NamespaceEvents, err)
			return event, fmt.Errorf("failed to generate event id: %w", err)
		}
		event.ID = id
	}
	event.OwnerID = ownerID

	err := g.db.Write(ctx, store.EventPath(ownerID, event.ID), event)
	metrics.ObserveWrite(store.NamespaceEvents, err)
	if err != nil {
		return event, fmt.Errorf("failed to save event: %w", err)
	}

	g.log.WithFields(logrus.Fields{"user_id": ownerID, "event_id": event.ID}).Info("event saved")
	return event, nil
}

// DeleteEvent removes an event. Removing an absent id succeeds.
func (g *Gateway) DeleteEvent(ctx context.Context, ownerID, eventID string) error {
	if err := g.checkOwner(ownerID); err != nil {
		return err
	}

	err := g.db.Remove(ctx, store.EventPath(ownerID, eventID))
	metrics.ObserveWrite(store.NamespaceEvents, err)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// EventByID is a bounded single-shot read; it resolves to store.ErrTimeout
// rather than hanging when the store does not respond.
func (g *Gateway) EventByID(ctx context.Context, ownerID, eventID string) (models.Event, error) {
	var event models.Event
	if err := g.checkOwner(ownerID); err != nil {
		return event, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.readTimeout)
	defer cancel()

	raw, err := g.db.ReadOnce(ctx, store.EventPath(ownerID, eventID))
	if err != nil {
		return event, err
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		return event, fmt.Errorf("failed to decode event: %w", err)
	}
	return event, nil
}

// AddToWishlist stores a copy of the event keyed by its event id. Repeated
// adds for the same event upsert the same entry.
func (g *Gateway) AddToWishlist(ctx context.Context, ownerID string, event models.Event) error {
	if err := g.checkOwner(ownerID); err != nil {
		return err
	}
	if event.ID == "" {
		return fmt.Errorf("%w: event id", auth.ErrMissingField)
	}

	err := g.db.Write(ctx, store.WishlistEntryPath(ownerID, event.ID), event)
	metrics.ObserveWrite(store.NamespaceWishlists, err)
	if err != nil {
		return fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return nil
}

// RemoveFromWishlist is idempotent: removing an absent entry is a no-op.
func (g *Gateway) RemoveFromWishlist(ctx context.Context, ownerID, eventID string) error {
	if err := g.checkOwner(ownerID); err != nil {
		return err
	}

	err := g.db.Remove(ctx, store.WishlistEntryPath(ownerID, eventID))
	metrics.ObserveWrite(store.NamespaceWishlists, err)
	if err != nil {
		return fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	return nil
}

// ToggleWishlist adds when the caller observed the event absent from the
// wishlist and removes otherwise. The gateway does not check membership
// itself; two racing toggles resolve by write arrival order.
func (g *Gateway) ToggleWishlist(ctx context.Context, ownerID string, event models.Event, inWishlist bool) error {
	if inWishlist {
		return g.RemoveFromWishlist(ctx, ownerID, event.ID)
	}
	return g.AddToWishlist(ctx, ownerID, event)
}

// CreateBooking writes a booking with a freshly generated id, today's date
// and a confirmed status. The id is never derived from the event id, so the
// same event can be booked repeatedly. Id-generation failure surfaces as an
// error; there is no automatic retry.
func (g *Gateway) CreateBooking(ctx context.Context, ownerID string, event models.Event) (models.Booking, error) {
	var booking models.Booking
	if err := g.checkOwner(ownerID); err != nil {
		return booking, err
	}

	bookingID, err := g.db.GenerateID(ctx, store.BookingsPath(ownerID))
	if err != nil {
		metrics.ObserveWrite(store.NamespaceBookings, err)
		return booking, fmt.Errorf("failed to generate booking id: %w", err)
	}

	booking = models.Booking{
		ID:          bookingID,
		EventID:     event.ID,
		UserID:      ownerID,
		EventTitle:  event.Title,
		Price:       event.Price,
		BookingDate: time.Now().Format(models.BookingDateLayout),
		Status:      models.BookingConfirmed,
	}

	err = g.db.Write(ctx, store.BookingPath(ownerID, bookingID), booking)
	metrics.ObserveWrite(store.NamespaceBookings, err)
	if err != nil {
		return booking, fmt.Errorf("failed to create booking: %w", err)
	}

	g.log.WithFields(logrus.Fields{"user_id": ownerID, "booking_id": bookingID, "event_id": event.ID}).Info("booking created")
	return booking, nil
}
