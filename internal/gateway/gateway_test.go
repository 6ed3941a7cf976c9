package gateway

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow-app/eventflow/internal/auth"
	"github.com/eventflow-app/eventflow/internal/models"
	"github.com/eventflow-app/eventflow/internal/store"
	"github.com/eventflow-app/eventflow/internal/store/memstore"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fixture struct {
	db       *memstore.Store
	identity *auth.Identity
	backend  *auth.MemBackend
	sessions *auth.MemSessionRepository
	gw       *Gateway
}

// newFixture signs up and signs in one user so gateway calls act under a
// live identity.
func newFixture(t *testing.T) (*fixture, string) {
	t.Helper()
	db := memstore.New()
	identity := auth.NewIdentity()
	backend := auth.NewMemBackend()
	sessions := auth.NewMemSessionRepository()

	userID, err := backend.CreateAccount(context.Background(), "alice@example.com", "password-1")
	require.NoError(t, err)
	identity.Set(userID)

	gw := New(db, identity, backend, sessions, testLogger())
	return &fixture{db: db, identity: identity, backend: backend, sessions: sessions, gw: gw}, userID
}

func TestSaveEvent_AssignsIDOnFirstSave(t *testing.T) {
	f, userID := newFixture(t)
	ctx := context.Background()

	saved, err := f.gw.SaveEvent(ctx, userID, models.Event{Title: "Concert", Date: "02/20/2025", Time: "19:00"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID, "first save must assign an id")
	assert.Equal(t, userID, saved.OwnerID, "owner is stamped alongside the id")

	// Saving again with the assigned id overwrites rather than inserting.
	saved.Title = "Concert (moved)"
	again, err := f.gw.SaveEvent(ctx, userID, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)

	got, err := f.gw.EventByID(ctx, userID, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Concert (moved)", got.Title)
	assert.Equal(t, 1, f.db.GenerateCount(), "no second id is generated on update")
}

func TestSaveEvent_ValidatesBeforeAnyRemoteCall(t *testing.T) {
	f, userID := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		event models.Event
	}{
		{"missing title", models.Event{Date: "02/20/2025", Time: "19:00"}},
		{"missing date", models.Event{Title: "Concert", Time: "19:00"}},
		{"missing time", models.Event{Title: "Concert", Date: "02/20/2025"}},
		{"blank title", models.Event{Title: "   ", Date: "02/20/2025", Time: "19:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.gw.SaveEvent(ctx, userID, tt.event)
			require.Error(t, err)
			assert.ErrorIs(t, err, auth.ErrMissingField)
		})
	}

	assert.Zero(t, f.db.WriteCount(), "validation failures must not reach the store")
	assert.Zero(t, f.db.GenerateCount())
}

func TestSaveEvent_RejectsStaleIdentity(t *testing.T) {
	f, userID := newFixture(t)

	f.identity.Clear()

	_, err := f.gw.SaveEvent(context.Background(), userID, models.Event{Title: "Concert", Date: "02/20/2025", Time: "19:00"})
	assert.ErrorIs(t, err, ErrWrongOwner)
	assert.Zero(t, f.db.WriteCount())
}

func TestDeleteEvent_AbsentIDSucceeds(t *testing.T) {
	f, userID := newFixture(t)

	err := f.gw.DeleteEvent(context.Background(), userID, "never-existed")
	assert.NoError(t, err, "delete is idempotent")
}

func TestEventByID_NotFound(t *testing.T) {
	f, userID := newFixture(t)

	_, err := f.gw.EventByID(context.Background(), userID, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestToggleWishlist_RoundTrip(t *testing.T) {
	f, userID := newFixture(t)
	ctx := context.Background()

	event, err := f.gw.SaveEvent(ctx, userID, models.Event{Title: "Concert", Date: "02/20/2025", Time: "19:00"})
	require.NoError(t, err)

	// Repeated adds upsert the same entry.
	require.NoError(t, f.gw.AddToWishlist(ctx, userID, event))
	require.NoError(t, f.gw.AddToWishlist(ctx, userID, event))
	require.NoError(t, f.gw.AddToWishlist(ctx, userID, event))

	raw, err := f.db.ReadOnce(ctx, store.WishlistEntryPath(userID, event.ID))
	require.NoError(t, err)
	require.NotNil(t, raw)

	// One remove clears it regardless of how many adds preceded.
	require.NoError(t, f.gw.RemoveFromWishlist(ctx, userID, event.ID))
	_, err = f.db.ReadOnce(ctx, store.WishlistEntryPath(userID, event.ID))
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Removing again is a no-op, not an error.
	assert.NoError(t, f.gw.RemoveFromWishlist(ctx, userID, event.ID))
}

func TestToggleWishlist_MembershipFlag(t *testing.T) {
	f, userID := newFixture(t)
	ctx := context.Background()

	event, err := f.gw.SaveEvent(ctx, userID, models.Event{Title: "Concert", Date: "02/20/2025", Time: "19:00"})
	require.NoError(t, err)

	require.NoError(t, f.gw.ToggleWishlist(ctx, userID, event, false))
	_, err = f.db.ReadOnce(ctx, store.WishlistEntryPath(userID, event.ID))
	require.NoError(t, err, "toggle with membership=false adds")

	require.NoError(t, f.gw.ToggleWishlist(ctx, userID, event, true))
	_, err = f.db.ReadOnce(ctx, store.WishlistEntryPath(userID, event.ID))
	assert.ErrorIs(t, err, store.ErrNotFound, "toggle with membership=true removes")
}

func TestCreateBooking_FreshIDPerBooking(t *testing.T) {
	f, userID := newFixture(t)
	ctx := context.Background()

	event, err := f.gw.SaveEvent(ctx, userID, models.Event{Title: "Concert", Date: "02/20/2025", Time: "19:00", Price: 25})
	require.NoError(t, err)

	first, err := f.gw.CreateBooking(ctx, userID, event)
	require.NoError(t, err)
	second, err := f.gw.CreateBooking(ctx, userID, event)
	require.NoError(t, err)

	assert.NotEqual(t, event.ID, first.ID, "booking id is never the event id")
	assert.NotEqual(t, first.ID, second.ID, "each booking of the same event gets its own id")
	assert.Equal(t, models.BookingConfirmed, first.Status)
	assert.Equal(t, event.Title, first.EventTitle)
	assert.Equal(t, event.Price, first.Price)
	assert.NotEmpty(t, first.BookingDate)
}

func TestCreateBooking_IDGenerationFailure(t *testing.T) {
	f, userID := newFixture(t)
	ctx := context.Background()

	event, err := f.gw.SaveEvent(ctx, userID, models.Event{Title: "Concert", Date: "02/20/2025", Time: "19:00"})
	require.NoError(t, err)

	genErr := errors.New("store exhausted")
	f.db.FailGenerateID(genErr)
	writesBefore := f.db.WriteCount()

	_, err = f.gw.CreateBooking(ctx, userID, event)
	require.Error(t, err)
	assert.ErrorIs(t, err, genErr)
	assert.Equal(t, writesBefore, f.db.WriteCount(), "no booking write after id generation fails")
}
