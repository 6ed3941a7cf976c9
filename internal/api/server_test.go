package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow-app/eventflow/internal/auth"
	"github.com/eventflow-app/eventflow/internal/collection"
	"github.com/eventflow-app/eventflow/internal/gateway"
	"github.com/eventflow-app/eventflow/internal/models"
	"github.com/eventflow-app/eventflow/internal/store"
	"github.com/eventflow-app/eventflow/internal/store/memstore"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	db := memstore.New()
	backend := auth.NewMemBackend()
	sessions := auth.NewMemSessionRepository()
	identity := auth.NewIdentity()

	authSvc := auth.NewService(backend, db, sessions, identity, "test-secret", time.Hour, log)
	gw := gateway.New(db, identity, backend, sessions, log)

	events := collection.New[models.Event](db, identity, store.NamespaceEvents, log)
	wishlist := collection.New[models.Event](db, identity, store.NamespaceWishlists, log)
	bookings := collection.New[models.Booking](db, identity, store.NamespaceBookings, log)
	profile := collection.NewNode[models.User](db, identity, store.UserPath, log)

	server := httptest.NewServer(NewServer(authSvc, gw, events, wishlist, bookings, profile, log).Handler())
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

func signUpAndLogin(t *testing.T, server *httptest.Server) string {
	t.Helper()

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/signup", "", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "password-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, payload := doJSON(t, http.MethodPost, server.URL+"/api/login", "", map[string]string{
		"email": "alice@example.com", "password": "password-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(payload, &login))
	require.NotEmpty(t, login.Token)
	return login.Token
}

func TestEventLifecycle(t *testing.T) {
	server := newTestServer(t)
	token := signUpAndLogin(t, server)

	// Create
	resp, payload := doJSON(t, http.MethodPost, server.URL+"/api/events", token, models.Event{
		Title: "Concert", Date: "02/20/2030", Time: "19:00", Price: 25,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Event
	require.NoError(t, json.Unmarshal(payload, &created))
	require.NotEmpty(t, created.ID)

	// List
	resp, payload = doJSON(t, http.MethodGet, server.URL+"/api/events", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []models.Event
	require.NoError(t, json.Unmarshal(payload, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Concert", listed[0].Title)

	// Fetch by id
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/events/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Delete
	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/api/events/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/events/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventValidation(t *testing.T) {
	server := newTestServer(t)
	token := signUpAndLogin(t, server)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/events", token, models.Event{Title: "No date"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWishlistAndBooking(t *testing.T) {
	server := newTestServer(t)
	token := signUpAndLogin(t, server)

	resp, payload := doJSON(t, http.MethodPost, server.URL+"/api/events", token, models.Event{
		Title: "Concert", Date: "02/20/2030", Time: "19:00", Price: 25,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var event models.Event
	require.NoError(t, json.Unmarshal(payload, &event))

	// Wishlist round trip.
	resp, _ = doJSON(t, http.MethodPut, server.URL+"/api/wishlist/"+event.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, payload = doJSON(t, http.MethodGet, server.URL+"/api/wishlist", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var wishlist []models.Event
	require.NoError(t, json.Unmarshal(payload, &wishlist))
	require.Len(t, wishlist, 1)

	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/api/wishlist/"+event.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, payload = doJSON(t, http.MethodGet, server.URL+"/api/wishlist", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	wishlist = nil
	require.NoError(t, json.Unmarshal(payload, &wishlist))
	assert.Empty(t, wishlist)

	// Booking the same event twice yields distinct bookings.
	resp, payload = doJSON(t, http.MethodPost, server.URL+"/api/bookings", token, map[string]string{"eventId": event.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var first models.Booking
	require.NoError(t, json.Unmarshal(payload, &first))

	resp, payload = doJSON(t, http.MethodPost, server.URL+"/api/bookings", token, map[string]string{"eventId": event.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var second models.Booking
	require.NoError(t, json.Unmarshal(payload, &second))

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.BookingConfirmed, first.Status)

	resp, payload = doJSON(t, http.MethodGet, server.URL+"/api/bookings", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bookings []models.Booking
	require.NoError(t, json.Unmarshal(payload, &bookings))
	assert.Len(t, bookings, 2)
}

func TestDashboard(t *testing.T) {
	server := newTestServer(t)
	token := signUpAndLogin(t, server)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/events", token, models.Event{
		Title: "Far future", Date: "02/20/2030", Time: "19:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, payload := doJSON(t, http.MethodGet, server.URL+"/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dashboard struct {
		ClosestEvent string `json:"closestEvent"`
		TotalEvents  int    `json:"totalEvents"`
	}
	require.NoError(t, json.Unmarshal(payload, &dashboard))
	assert.Equal(t, 1, dashboard.TotalEvents)
	assert.NotEqual(t, "No events", dashboard.ClosestEvent)
}

func TestRequiresAuth(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/events", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_RevokesToken(t *testing.T) {
	server := newTestServer(t)
	token := signUpAndLogin(t, server)

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/events", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The token's signature and exp are still good; the revoked session
	// alone must lock it out.
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/events", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeleteAccount(t *testing.T) {
	server := newTestServer(t)
	token := signUpAndLogin(t, server)

	resp, _ := doJSON(t, http.MethodDelete, server.URL+"/api/account", token, map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/api/account", token, map[string]string{"password": "password-1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The account is gone: logging in again fails.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/login", "", map[string]string{
		"email": "alice@example.com", "password": "password-1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
