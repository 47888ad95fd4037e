package httpgin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbline/curbline/internal/domain"
	"github.com/curbline/curbline/internal/feed"
	"github.com/curbline/curbline/internal/repository/memory"
	"github.com/curbline/curbline/internal/service"
	"github.com/curbline/curbline/internal/service/lifecycle"
	"github.com/curbline/curbline/internal/service/query"
	"github.com/curbline/curbline/internal/verify"
)

type stubGeocoder struct {
	coords domain.Coordinates
	err    error
}

func (g stubGeocoder) Geocode(context.Context, string, string) (domain.Coordinates, error) {
	if g.err != nil {
		return domain.Coordinates{}, g.err
	}
	return g.coords, nil
}

type env struct {
	router *gin.Engine
	store  *memory.Store
	hub    *feed.Hub
}

func newTestEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	hub := feed.NewHub()

	svcs := service.NewServices(store, nil, hubPublisher{store: store, hub: hub}, nil, service.Config{
		Lifecycle: lifecycle.Config{},
		Query:     query.Config{},
	})

	verifier := verify.New(stubGeocoder{coords: domain.Coordinates{Lat: 40.0, Lng: -74.0}}, verify.Config{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &env{
		router: NewRouter(svcs, verifier, hub, nil, logger),
		store:  store,
		hub:    hub,
	}
}

// hubPublisher feeds accepted transitions straight into the local hub,
// standing in for the cross-instance relay.
type hubPublisher struct {
	store *memory.Store
	hub   *feed.Hub
}

func (p hubPublisher) PublishSpotChanged(ctx context.Context, spotID uuid.UUID, _ domain.ChangeKind) error {
	spot, err := p.store.GetSpot(ctx, spotID)
	if err != nil {
		return err
	}
	p.hub.Publish(*spot)
	return nil
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func createSpotBody(owner string) map[string]any {
	return map[string]any{
		"owner_id":     owner,
		"address":      "10 Main St",
		"city":         "Springfield",
		"price_cents":  500,
		"category":     "street",
		"available_at": time.Now().Add(30 * time.Minute).UTC().Format(time.RFC3339),
		"duration_min": 30,
		"fix":          map[string]any{"lat": 40.0, "lng": -74.0},
	}
}

func (e *env) createSpot(t *testing.T, owner string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/spots", createSpotBody(owner))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp CreateSpotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.SpotID
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVerifyLocation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/locations/verify", map[string]any{
		"address": "10 Main St",
		"city":    "Springfield",
		"fix":     map[string]any{"lat": 40.0, "lng": -74.0},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp VerifyLocationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Verified)
	assert.Equal(t, 40.0, resp.Resolved.Lat)
}

func TestVerifyLocationTooFar(t *testing.T) {
	e := newTestEnv(t)

	// Roughly 111 m north of the resolved address.
	w := e.do(t, http.MethodPost, "/locations/verify", map[string]any{
		"address": "10 Main St",
		"city":    "Springfield",
		"fix":     map[string]any{"lat": 40.001, "lng": -74.0},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp VerifyLocationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Verified)
	assert.Greater(t, resp.DistanceM, 61.0)
}

func TestVerifyLocationFixError(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/locations/verify", map[string]any{
		"address":   "10 Main St",
		"city":      "Springfield",
		"fix_error": "permission_denied",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "permission")
}

func TestCreateSpot(t *testing.T) {
	e := newTestEnv(t)

	id := e.createSpot(t, "owner-1")

	w := e.do(t, http.MethodGet, "/spots/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var spot domain.Spot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spot))
	assert.Equal(t, domain.SpotAvailable, spot.Status)
	assert.True(t, spot.LocationVerified)
}

func TestCreateSpotRejectsDistantFix(t *testing.T) {
	e := newTestEnv(t)

	body := createSpotBody("owner-1")
	body["fix"] = map[string]any{"lat": 40.001, "lng": -74.0}

	w := e.do(t, http.MethodPost, "/spots", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "location not verified")
}

func TestCreateSpotValidation(t *testing.T) {
	e := newTestEnv(t)

	body := createSpotBody("owner-1")
	body["price_cents"] = 5000

	w := e.do(t, http.MethodPost, "/spots", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = createSpotBody("owner-1")
	body["available_at"] = "yesterday"

	w = e.do(t, http.MethodPost, "/spots", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSpots(t *testing.T) {
	e := newTestEnv(t)

	e.createSpot(t, "owner-1")
	e.createSpot(t, "owner-2")

	w := e.do(t, http.MethodGet, "/spots", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var spots []domain.Spot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spots))
	assert.Len(t, spots, 2)

	w = e.do(t, http.MethodGet, "/spots?city=Shelbyville", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spots))
	assert.Empty(t, spots)

	w = e.do(t, http.MethodGet, "/spots?max_price_cents=100", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spots))
	assert.Empty(t, spots)
}

func TestGetSpotNotFound(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/spots/5d7f3b1a-44dd-4f30-a1b2-93e1a1b2c3d4", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodGet, "/spots/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReserveFlow(t *testing.T) {
	e := newTestEnv(t)

	id := e.createSpot(t, "owner-1")

	w := e.do(t, http.MethodPost, "/spots/"+id+"/reserve", SpotActionRequest{UserID: "buyer-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var spot domain.Spot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spot))
	assert.Equal(t, domain.SpotReserved, spot.Status)
	assert.Equal(t, "buyer-1", spot.ReservedBy)

	// Second taker loses with a conflict.
	w = e.do(t, http.MethodPost, "/spots/"+id+"/reserve", SpotActionRequest{UserID: "buyer-2"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReserveOwnSpotForbidden(t *testing.T) {
	e := newTestEnv(t)

	id := e.createSpot(t, "owner-1")

	w := e.do(t, http.MethodPost, "/spots/"+id+"/reserve", SpotActionRequest{UserID: "owner-1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCompleteFlow(t *testing.T) {
	e := newTestEnv(t)

	id := e.createSpot(t, "owner-1")

	w := e.do(t, http.MethodPost, "/spots/"+id+"/reserve", SpotActionRequest{UserID: "buyer-1"})
	require.Equal(t, http.StatusOK, w.Code)

	// Only the owner may complete.
	w = e.do(t, http.MethodPost, "/spots/"+id+"/complete", SpotActionRequest{UserID: "buyer-1"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, "/spots/"+id+"/complete", SpotActionRequest{UserID: "owner-1"})
	require.Equal(t, http.StatusOK, w.Code)

	var spot domain.Spot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spot))
	assert.Equal(t, domain.SpotCompleted, spot.Status)
	assert.Equal(t, 1, spot.HandoffCount)

	// History now carries the handoff with the recorded fee.
	w = e.do(t, http.MethodGet, "/spots/"+id+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var hist query.SpotHistory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	require.NotNil(t, hist.Handoff)
	assert.Equal(t, 125, hist.Handoff.FeeCents)
}

func TestCancelFlow(t *testing.T) {
	e := newTestEnv(t)

	id := e.createSpot(t, "owner-1")

	w := e.do(t, http.MethodPost, "/spots/"+id+"/cancel", SpotActionRequest{UserID: "intruder"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, "/spots/"+id+"/cancel", SpotActionRequest{UserID: "owner-1"})
	require.Equal(t, http.StatusOK, w.Code)

	var spot domain.Spot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spot))
	assert.Equal(t, domain.SpotCancelled, spot.Status)
}

func TestCancelReservedConflict(t *testing.T) {
	e := newTestEnv(t)

	id := e.createSpot(t, "owner-1")

	w := e.do(t, http.MethodPost, "/spots/"+id+"/reserve", SpotActionRequest{UserID: "buyer-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/spots/"+id+"/cancel", SpotActionRequest{UserID: "owner-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUserSpots(t *testing.T) {
	e := newTestEnv(t)

	mine := e.createSpot(t, "u1")
	other := e.createSpot(t, "u2")

	w := e.do(t, http.MethodPost, "/spots/"+other+"/reserve", SpotActionRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/users/u1/spots", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp UserSpotsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Posted, 1)
	assert.Equal(t, mine, resp.Posted[0].ID.String())
	require.Len(t, resp.Reserved, 1)
	assert.Equal(t, other, resp.Reserved[0].ID.String())
}

func TestFeedSnapshot(t *testing.T) {
	e := newTestEnv(t)

	id := e.createSpot(t, "owner-1")

	// A pre-cancelled request: the handler writes the snapshot and the
	// stream loop exits on the dead context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodGet, "/spots/feed", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	body := w.Body.String()
	assert.Contains(t, body, "event:add")
	assert.Contains(t, body, id)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
}

func TestFeedSnapshotBeyondOnePage(t *testing.T) {
	e := newTestEnv(t)

	// More available spots than a single listing page holds. The
	// resync snapshot must still replay every one of them.
	const n = 60
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		spot := domain.Spot{
			ID:               uuid.New(),
			OwnerID:          fmt.Sprintf("owner-%d", i),
			Address:          "10 Main St",
			City:             "Springfield",
			Lat:              40.0,
			Lng:              -74.0,
			LocationVerified: true,
			PriceCents:       500,
			Category:         domain.CategoryStreet,
			AvailableAt:      now.Add(time.Duration(i) * time.Minute),
			DurationMin:      30,
			ExpiresAt:        now.Add(24 * time.Hour),
			Status:           domain.SpotAvailable,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		require.NoError(t, e.store.CreateSpot(context.Background(), &spot))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodGet, "/spots/feed", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	adds := strings.Count(w.Body.String(), "event:add")
	assert.Equal(t, n, adds)
}

func TestETagNotModified(t *testing.T) {
	e := newTestEnv(t)

	id := e.createSpot(t, "owner-1")

	w := e.do(t, http.MethodGet, "/spots/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)

	req := httptest.NewRequest(http.MethodGet, "/spots/"+id, nil)
	req.Header.Set("If-None-Match", tag)
	w2 := httptest.NewRecorder()
	e.router.ServeHTTP(w2, req)

	assert.Equal(t, http.StatusNotModified, w2.Code)
}

func TestGeocoderDownMapsToBadGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	hub := feed.NewHub()
	svcs := service.NewServices(store, nil, nil, nil, service.Config{})
	verifier := verify.New(stubGeocoder{err: fmt.Errorf("connection refused")}, verify.Config{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(svcs, verifier, hub, nil, logger)

	body, _ := json.Marshal(map[string]any{
		"address": "10 Main St",
		"city":    "Springfield",
		"fix":     map[string]any{"lat": 40.0, "lng": -74.0},
	})
	req := httptest.NewRequest(http.MethodPost, "/locations/verify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
