package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/curbline/curbline/internal/domain"
	"github.com/curbline/curbline/internal/feed"
	redisrepo "github.com/curbline/curbline/internal/repository/redis"
	"github.com/curbline/curbline/internal/service"
	"github.com/curbline/curbline/internal/service/lifecycle"
	"github.com/curbline/curbline/internal/service/query"
	"github.com/curbline/curbline/internal/verify"
)

func NewRouter(
	svcs *service.Services,
	verifier *verify.Verifier,
	hub *feed.Hub,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/locations/verify", handleVerifyLocation(verifier))

	r.POST("/spots", handleCreateSpot(svcs, verifier, idem))
	r.GET("/spots", handleListSpots(svcs))
	r.GET("/spots/feed", handleFeed(svcs, hub))
	r.GET("/spots/:id", handleGetSpot(svcs))
	r.GET("/spots/:id/history", handleSpotHistory(svcs))

	r.POST("/spots/:id/reserve", handleReserveSpot(svcs, idem))
	r.POST("/spots/:id/complete", handleCompleteSpot(svcs))
	r.POST("/spots/:id/cancel", handleCancelSpot(svcs))

	r.GET("/users/:id/spots", handleUserSpots(svcs))

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Verify a claimed location against its street address
// @Param    req body  VerifyLocationRequest true "payload"
// @Success  200 {object} VerifyLocationResponse
// @Failure  400 {object} ErrorResponse
// @Failure  502 {object} ErrorResponse "geocoder unavailable"
// @Router   /locations/verify [post]
func handleVerifyLocation(verifier *verify.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyLocationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if req.FixError != "" {
			badRequest(c, verify.FixError(req.FixError).Error())
			return
		}

		if req.Fix == nil {
			badRequest(c, "fix is required")
			return
		}

		res, err := verifier.Verify(c.Request.Context(), req.Address, req.City, req.Fix.toDomain())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, VerifyLocationResponse{
			Verified:  res.Verified,
			DistanceM: res.DistanceMeters,
			Resolved:  res.Resolved,
		})
	}
}

// @Summary  Create spot (idempotent)
// @Param    req body  CreateSpotRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} CreateSpotResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "idem in progress"
// @Failure  502 {object} ErrorResponse "geocoder unavailable"
// @Router   /spots [post]
func handleCreateSpot(
	svcs *service.Services,
	verifier *verify.Verifier,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSpotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		guard, done := idemGuard(c, idem, func(key string) string {
			return redisrepo.KeyIdemCreateSpot(req.OwnerID, key)
		})
		if done {
			return
		}

		availableAt, err := parseRFC3339(req.AvailableAt)
		if err != nil {
			guard.release(c)
			badRequest(c, "invalid available_at (RFC3339)")
			return
		}

		res, err := verifier.Verify(c.Request.Context(), req.Address, req.City, req.Fix.toDomain())
		if err != nil {
			guard.release(c)
			respondErr(c, err)
			return
		}

		if !res.Verified {
			guard.release(c)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:     "location not verified",
				DistanceM: res.DistanceMeters,
			})
			return
		}

		spotID, err := svcs.Lifecycle.Create(c.Request.Context(), domain.SpotDraft{
			OwnerID:     req.OwnerID,
			Address:     req.Address,
			City:        req.City,
			Description: req.Description,
			PriceCents:  req.PriceCents,
			Category:    domain.SpotCategory(req.Category),
			AvailableAt: availableAt,
			DurationMin: req.DurationMin,
		}, domain.VerifiedLocation{Coordinates: res.Resolved, Verified: true})
		if err != nil {
			guard.release(c)
			respondErr(c, err)
			return
		}

		resp := CreateSpotResponse{SpotID: spotID.String()}
		guard.save(c, resp)

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  List available spots
// @Param    city             query  string  false "city filter"
// @Param    category         query  string  false "street|garage|lot|driveway"
// @Param    max_price_cents  query  int     false "price ceiling"
// @Param    limit            query  int     false "page size"
// @Param    offset           query  int     false "offset"
// @Success  200  {array}  domain.Spot
// @Router   /spots [get]
func handleListSpots(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		spots, err := svcs.Query.ListAvailable(c.Request.Context(), filterFromQuery(c), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		if spots == nil {
			spots = []domain.Spot{}
		}

		writeJSONWithCache(c, http.StatusOK, spots, "public, max-age=10", true)
	}
}

// @Summary  Get spot
// @Param    id  path  string  true  "Spot ID (uuid)"
// @Success  200 {object} domain.Spot
// @Failure  404 {object} ErrorResponse
// @Router   /spots/{id} [get]
func handleGetSpot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		spotID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		spot, err := svcs.Query.GetSpot(c.Request.Context(), spotID)
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, spot, "public, max-age=15", true)
	}
}

// @Summary  Get spot with handoff history
// @Param    id  path  string  true  "Spot ID (uuid)"
// @Success  200 {object} query.SpotHistory
// @Failure  404 {object} ErrorResponse
// @Router   /spots/{id}/history [get]
func handleSpotHistory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		spotID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		hist, err := svcs.Query.SpotHistory(c.Request.Context(), spotID)
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, hist, "public, max-age=15", true)
	}
}

// @Summary  Reserve spot (idempotent, rate limited)
// @Param    id  path  string  true  "Spot ID (uuid)"
// @Param    req body  SpotActionRequest true "payload"
// @Header   200 {string} Idempotency-Key "echo"
// @Success  200 {object} domain.Spot
// @Failure  403 {object} ErrorResponse "own spot"
// @Failure  409 {object} ErrorResponse "already taken / expired"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /spots/{id}/reserve [post]
func handleReserveSpot(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		spotID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req SpotActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		guard, done := idemGuard(c, idem, func(key string) string {
			return redisrepo.KeyIdemReserve(spotID.String(), key)
		})
		if done {
			return
		}

		rlKey := "ip:" + c.ClientIP()

		spot, err := svcs.Lifecycle.Reserve(c.Request.Context(), spotID, req.UserID, rlKey)
		if err != nil {
			guard.release(c)
			if isRateLimitedErr(err) {
				c.Header("Retry-After", "60")
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
				return
			}
			respondErr(c, err)
			return
		}

		guard.save(c, spot)

		c.JSON(http.StatusOK, spot)
	}
}

// @Summary  Complete handoff
// @Param    id  path  string  true  "Spot ID (uuid)"
// @Param    req body  SpotActionRequest true "payload"
// @Success  200 {object} domain.Spot
// @Failure  403 {object} ErrorResponse "not the owner"
// @Failure  409 {object} ErrorResponse "not reserved"
// @Router   /spots/{id}/complete [post]
func handleCompleteSpot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		spotID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req SpotActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		spot, err := svcs.Lifecycle.Complete(c.Request.Context(), spotID, req.UserID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, spot)
	}
}

// @Summary  Cancel spot
// @Param    id  path  string  true  "Spot ID (uuid)"
// @Param    req body  SpotActionRequest true "payload"
// @Success  200 {object} domain.Spot
// @Failure  403 {object} ErrorResponse "not the owner"
// @Failure  409 {object} ErrorResponse "already reserved or terminal"
// @Router   /spots/{id}/cancel [post]
func handleCancelSpot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		spotID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req SpotActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		spot, err := svcs.Lifecycle.Cancel(c.Request.Context(), spotID, req.UserID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, spot)
	}
}

// @Summary  Stream spot changes (SSE)
// @Param    city             query  string  false "city filter"
// @Param    category         query  string  false "category filter"
// @Param    max_price_cents  query  int     false "price ceiling"
// @Success  200 {string} string "text/event-stream of add/update/remove"
// @Router   /spots/feed [get]
func handleFeed(svcs *service.Services, hub *feed.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := filterFromQuery(c)
		filter.Status = domain.SpotAvailable

		// Subscribe before the snapshot read so nothing published in
		// between is lost. A spot may then arrive twice; subscribers
		// are expected to key on spot id.
		sub := hub.Subscribe(filter, 64)
		defer sub.Close()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		snapshot, err := svcs.Query.SnapshotAvailable(c.Request.Context(), filter)
		if err != nil {
			respondErr(c, err)
			return
		}

		for _, spot := range snapshot {
			c.SSEvent(string(domain.EventAdd), spot)
		}
		c.Writer.Flush()

		heartbeat := time.NewTicker(15 * time.Second)
		defer heartbeat.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case ev, open := <-sub.Events():
				if !open {
					// The hub cut this subscriber off for falling
					// behind. Ending the stream forces a reconnect,
					// which replays current state via the snapshot.
					return false
				}
				c.SSEvent(string(ev.Type), ev.Spot)
				return true
			case <-heartbeat.C:
				c.SSEvent("ping", time.Now().Unix())
				return true
			}
		})
	}
}

// @Summary  Spots posted by and reserved by a user
// @Param    id  path  string  true  "User ID"
// @Success  200 {object} UserSpotsResponse
// @Router   /users/{id}/spots [get]
func handleUserSpots(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		posted, reserved, err := svcs.Query.ListByUser(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		if posted == nil {
			posted = []domain.Spot{}
		}
		if reserved == nil {
			reserved = []domain.Spot{}
		}

		c.JSON(http.StatusOK, UserSpotsResponse{Posted: posted, Reserved: reserved})
	}
}

// --- Idempotency ---

type idemState struct {
	idem *redisrepo.IdempotencyStore
	key  string
	echo string
}

// idemGuard runs the replay/lock dance for an Idempotency-Key header.
// When it reports done the response has already been written. The
// returned state is a no-op when no key was supplied.
func idemGuard(
	c *gin.Context,
	idem *redisrepo.IdempotencyStore,
	storageKey func(idemKey string) string,
) (idemState, bool) {
	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if idem == nil || idemKey == "" {
		return idemState{}, false
	}

	key := storageKey(idemKey)

	replay := func() bool {
		payload, ok, _ := idem.GetResult(c.Request.Context(), key)
		if !ok {
			return false
		}
		c.Header("Idempotency-Key", idemKey)
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(payload))
		return true
	}

	if replay() {
		return idemState{}, true
	}

	locked, err := idem.AcquireLock(c.Request.Context(), key, 60*time.Second)
	if err != nil {
		respondErr(c, err)
		return idemState{}, true
	}
	if !locked {
		if replay() {
			return idemState{}, true
		}
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
		return idemState{}, true
	}

	return idemState{idem: idem, key: key, echo: idemKey}, false
}

func (s idemState) release(c *gin.Context) {
	if s.idem == nil {
		return
	}
	_ = s.idem.Release(c.Request.Context(), s.key)
}

func (s idemState) save(c *gin.Context, v any) {
	if s.idem == nil {
		return
	}
	b, _ := json.Marshal(v)
	_ = s.idem.SaveResult(c.Request.Context(), s.key, string(b))
	c.Header("Idempotency-Key", s.echo)
}

// --- Helpers ---

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func filterFromQuery(c *gin.Context) domain.SpotFilter {
	return domain.SpotFilter{
		City:          c.Query("city"),
		Category:      domain.SpotCategory(c.Query("category")),
		MaxPriceCents: parseIntDefault(c.Query("max_price_cents"), 0),
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func isRateLimitedErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "rate limited")
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// lifecycle service: validation
	case errors.Is(err, lifecycle.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "address and city are required"})
		return
	case errors.Is(err, lifecycle.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "price out of bounds"})
		return
	case errors.Is(err, lifecycle.ErrInvalidTiming):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "availability time out of bounds"})
		return
	case errors.Is(err, lifecycle.ErrInvalidCategory):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown category"})
		return
	case errors.Is(err, lifecycle.ErrLocationNotVerified):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "location not verified"})
		return
	// lifecycle service: authorization
	case errors.Is(err, lifecycle.ErrCannotReserveOwnSpot):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "cannot reserve own spot"})
		return
	case errors.Is(err, lifecycle.ErrNotOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "caller is not the owner"})
		return
	// lifecycle service: state
	case errors.Is(err, lifecycle.ErrSpotNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "spot not found"})
		return
	case errors.Is(err, lifecycle.ErrSpotExpired):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "spot expired"})
		return
	case errors.Is(err, lifecycle.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "spot already taken"})
		return
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "invalid transition"})
		return
	// query service
	case errors.Is(err, query.ErrSpotNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "spot not found"})
		return
	// verification
	case errors.Is(err, verify.ErrAddressNotFound):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "address not found"})
		return
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "geocoder timed out"})
		return
	case errors.Is(err, verify.ErrGeocodeUnavailable):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "geocoder unavailable"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
