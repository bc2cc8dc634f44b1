package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// helper: new Echo with the middleware and a simple route
func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(Idempotency(rdb, ttl, zap.NewNop()))
	e.POST("/loan-requests/:id/approve", handler)
	e.GET("/loan-requests", handler) // for non-mutating bypass test
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

// simple handler to exercise respRecorder capture & saveFinal
func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"approved": true})
}

func decisionHeaders() map[string]string {
	return map[string]string{
		HeaderRequestID: strings.Repeat("a", 32),
		HeaderRequestAt: time.Now().UTC().Format(time.RFC3339),
		HeaderActorID:   strings.Repeat("b", 32),
	}
}

func Test_BypassOnGET_NoHeadersRequired(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "get ok"})
	})
	rec := doReq(t, e, http.MethodGet, "/loan-requests", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func Test_HeaderValidation(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, time.Minute, okHandler)
	valid := decisionHeaders()
	body := func() io.Reader { return mkJSONBody(t, map[string]int{"x": 1}) }

	// missing X-Request-Id
	h := map[string]string{
		HeaderRequestAt: valid[HeaderRequestAt],
		HeaderActorID:   valid[HeaderActorID],
	}
	if rec := doReq(t, e, http.MethodPost, "/loan-requests/r1/approve", body(), h); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing request id => want 400, got %d", rec.Code)
	}

	// invalid X-Request-Id
	h = decisionHeaders()
	h[HeaderRequestID] = "not-an-id"
	if rec := doReq(t, e, http.MethodPost, "/loan-requests/r1/approve", body(), h); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid request id => want 400, got %d", rec.Code)
	}

	// X-Request-At too skewed (past)
	h = decisionHeaders()
	h[HeaderRequestAt] = time.Now().UTC().Add(-maxClockSkew - time.Minute).Format(time.RFC3339)
	if rec := doReq(t, e, http.MethodPost, "/loan-requests/r1/approve", body(), h); rec.Code != http.StatusBadRequest {
		t.Fatalf("skewed timestamp => want 400, got %d", rec.Code)
	}

	// missing X-Actor-Id
	h = decisionHeaders()
	delete(h, HeaderActorID)
	if rec := doReq(t, e, http.MethodPost, "/loan-requests/r1/approve", body(), h); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing actor id => want 400, got %d", rec.Code)
	}

	// invalid X-Actor-Id
	h = decisionHeaders()
	h[HeaderActorID] = "not32hex"
	if rec := doReq(t, e, http.MethodPost, "/loan-requests/r1/approve", body(), h); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid actor id => want 400, got %d", rec.Code)
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, okHandler)

	h := decisionHeaders()
	payload := map[string]any{"comments": "looks fine"}

	// First request -> goes through handler
	rec1 := doReq(t, e, http.MethodPost, "/loan-requests/r1/approve", mkJSONBody(t, payload), h)
	if rec1.Code != http.StatusOK {
		t.Fatalf("first request => want 200, got %d, body: %s", rec1.Code, rec1.Body.String())
	}

	// Second request with SAME headers & body -> replay stored response
	rec2 := doReq(t, e, http.MethodPost, "/loan-requests/r1/approve", mkJSONBody(t, payload), h)
	if rec2.Code != http.StatusOK {
		t.Fatalf("replay => want 200, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, okHandler)

	method := http.MethodPost
	path := "/loan-requests/r1/approve"
	h := decisionHeaders()
	body := []byte(`{"x":1}`)

	// Seed provisional "in-progress" entry so SetNX fails and loadEntry
	// sees InProgress=true
	key := buildKey(method, "/loan-requests/:id/approve", h[HeaderActorID], h[HeaderRequestID])
	entry := idempEntry{
		InProgress:  true,
		BodySHA256:  bodyHash(body),
		RequestID:   h[HeaderRequestID],
		RequestAtMS: time.Now().UnixMilli(),
		CreatedAt:   time.Now().UTC(),
	}
	if ok, err := provisionalSet(context.Background(), rdb, key, entry); err != nil || !ok {
		t.Fatalf("seed provisional failed, ok=%v err=%v", ok, err)
	}

	rec := doReq(t, e, method, path, bytes.NewReader(body), h)
	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func Test_Conflict_When_SameReqID_DifferentBody(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 2*time.Minute, okHandler)

	method := http.MethodPost
	path := "/loan-requests/r1/approve"
	h := decisionHeaders()

	body1 := []byte(`{"x":1}`)
	body2 := []byte(`{"x":2}`)

	// Seed FINAL entry with body hash of body1 so the middleware detects a
	// different body for the same request id
	key := buildKey(method, "/loan-requests/:id/approve", h[HeaderActorID], h[HeaderRequestID])
	final := idempEntry{
		InProgress:  false,
		Code:        http.StatusOK,
		Body:        []byte(`{"approved":true}`),
		BodySHA256:  bodyHash(body1),
		RequestID:   h[HeaderRequestID],
		RequestAtMS: time.Now().UnixMilli(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := saveFinal(context.Background(), rdb, key, final, time.Minute*5); err != nil {
		t.Fatalf("seed final failed: %v", err)
	}

	rec := doReq(t, e, method, path, bytes.NewReader(body2), h)
	if rec.Code != http.StatusConflict {
		t.Fatalf("different body same reqID => want 409, got %d", rec.Code)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	// Client pointing at a closed address → SetNX error
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	e := setupEcho(rdb, time.Minute, okHandler)

	rec := doReq(t, e, http.MethodPost, "/loan-requests/r1/approve", bytes.NewReader([]byte(`{}`)), decisionHeaders())
	if rec.Code != http.StatusServiceUnavailable && rec.Code != http.StatusBadGateway {
		t.Fatalf("store unavailable => want 503-ish, got %d", rec.Code)
	}
}

func Test_ActorClaims(t *testing.T) {
	e := echo.New()
	e.HideBanner = true
	var gotID, gotRole string
	g := e.Group("", ActorClaims())
	g.POST("/decide", func(c echo.Context) error {
		gotID = ActorID(c)
		gotRole = ActorRole(c)
		return c.NoContent(http.StatusOK)
	})

	// both headers present
	rec := doReq(t, e, http.MethodPost, "/decide", nil, map[string]string{
		HeaderActorID:   strings.Repeat("b", 32),
		HeaderActorRole: "HOP",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if gotID != strings.Repeat("b", 32) || gotRole != "HOP" {
		t.Fatalf("claims = (%q, %q)", gotID, gotRole)
	}

	// missing role header
	rec = doReq(t, e, http.MethodPost, "/decide", nil, map[string]string{
		HeaderActorID: strings.Repeat("b", 32),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing role => want 400, got %d", rec.Code)
	}
}
