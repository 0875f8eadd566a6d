package main

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/claudiabdm/rock-paper-scissors/internal/overlay"
)

func testConfig() Config {
	return Config{
		Port:           "0",
		Env:            "test",
		LogLevel:       "info",
		RevealDelay:    20 * time.Millisecond,
		SessionTimeout: time.Hour,
		SweepInterval:  time.Minute,
		CookieMaxAge:   time.Hour,
		StaticCacheAge: time.Minute,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
}

// newTestApp builds an app with a short reveal delay
func newTestApp(t *testing.T) *App {
	t.Helper()
	return newTestAppWith(t, testConfig())
}

func newTestAppWith(t *testing.T, cfg Config) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := newApp(cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(app.closeAllSessions)
	return app
}

// browser keeps the session cookie between requests like a real client
type browser struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func newBrowser(t *testing.T, app *App) *browser {
	return &browser{t: t, router: app.setupRouter()}
}

func (b *browser) do(method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName && c.Value != "" {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) activate(id, tag string) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, RouteActivate, url.Values{"id": {id}, "tag": {tag}}, true)
}

type viewResponse struct {
	Snapshot struct {
		State   string `json:"state"`
		Outcome string `json:"outcome"`
		Score   int    `json:"score"`
		Round   *struct {
			Player string `json:"player"`
			House  string `json:"house"`
		} `json:"round"`
	} `json:"snapshot"`
	Overlay overlay.Attributes `json:"overlay"`
}

func (b *browser) view() viewResponse {
	b.t.Helper()
	w := b.do(http.MethodGet, RouteView, nil, false)
	if w.Code != http.StatusOK {
		b.t.Fatalf("GET %s returned status %d", RouteView, w.Code)
	}
	var v viewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		b.t.Fatalf("decode view: %v", err)
	}
	return v
}

func (b *browser) waitForState(state string) viewResponse {
	b.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		v := b.view()
		if v.Snapshot.State == state {
			return v
		}
		if time.Now().After(deadline) {
			b.t.Fatalf("state = %q, want %q", v.Snapshot.State, state)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// assertUnchanged checks an htmx request was answered without a swap.
func assertUnchanged(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if w.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204: %s", w.Code, w.Body.String())
	}
	if w.Body.Len() != 0 {
		t.Errorf("ignored input returned a body: %s", w.Body.String())
	}
	if got := w.Header().Get("HX-Reswap"); got != "none" {
		t.Errorf("HX-Reswap = %q, want none", got)
	}
}

func assertState(t *testing.T, w *httptest.ResponseRecorder, state string) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", w.Code, w.Body.String())
	}
	if want := `data-state="` + state + `"`; !strings.Contains(w.Body.String(), want) {
		t.Errorf("response missing %s:\n%s", want, w.Body.String())
	}
}

// TestHomeHandler checks the full page and session cookie
func TestHomeHandler(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	w := b.do(http.MethodGet, RouteHome, nil, false)
	assertState(t, w, "selecting")
	body := w.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", `ws-connect="/ws"`, `id="rulesModal"`, `id="score"`} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	if b.cookie == nil {
		t.Fatal("no session cookie set")
	}
	if _, err := uuid.Parse(b.cookie.Value); err != nil {
		t.Errorf("session cookie %q is not a uuid", b.cookie.Value)
	}
}

// TestRoundFlow plays one round through reveal and restart
func TestRoundFlow(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	b.do(http.MethodGet, RouteHome, nil, false)

	w := b.activate("rock", "BUTTON")
	assertState(t, w, "revealing")
	if !strings.Contains(w.Body.String(), "game__svg-container--picking") {
		t.Error("revealing board has no placeholder")
	}
	if !strings.Contains(w.Body.String(), `id="score" class="score__number" hx-swap-oob="true"`) {
		t.Error("score not swapped out of band")
	}

	v := b.waitForState("resolved")
	if v.Snapshot.Round == nil || v.Snapshot.Round.Player != "rock" {
		t.Fatalf("resolved round = %+v", v.Snapshot.Round)
	}
	wantScore := 0
	if v.Snapshot.Outcome == "win" {
		wantScore = 1
	}
	if v.Snapshot.Score != wantScore {
		t.Errorf("score after %s = %d, want %d", v.Snapshot.Outcome, v.Snapshot.Score, wantScore)
	}

	w = b.do(http.MethodGet, RouteGameState, nil, true)
	assertState(t, w, "resolved")
	for _, want := range []string{"you picked", "the house picked", "play again"} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("resolved board missing %q", want)
		}
	}
	if strings.Contains(w.Body.String(), "score__number--changing") {
		t.Error("refreshing the board replays the score animation")
	}
	if strings.Contains(w.Body.String(), `hx-post="/activate"`) {
		t.Error("resolved board still posts clicks")
	}

	// Clicks on the board are ignored until play again.
	assertUnchanged(t, b.activate("paper", "BUTTON"))

	w = b.do(http.MethodPost, RoutePlayAgain, url.Values{}, true)
	assertState(t, w, "selecting")
	if got := b.view().Snapshot.Score; got != wantScore {
		t.Errorf("score after restart = %d, want %d", got, wantScore)
	}
}

// TestActivateIgnoresNonChoices checks clicks that are not choice buttons
func TestActivateIgnoresNonChoices(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	cases := []struct{ id, tag string }{
		{"", "UL"},
		{"rock", "IMG"},
		{"playAgain", "BUTTON"},
		{"lizard", "BUTTON"},
	}
	for _, c := range cases {
		assertUnchanged(t, b.activate(c.id, c.tag))
	}
	if v := b.view(); v.Snapshot.Round != nil || v.Snapshot.Score != 0 {
		t.Errorf("view after ignored clicks = %+v", v.Snapshot)
	}
}

// TestPlayAgainOutsideResolved checks restart is a no-op before a round ends
func TestPlayAgainOutsideResolved(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	assertUnchanged(t, b.do(http.MethodPost, RoutePlayAgain, url.Values{}, true))
	if v := b.view(); v.Snapshot.State != "selecting" {
		t.Errorf("state after early restart = %q", v.Snapshot.State)
	}
}

// TestStrayClickWhileRevealing checks a click during the reveal swaps nothing
func TestStrayClickWhileRevealing(t *testing.T) {
	cfg := testConfig()
	cfg.RevealDelay = time.Minute
	b := newBrowser(t, newTestAppWith(t, cfg))

	w := b.activate("paper", "BUTTON")
	assertState(t, w, "revealing")
	if strings.Contains(w.Body.String(), `hx-post="/activate"`) {
		t.Error("revealing board still posts clicks")
	}

	assertUnchanged(t, b.activate("rock", "DIV"))
	assertUnchanged(t, b.activate("rock", "BUTTON"))

	v := b.view()
	if v.Snapshot.State != "revealing" || v.Snapshot.Round == nil || v.Snapshot.Round.Player != "paper" {
		t.Errorf("stray click changed the round: %+v", v.Snapshot)
	}
	if v.Snapshot.Outcome != "" {
		t.Errorf("outcome %q reported before the reveal", v.Snapshot.Outcome)
	}
}

// TestPlainFormPostsRedirect checks non-htmx posts go back home
func TestPlainFormPostsRedirect(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	for _, path := range []string{RouteActivate, RoutePlayAgain, RouteNewGame, RouteRulesToggle} {
		w := b.do(http.MethodPost, path, url.Values{"id": {"rock"}, "tag": {"button"}}, false)
		if w.Code != http.StatusSeeOther {
			t.Errorf("POST %s returned status %d, want 303", path, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != RouteHome {
			t.Errorf("POST %s redirected to %q", path, loc)
		}
	}
}

// TestNewGameDropsPendingReveal checks a reset during the reveal wins over the timer
func TestNewGameDropsPendingReveal(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	assertState(t, b.activate("scissors", "BUTTON"), "revealing")

	w := b.do(http.MethodPost, RouteNewGame, url.Values{}, true)
	assertState(t, w, "selecting")

	time.Sleep(100 * time.Millisecond)
	if v := b.view(); v.Snapshot.State != "selecting" || v.Snapshot.Score != 0 {
		t.Errorf("stale reveal changed the board: %+v", v.Snapshot)
	}
}

// TestNewGameReset checks ?reset=1 issues a fresh session
func TestNewGameReset(t *testing.T) {
	app := newTestApp(t)
	b := newBrowser(t, app)
	b.do(http.MethodGet, RouteHome, nil, false)
	oldID := b.cookie.Value

	w := b.do(http.MethodPost, RouteNewGame+"?reset=1", url.Values{}, true)
	assertState(t, w, "selecting")
	if b.cookie.Value == oldID {
		t.Fatal("reset kept the old session id")
	}

	app.SessionMutex.RLock()
	_, oldExists := app.Sessions[oldID]
	_, newExists := app.Sessions[b.cookie.Value]
	app.SessionMutex.RUnlock()
	if oldExists || !newExists {
		t.Errorf("sessions after reset: old=%v new=%v", oldExists, newExists)
	}
}

// TestInvalidSessionCookieIsReplaced checks non-uuid cookies are not trusted
func TestInvalidSessionCookieIsReplaced(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	b.cookie = &http.Cookie{Name: SessionCookieName, Value: "not-a-session"}
	b.do(http.MethodGet, RouteHome, nil, false)
	if b.cookie.Value == "not-a-session" {
		t.Error("invalid session id was accepted")
	}
}

// TestRulesToggle checks the overlay and page attributes move together
func TestRulesToggle(t *testing.T) {
	b := newBrowser(t, newTestApp(t))

	w := b.do(http.MethodPost, RouteRulesToggle, url.Values{}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("POST %s returned status %d", RouteRulesToggle, w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`class="modal modal--open"`,
		`<header class="header" aria-hidden="true">`,
		`<main class="main" aria-hidden="true">`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("open rules missing %q", want)
		}
	}
	if v := b.view(); !v.Overlay.Open || v.Overlay.OverlayHidden {
		t.Errorf("overlay after open = %+v", v.Overlay)
	}

	w = b.do(http.MethodPost, RouteRulesToggle, url.Values{}, true)
	if strings.Contains(w.Body.String(), "modal--open") {
		t.Error("second toggle left the rules open")
	}
	if v := b.view(); v.Overlay.Open || !v.Overlay.OverlayHidden || v.Overlay.MainHidden || v.Overlay.HeaderHidden {
		t.Errorf("overlay after close = %+v", v.Overlay)
	}
}

// TestRulesToggleKeepsBoard checks the overlay does not disturb a round
func TestRulesToggleKeepsBoard(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	assertState(t, b.activate("paper", "button"), "revealing")
	b.do(http.MethodPost, RouteRulesToggle, url.Values{}, true)
	if v := b.waitForState("resolved"); v.Snapshot.Round.Player != "paper" {
		t.Errorf("round after toggle = %+v", v.Snapshot.Round)
	}
}

// TestHealthzFields checks /healthz reports the expected fields
func TestHealthzFields(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	w := b.do(http.MethodGet, RouteHealthz, nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz returned status %d, want 200", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal /healthz response: %v", err)
	}
	for _, field := range []string{"status", "env", "sessions", "uptime", "timestamp"} {
		if _, ok := resp[field]; !ok {
			t.Errorf("Expected '%s' field in /healthz response", field)
		}
	}
	if resp["env"] != "development" {
		t.Errorf("env = %v, want development", resp["env"])
	}
}

// TestRequestIDHeader checks incoming request IDs are echoed
func TestRequestIDHeader(t *testing.T) {
	router := newTestApp(t).setupRouter()
	req := httptest.NewRequest(http.MethodGet, RouteHealthz, nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id = %q, want abc-123", got)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, RouteHealthz, nil))
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("no request id generated")
	}
}

// TestRateLimitMiddleware checks rate limiting blocks excessive requests
func TestRateLimitMiddleware(t *testing.T) {
	app := newTestApp(t)
	app.Config.RateLimitRPS = 1
	app.Config.RateLimitBurst = 10

	router := gin.New()
	router.Use(app.rateLimitMiddleware())
	router.GET("/limited", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req, _ := http.NewRequest("GET", "/limited", nil)
	req.RemoteAddr = "127.0.0.1:12345"

	// First 10 requests should succeed
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	// 11th request should be rate limited
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("11th request: expected 429 Too Many Requests, got %d", w.Code)
	}
	if w.Header().Get("HX-Trigger") != "rate-limit-exceeded" {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}
}

// TestClosedSessionReportsUnavailable checks a stopped machine maps to 503
func TestClosedSessionReportsUnavailable(t *testing.T) {
	app := newTestApp(t)
	b := newBrowser(t, app)
	b.do(http.MethodGet, RouteHome, nil, false)

	app.SessionMutex.RLock()
	sess := app.Sessions[b.cookie.Value]
	app.SessionMutex.RUnlock()
	sess.Machine.Close()
	<-sess.Machine.Done()

	w := b.activate("rock", "BUTTON")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status %d, want 503", w.Code)
	}
	if !strings.Contains(w.Header().Get("HX-Trigger"), "server_error") {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}
}

func isGzipped(w *httptest.ResponseRecorder) bool {
	return w.Header().Get("Content-Encoding") == "gzip"
}

func decompressGzip(data []byte) (string, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	return string(out), err
}

func TestGzipStaticAssets(t *testing.T) {
	router := newTestApp(t).setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/static/css/styles.css", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if !isGzipped(w) {
		t.Fatalf("Expected gzip Content-Encoding for .css file")
	}
	body, err := decompressGzip(w.Body.Bytes())
	if err != nil || !strings.Contains(body, ".score__number") {
		t.Errorf("Failed to decompress gzipped CSS: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/static/images/icon-rock.svg", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if isGzipped(w) {
		t.Errorf("Did not expect gzip Content-Encoding for .svg file")
	}
	if !strings.Contains(w.Body.String(), "<svg") {
		t.Errorf("Unexpected body for .svg file: %q", w.Body.String())
	}
}

func TestCacheHeadersInDevelopment(t *testing.T) {
	router := newTestApp(t).setupRouter()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/css/styles.css", nil))
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store in development", cc)
	}
}
