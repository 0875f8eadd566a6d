package main

// Session configuration constants
const (
	SessionCookieName = "session_id"
)

// Route constants
const (
	RouteHome        = "/"
	RouteNewGame     = "/new-game"
	RouteActivate    = "/activate"
	RoutePlayAgain   = "/play-again"
	RouteGameState   = "/game-state"
	RouteView        = "/api/view"
	RouteRulesToggle = "/rules/toggle"
	RouteWebsocket   = "/ws"
	RouteHealthz     = "/healthz"
)

// Template names
const (
	TemplatePage    = "index.html"
	TemplateApp     = "app"
	TemplateContent = "game-content"
)

// Error message constants
const (
	ErrorGameUnavailable = "The game is unavailable. Please reload the page."
	ErrorTooManyRequests = "Too many requests. Please slow down."
)

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)

type contextKey string
