package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/claudiabdm/rock-paper-scissors/internal/game"
	"github.com/claudiabdm/rock-paper-scissors/internal/overlay"
	"github.com/claudiabdm/rock-paper-scissors/internal/render"
)

// App holds the server's shared state.
type App struct {
	Config       Config
	IsProduction bool
	StartTime    time.Time
	Renderer     *render.Renderer

	Sessions     map[string]*Session
	SessionMutex sync.RWMutex

	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex
}

// Session is one browser's game: its machine, its rules overlay and the
// websocket clients watching it.
type Session struct {
	ID      string
	Machine *game.Machine
	Overlay overlay.Controller

	renderer *render.Renderer

	mu         sync.Mutex
	lastAccess time.Time
	clients    map[*wsClient]struct{}
}
