package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/claudiabdm/rock-paper-scissors/internal/game"
)

// getOrCreateSession retrieves the session ID from the cookie or creates a new one.
func (app *App) getOrCreateSession(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err == nil {
		if _, perr := uuid.Parse(sessionID); perr == nil {
			return sessionID
		}
	}
	sessionID = uuid.NewString()
	app.setSessionCookie(c, sessionID)
	logInfo("Created new session: %s", sessionID)
	return sessionID
}

func (app *App) setSessionCookie(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, sessionID, int(app.Config.CookieMaxAge.Seconds()), "/", "", app.IsProduction, true)
}

// currentSession returns the live session for the request, starting one if needed.
func (app *App) currentSession(c *gin.Context) (*Session, error) {
	return app.getSession(app.getOrCreateSession(c))
}

// getSession retrieves or creates the Session for an ID.
func (app *App) getSession(sessionID string) (*Session, error) {
	app.SessionMutex.RLock()
	sess, exists := app.Sessions[sessionID]
	app.SessionMutex.RUnlock()
	if exists {
		sess.touch()
		return sess, nil
	}

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	if sess, exists := app.Sessions[sessionID]; exists {
		sess.touch()
		return sess, nil
	}
	sess, err := app.newSession(sessionID)
	if err != nil {
		return nil, err
	}
	app.Sessions[sessionID] = sess
	logInfo("Started game for session: %s", sessionID)
	return sess, nil
}

func (app *App) newSession(sessionID string) (*Session, error) {
	sess := &Session{
		ID:         sessionID,
		renderer:   app.Renderer,
		lastAccess: time.Now(),
		clients:    make(map[*wsClient]struct{}),
	}
	logger := log.With().Str("session", sessionID).Logger()
	m, err := game.NewMachine(game.Config{
		RevealDelay: app.Config.RevealDelay,
		Surface:     sess,
		Logger:      &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("start session %s: %w", sessionID, err)
	}
	sess.Machine = m
	go m.Run()
	return sess, nil
}

// dropSession removes a session and stops its machine.
func (app *App) dropSession(sessionID string) {
	app.SessionMutex.Lock()
	sess, exists := app.Sessions[sessionID]
	delete(app.Sessions, sessionID)
	app.SessionMutex.Unlock()
	if exists {
		sess.close()
		logInfo("Dropped session: %s", sessionID)
	}
}

// sweepExpiredSessions closes sessions idle for longer than maxAge and
// returns how many were removed.
func (app *App) sweepExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	app.SessionMutex.Lock()
	expired := lo.PickBy(app.Sessions, func(_ string, sess *Session) bool {
		return sess.idleSince().Before(cutoff)
	})
	for id := range expired {
		delete(app.Sessions, id)
	}
	app.SessionMutex.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	if len(expired) > 0 {
		logInfo("Session sweep removed %d idle session%s", len(expired), plural(len(expired)))
	}
	return len(expired)
}

// runSessionSweeper sweeps idle sessions until ctx is done.
func (app *App) runSessionSweeper(ctx context.Context) {
	interval := app.Config.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.sweepExpiredSessions(app.Config.SessionTimeout)
		}
	}
}

// closeAllSessions stops every machine; used on shutdown.
func (app *App) closeAllSessions() {
	app.SessionMutex.Lock()
	sessions := lo.Values(app.Sessions)
	app.Sessions = make(map[string]*Session)
	app.SessionMutex.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

func (s *Session) close() {
	s.Machine.Close()
	s.mu.Lock()
	for client := range s.clients {
		delete(s.clients, client)
		close(client.send)
	}
	s.mu.Unlock()
}

// Show pushes the board to the session's websocket clients. It runs on the
// machine's goroutine and must not call back into the machine.
func (s *Session) Show(snap game.Snapshot) {
	msg, err := s.renderer.PushBoard(snap)
	if err != nil {
		logWarn("Session %s: render board push: %v", s.ID, err)
		return
	}
	s.broadcast(msg)
}

// ShowScore pushes the score readout to the session's websocket clients.
func (s *Session) ShowScore(score int) {
	msg, err := s.renderer.PushScore(score, true)
	if err != nil {
		logWarn("Session %s: render score push: %v", s.ID, err)
		return
	}
	s.broadcast(msg)
}
