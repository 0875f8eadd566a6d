package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/claudiabdm/rock-paper-scissors/internal/game"
	"github.com/claudiabdm/rock-paper-scissors/internal/render"
)

// homeHandler renders the full page for the current session.
func (app *App) homeHandler(c *gin.Context) {
	sess, snap, ok := app.sessionSnapshot(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, TemplatePage, render.PageFor(snap, sess.Overlay.Attributes()))
}

// activateHandler forwards a click on the board to the machine. Clicks that
// are not on a choice control, or that land outside the Selecting state,
// leave the board unchanged.
func (app *App) activateHandler(c *gin.Context) {
	sess, err := app.currentSession(c)
	if err != nil {
		app.renderUnavailable(c, err)
		return
	}
	target := game.NewTarget(c.PostForm("id"), c.PostForm("tag"))
	snap, err := sess.Machine.Activate(c.Request.Context(), target)
	if err != nil {
		app.renderUnavailable(c, err)
		return
	}
	zerolog.Ctx(c.Request.Context()).Debug().
		Str("session", sess.ID).
		Str("target", target.ID).
		Str("state", snap.State.String()).
		Msg("activate")
	app.respond(c, snap)
}

// playAgainHandler starts the next round once the current one is resolved.
func (app *App) playAgainHandler(c *gin.Context) {
	sess, err := app.currentSession(c)
	if err != nil {
		app.renderUnavailable(c, err)
		return
	}
	snap, err := sess.Machine.Restart(c.Request.Context())
	if err != nil {
		app.renderUnavailable(c, err)
		return
	}
	app.respond(c, snap)
}

// newGameHandler abandons the current round, keeping the score. With
// ?reset=1 the session itself is replaced, which also clears the score.
func (app *App) newGameHandler(c *gin.Context) {
	sessionID := app.getOrCreateSession(c)

	if c.Query("reset") == "1" {
		app.dropSession(sessionID)
		sessionID = uuid.NewString()
		app.setSessionCookie(c, sessionID)
		logInfo("Created new session ID: %s", sessionID)
	}

	sess, err := app.getSession(sessionID)
	if err != nil {
		app.renderUnavailable(c, err)
		return
	}
	snap, err := sess.Machine.Reset(c.Request.Context())
	if err != nil {
		app.renderUnavailable(c, err)
		return
	}
	app.respond(c, snap)
}

// gameStateHandler renders the current board as an HTML fragment.
func (app *App) gameStateHandler(c *gin.Context) {
	_, snap, ok := app.sessionSnapshot(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, TemplateContent, render.Content(snap))
}

// rulesToggleHandler opens or closes the rules overlay and re-renders the
// page body with the matching visibility attributes.
func (app *App) rulesToggleHandler(c *gin.Context) {
	sess, err := app.currentSession(c)
	if err != nil {
		app.renderUnavailable(c, err)
		return
	}
	attrs := sess.Overlay.Toggle()
	if !isHTMX(c) {
		c.Redirect(http.StatusSeeOther, RouteHome)
		return
	}
	snap, err := sess.Machine.Snapshot(c.Request.Context())
	if err != nil {
		app.renderUnavailable(c, err)
		return
	}
	c.HTML(http.StatusOK, TemplateApp, render.PageFor(snap, attrs))
}

// viewHandler returns the page view model as JSON.
func (app *App) viewHandler(c *gin.Context) {
	sess, snap, ok := app.sessionSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshot": snap.Concealed(),
		"page":     render.PageFor(snap, sess.Overlay.Attributes()),
		"overlay":  sess.Overlay.Attributes(),
	})
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	app.SessionMutex.RLock()
	sessions := len(app.Sessions)
	app.SessionMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"env":       app.Config.envName(),
		"sessions":  sessions,
		"uptime":    formatUptime(time.Since(app.StartTime)),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (app *App) sessionSnapshot(c *gin.Context) (*Session, game.Snapshot, bool) {
	sess, err := app.currentSession(c)
	if err != nil {
		app.renderUnavailable(c, err)
		return nil, game.Snapshot{}, false
	}
	snap, err := sess.Machine.Snapshot(c.Request.Context())
	if err != nil {
		app.renderUnavailable(c, err)
		return nil, game.Snapshot{}, false
	}
	return sess, snap, true
}

// respond sends the board fragment to htmx and redirects plain form posts.
// Input the machine ignored gets an empty answer so htmx keeps the board it
// already shows.
func (app *App) respond(c *gin.Context, snap game.Snapshot) {
	if isHTMX(c) {
		if !snap.Changed {
			c.Header("HX-Reswap", "none")
			c.Status(http.StatusNoContent)
			return
		}
		c.HTML(http.StatusOK, TemplateContent, render.Content(snap))
		return
	}
	c.Redirect(http.StatusSeeOther, RouteHome)
}

// renderUnavailable reports a machine that could not answer.
func (app *App) renderUnavailable(c *gin.Context, err error) {
	logger := zerolog.Ctx(c.Request.Context())
	status := http.StatusServiceUnavailable
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Info().Err(err).Msg("request ended before the game answered")
	case errors.Is(err, game.ErrClosed):
		logger.Warn().Err(err).Msg("game closed")
	default:
		status = http.StatusInternalServerError
		logger.Error().Err(err).Msg("game failed")
	}

	if isHTMX(c) {
		payload := map[string]string{"server_error": ErrorGameUnavailable}
		if b, jerr := json.Marshal(payload); jerr == nil {
			c.Header("HX-Trigger", string(b))
		} else {
			logWarn("Failed to marshal HX-Trigger payload: %v", jerr)
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": ErrorGameUnavailable})
}
