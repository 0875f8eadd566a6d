// Package render turns game snapshots into HTML. It holds no game rules:
// everything it shows comes from the snapshot it is given.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	"github.com/claudiabdm/rock-paper-scissors/internal/game"
	"github.com/claudiabdm/rock-paper-scissors/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

const mediaHTML = "text/html"

// Renderer executes the page templates.
type Renderer struct {
	tmpl     *template.Template
	minifier *minify.M
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMinify minifies fragments produced by Fragment.
func WithMinify() Option {
	return func(r *Renderer) {
		m := minify.New()
		m.Add(mediaHTML, &html.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
		r.minifier = m
	}
}

// New parses the embedded templates.
func New(opts ...Option) (*Renderer, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r := &Renderer{tmpl: tmpl}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Templates exposes the parsed set for gin's HTML renderer.
func (r *Renderer) Templates() *template.Template {
	return r.tmpl
}

// Fragment executes the named template.
func (r *Renderer) Fragment(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	if r.minifier == nil {
		return buf.Bytes(), nil
	}
	out, err := r.minifier.Bytes(mediaHTML, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify %s: %w", name, err)
	}
	return out, nil
}

// PushBoard renders the board as an out-of-band swap.
func (r *Renderer) PushBoard(s game.Snapshot) ([]byte, error) {
	b := Board(s)
	b.OOB = true
	return r.Fragment("board", b)
}

// PushScore renders the score readout as an out-of-band swap. changing plays
// the counter animation.
func (r *Renderer) PushScore(score int, changing bool) ([]byte, error) {
	return r.Fragment("score", types.Score{Value: score, Changing: changing, OOB: true})
}
