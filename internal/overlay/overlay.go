// Package overlay tracks the rules panel. It is independent of the game board.
package overlay

import "sync"

// Attributes are the accessibility attributes the page applies in lockstep.
type Attributes struct {
	Open          bool `json:"open"`
	OverlayHidden bool `json:"overlayHidden"`
	MainHidden    bool `json:"mainHidden"`
	HeaderHidden  bool `json:"headerHidden"`
}

// OverlayClass returns the visibility class for the panel.
func (a Attributes) OverlayClass() string {
	if a.Open {
		return "modal modal--open"
	}
	return "modal"
}

// Controller owns the open/closed flag. The zero value is closed.
type Controller struct {
	mu   sync.Mutex
	open bool
}

// Toggle flips the panel and returns the resulting attributes.
func (c *Controller) Toggle() Attributes {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = !c.open
	return attributesFor(c.open)
}

// Attributes returns the current attributes without changing anything.
func (c *Controller) Attributes() Attributes {
	c.mu.Lock()
	defer c.mu.Unlock()
	return attributesFor(c.open)
}

func attributesFor(open bool) Attributes {
	return Attributes{
		Open:          open,
		OverlayHidden: !open,
		MainHidden:    open,
		HeaderHidden:  open,
	}
}
