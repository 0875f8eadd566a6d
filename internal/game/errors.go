package game

import "errors"

var (
	ErrClosed    = errors.New("game machine closed")
	ErrNoSurface = errors.New("game machine requires a surface")
)
