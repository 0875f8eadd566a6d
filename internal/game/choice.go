package game

import (
	"crypto/rand"
	"math/big"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Choice is one of the selectable options. Its value doubles as the control
// identifier and the asset key (icon-<choice>).
type Choice string

const (
	Rock     Choice = "rock"
	Paper    Choice = "paper"
	Scissors Choice = "scissors"
)

var catalog = []Choice{Rock, Paper, Scissors}

// Choices returns the ordered catalog.
func Choices() []Choice {
	out := make([]Choice, len(catalog))
	copy(out, catalog)
	return out
}

// ParseChoice maps a control identifier to a Choice.
func ParseChoice(id string) (Choice, bool) {
	return lo.Find(catalog, func(c Choice) bool {
		return string(c) == id
	})
}

func (c Choice) String() string {
	return string(c)
}

// Valid reports whether c is part of the catalog.
func (c Choice) Valid() bool {
	return lo.Contains(catalog, c)
}

// RandomChoice draws a catalog member uniformly from the process-wide
// crypto/rand reader.
func RandomChoice() Choice {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(catalog))))
	if err != nil {
		log.Warn().Err(err).Msg("random choice failed, using fallback")
		return catalog[0]
	}
	return catalog[n.Int64()]
}
