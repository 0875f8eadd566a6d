package render

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/claudiabdm/rock-paper-scissors/internal/game"
	"github.com/claudiabdm/rock-paper-scissors/internal/overlay"
	"github.com/claudiabdm/rock-paper-scissors/internal/types"
)

const (
	Title = "Rock, Paper, Scissors"

	LabelPlayer  = "you picked"
	LabelHouse   = "the house picked"
	LabelRestart = "play again"
)

// IconURL returns the asset path for a choice graphic.
func IconURL(c game.Choice) string {
	return fmt.Sprintf("/static/images/icon-%s.svg", c)
}

// Selectable builds an option the player can click.
func Selectable(c game.Choice, position int) types.Item {
	return types.Item{
		Kind:       types.KindOption,
		Choice:     c.String(),
		Position:   position,
		Selectable: true,
		AriaLabel:  "Choose " + c.String(),
		Icon:       IconURL(c),
	}
}

// Revealed builds a picked option that can no longer be clicked.
func Revealed(c game.Choice, position int, label string, winner bool) types.Item {
	return types.Item{
		Kind:     types.KindOption,
		Choice:   c.String(),
		Position: position,
		Icon:     IconURL(c),
		Label:    label,
		Winner:   winner,
	}
}

// Picking builds the placeholder shown while the house pick is hidden.
func Picking() types.Item {
	return types.Item{Kind: types.KindPicking}
}

// Result builds the summary card with its restart control.
func Result(o game.Outcome) types.Result {
	return types.Result{
		Outcome:      o.String(),
		Text:         o.Text(),
		RestartLabel: LabelRestart,
	}
}

// Board maps a snapshot to the list the page shows.
func Board(s game.Snapshot) types.Board {
	b := types.Board{State: s.State.String()}

	switch {
	case s.State == game.Selecting || s.Round == nil:
		b.Items = lo.Map(game.Choices(), func(c game.Choice, i int) types.Item {
			return Selectable(c, i+1)
		})
	case s.State == game.Revealing:
		b.Results = true
		b.Items = []types.Item{
			Revealed(s.Round.Player, 1, "", false),
			Picking(),
		}
	default:
		b.Results = true
		b.Items = []types.Item{
			Revealed(s.Round.Player, 1, LabelPlayer, s.Outcome == game.PlayerWin),
			Revealed(s.Round.House, 2, LabelHouse, s.Outcome == game.PlayerLose),
		}
		r := Result(s.Outcome)
		b.Result = &r
	}
	return b
}

// ScoreReadout builds the score counter.
func ScoreReadout(score int, changing bool) types.Score {
	return types.Score{Value: score, Changing: changing}
}

// Chrome maps the overlay attributes onto the page.
func Chrome(a overlay.Attributes) types.Chrome {
	return types.Chrome{
		OverlayClass:  a.OverlayClass(),
		OverlayHidden: a.OverlayHidden,
		MainHidden:    a.MainHidden,
		HeaderHidden:  a.HeaderHidden,
	}
}

// PageFor builds the full page view.
func PageFor(s game.Snapshot, a overlay.Attributes) types.Page {
	return types.Page{
		Title:  Title,
		Board:  Board(s),
		Score:  ScoreReadout(s.Score, false),
		Chrome: Chrome(a),
	}
}

// Content builds the board fragment returned to htmx requests. The score is
// swapped out of band. Neither view animates the score; only the push sent
// when a round resolves does.
func Content(s game.Snapshot) types.Page {
	p := types.Page{
		Title: Title,
		Board: Board(s),
		Score: ScoreReadout(s.Score, false),
	}
	p.Score.OOB = true
	return p
}
