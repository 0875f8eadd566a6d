package game

// Outcome is the result of a round from the player's side.
type Outcome int

const (
	Draw Outcome = iota
	PlayerWin
	PlayerLose
)

// beats maps each choice to the one it defeats.
var beats = map[Choice]Choice{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

// Resolve decides a round. Every ordered pair of catalog choices maps to
// exactly one outcome.
func Resolve(player, house Choice) Outcome {
	switch {
	case player == house:
		return Draw
	case beats[player] == house:
		return PlayerWin
	case beats[house] == player:
		return PlayerLose
	}
	return Draw
}

// Invert returns the outcome seen from the other side.
func (o Outcome) Invert() Outcome {
	switch o {
	case PlayerWin:
		return PlayerLose
	case PlayerLose:
		return PlayerWin
	}
	return Draw
}

// String returns the short machine name used in markup and JSON.
func (o Outcome) String() string {
	switch o {
	case PlayerWin:
		return "win"
	case PlayerLose:
		return "lose"
	}
	return "draw"
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Text is the sentence shown on the result card.
func (o Outcome) Text() string {
	switch o {
	case PlayerWin:
		return "you won"
	case PlayerLose:
		return "you lose"
	}
	return "draw"
}

// ApplyScore returns the score after a round with outcome o. The score never
// drops below zero.
func ApplyScore(score int, o Outcome) int {
	switch o {
	case PlayerWin:
		return score + 1
	case PlayerLose:
		if score <= 0 {
			return 0
		}
		return score - 1
	}
	return score
}
