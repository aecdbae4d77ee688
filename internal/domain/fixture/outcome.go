package fixture

import (
	"errors"
	"fmt"
	"strings"
)

// ResultDraw is the stored result value for a drawn fixture.
const ResultDraw = "DRAW"

var (
	ErrUnknownSide      = errors.New("unknown fixture side")
	ErrUnknownResult    = errors.New("unknown fixture result")
	ErrFixtureResolved  = errors.New("fixture result already recorded")
	ErrFixtureProcessed = errors.New("fixture result already processed")
)

// Side selects one of the two teams in a fixture.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// ParseSide normalizes a caller-supplied side string.
func ParseSide(raw string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(raw))) {
	case SideHome:
		return SideHome, nil
	case SideAway:
		return SideAway, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSide, raw)
	}
}

// TeamForSide resolves a side to the team short code it denotes.
func (f Fixture) TeamForSide(side Side) (string, error) {
	switch side {
	case SideHome:
		return f.HomeShort, nil
	case SideAway:
		return f.AwayShort, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSide, side)
	}
}

// ResultKind is the organiser-supplied result of a fixture.
type ResultKind string

const (
	ResultHomeWin  ResultKind = "home_win"
	ResultAwayWin  ResultKind = "away_win"
	ResultKindDraw ResultKind = "draw"
)

// ParseResultKind normalizes a caller-supplied result string.
func ParseResultKind(raw string) (ResultKind, error) {
	switch ResultKind(strings.ToLower(strings.TrimSpace(raw))) {
	case ResultHomeWin:
		return ResultHomeWin, nil
	case ResultAwayWin:
		return ResultAwayWin, nil
	case ResultKindDraw:
		return ResultKindDraw, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownResult, raw)
	}
}

// StoredResult converts a result kind into the value persisted on the
// fixture: the winning team's short code, or ResultDraw.
func (f Fixture) StoredResult(kind ResultKind) (string, error) {
	switch kind {
	case ResultHomeWin:
		return f.HomeShort, nil
	case ResultAwayWin:
		return f.AwayShort, nil
	case ResultKindDraw:
		return ResultDraw, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownResult, kind)
	}
}

// Outcome is a picking player's derived result for a fixture.
type Outcome string

const (
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
	OutcomePending Outcome = "pending"
)

// PickOutcome derives the outcome of picking team (a short code) in this
// fixture. A pick wins iff the stored result equals the picked team; a draw
// is a non-win and counts as a loss.
func (f Fixture) PickOutcome(team string) Outcome {
	if !f.Resolved() {
		return OutcomePending
	}
	if *f.Result == team {
		return OutcomeWin
	}
	return OutcomeLoss
}
