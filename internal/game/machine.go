package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRevealDelay is how long the house pick stays hidden.
const DefaultRevealDelay = time.Second

// Config configures a Machine. Surface is required.
type Config struct {
	RevealDelay time.Duration
	Opponent    func() Choice
	Surface     Surface
	Logger      *zerolog.Logger
}

type actionKind int

const (
	actionActivate actionKind = iota
	actionReveal
	actionRestart
	actionReset
	actionSnapshot
)

type action struct {
	kind       actionKind
	target     Target
	generation uint64
	reply      chan Snapshot
}

// Machine owns one board: its state, the active round and the score. All of
// it is only touched from the Run goroutine.
type Machine struct {
	delay    time.Duration
	opponent func() Choice
	surface  Surface
	log      zerolog.Logger

	state      State
	round      *Round
	outcome    Outcome
	score      int
	generation uint64
	timer      *time.Timer

	actions   chan action
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewMachine creates a machine in the Selecting state. Call Run in its own
// goroutine before using it.
func NewMachine(cfg Config) (*Machine, error) {
	if cfg.Surface == nil {
		return nil, ErrNoSurface
	}
	m := &Machine{
		delay:    cfg.RevealDelay,
		opponent: cfg.Opponent,
		surface:  cfg.Surface,
		log:      zerolog.Nop(),
		state:    Selecting,
		actions:  make(chan action, 16),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if m.delay <= 0 {
		m.delay = DefaultRevealDelay
	}
	if m.opponent == nil {
		m.opponent = RandomChoice
	}
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	}
	return m, nil
}

// Run processes actions sequentially until Close is called.
func (m *Machine) Run() {
	defer close(m.done)
	defer m.stopTimer()

	for {
		select {
		case <-m.quit:
			return
		case a := <-m.actions:
			m.handle(a)
		}
	}
}

// Close stops the loop. A pending reveal is dropped.
func (m *Machine) Close() {
	m.closeOnce.Do(func() { close(m.quit) })
}

// Done is closed once Run has returned.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Activate handles a click on the board. Anything that is not a catalog
// control while Selecting is ignored.
func (m *Machine) Activate(ctx context.Context, t Target) (Snapshot, error) {
	return m.do(ctx, action{kind: actionActivate, target: t})
}

// Restart discards a resolved round and returns to Selecting.
func (m *Machine) Restart(ctx context.Context) (Snapshot, error) {
	return m.do(ctx, action{kind: actionRestart})
}

// Reset re-initializes the board from any state. The score is kept.
func (m *Machine) Reset(ctx context.Context) (Snapshot, error) {
	return m.do(ctx, action{kind: actionReset})
}

// Snapshot returns the current state.
func (m *Machine) Snapshot(ctx context.Context) (Snapshot, error) {
	return m.do(ctx, action{kind: actionSnapshot})
}

func (m *Machine) do(ctx context.Context, a action) (Snapshot, error) {
	select {
	case <-m.quit:
		return Snapshot{}, ErrClosed
	default:
	}

	a.reply = make(chan Snapshot, 1)
	select {
	case m.actions <- a:
	case <-m.quit:
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, fmt.Errorf("send game action: %w", ctx.Err())
	}

	select {
	case s := <-a.reply:
		return s, nil
	case <-m.done:
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, fmt.Errorf("await game action: %w", ctx.Err())
	}
}

func (m *Machine) handle(a action) {
	before := m.generation
	switch a.kind {
	case actionActivate:
		m.handleActivate(a.target)
	case actionReveal:
		m.handleReveal(a.generation)
	case actionRestart:
		m.handleRestart()
	case actionReset:
		m.enterSelecting()
	}
	if a.reply != nil {
		snap := m.snapshot()
		snap.Changed = m.generation != before
		a.reply <- snap
	}
}

func (m *Machine) handleActivate(t Target) {
	if m.state != Selecting {
		m.log.Debug().Str("state", m.state.String()).Str("target", t.ID).Msg("activation ignored")
		return
	}
	c, ok := ParseChoice(t.ID)
	if !ok || !t.Control {
		m.log.Debug().Str("target", t.ID).Bool("control", t.Control).Msg("not a choice control")
		return
	}

	m.round = &Round{Player: c, House: m.opponent()}
	m.state = Revealing
	m.generation++
	m.log.Debug().Str("player", c.String()).Uint64("generation", m.generation).Msg("revealing")

	m.surface.Show(m.snapshot())
	m.scheduleReveal(m.generation)
}

// scheduleReveal arms the one-shot timer. The callback only enqueues; the
// generation check in handleReveal drops it if the board moved on.
func (m *Machine) scheduleReveal(gen uint64) {
	m.timer = time.AfterFunc(m.delay, func() {
		select {
		case m.actions <- action{kind: actionReveal, generation: gen}:
		case <-m.quit:
		}
	})
}

func (m *Machine) handleReveal(gen uint64) {
	if gen != m.generation || m.state != Revealing {
		m.log.Debug().Uint64("generation", gen).Uint64("current", m.generation).Msg("stale reveal dropped")
		return
	}
	m.timer = nil

	m.outcome = Resolve(m.round.Player, m.round.House)
	m.score = ApplyScore(m.score, m.outcome)
	m.state = Resolved
	m.log.Debug().
		Str("player", m.round.Player.String()).
		Str("house", m.round.House.String()).
		Str("outcome", m.outcome.String()).
		Int("score", m.score).
		Msg("resolved")

	m.surface.ShowScore(m.score)
	m.surface.Show(m.snapshot())
}

func (m *Machine) handleRestart() {
	if m.state != Resolved {
		m.log.Debug().Str("state", m.state.String()).Msg("restart ignored")
		return
	}
	m.enterSelecting()
}

func (m *Machine) enterSelecting() {
	m.stopTimer()
	m.round = nil
	m.outcome = Draw
	m.state = Selecting
	m.generation++
	m.surface.Show(m.snapshot())
}

func (m *Machine) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Machine) snapshot() Snapshot {
	s := Snapshot{
		State:      m.state,
		Outcome:    m.outcome,
		Score:      m.score,
		Generation: m.generation,
	}
	if m.round != nil {
		r := *m.round
		s.Round = &r
	}
	return s
}
