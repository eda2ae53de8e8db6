package verify

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/user/voicegate/internal/audio"
)

// Session states.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// SessionConfig bounds the verification protocol for one monitored period.
type SessionConfig struct {
	Checks    int     // Checkpoint count N (default: 3)
	PassRatio float64 // Minimum passed/total ratio R to pass overall (default: 0.7)
}

// DefaultSessionConfig returns the reference protocol parameters.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{Checks: 3, PassRatio: 0.7}
}

// Result aggregates all checkpoint outcomes of a completed session.
type Result struct {
	Identity    string
	Outcomes    []*Outcome
	PassCount   int
	TotalChecks int
	Passed      bool
}

// Session runs a bounded number of verification checkpoints and combines
// them into one pass/fail outcome. A failed checkpoint is recorded and the
// protocol proceeds; it is never retried. Tolerating a minority of failed
// checks is deliberate allowance for transient acoustic noise.
//
// Checkpoint spacing over the monitored period is the caller's concern; the
// session defines only how many checks run and how they combine.
type Session struct {
	ID       uuid.UUID
	identity string

	verifier *Verifier
	cfg      SessionConfig

	state     State
	outcomes  []*Outcome
	passCount int
	mutex     sync.Mutex
}

// NewSession creates a session for one identity. Zero config fields fall
// back to DefaultSessionConfig.
func NewSession(verifier *Verifier, identity string, cfg SessionConfig) *Session {
	def := DefaultSessionConfig()
	if cfg.Checks <= 0 {
		cfg.Checks = def.Checks
	}
	if cfg.PassRatio <= 0 || cfg.PassRatio > 1 {
		cfg.PassRatio = def.PassRatio
	}

	return &Session{
		ID:       uuid.New(),
		identity: identity,
		verifier: verifier,
		cfg:      cfg,
		state:    StateNotStarted,
		outcomes: make([]*Outcome, 0, cfg.Checks),
	}
}

// State returns the current protocol state.
func (s *Session) State() State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// Remaining returns how many checkpoints are still due.
func (s *Session) Remaining() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cfg.Checks - len(s.outcomes)
}

// Start transitions the session into the running state.
func (s *Session) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state != StateNotStarted {
		return fmt.Errorf("session %s already %s", s.ID, s.state)
	}
	s.state = StateRunning

	log.Info().
		Str("session_id", s.ID.String()).
		Str("identity", s.identity).
		Int("checks", s.cfg.Checks).
		Float64("pass_ratio", s.cfg.PassRatio).
		Msg("Verification session started")

	return nil
}

// Checkpoint verifies one utterance and records the outcome. After the last
// checkpoint the session transitions to completed. Pipeline errors (no
// usable signal, missing profile) surface to the caller and do not consume
// a checkpoint.
func (s *Session) Checkpoint(ctx context.Context, w audio.Waveform) (*Outcome, error) {
	if err := s.checkRunning(); err != nil {
		return nil, err
	}

	outcome, err := s.verifier.Verify(ctx, s.identity, w)
	if err != nil {
		return nil, err
	}

	return s.record(outcome), nil
}

// CheckpointFeatures is Checkpoint for an already-extracted feature matrix.
func (s *Session) CheckpointFeatures(ctx context.Context, features [][]float64) (*Outcome, error) {
	if err := s.checkRunning(); err != nil {
		return nil, err
	}

	outcome, err := s.verifier.VerifyFeatures(ctx, s.identity, features)
	if err != nil {
		return nil, err
	}

	return s.record(outcome), nil
}

func (s *Session) checkRunning() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state != StateRunning {
		return fmt.Errorf("session %s is %s, cannot run checkpoint", s.ID, s.state)
	}
	return nil
}

func (s *Session) record(outcome *Outcome) *Outcome {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.outcomes = append(s.outcomes, outcome)
	if outcome.Accepted {
		s.passCount++
	}

	check := len(s.outcomes)
	if check == s.cfg.Checks {
		s.state = StateCompleted
	}

	log.Info().
		Str("session_id", s.ID.String()).
		Str("identity", s.identity).
		Int("check", check).
		Int("of", s.cfg.Checks).
		Bool("accepted", outcome.Accepted).
		Msg("Session checkpoint recorded")

	return outcome
}

// Result returns the aggregate decision. Only valid once all checkpoints
// have run.
func (s *Session) Result() (*Result, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state != StateCompleted {
		return nil, fmt.Errorf("session %s is %s, result not available", s.ID, s.state)
	}

	passed := float64(s.passCount)/float64(s.cfg.Checks) >= s.cfg.PassRatio

	result := &Result{
		Identity:    s.identity,
		Outcomes:    append([]*Outcome(nil), s.outcomes...),
		PassCount:   s.passCount,
		TotalChecks: s.cfg.Checks,
		Passed:      passed,
	}

	log.Info().
		Str("session_id", s.ID.String()).
		Str("identity", s.identity).
		Int("passed_checks", s.passCount).
		Int("total_checks", s.cfg.Checks).
		Bool("passed", passed).
		Msg("Verification session completed")

	return result, nil
}
