package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_session_state_store.go -package mocks github.com/simulai/simulai/internal/domain SessionStateStore
//go:generate mockgen -destination mocks/mock_session_service.go -package mocks github.com/simulai/simulai/internal/domain SessionService

// SessionIdleTimeout bounds how much of a running segment is charged after
// the last start or checkpoint. Time a client spends disconnected beyond it
// is not billed.
const SessionIdleTimeout = 2 * time.Minute

// SessionTimer accounts conversation time of one user on one scenario.
//
// Used is the time already committed by saved conversations. Partial is the
// time of the current, not yet saved, session up to the last checkpoint.
// While running, the segment since StartedAt is added on top, up to
// LastSeen plus SessionIdleTimeout.
type SessionTimer struct {
	Limit     time.Duration
	Used      time.Duration
	Partial   time.Duration
	StartedAt time.Time
	LastSeen  time.Time
}

// NewSessionTimer builds a timer from the scenario budget, committed time
// and the persisted partial state, if any
func NewSessionTimer(limit, used time.Duration, state *SessionState) *SessionTimer {
	t := &SessionTimer{Limit: limit, Used: used}
	if state != nil {
		t.Partial = state.PartialDuration()
		if state.StartedAt != nil {
			t.StartedAt = *state.StartedAt
		}
		t.LastSeen = state.UpdatedAt
	}
	return t
}

func (t *SessionTimer) Unlimited() bool { return t.Limit <= 0 }

func (t *SessionTimer) Running() bool { return !t.StartedAt.IsZero() }

// SessionElapsed is the time of the current session, including the running segment
func (t *SessionTimer) SessionElapsed(now time.Time) time.Duration {
	d := t.Partial
	if !t.Running() {
		return d
	}
	end := now
	if !t.LastSeen.IsZero() {
		if deadline := t.LastSeen.Add(SessionIdleTimeout); end.After(deadline) {
			end = deadline
		}
	}
	if end.After(t.StartedAt) {
		d += end.Sub(t.StartedAt)
	}
	return d
}

// Elapsed is the total time consumed on the scenario
func (t *SessionTimer) Elapsed(now time.Time) time.Duration {
	return t.Used + t.SessionElapsed(now)
}

// Remaining never goes below zero. It is zero for unlimited timers, check Unlimited.
func (t *SessionTimer) Remaining(now time.Time) time.Duration {
	if t.Unlimited() {
		return 0
	}
	r := t.Limit - t.Elapsed(now)
	if r < 0 {
		return 0
	}
	return r
}

func (t *SessionTimer) Exhausted(now time.Time) bool {
	return !t.Unlimited() && t.Remaining(now) <= 0
}

// Start resumes the session. reported is the session time the client kept
// locally, the larger of it and the server measurement wins. On a timer that
// is already running the segment so far is folded in first, so a client that
// reconnects and re-sends its total is not charged twice.
func (t *SessionTimer) Start(now time.Time, reported time.Duration) error {
	t.fold(now, reported)
	if t.Exhausted(now) {
		t.StartedAt = time.Time{}
		return ErrSessionExhausted
	}
	t.StartedAt = now
	return nil
}

// Checkpoint folds the running segment into Partial and adopts the client
// measurement when it is ahead. An exhausted timer stops itself.
func (t *SessionTimer) Checkpoint(now time.Time, reported time.Duration) {
	t.fold(now, reported)
	if t.Exhausted(now) {
		t.StartedAt = time.Time{}
	}
}

// fold moves the running segment into Partial and restarts it at now
func (t *SessionTimer) fold(now time.Time, reported time.Duration) {
	measured := t.SessionElapsed(now)
	if t.Running() {
		t.StartedAt = now
	}
	if reported > measured {
		measured = reported
	}
	t.Partial = measured
	t.LastSeen = now
	t.clamp()
}

// Stop checkpoints and pauses the timer
func (t *SessionTimer) Stop(now time.Time, reported time.Duration) {
	t.Checkpoint(now, reported)
	t.StartedAt = time.Time{}
}

// clamp keeps Used+Partial within the limit
func (t *SessionTimer) clamp() {
	if t.Partial < 0 {
		t.Partial = 0
	}
	if t.Unlimited() {
		return
	}
	if budget := t.Limit - t.Used; t.Partial > budget {
		if budget < 0 {
			budget = 0
		}
		t.Partial = budget
	}
}

// State converts the timer back to its persisted form
func (t *SessionTimer) State(scenarioID, userID string, now time.Time) *SessionState {
	s := &SessionState{
		ScenarioID:     scenarioID,
		UserID:         userID,
		PartialSeconds: t.Partial.Seconds(),
		UpdatedAt:      now,
	}
	if t.Running() {
		started := t.StartedAt
		s.StartedAt = &started
	}
	return s
}

// Status is the client facing snapshot of the timer
func (t *SessionTimer) Status(now time.Time) *SessionStatus {
	st := &SessionStatus{
		TimeLimit: int64(t.Limit.Seconds()),
		Used:      int64(t.Used.Seconds()),
		Partial:   int64(t.SessionElapsed(now).Seconds()),
		Elapsed:   int64(t.Elapsed(now).Seconds()),
		Unlimited: t.Unlimited(),
		Running:   t.Running(),
		Exhausted: t.Exhausted(now),
	}
	if !st.Unlimited {
		remaining := int64(t.Remaining(now).Seconds())
		st.RemainingTime = &remaining
	}
	return st
}

// SessionState is the persisted partial session of a user on a scenario
type SessionState struct {
	ScenarioID     string     `json:"scenario_id"`
	UserID         string     `json:"user_id"`
	PartialSeconds float64    `json:"partial_seconds"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (s *SessionState) PartialDuration() time.Duration {
	return time.Duration(s.PartialSeconds * float64(time.Second))
}

// SessionStatus values are in seconds. RemainingTime is null for unlimited scenarios.
type SessionStatus struct {
	TimeLimit     int64  `json:"time_limit"`
	Used          int64  `json:"used"`
	Partial       int64  `json:"partial"`
	Elapsed       int64  `json:"elapsed"`
	RemainingTime *int64 `json:"remaining_time"`
	Unlimited     bool   `json:"unlimited"`
	Running       bool   `json:"running"`
	Exhausted     bool   `json:"exhausted"`
}

// SessionCheckpoint is what the client reports, in seconds of the current session
type SessionCheckpoint struct {
	Elapsed float64 `json:"elapsed"`
}

func (c SessionCheckpoint) Duration() time.Duration {
	if c.Elapsed <= 0 {
		return 0
	}
	return time.Duration(c.Elapsed * float64(time.Second))
}

type SessionStateStore interface {
	// Get returns nil without error when no state is stored
	Get(ctx context.Context, scenarioID, userID string) (*SessionState, error)
	Save(ctx context.Context, state *SessionState, ttl time.Duration) error
	Delete(ctx context.Context, scenarioID, userID string) error
}

type SessionService interface {
	Status(ctx context.Context, scenarioID string) (*SessionStatus, error)
	Start(ctx context.Context, scenarioID string, checkpoint SessionCheckpoint) (*SessionStatus, error)
	Heartbeat(ctx context.Context, scenarioID string, checkpoint SessionCheckpoint) (*SessionStatus, error)
	Stop(ctx context.Context, scenarioID string, checkpoint SessionCheckpoint) (*SessionStatus, error)
	// Commit returns the partial time of the caller's session and clears it,
	// called when the conversation is saved
	Commit(ctx context.Context, scenarioID, userID string) (time.Duration, error)
}
