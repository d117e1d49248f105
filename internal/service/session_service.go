package service

import (
	"context"
	"errors"
	"time"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/logger"
	"github.com/simulai/simulai/pkg/tracing"
)

const DefaultSessionStateTTL = 24 * time.Hour

// SessionService keeps the per scenario timer of each caller. The committed
// time comes from saved conversations, the running session lives in the
// state store until the conversation is saved.
type SessionService struct {
	access        scenarioAccess
	conversations domain.ConversationRepository
	store         domain.SessionStateStore
	ttl           time.Duration
	logger        logger.Logger
	metrics       *Metrics
	now           func() time.Time
}

type SessionServiceConfig struct {
	Scenarios     domain.ScenarioRepository
	Users         domain.UserRepository
	Conversations domain.ConversationRepository
	Store         domain.SessionStateStore
	StateTTL      time.Duration
	Logger        logger.Logger
	Metrics       *Metrics
}

func NewSessionService(cfg SessionServiceConfig) *SessionService {
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = DefaultSessionStateTTL
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	return &SessionService{
		access:        scenarioAccess{scenarios: cfg.Scenarios, users: cfg.Users},
		conversations: cfg.Conversations,
		store:         cfg.Store,
		ttl:           ttl,
		logger:        cfg.Logger,
		metrics:       metrics,
		now:           time.Now,
	}
}

func (s *SessionService) Status(ctx context.Context, scenarioID string) (*domain.SessionStatus, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	scenario, err := s.access.load(ctx, p, scenarioID)
	if err != nil {
		return nil, err
	}
	timer, err := s.timer(ctx, scenario, p.UserID)
	if err != nil {
		return nil, err
	}
	return timer.Status(s.now()), nil
}

func (s *SessionService) Start(ctx context.Context, scenarioID string, checkpoint domain.SessionCheckpoint) (*domain.SessionStatus, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "SessionService", "Start")
	defer span.End()

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	scenario, err := s.access.load(ctx, p, scenarioID)
	if err != nil {
		return nil, err
	}
	timer, err := s.timer(ctx, scenario, p.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := timer.Start(now, checkpoint.Duration()); err != nil {
		if errors.Is(err, domain.ErrSessionExhausted) {
			s.metrics.SessionExhausted.Inc()
			if saveErr := s.save(ctx, timer, scenarioID, p.UserID, now); saveErr != nil {
				return nil, saveErr
			}
		}
		return nil, err
	}
	if err := s.save(ctx, timer, scenarioID, p.UserID, now); err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}

	s.metrics.SessionStarts.Inc()
	s.logger.WithFields(map[string]interface{}{
		"scenario_id": scenarioID,
		"user_id":     p.UserID,
	}).Debug("Session started")
	return timer.Status(now), nil
}

// Heartbeat checkpoints the running session. The returned status is
// exhausted once the budget is spent and the client must stop the avatar.
func (s *SessionService) Heartbeat(ctx context.Context, scenarioID string, checkpoint domain.SessionCheckpoint) (*domain.SessionStatus, error) {
	return s.checkpoint(ctx, scenarioID, checkpoint, false)
}

func (s *SessionService) Stop(ctx context.Context, scenarioID string, checkpoint domain.SessionCheckpoint) (*domain.SessionStatus, error) {
	return s.checkpoint(ctx, scenarioID, checkpoint, true)
}

func (s *SessionService) checkpoint(ctx context.Context, scenarioID string, checkpoint domain.SessionCheckpoint, stop bool) (*domain.SessionStatus, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	scenario, err := s.access.load(ctx, p, scenarioID)
	if err != nil {
		return nil, err
	}
	timer, err := s.timer(ctx, scenario, p.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	wasRunning := timer.Running()
	if stop {
		timer.Stop(now, checkpoint.Duration())
	} else {
		timer.Checkpoint(now, checkpoint.Duration())
	}
	if err := s.save(ctx, timer, scenarioID, p.UserID, now); err != nil {
		return nil, err
	}

	if !stop && wasRunning && timer.Exhausted(now) {
		s.metrics.SessionExhausted.Inc()
	}
	return timer.Status(now), nil
}

// Pending is the time of the unsaved session of userID, stopped at now
func (s *SessionService) Pending(ctx context.Context, scenarioID, userID string) (time.Duration, error) {
	state, err := s.store.Get(ctx, scenarioID, userID)
	if err != nil {
		return 0, err
	}
	if state == nil {
		return 0, nil
	}

	scenario, err := s.access.scenarios.GetScenario(ctx, scenarioID)
	if err != nil {
		return 0, err
	}
	used, err := s.conversations.SumElapsed(ctx, scenarioID, userID)
	if err != nil {
		return 0, err
	}
	timer := domain.NewSessionTimer(scenario.TimeLimitDuration(), used, state)
	timer.Stop(s.now(), 0)
	return timer.Partial, nil
}

// Commit returns the pending time of userID and clears the state. The
// returned duration is what the saved conversation accounts for.
func (s *SessionService) Commit(ctx context.Context, scenarioID, userID string) (time.Duration, error) {
	d, err := s.Pending(ctx, scenarioID, userID)
	if err != nil {
		return 0, err
	}
	if err := s.Clear(ctx, scenarioID, userID); err != nil {
		return 0, err
	}
	return d, nil
}

// Clear drops the stored state without accounting it
func (s *SessionService) Clear(ctx context.Context, scenarioID, userID string) error {
	return s.store.Delete(ctx, scenarioID, userID)
}

func (s *SessionService) timer(ctx context.Context, scenario *domain.Scenario, userID string) (*domain.SessionTimer, error) {
	used, err := s.conversations.SumElapsed(ctx, scenario.ID, userID)
	if err != nil {
		return nil, err
	}
	state, err := s.store.Get(ctx, scenario.ID, userID)
	if err != nil {
		return nil, err
	}
	return domain.NewSessionTimer(scenario.TimeLimitDuration(), used, state), nil
}

func (s *SessionService) save(ctx context.Context, timer *domain.SessionTimer, scenarioID, userID string, now time.Time) error {
	return s.store.Save(ctx, timer.State(scenarioID, userID, now), s.ttl)
}
