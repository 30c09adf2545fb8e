package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veldtgames/warcouncil/internal/logger"
	"github.com/veldtgames/warcouncil/internal/model"
	"github.com/veldtgames/warcouncil/internal/repository"
	"github.com/veldtgames/warcouncil/pkg/wargame"
)

// ErrTurnInProgress is returned when another resolution holds the
// guild's turn lock.
var ErrTurnInProgress = errors.New("turn resolution already in progress")

// Cache is the Redis surface the services need. *redis.Client satisfies
// it; tests substitute a mock.
type Cache interface {
	AcquireTurnLock(ctx context.Context, guildID int64, ttl time.Duration) (bool, error)
	ReleaseTurnLock(ctx context.Context, guildID int64) error
	CacheTurnEvents(ctx context.Context, guildID int64, turn int, events []*model.Event) error
	CachedTurnEvents(ctx context.Context, guildID int64, turn int) ([]*model.Event, error)
}

// TurnService resolves whole turns: eleven phases, each in its own
// transaction, so a crash leaves the guild consistent at a phase
// boundary.
type TurnService struct {
	store       repository.Store
	cache       Cache
	broadcaster Broadcaster
	lockTTL     time.Duration
}

// NewTurnService creates a turn service. A nil broadcaster defaults to
// the no-op implementation; a nil cache disables locking and caching.
func NewTurnService(store repository.Store, cache Cache, broadcaster Broadcaster, lockTTL time.Duration) *TurnService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &TurnService{store: store, cache: cache, broadcaster: broadcaster, lockTTL: lockTTL}
}

// TurnResult reports a completed resolution.
type TurnResult struct {
	ResolvedTurn int            `json:"resolved_turn"`
	CurrentTurn  int            `json:"current_turn"`
	Events       []*model.Event `json:"events"`
}

// AdvanceTurn resolves the guild's current turn and advances the turn
// counter. At most one resolution runs per guild at a time. A guild
// with resolution disabled gets an empty result and no state change.
func (s *TurnService) AdvanceTurn(ctx context.Context, guildID int64) (*TurnResult, error) {
	log := logger.Get()

	cfg, err := s.store.GuildConfig(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("advance turn: %w", err)
	}
	if !cfg.TurnResolutionEnabled {
		log.Info().Int64("guild_id", guildID).Msg("turn resolution disabled, skipping")
		return &TurnResult{CurrentTurn: cfg.CurrentTurn}, nil
	}

	if s.cache != nil {
		ok, err := s.cache.AcquireTurnLock(ctx, guildID, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("advance turn: %w", err)
		}
		if !ok {
			return nil, ErrTurnInProgress
		}
		defer func() {
			if err := s.cache.ReleaseTurnLock(context.WithoutCancel(ctx), guildID); err != nil {
				log.Error().Err(err).Int64("guild_id", guildID).Msg("failed to release turn lock")
			}
		}()
	}

	turn := cfg.CurrentTurn
	started := time.Now()
	log.Info().Int64("guild_id", guildID).Int("turn", turn).Msg("turn resolution started")

	var allEvents []*model.Event
	// Encirclement flags cross the transaction boundary between the
	// encirclement and organization phases; the set rides along here.
	encircled := make(map[string]bool)
	for _, phase := range wargame.PhaseSequence() {
		events, err := s.resolvePhase(ctx, guildID, turn, phase, encircled)
		if errors.Is(err, repository.ErrTransient) {
			log.Warn().Int64("guild_id", guildID).Str("phase", string(phase)).
				Msg("transient store error, retrying phase")
			events, err = s.resolvePhase(ctx, guildID, turn, phase, encircled)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve phase %s: %w", phase, err)
		}
		allEvents = append(allEvents, events...)
	}

	if err := s.advanceCounter(ctx, guildID, turn+1); err != nil {
		return nil, fmt.Errorf("advance turn: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.CacheTurnEvents(ctx, guildID, turn, allEvents); err != nil {
			log.Error().Err(err).Int64("guild_id", guildID).Msg("failed to cache turn events")
		}
	}
	s.broadcaster.BroadcastEvents(guildID, allEvents)

	log.Info().Int64("guild_id", guildID).Int("turn", turn).
		Int("events", len(allEvents)).
		Dur("elapsed", time.Since(started)).
		Msg("turn resolution finished")

	return &TurnResult{ResolvedTurn: turn, CurrentTurn: turn + 1, Events: allEvents}, nil
}

// resolvePhase runs one phase in one transaction: load the world, fetch
// the phase's dispatchable orders, resolve, persist the change set and
// the mutated orders, log the events, commit. Flags accumulated in
// encircled by earlier phases are seeded into the fresh snapshot, and
// flags raised by this phase are copied back out after the commit.
func (s *TurnService) resolvePhase(ctx context.Context, guildID int64, turn int, phase wargame.Phase, encircled map[string]bool) ([]*model.Event, error) {
	txn, err := s.store.Begin(ctx, guildID)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback()

	w, err := LoadWorld(ctx, txn, guildID)
	if err != nil {
		return nil, err
	}
	for id := range encircled {
		w.Encircled[id] = true
	}

	// turn <= cutoff so ONGOING orders submitted on earlier turns keep
	// dispatching.
	active := []string{model.OrderPending, model.OrderOngoing}
	orders, err := txn.FetchOrdersForPhase(ctx, turn, string(phase), active)
	if err != nil {
		return nil, err
	}

	events := wargame.ResolvePhase(w, phase, orders)

	if err := PersistChanges(ctx, txn, w); err != nil {
		return nil, err
	}

	persisted := make(map[string]bool, len(orders))
	for _, o := range orders {
		if err := txn.UpdateOrder(ctx, o); err != nil {
			return nil, err
		}
		persisted[o.OrderID] = true
	}
	// Orders mutated outside the batch: transport coupling, capture
	// settlement.
	for _, o := range w.Changes.OrderUpdates {
		if persisted[o.OrderID] {
			continue
		}
		if err := txn.UpdateOrder(ctx, o); err != nil {
			return nil, err
		}
		persisted[o.OrderID] = true
	}

	if len(events) > 0 {
		if err := txn.InsertEvents(ctx, events); err != nil {
			return nil, err
		}
	}

	if err := txn.Commit(); err != nil {
		return nil, err
	}
	for id := range w.Encircled {
		encircled[id] = true
	}
	return events, nil
}

func (s *TurnService) advanceCounter(ctx context.Context, guildID int64, next int) error {
	txn, err := s.store.Begin(ctx, guildID)
	if err != nil {
		return err
	}
	defer txn.Rollback()
	if err := txn.SetCurrentTurn(ctx, next); err != nil {
		return err
	}
	return txn.Commit()
}
