package bets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/event"
	"github.com/osse101/StakeBot_Go/internal/logger"
	"github.com/osse101/StakeBot_Go/internal/metrics"
	"github.com/osse101/StakeBot_Go/internal/repository"
)

// CreateBet creates a bet in Voting with its initial options
func (s *service) CreateBet(ctx context.Context, actingUserID, gameID, lockMomentID uuid.UUID, name string, options []string) (*domain.Bet, error) {
	log := logger.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: bet name is required", domain.ErrInvalidInput)
	}
	optionNames, err := normalizeOptionNames(options)
	if err != nil {
		return nil, err
	}

	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, domain.ErrGameNotFound
	}

	moment, err := s.repo.GetLockMoment(ctx, lockMomentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lock moment: %w", err)
	}
	if moment == nil || moment.GameID != gameID {
		return nil, domain.ErrLockMomentNotFound
	}

	now := time.Now()
	bet := &domain.Bet{
		ID:           uuid.New(),
		GameID:       gameID,
		LockMomentID: lockMomentID,
		AuthorID:     actingUserID,
		Name:         name,
		Progress:     domain.BetProgressVoting,
		Version:      0,
		Created:      now,
		Modified:     now,
	}
	for i, optName := range optionNames {
		bet.Options = append(bet.Options, domain.Option{
			ID:    uuid.New(),
			BetID: bet.ID,
			Name:  optName,
			Order: i,
		})
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	acting, err := tx.GetUser(ctx, actingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get acting user: %w", err)
	}
	if acting == nil {
		return nil, domain.ErrUserNotFound
	}

	if err := tx.CreateBet(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}
	for i := range bet.Options {
		if err := tx.CreateOption(ctx, &bet.Options[i]); err != nil {
			return nil, fmt.Errorf("failed to create option: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Created bet", "bet_id", bet.ID, "game_id", gameID, "options", len(bet.Options))
	metrics.BetsCreated.Inc()

	s.publish(ctx, event.Event{
		Version: event.EventSchemaVersion,
		Type:    event.NewBet,
		Payload: domain.NewBetPayload{
			GameID:   gameID,
			GameName: game.Name,
			BetID:    bet.ID,
			BetName:  bet.Name,
			Options:  optionNames,
		},
	})

	return bet, nil
}

// GetBet retrieves a bet with its options and stakes
func (s *service) GetBet(ctx context.Context, betID uuid.UUID) (*domain.Bet, error) {
	return s.repo.GetBet(ctx, betID)
}

// ListBets retrieves a game's bets
func (s *service) ListBets(ctx context.Context, gameID uuid.UUID) ([]domain.Bet, error) {
	return s.repo.ListBets(ctx, gameID)
}

// AddOption appends an option to a bet still in Voting
func (s *service) AddOption(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int, name string) (*domain.Bet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: option name is required", domain.ErrInvalidInput)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	bet, err := s.loadBetForUpdate(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBetManager(ctx, tx, actingUserID, bet); err != nil {
		return nil, err
	}
	if bet.Progress != domain.BetProgressVoting {
		return nil, fmt.Errorf("%w: options can only be edited while voting (current: %s)", domain.ErrInvalidState, bet.Progress)
	}
	for _, opt := range bet.Options {
		if strings.EqualFold(opt.Name, name) {
			return nil, fmt.Errorf("%w: option %q already exists", domain.ErrInvalidInput, name)
		}
	}

	option := domain.Option{
		ID:    uuid.New(),
		BetID: betID,
		Name:  name,
		Order: len(bet.Options),
	}
	if err := tx.CreateOption(ctx, &option); err != nil {
		return nil, fmt.Errorf("failed to create option: %w", err)
	}

	// Editing options counts as a bet mutation: bump the bet version so
	// concurrent editors conflict instead of interleaving.
	if err := tx.UpdateBet(ctx, bet, expectedVersion); err != nil {
		return nil, err
	}
	bet.Version = expectedVersion + 1
	bet.Options = append(bet.Options, option)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return bet, nil
}

// RenameOption renames an option on a bet still in Voting
func (s *service) RenameOption(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int, name string) (*domain.Bet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: option name is required", domain.ErrInvalidInput)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	bet, err := s.loadBetForUpdate(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBetManager(ctx, tx, actingUserID, bet); err != nil {
		return nil, err
	}
	if bet.Progress != domain.BetProgressVoting {
		return nil, fmt.Errorf("%w: options can only be edited while voting (current: %s)", domain.ErrInvalidState, bet.Progress)
	}

	option := bet.FindOption(optionID)
	if option == nil {
		return nil, domain.ErrOptionNotFound
	}
	for _, opt := range bet.Options {
		if opt.ID != optionID && strings.EqualFold(opt.Name, name) {
			return nil, fmt.Errorf("%w: option %q already exists", domain.ErrInvalidInput, name)
		}
	}

	option.Name = name
	if err := tx.UpdateOption(ctx, option); err != nil {
		return nil, fmt.Errorf("failed to update option: %w", err)
	}
	if err := tx.UpdateBet(ctx, bet, expectedVersion); err != nil {
		return nil, err
	}
	bet.Version = expectedVersion + 1

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return bet, nil
}

// RemoveOption removes an option from a bet still in Voting. An option
// holding stakes cannot be removed (withdraw or cancel first), and a bet
// keeps at least two options.
func (s *service) RemoveOption(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int) (*domain.Bet, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	bet, err := s.loadBetForUpdate(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBetManager(ctx, tx, actingUserID, bet); err != nil {
		return nil, err
	}
	if bet.Progress != domain.BetProgressVoting {
		return nil, fmt.Errorf("%w: options can only be edited while voting (current: %s)", domain.ErrInvalidState, bet.Progress)
	}

	option := bet.FindOption(optionID)
	if option == nil {
		return nil, domain.ErrOptionNotFound
	}
	if len(option.Stakes) > 0 {
		return nil, fmt.Errorf("%w: option has active stakes", domain.ErrInvalidState)
	}
	if len(bet.Options) <= domain.MinimumOptions {
		return nil, fmt.Errorf("%w: a bet needs at least %d options", domain.ErrInvalidState, domain.MinimumOptions)
	}

	if err := tx.DeleteOption(ctx, optionID); err != nil {
		return nil, fmt.Errorf("failed to delete option: %w", err)
	}
	if err := tx.UpdateBet(ctx, bet, expectedVersion); err != nil {
		return nil, err
	}
	bet.Version = expectedVersion + 1
	for i := range bet.Options {
		if bet.Options[i].ID == optionID {
			bet.Options = append(bet.Options[:i], bet.Options[i+1:]...)
			break
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return bet, nil
}

// Lock moves a bet from Voting to Locked, closing it to stake changes
func (s *service) Lock(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error) {
	return s.transition(ctx, actingUserID, betID, expectedVersion, "lock",
		func(bet *domain.Bet) error {
			switch bet.Progress {
			case domain.BetProgressVoting:
				bet.Progress = domain.BetProgressLocked
				return nil
			case domain.BetProgressLocked, domain.BetProgressComplete, domain.BetProgressCancelled:
				return fmt.Errorf("%w: cannot lock from %s", domain.ErrInvalidState, bet.Progress)
			default:
				return fmt.Errorf("%w: unknown progress %q", domain.ErrInvalidState, bet.Progress)
			}
		})
}

// Unlock reopens a Locked bet to Voting
func (s *service) Unlock(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error) {
	return s.transition(ctx, actingUserID, betID, expectedVersion, "unlock",
		func(bet *domain.Bet) error {
			switch bet.Progress {
			case domain.BetProgressLocked:
				bet.Progress = domain.BetProgressVoting
				return nil
			case domain.BetProgressVoting, domain.BetProgressComplete, domain.BetProgressCancelled:
				return fmt.Errorf("%w: cannot unlock from %s", domain.ErrInvalidState, bet.Progress)
			default:
				return fmt.Errorf("%w: unknown progress %q", domain.ErrInvalidState, bet.Progress)
			}
		})
}

// transition runs a pure state change (no money movement) as one guarded
// transaction: load, authorize, mutate, compare-and-swap, commit.
func (s *service) transition(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int, op string, mutate func(*domain.Bet) error) (*domain.Bet, error) {
	log := logger.FromContext(ctx)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	bet, err := s.loadBetForUpdate(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if err := s.requireBetManager(ctx, tx, actingUserID, bet); err != nil {
		return nil, err
	}
	if err := mutate(bet); err != nil {
		return nil, err
	}

	if err := tx.UpdateBet(ctx, bet, expectedVersion); err != nil {
		return nil, err
	}
	bet.Version = expectedVersion + 1

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Bet transition applied", "bet_id", betID, "op", op, "progress", bet.Progress, "version", bet.Version)
	return bet, nil
}

// publish sends a feed event, logging rather than failing on error: the
// ledger mutation has already committed.
func (s *service) publish(ctx context.Context, evt event.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, evt); err != nil {
		metrics.EventHandlerErrors.WithLabelValues(string(evt.Type)).Inc()
		logger.FromContext(ctx).Error("Failed to publish feed event", "type", evt.Type, "error", err)
	}
}

func normalizeOptionNames(options []string) ([]string, error) {
	if len(options) < domain.MinimumOptions {
		return nil, fmt.Errorf("%w: a bet needs at least %d options", domain.ErrInvalidInput, domain.MinimumOptions)
	}
	seen := make(map[string]bool, len(options))
	names := make([]string, 0, len(options))
	for _, raw := range options {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, fmt.Errorf("%w: option names must not be empty", domain.ErrInvalidInput)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate option %q", domain.ErrInvalidInput, name)
		}
		seen[key] = true
		names = append(names, name)
	}
	return names, nil
}
