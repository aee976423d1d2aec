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

// Service defines the interface for wagering operations. Every mutation
// takes the acting user (already session-validated) and the entity version
// the caller read; a stale version fails with domain.ErrVersionConflict
// and the caller is expected to reload and retry.
type Service interface {
	// Games and lock moments
	CreateGame(ctx context.Context, actingUserID uuid.UUID, name string, progress domain.GameProgress, order *int) (*domain.Game, error)
	UpdateGame(ctx context.Context, actingUserID, gameID uuid.UUID, expectedVersion int, name string, progress domain.GameProgress) (*domain.Game, error)
	GetGame(ctx context.Context, gameID uuid.UUID) (*domain.Game, error)
	ListGames(ctx context.Context) ([]domain.Game, error)
	AddLockMoment(ctx context.Context, actingUserID, gameID uuid.UUID, name string, order int) (*domain.LockMoment, error)
	ListLockMoments(ctx context.Context, gameID uuid.UUID) ([]domain.LockMoment, error)
	LockAtMoment(ctx context.Context, actingUserID, lockMomentID uuid.UUID) ([]uuid.UUID, error)

	// Bet lifecycle
	CreateBet(ctx context.Context, actingUserID, gameID, lockMomentID uuid.UUID, name string, options []string) (*domain.Bet, error)
	GetBet(ctx context.Context, betID uuid.UUID) (*domain.Bet, error)
	ListBets(ctx context.Context, gameID uuid.UUID) ([]domain.Bet, error)
	AddOption(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int, name string) (*domain.Bet, error)
	RenameOption(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int, name string) (*domain.Bet, error)
	RemoveOption(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int) (*domain.Bet, error)
	Lock(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error)
	Unlock(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error)
	Complete(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int, winningOptionIDs []uuid.UUID) (*domain.Bet, error)
	RevertComplete(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error)
	Cancel(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int, reason string) (*domain.Bet, error)
	RevertCancel(ctx context.Context, actingUserID, betID uuid.UUID, expectedVersion int) (*domain.Bet, error)

	// Stakes
	PlaceStake(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int, amount int64, message string) (*domain.Bet, error)
	ChangeStake(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int, newAmount int64, message string) (*domain.Bet, error)
	WithdrawStake(ctx context.Context, actingUserID, betID, optionID uuid.UUID, expectedVersion int) (*domain.Bet, error)
}

// Config carries the ledger tunables the wagering service enforces
type Config struct {
	// MaxStakeWhileInDebt bounds staking into debt two ways: a single
	// stake that leaves the balance negative may not exceed it, and the
	// resulting balance may never drop below its negation.
	MaxStakeWhileInDebt int64

	// NotableStake is the minimum amount for a stake message and for a
	// NotableStake feed event
	NotableStake int64
}

type service struct {
	repo     repository.Bets
	eventBus event.Bus
	cfg      Config
}

// NewService creates a new wagering service
func NewService(repo repository.Bets, eventBus event.Bus, cfg Config) Service {
	return &service{
		repo:     repo,
		eventBus: eventBus,
		cfg:      cfg,
	}
}

// CreateGame creates a game for bets to live under. Admin only.
func (s *service) CreateGame(ctx context.Context, actingUserID uuid.UUID, name string, progress domain.GameProgress, order *int) (*domain.Game, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: game name is required", domain.ErrInvalidInput)
	}
	if progress == "" {
		progress = domain.GameProgressFuture
	}
	if !progress.Valid() {
		return nil, fmt.Errorf("%w: unknown game progress %q", domain.ErrInvalidInput, progress)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := s.requireAdmin(ctx, tx, actingUserID); err != nil {
		return nil, err
	}

	now := time.Now()
	game := &domain.Game{
		ID:       uuid.New(),
		Name:     name,
		Progress: progress,
		Order:    order,
		Version:  0,
		Created:  now,
		Modified: now,
	}
	if err := tx.CreateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.FromContext(ctx).Info("Created game", "game_id", game.ID, "name", name)
	return game, nil
}

// UpdateGame edits a game's name/progress under the version guard
func (s *service) UpdateGame(ctx context.Context, actingUserID, gameID uuid.UUID, expectedVersion int, name string, progress domain.GameProgress) (*domain.Game, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: game name is required", domain.ErrInvalidInput)
	}
	if !progress.Valid() {
		return nil, fmt.Errorf("%w: unknown game progress %q", domain.ErrInvalidInput, progress)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := s.requireAdmin(ctx, tx, actingUserID); err != nil {
		return nil, err
	}

	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, domain.ErrGameNotFound
	}

	game.Name = name
	game.Progress = progress
	if err := tx.UpdateGame(ctx, game, expectedVersion); err != nil {
		return nil, err
	}
	game.Version = expectedVersion + 1

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return game, nil
}

// GetGame retrieves a game by ID
func (s *service) GetGame(ctx context.Context, gameID uuid.UUID) (*domain.Game, error) {
	return s.repo.GetGame(ctx, gameID)
}

// ListGames retrieves all games
func (s *service) ListGames(ctx context.Context) ([]domain.Game, error) {
	return s.repo.ListGames(ctx)
}

// AddLockMoment adds a named lock checkpoint to a game. Admin only.
func (s *service) AddLockMoment(ctx context.Context, actingUserID, gameID uuid.UUID, name string, order int) (*domain.LockMoment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: lock moment name is required", domain.ErrInvalidInput)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := s.requireAdmin(ctx, tx, actingUserID); err != nil {
		return nil, err
	}

	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, domain.ErrGameNotFound
	}

	moment := &domain.LockMoment{
		ID:     uuid.New(),
		GameID: gameID,
		Name:   name,
		Order:  order,
	}
	if err := tx.CreateLockMoment(ctx, moment); err != nil {
		return nil, fmt.Errorf("failed to create lock moment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return moment, nil
}

// ListLockMoments retrieves a game's lock moments in order
func (s *service) ListLockMoments(ctx context.Context, gameID uuid.UUID) ([]domain.LockMoment, error) {
	return s.repo.ListLockMoments(ctx, gameID)
}

// LockAtMoment locks every Voting bet referencing the moment in one
// transaction. Locking gates on progress rather than per-bet versions, so
// a concurrent stake either lands before the lock or conflicts after it.
func (s *service) LockAtMoment(ctx context.Context, actingUserID, lockMomentID uuid.UUID) ([]uuid.UUID, error) {
	log := logger.FromContext(ctx)

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	if err := s.requireAdmin(ctx, tx, actingUserID); err != nil {
		return nil, err
	}

	moment, err := s.repo.GetLockMoment(ctx, lockMomentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lock moment: %w", err)
	}
	if moment == nil {
		return nil, domain.ErrLockMomentNotFound
	}

	lockedIDs, err := tx.LockBetsAtMoment(ctx, lockMomentID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock bets at moment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info("Locked bets at moment", "lock_moment_id", lockMomentID, "bets_locked", len(lockedIDs))
	metrics.BetsLocked.Add(float64(len(lockedIDs)))
	return lockedIDs, nil
}

// requireAdmin loads the acting user inside the transaction and checks the
// admin flag
func (s *service) requireAdmin(ctx context.Context, tx repository.LedgerTx, userID uuid.UUID) error {
	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get acting user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if !user.IsAdmin {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return nil
}

// requireBetManager permits the bet's author or an admin
func (s *service) requireBetManager(ctx context.Context, tx repository.LedgerTx, userID uuid.UUID, bet *domain.Bet) error {
	if bet.AuthorID == userID {
		return nil
	}
	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get acting user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if !user.IsAdmin {
		return fmt.Errorf("%w: only the bet author or an admin may do this", domain.ErrForbidden)
	}
	return nil
}

// loadBetForUpdate fetches the bet with options and stakes inside the
// transaction, translating a missing row to ErrBetNotFound
func (s *service) loadBetForUpdate(ctx context.Context, tx repository.BetsTx, betID uuid.UUID) (*domain.Bet, error) {
	bet, err := tx.GetBet(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, domain.ErrBetNotFound
	}
	return bet, nil
}

// gameName fetches the game's display name for notification payloads
func (s *service) gameName(ctx context.Context, gameID uuid.UUID) string {
	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil || game == nil {
		return ""
	}
	return game.Name
}
