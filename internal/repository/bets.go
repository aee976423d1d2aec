package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/domain"
)

// Bets defines the interface for wagering persistence. Read-only lookups
// run outside transactions and may observe slightly stale data; every
// mutation goes through a BetsTx so its reads and writes share one
// transaction.
type Bets interface {
	GetGame(ctx context.Context, id uuid.UUID) (*domain.Game, error)
	ListGames(ctx context.Context) ([]domain.Game, error)
	GetLockMoment(ctx context.Context, id uuid.UUID) (*domain.LockMoment, error)
	ListLockMoments(ctx context.Context, gameID uuid.UUID) ([]domain.LockMoment, error)
	GetBet(ctx context.Context, id uuid.UUID) (*domain.Bet, error)
	ListBets(ctx context.Context, gameID uuid.UUID) ([]domain.Bet, error)
	BeginTx(ctx context.Context) (BetsTx, error)
}

// BetsTx defines the transactional surface for wagering mutations.
// Updates that carry an expectedVersion are compare-and-swap writes: they
// return domain.ErrVersionConflict (and change nothing) when the stored
// version differs.
type BetsTx interface {
	Tx
	LedgerTx

	CreateGame(ctx context.Context, game *domain.Game) error
	UpdateGame(ctx context.Context, game *domain.Game, expectedVersion int) error
	CreateLockMoment(ctx context.Context, moment *domain.LockMoment) error

	// GetBet loads the bet with its options and stakes
	GetBet(ctx context.Context, id uuid.UUID) (*domain.Bet, error)
	CreateBet(ctx context.Context, bet *domain.Bet) error

	// UpdateBet writes the bet's progress fields and bumps its version
	UpdateBet(ctx context.Context, bet *domain.Bet, expectedVersion int) error

	CreateOption(ctx context.Context, option *domain.Option) error
	UpdateOption(ctx context.Context, option *domain.Option) error
	DeleteOption(ctx context.Context, optionID uuid.UUID) error

	// SetOptionsWon flips the won flag (bumping option versions) for the
	// given options of a bet; an empty id list clears every option
	SetOptionsWon(ctx context.Context, betID uuid.UUID, optionIDs []uuid.UUID, won bool) error

	UpsertStake(ctx context.Context, stake *domain.Stake) error
	DeleteStake(ctx context.Context, optionID, userID uuid.UUID) error
	SetStakeRefunded(ctx context.Context, optionID, userID uuid.UUID, refunded bool) error
	SetStakePayout(ctx context.Context, optionID, userID uuid.UUID, payout int64) error

	// LockBetsAtMoment moves every Voting bet referencing the moment to
	// Locked (each bet's version bumped) and returns the affected bet IDs
	LockBetsAtMoment(ctx context.Context, lockMomentID uuid.UUID) ([]uuid.UUID, error)
}
