package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/metrics"
	"github.com/osse101/StakeBot_Go/internal/repository"
)

// dbtx is the querying surface shared by *pgxpool.Pool and pgx.Tx, so the
// row loaders below work both inside and outside transactions.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BetsRepository implements the wagering repository for PostgreSQL
type BetsRepository struct {
	db *pgxpool.Pool
}

// NewBetsRepository creates a new BetsRepository
func NewBetsRepository(db *pgxpool.Pool) *BetsRepository {
	return &BetsRepository{db: db}
}

func (r *BetsRepository) GetGame(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	return getGame(ctx, r.db, id)
}

func (r *BetsRepository) ListGames(ctx context.Context) ([]domain.Game, error) {
	query := gameSelect + ` ORDER BY ord NULLS LAST, created`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

func (r *BetsRepository) GetLockMoment(ctx context.Context, id uuid.UUID) (*domain.LockMoment, error) {
	row := r.db.QueryRow(ctx, momentSelect+` WHERE id = $1`, id)
	var m domain.LockMoment
	err := row.Scan(&m.ID, &m.GameID, &m.Name, &m.Order, &m.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lock moment: %w", err)
	}
	return &m, nil
}

func (r *BetsRepository) ListLockMoments(ctx context.Context, gameID uuid.UUID) ([]domain.LockMoment, error) {
	rows, err := r.db.Query(ctx, momentSelect+` WHERE game_id = $1 ORDER BY ord`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lock moments: %w", err)
	}
	defer rows.Close()

	var moments []domain.LockMoment
	for rows.Next() {
		var m domain.LockMoment
		if err := rows.Scan(&m.ID, &m.GameID, &m.Name, &m.Order, &m.Version); err != nil {
			return nil, fmt.Errorf("failed to scan lock moment: %w", err)
		}
		moments = append(moments, m)
	}
	return moments, rows.Err()
}

func (r *BetsRepository) GetBet(ctx context.Context, id uuid.UUID) (*domain.Bet, error) {
	return getBet(ctx, r.db, id)
}

func (r *BetsRepository) ListBets(ctx context.Context, gameID uuid.UUID) ([]domain.Bet, error) {
	query := betSelect + ` WHERE game_id = $1 ORDER BY created`
	rows, err := r.db.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	defer rows.Close()

	var bets []domain.Bet
	var ids []uuid.UUID
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, *b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bets) == 0 {
		return bets, nil
	}

	if err := attachOptions(ctx, r.db, bets, ids); err != nil {
		return nil, err
	}
	return bets, nil
}

// BeginTx starts a transaction for wagering mutations
func (r *BetsRepository) BeginTx(ctx context.Context) (repository.BetsTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin bets transaction: %w", err)
	}
	return &betsTx{tx: tx, ledgerOps: ledgerOps{tx: tx}}, nil
}

// betsTx implements repository.BetsTx
type betsTx struct {
	tx pgx.Tx
	ledgerOps
}

func (t *betsTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *betsTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func (t *betsTx) CreateGame(ctx context.Context, game *domain.Game) error {
	query := `
		INSERT INTO games (id, name, progress, ord, version, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	_, err := t.tx.Exec(ctx, query,
		game.ID, game.Name, string(game.Progress), game.Order, game.Version, game.Created)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// UpdateGame is a compare-and-swap write on the game's version
func (t *betsTx) UpdateGame(ctx context.Context, game *domain.Game, expectedVersion int) error {
	query := `
		UPDATE games
		SET name = $3, progress = $4, ord = $5, version = version + 1, modified = now()
		WHERE id = $1 AND version = $2
	`
	tag, err := t.tx.Exec(ctx, query,
		game.ID, expectedVersion, game.Name, string(game.Progress), game.Order)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return versionConflict(ctx, t.tx, "games", game.ID, expectedVersion, domain.ErrGameNotFound)
	}
	return nil
}

func (t *betsTx) CreateLockMoment(ctx context.Context, moment *domain.LockMoment) error {
	query := `
		INSERT INTO lock_moments (id, game_id, name, ord)
		VALUES ($1, $2, $3, $4)
	`
	_, err := t.tx.Exec(ctx, query, moment.ID, moment.GameID, moment.Name, moment.Order)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: lock moment %q already exists for game", domain.ErrInvalidInput, moment.Name)
		}
		return fmt.Errorf("failed to create lock moment: %w", err)
	}
	return nil
}

func (t *betsTx) GetBet(ctx context.Context, id uuid.UUID) (*domain.Bet, error) {
	return getBet(ctx, t.tx, id)
}

func (t *betsTx) CreateBet(ctx context.Context, bet *domain.Bet) error {
	query := `
		INSERT INTO bets (id, game_id, lock_moment_id, author_id, name, progress, version, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	_, err := t.tx.Exec(ctx, query,
		bet.ID, bet.GameID, bet.LockMomentID, bet.AuthorID,
		bet.Name, string(bet.Progress), bet.Version, bet.Created)
	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}
	return nil
}

// UpdateBet is a compare-and-swap write on the bet's version. It carries
// the progress fields only; options and stakes have their own writes.
func (t *betsTx) UpdateBet(ctx context.Context, bet *domain.Bet, expectedVersion int) error {
	query := `
		UPDATE bets
		SET name = $3, progress = $4, cancelled_reason = $5, cancelled_from = $6,
		    resolved_at = $7, version = version + 1, modified = now()
		WHERE id = $1 AND version = $2
	`
	tag, err := t.tx.Exec(ctx, query,
		bet.ID, expectedVersion, bet.Name, string(bet.Progress),
		bet.CancelledReason, string(bet.CancelledFrom), bet.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to update bet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return versionConflict(ctx, t.tx, "bets", bet.ID, expectedVersion, domain.ErrBetNotFound)
	}
	return nil
}

func (t *betsTx) CreateOption(ctx context.Context, option *domain.Option) error {
	query := `
		INSERT INTO options (id, bet_id, name, ord, version)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := t.tx.Exec(ctx, query, option.ID, option.BetID, option.Name, option.Order, option.Version)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: option %q already exists on bet", domain.ErrInvalidInput, option.Name)
		}
		return fmt.Errorf("failed to create option: %w", err)
	}
	return nil
}

func (t *betsTx) UpdateOption(ctx context.Context, option *domain.Option) error {
	query := `
		UPDATE options
		SET name = $2, ord = $3, version = version + 1
		WHERE id = $1
	`
	tag, err := t.tx.Exec(ctx, query, option.ID, option.Name, option.Order)
	if err != nil {
		return fmt.Errorf("failed to update option: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOptionNotFound
	}
	return nil
}

func (t *betsTx) DeleteOption(ctx context.Context, optionID uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM options WHERE id = $1`, optionID)
	if err != nil {
		return fmt.Errorf("failed to delete option: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOptionNotFound
	}
	return nil
}

func (t *betsTx) SetOptionsWon(ctx context.Context, betID uuid.UUID, optionIDs []uuid.UUID, won bool) error {
	if len(optionIDs) == 0 {
		query := `
			UPDATE options
			SET won = $2, version = version + 1
			WHERE bet_id = $1 AND won <> $2
		`
		if _, err := t.tx.Exec(ctx, query, betID, won); err != nil {
			return fmt.Errorf("failed to set won flags: %w", err)
		}
		return nil
	}

	query := `
		UPDATE options
		SET won = $3, version = version + 1
		WHERE bet_id = $1 AND id = ANY($2)
	`
	tag, err := t.tx.Exec(ctx, query, betID, optionIDs, won)
	if err != nil {
		return fmt.Errorf("failed to set won flags: %w", err)
	}
	if tag.RowsAffected() != int64(len(optionIDs)) {
		return fmt.Errorf("%w: expected to flag %d options, flagged %d",
			domain.ErrOptionNotFound, len(optionIDs), tag.RowsAffected())
	}
	return nil
}

func (t *betsTx) UpsertStake(ctx context.Context, stake *domain.Stake) error {
	query := `
		INSERT INTO stakes (option_id, bet_id, user_id, amount, message, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (option_id, user_id) DO UPDATE
		SET amount = EXCLUDED.amount, message = EXCLUDED.message, placed_at = EXCLUDED.placed_at
	`
	_, err := t.tx.Exec(ctx, query,
		stake.OptionID, stake.BetID, stake.UserID, stake.Amount, stake.Message, stake.PlacedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// the (bet_id, user_id) unique index catches a race the service's
		// one-stake-per-bet check could not see
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: user already staked another option on this bet", domain.ErrInvalidInput)
		}
		return fmt.Errorf("failed to upsert stake: %w", err)
	}
	return nil
}

func (t *betsTx) DeleteStake(ctx context.Context, optionID, userID uuid.UUID) error {
	tag, err := t.tx.Exec(ctx,
		`DELETE FROM stakes WHERE option_id = $1 AND user_id = $2`, optionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete stake: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStakeNotFound
	}
	return nil
}

func (t *betsTx) SetStakeRefunded(ctx context.Context, optionID, userID uuid.UUID, refunded bool) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE stakes SET refunded = $3 WHERE option_id = $1 AND user_id = $2`,
		optionID, userID, refunded)
	if err != nil {
		return fmt.Errorf("failed to set stake refunded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStakeNotFound
	}
	return nil
}

func (t *betsTx) SetStakePayout(ctx context.Context, optionID, userID uuid.UUID, payout int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE stakes SET payout = $3 WHERE option_id = $1 AND user_id = $2`,
		optionID, userID, payout)
	if err != nil {
		return fmt.Errorf("failed to set stake payout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStakeNotFound
	}
	return nil
}

// LockBetsAtMoment gates on progress rather than per-bet versions: every
// Voting bet at the moment flips to Locked in one statement, each version
// bumped so in-flight version-guarded writes conflict afterwards.
func (t *betsTx) LockBetsAtMoment(ctx context.Context, lockMomentID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		UPDATE bets
		SET progress = $2, version = version + 1, modified = now()
		WHERE lock_moment_id = $1 AND progress = $3
		RETURNING id
	`
	rows, err := t.tx.Query(ctx, query, lockMomentID,
		string(domain.BetProgressLocked), string(domain.BetProgressVoting))
	if err != nil {
		return nil, fmt.Errorf("failed to lock bets: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan locked bet id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// versionConflict distinguishes a missing row from a stale version after a
// zero-row CAS update.
func versionConflict(ctx context.Context, db dbtx, table string, id uuid.UUID, expectedVersion int, notFound error) error {
	var current int
	err := db.QueryRow(ctx, `SELECT version FROM `+table+` WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("failed to check version: %w", err)
	}
	metrics.VersionConflicts.WithLabelValues(table).Inc()
	return fmt.Errorf("%w: expected version %d, found %d", domain.ErrVersionConflict, expectedVersion, current)
}

const (
	gameSelect   = `SELECT id, name, progress, ord, version, created, modified FROM games`
	momentSelect = `SELECT id, game_id, name, ord, version FROM lock_moments`
	betSelect    = `SELECT id, game_id, lock_moment_id, author_id, name, progress, cancelled_reason, cancelled_from, resolved_at, version, created, modified FROM bets`
	optionSelect = `SELECT id, bet_id, name, ord, won, version FROM options`
	stakeSelect  = `SELECT option_id, bet_id, user_id, amount, message, placed_at, refunded, payout FROM stakes`
)

func getGame(ctx context.Context, db dbtx, id uuid.UUID) (*domain.Game, error) {
	g, err := scanGame(db.QueryRow(ctx, gameSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanGame(row scannable) (*domain.Game, error) {
	var g domain.Game
	var progress string
	err := row.Scan(&g.ID, &g.Name, &progress, &g.Order, &g.Version, &g.Created, &g.Modified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}
	g.Progress = domain.GameProgress(progress)
	return &g, nil
}

func scanBet(row scannable) (*domain.Bet, error) {
	var b domain.Bet
	var progress, cancelledFrom string
	err := row.Scan(&b.ID, &b.GameID, &b.LockMomentID, &b.AuthorID, &b.Name,
		&progress, &b.CancelledReason, &cancelledFrom, &b.ResolvedAt,
		&b.Version, &b.Created, &b.Modified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan bet: %w", err)
	}
	b.Progress = domain.BetProgress(progress)
	b.CancelledFrom = domain.BetProgress(cancelledFrom)
	return &b, nil
}

func getBet(ctx context.Context, db dbtx, id uuid.UUID) (*domain.Bet, error) {
	b, err := scanBet(db.QueryRow(ctx, betSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	bets := []domain.Bet{*b}
	if err := attachOptions(ctx, db, bets, []uuid.UUID{id}); err != nil {
		return nil, err
	}
	return &bets[0], nil
}

// attachOptions loads the options and stakes for the given bets and wires
// them onto the matching elements in place.
func attachOptions(ctx context.Context, db dbtx, bets []domain.Bet, betIDs []uuid.UUID) error {
	byBet := make(map[uuid.UUID]*domain.Bet, len(bets))
	for i := range bets {
		byBet[bets[i].ID] = &bets[i]
	}

	rows, err := db.Query(ctx, optionSelect+` WHERE bet_id = ANY($1) ORDER BY ord`, betIDs)
	if err != nil {
		return fmt.Errorf("failed to load options: %w", err)
	}
	defer rows.Close()

	byOption := make(map[uuid.UUID]*domain.Option)
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.ID, &o.BetID, &o.Name, &o.Order, &o.Won, &o.Version); err != nil {
			return fmt.Errorf("failed to scan option: %w", err)
		}
		bet := byBet[o.BetID]
		if bet == nil {
			continue
		}
		bet.Options = append(bet.Options, o)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()
	for _, bet := range byBet {
		for i := range bet.Options {
			byOption[bet.Options[i].ID] = &bet.Options[i]
		}
	}

	stakeRows, err := db.Query(ctx, stakeSelect+` WHERE bet_id = ANY($1) ORDER BY placed_at`, betIDs)
	if err != nil {
		return fmt.Errorf("failed to load stakes: %w", err)
	}
	defer stakeRows.Close()

	for stakeRows.Next() {
		var s domain.Stake
		if err := stakeRows.Scan(&s.OptionID, &s.BetID, &s.UserID, &s.Amount,
			&s.Message, &s.PlacedAt, &s.Refunded, &s.Payout); err != nil {
			return fmt.Errorf("failed to scan stake: %w", err)
		}
		if opt := byOption[s.OptionID]; opt != nil {
			opt.Stakes = append(opt.Stakes, s)
		}
	}
	return stakeRows.Err()
}
