package bets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/repository"
)

// memoryStore is an in-memory repository.Bets used by the service tests.
// Transactions work on a deep copy of the state and swap it in on commit,
// so a failed operation leaves the store untouched just like a rolled
// back database transaction.
type memoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

type memoryState struct {
	users         map[uuid.UUID]*domain.User
	games         map[uuid.UUID]*domain.Game
	moments       map[uuid.UUID]*domain.LockMoment
	bets          map[uuid.UUID]*domain.Bet
	audit         []domain.AuditEntry
	notifications []domain.Notification
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		state: &memoryState{
			users:   make(map[uuid.UUID]*domain.User),
			games:   make(map[uuid.UUID]*domain.Game),
			moments: make(map[uuid.UUID]*domain.LockMoment),
			bets:    make(map[uuid.UUID]*domain.Bet),
		},
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		users:         make(map[uuid.UUID]*domain.User, len(s.users)),
		games:         make(map[uuid.UUID]*domain.Game, len(s.games)),
		moments:       make(map[uuid.UUID]*domain.LockMoment, len(s.moments)),
		bets:          make(map[uuid.UUID]*domain.Bet, len(s.bets)),
		audit:         append([]domain.AuditEntry(nil), s.audit...),
		notifications: append([]domain.Notification(nil), s.notifications...),
	}
	for id, u := range s.users {
		cp := *u
		c.users[id] = &cp
	}
	for id, g := range s.games {
		cp := *g
		c.games[id] = &cp
	}
	for id, m := range s.moments {
		cp := *m
		c.moments[id] = &cp
	}
	for id, b := range s.bets {
		c.bets[id] = cloneBet(b)
	}
	return c
}

func cloneBet(b *domain.Bet) *domain.Bet {
	cp := *b
	cp.Options = make([]domain.Option, len(b.Options))
	for i, opt := range b.Options {
		cp.Options[i] = opt
		cp.Options[i].Stakes = append([]domain.Stake(nil), opt.Stakes...)
	}
	return &cp
}

// seed helpers

func (s *memoryStore) addUser(name string, balance int64, admin bool) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &domain.User{
		ID:      uuid.New(),
		Slug:    name,
		Name:    name,
		Balance: balance,
		IsAdmin: admin,
		Created: time.Now(),
	}
	s.state.users[u.ID] = u
	return u
}

func (s *memoryStore) addGame(name string) *domain.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &domain.Game{
		ID:       uuid.New(),
		Name:     name,
		Progress: domain.GameProgressCurrent,
	}
	s.state.games[g.ID] = g
	return g
}

func (s *memoryStore) addLockMoment(gameID uuid.UUID, name string) *domain.LockMoment {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &domain.LockMoment{
		ID:     uuid.New(),
		GameID: gameID,
		Name:   name,
	}
	s.state.moments[m.ID] = m
	return m
}

func (s *memoryStore) balance(userID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.users[userID].Balance
}

func (s *memoryStore) setBalanceDirect(userID uuid.UUID, balance int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	old := u.Balance
	u.Balance = balance
	return old, nil
}

func (s *memoryStore) auditEntries() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.state.audit...)
}

func (s *memoryStore) notificationsFor(userID uuid.UUID) []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Notification
	for _, n := range s.state.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// storedBet returns the committed bet, bypassing any open transaction
func (s *memoryStore) storedBet(id uuid.UUID) *domain.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.state.bets[id]; ok {
		return cloneBet(b)
	}
	return nil
}

// repository.Bets

func (s *memoryStore) GetGame(_ context.Context, id uuid.UUID) (*domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.state.games[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) ListGames(_ context.Context) ([]domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Game
	for _, g := range s.state.games {
		out = append(out, *g)
	}
	return out, nil
}

func (s *memoryStore) GetLockMoment(_ context.Context, id uuid.UUID) (*domain.LockMoment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.state.moments[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) ListLockMoments(_ context.Context, gameID uuid.UUID) ([]domain.LockMoment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LockMoment
	for _, m := range s.state.moments {
		if m.GameID == gameID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memoryStore) GetBet(_ context.Context, id uuid.UUID) (*domain.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.state.bets[id]; ok {
		return cloneBet(b), nil
	}
	return nil, nil
}

func (s *memoryStore) ListBets(_ context.Context, gameID uuid.UUID) ([]domain.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Bet
	for _, b := range s.state.bets {
		if b.GameID == gameID {
			out = append(out, *cloneBet(b))
		}
	}
	return out, nil
}

func (s *memoryStore) BeginTx(_ context.Context) (repository.BetsTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &memoryTx{store: s, shadow: s.state.clone()}, nil
}

// memoryTx implements repository.BetsTx over a shadow copy of the store
type memoryTx struct {
	store  *memoryStore
	shadow *memoryState
	done   bool
}

func (t *memoryTx) Commit(_ context.Context) error {
	if t.done {
		return errors.New(domain.ErrMsgTxClosed)
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.state = t.shadow
	return nil
}

func (t *memoryTx) Rollback(_ context.Context) error {
	if t.done {
		return errors.New(domain.ErrMsgTxClosed)
	}
	t.done = true
	return nil
}

func (t *memoryTx) GetUser(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	if u, ok := t.shadow.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (t *memoryTx) AdjustBalance(_ context.Context, userID uuid.UUID, delta int64) (int64, error) {
	u, ok := t.shadow.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	u.Balance += delta
	return u.Balance, nil
}

func (t *memoryTx) SetBalance(_ context.Context, userID uuid.UUID, balance int64) (int64, error) {
	u, ok := t.shadow.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	old := u.Balance
	u.Balance = balance
	return old, nil
}

func (t *memoryTx) AppendAudit(_ context.Context, entry *domain.AuditEntry) error {
	entry.ID = int64(len(t.shadow.audit) + 1)
	entry.Created = time.Now()
	t.shadow.audit = append(t.shadow.audit, *entry)
	return nil
}

func (t *memoryTx) CreateNotification(_ context.Context, n *domain.Notification) error {
	n.ID = int64(len(t.shadow.notifications) + 1)
	n.Created = time.Now()
	t.shadow.notifications = append(t.shadow.notifications, *n)
	return nil
}

func (t *memoryTx) CreateGame(_ context.Context, game *domain.Game) error {
	cp := *game
	t.shadow.games[game.ID] = &cp
	return nil
}

func (t *memoryTx) UpdateGame(_ context.Context, game *domain.Game, expectedVersion int) error {
	stored, ok := t.shadow.games[game.ID]
	if !ok {
		return domain.ErrGameNotFound
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: game version is %d, expected %d", domain.ErrVersionConflict, stored.Version, expectedVersion)
	}
	cp := *game
	cp.Version = expectedVersion + 1
	t.shadow.games[game.ID] = &cp
	return nil
}

func (t *memoryTx) CreateLockMoment(_ context.Context, moment *domain.LockMoment) error {
	cp := *moment
	t.shadow.moments[moment.ID] = &cp
	return nil
}

func (t *memoryTx) GetBet(_ context.Context, id uuid.UUID) (*domain.Bet, error) {
	if b, ok := t.shadow.bets[id]; ok {
		return cloneBet(b), nil
	}
	return nil, nil
}

func (t *memoryTx) CreateBet(_ context.Context, bet *domain.Bet) error {
	cp := cloneBet(bet)
	cp.Options = nil
	t.shadow.bets[bet.ID] = cp
	return nil
}

func (t *memoryTx) UpdateBet(_ context.Context, bet *domain.Bet, expectedVersion int) error {
	stored, ok := t.shadow.bets[bet.ID]
	if !ok {
		return domain.ErrBetNotFound
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: bet version is %d, expected %d", domain.ErrVersionConflict, stored.Version, expectedVersion)
	}
	stored.Name = bet.Name
	stored.Progress = bet.Progress
	stored.CancelledReason = bet.CancelledReason
	stored.CancelledFrom = bet.CancelledFrom
	stored.ResolvedAt = bet.ResolvedAt
	stored.Version = expectedVersion + 1
	stored.Modified = time.Now()
	return nil
}

func (t *memoryTx) CreateOption(_ context.Context, option *domain.Option) error {
	b, ok := t.shadow.bets[option.BetID]
	if !ok {
		return domain.ErrBetNotFound
	}
	cp := *option
	cp.Stakes = nil
	b.Options = append(b.Options, cp)
	return nil
}

func (t *memoryTx) UpdateOption(_ context.Context, option *domain.Option) error {
	b, ok := t.shadow.bets[option.BetID]
	if !ok {
		return domain.ErrBetNotFound
	}
	for i := range b.Options {
		if b.Options[i].ID == option.ID {
			stakes := b.Options[i].Stakes
			b.Options[i] = *option
			b.Options[i].Stakes = stakes
			return nil
		}
	}
	return domain.ErrOptionNotFound
}

func (t *memoryTx) DeleteOption(_ context.Context, optionID uuid.UUID) error {
	for _, b := range t.shadow.bets {
		for i := range b.Options {
			if b.Options[i].ID == optionID {
				b.Options = append(b.Options[:i], b.Options[i+1:]...)
				return nil
			}
		}
	}
	return domain.ErrOptionNotFound
}

func (t *memoryTx) SetOptionsWon(_ context.Context, betID uuid.UUID, optionIDs []uuid.UUID, won bool) error {
	b, ok := t.shadow.bets[betID]
	if !ok {
		return domain.ErrBetNotFound
	}
	if len(optionIDs) == 0 {
		for i := range b.Options {
			b.Options[i].Won = won
		}
		return nil
	}
	wanted := make(map[uuid.UUID]bool, len(optionIDs))
	for _, id := range optionIDs {
		wanted[id] = true
	}
	for i := range b.Options {
		if wanted[b.Options[i].ID] {
			b.Options[i].Won = won
		}
	}
	return nil
}

func (t *memoryTx) UpsertStake(_ context.Context, stake *domain.Stake) error {
	b, ok := t.shadow.bets[stake.BetID]
	if !ok {
		return domain.ErrBetNotFound
	}
	for i := range b.Options {
		opt := &b.Options[i]
		for j := range opt.Stakes {
			if opt.Stakes[j].UserID != stake.UserID {
				continue
			}
			if opt.ID != stake.OptionID {
				return fmt.Errorf("%w: user already staked another option", domain.ErrInvalidInput)
			}
			opt.Stakes[j] = *stake
			return nil
		}
	}
	for i := range b.Options {
		if b.Options[i].ID == stake.OptionID {
			b.Options[i].Stakes = append(b.Options[i].Stakes, *stake)
			return nil
		}
	}
	return domain.ErrOptionNotFound
}

func (t *memoryTx) DeleteStake(_ context.Context, optionID, userID uuid.UUID) error {
	for _, b := range t.shadow.bets {
		for i := range b.Options {
			if b.Options[i].ID != optionID {
				continue
			}
			stakes := b.Options[i].Stakes
			for j := range stakes {
				if stakes[j].UserID == userID {
					b.Options[i].Stakes = append(stakes[:j], stakes[j+1:]...)
					return nil
				}
			}
		}
	}
	return domain.ErrStakeNotFound
}

func (t *memoryTx) SetStakeRefunded(_ context.Context, optionID, userID uuid.UUID, refunded bool) error {
	if st := t.findStake(optionID, userID); st != nil {
		st.Refunded = refunded
		return nil
	}
	return domain.ErrStakeNotFound
}

func (t *memoryTx) SetStakePayout(_ context.Context, optionID, userID uuid.UUID, payout int64) error {
	if st := t.findStake(optionID, userID); st != nil {
		st.Payout = payout
		return nil
	}
	return domain.ErrStakeNotFound
}

func (t *memoryTx) findStake(optionID, userID uuid.UUID) *domain.Stake {
	for _, b := range t.shadow.bets {
		for i := range b.Options {
			if b.Options[i].ID != optionID {
				continue
			}
			for j := range b.Options[i].Stakes {
				if b.Options[i].Stakes[j].UserID == userID {
					return &b.Options[i].Stakes[j]
				}
			}
		}
	}
	return nil
}

func (t *memoryTx) LockBetsAtMoment(_ context.Context, lockMomentID uuid.UUID) ([]uuid.UUID, error) {
	var locked []uuid.UUID
	for _, b := range t.shadow.bets {
		if b.LockMomentID == lockMomentID && b.Progress == domain.BetProgressVoting {
			b.Progress = domain.BetProgressLocked
			b.Version++
			locked = append(locked, b.ID)
		}
	}
	return locked, nil
}
