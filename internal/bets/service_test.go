package bets

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/StakeBot_Go/internal/domain"
	"github.com/osse101/StakeBot_Go/internal/event"
)

// recordingBus captures published feed events for assertions
type recordingBus struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *recordingBus) Publish(_ context.Context, evt event.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
	return nil
}

func (b *recordingBus) Subscribe(_ event.Type, _ event.Handler) {}

func (b *recordingBus) ofType(t event.Type) []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []event.Event
	for _, e := range b.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store   *memoryStore
	bus     *recordingBus
	service Service
	admin   *domain.User
	game    *domain.Game
	moment  *domain.LockMoment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemoryStore()
	bus := &recordingBus{}
	f := &fixture{
		store: store,
		bus:   bus,
		service: NewService(store, bus, Config{
			MaxStakeWhileInDebt: 100,
			NotableStake:        500,
		}),
	}
	f.admin = store.addUser("admin", 1000, true)
	f.game = store.addGame("Finals Night")
	f.moment = store.addLockMoment(f.game.ID, "Match start")
	return f
}

// createBet makes a Voting bet authored by the admin with the named options
func (f *fixture) createBet(t *testing.T, options ...string) *domain.Bet {
	t.Helper()
	bet, err := f.service.CreateBet(context.Background(), f.admin.ID, f.game.ID, f.moment.ID, "Who takes game one", options)
	require.NoError(t, err)
	return bet
}

func TestCreateGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("creates game with defaults", func(t *testing.T) {
		game, err := f.service.CreateGame(ctx, f.admin.ID, "Grand Finals", "", nil)
		require.NoError(t, err)
		assert.Equal(t, domain.GameProgressFuture, game.Progress)
		assert.Equal(t, 0, game.Version)
	})

	t.Run("rejects non-admin", func(t *testing.T) {
		viewer := f.store.addUser("viewer", 1000, false)
		_, err := f.service.CreateGame(ctx, viewer.ID, "Side Event", "", nil)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := f.service.CreateGame(ctx, f.admin.ID, "  ", "", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects unknown progress", func(t *testing.T) {
		_, err := f.service.CreateGame(ctx, f.admin.ID, "Side Event", "Paused", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestUpdateGameVersionGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	game, err := f.service.CreateGame(ctx, f.admin.ID, "Grand Finals", "", nil)
	require.NoError(t, err)

	updated, err := f.service.UpdateGame(ctx, f.admin.ID, game.ID, 0, "Grand Finals (Bo7)", domain.GameProgressCurrent)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Version)

	// The stale writer loses
	_, err = f.service.UpdateGame(ctx, f.admin.ID, game.ID, 0, "Grand Finals (Bo5)", domain.GameProgressCurrent)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	current, err := f.service.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grand Finals (Bo7)", current.Name)
}

func TestCreateBet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("creates voting bet with ordered options", func(t *testing.T) {
		bet := f.createBet(t, "Red", "Blue", "Draw")
		assert.Equal(t, domain.BetProgressVoting, bet.Progress)
		assert.Equal(t, 0, bet.Version)
		require.Len(t, bet.Options, 3)
		assert.Equal(t, "Red", bet.Options[0].Name)
		assert.Equal(t, 2, bet.Options[2].Order)

		events := f.bus.ofType(event.NewBet)
		require.Len(t, events, 1)
		payload := events[0].Payload.(domain.NewBetPayload)
		assert.Equal(t, bet.ID, payload.BetID)
		assert.Equal(t, []string{"Red", "Blue", "Draw"}, payload.Options)
	})

	t.Run("requires at least two options", func(t *testing.T) {
		_, err := f.service.CreateBet(ctx, f.admin.ID, f.game.ID, f.moment.ID, "Solo", []string{"Only"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects duplicate options case-insensitively", func(t *testing.T) {
		_, err := f.service.CreateBet(ctx, f.admin.ID, f.game.ID, f.moment.ID, "Dup", []string{"Red", "red"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects unknown game", func(t *testing.T) {
		_, err := f.service.CreateBet(ctx, f.admin.ID, uuid.New(), f.moment.ID, "Ghost", []string{"A", "B"})
		assert.ErrorIs(t, err, domain.ErrGameNotFound)
	})

	t.Run("rejects lock moment from another game", func(t *testing.T) {
		other := f.store.addGame("Other Event")
		foreignMoment := f.store.addLockMoment(other.ID, "Kickoff")
		_, err := f.service.CreateBet(ctx, f.admin.ID, f.game.ID, foreignMoment.ID, "Cross", []string{"A", "B"})
		assert.ErrorIs(t, err, domain.ErrLockMomentNotFound)
	})
}

func TestOptionEditing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("add option bumps version", func(t *testing.T) {
		bet := f.createBet(t, "Red", "Blue")
		updated, err := f.service.AddOption(ctx, f.admin.ID, bet.ID, bet.Version, "Draw")
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Version)
		assert.Len(t, updated.Options, 3)
	})

	t.Run("add rejects duplicate name", func(t *testing.T) {
		bet := f.createBet(t, "Red", "Blue")
		_, err := f.service.AddOption(ctx, f.admin.ID, bet.ID, bet.Version, "blue")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rename option", func(t *testing.T) {
		bet := f.createBet(t, "Red", "Blue")
		updated, err := f.service.RenameOption(ctx, f.admin.ID, bet.ID, bet.Options[0].ID, bet.Version, "Crimson")
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Version)
		assert.Equal(t, "Crimson", updated.Options[0].Name)

		stored := f.store.storedBet(bet.ID)
		assert.Equal(t, "Crimson", stored.Options[0].Name)
	})

	t.Run("rename rejects a sibling's name", func(t *testing.T) {
		bet := f.createBet(t, "Red", "Blue")
		_, err := f.service.RenameOption(ctx, f.admin.ID, bet.ID, bet.Options[0].ID, bet.Version, "blue")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rename unknown option", func(t *testing.T) {
		bet := f.createBet(t, "Red", "Blue")
		_, err := f.service.RenameOption(ctx, f.admin.ID, bet.ID, uuid.New(), bet.Version, "Draw")
		assert.ErrorIs(t, err, domain.ErrOptionNotFound)
	})

	t.Run("remove keeps the minimum option count", func(t *testing.T) {
		bet := f.createBet(t, "Red", "Blue")
		_, err := f.service.RemoveOption(ctx, f.admin.ID, bet.ID, bet.Options[0].ID, bet.Version)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("remove rejects option holding stakes", func(t *testing.T) {
		bet := f.createBet(t, "Red", "Blue", "Draw")
		staker := f.store.addUser("staker", 1000, false)
		bet, err := f.service.PlaceStake(ctx, staker.ID, bet.ID, bet.Options[0].ID, bet.Version, 100, "")
		require.NoError(t, err)

		_, err = f.service.RemoveOption(ctx, f.admin.ID, bet.ID, bet.Options[0].ID, bet.Version)
		assert.ErrorIs(t, err, domain.ErrInvalidState)

		updated, err := f.service.RemoveOption(ctx, f.admin.ID, bet.ID, bet.Options[2].ID, bet.Version)
		require.NoError(t, err)
		assert.Len(t, updated.Options, 2)
	})

	t.Run("editing requires voting state", func(t *testing.T) {
		bet := f.createBet(t, "Red", "Blue")
		bet, err := f.service.Lock(ctx, f.admin.ID, bet.ID, bet.Version)
		require.NoError(t, err)
		_, err = f.service.AddOption(ctx, f.admin.ID, bet.ID, bet.Version, "Draw")
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("non-author non-admin may not edit", func(t *testing.T) {
		bet := f.createBet(t, "Red", "Blue")
		viewer := f.store.addUser("viewer2", 1000, false)
		_, err := f.service.AddOption(ctx, viewer.ID, bet.ID, bet.Version, "Draw")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestLockUnlockTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(t *testing.T) *domain.Bet
		op      func(bet *domain.Bet) (*domain.Bet, error)
		wantErr error
		want    domain.BetProgress
	}{
		{
			name:    "lock from voting",
			prepare: func(t *testing.T) *domain.Bet { return f.createBet(t, "A", "B") },
			op: func(bet *domain.Bet) (*domain.Bet, error) {
				return f.service.Lock(ctx, f.admin.ID, bet.ID, bet.Version)
			},
			want: domain.BetProgressLocked,
		},
		{
			name: "lock from locked fails",
			prepare: func(t *testing.T) *domain.Bet {
				bet := f.createBet(t, "A", "B")
				bet, err := f.service.Lock(ctx, f.admin.ID, bet.ID, bet.Version)
				require.NoError(t, err)
				return bet
			},
			op: func(bet *domain.Bet) (*domain.Bet, error) {
				return f.service.Lock(ctx, f.admin.ID, bet.ID, bet.Version)
			},
			wantErr: domain.ErrInvalidState,
		},
		{
			name: "unlock from locked",
			prepare: func(t *testing.T) *domain.Bet {
				bet := f.createBet(t, "A", "B")
				bet, err := f.service.Lock(ctx, f.admin.ID, bet.ID, bet.Version)
				require.NoError(t, err)
				return bet
			},
			op: func(bet *domain.Bet) (*domain.Bet, error) {
				return f.service.Unlock(ctx, f.admin.ID, bet.ID, bet.Version)
			},
			want: domain.BetProgressVoting,
		},
		{
			name:    "unlock from voting fails",
			prepare: func(t *testing.T) *domain.Bet { return f.createBet(t, "A", "B") },
			op: func(bet *domain.Bet) (*domain.Bet, error) {
				return f.service.Unlock(ctx, f.admin.ID, bet.ID, bet.Version)
			},
			wantErr: domain.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bet := tt.prepare(t)
			got, err := tt.op(bet)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Progress)
			assert.Equal(t, bet.Version+1, got.Version)
		})
	}
}

func TestTransitionVersionConflictLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bet := f.createBet(t, "A", "B")
	_, err := f.service.Lock(ctx, f.admin.ID, bet.ID, bet.Version+5)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	stored := f.store.storedBet(bet.ID)
	assert.Equal(t, domain.BetProgressVoting, stored.Progress)
	assert.Equal(t, bet.Version, stored.Version)
}

func TestLockAtMoment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	betA := f.createBet(t, "A", "B")
	betB := f.createBet(t, "C", "D")
	// A bet already locked by hand is not touched again
	betC := f.createBet(t, "E", "F")
	_, err := f.service.Lock(ctx, f.admin.ID, betC.ID, betC.Version)
	require.NoError(t, err)

	otherMoment := f.store.addLockMoment(f.game.ID, "Halftime")
	betOther, err := f.service.CreateBet(ctx, f.admin.ID, f.game.ID, otherMoment.ID, "Late bet", []string{"X", "Y"})
	require.NoError(t, err)

	locked, err := f.service.LockAtMoment(ctx, f.admin.ID, f.moment.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{betA.ID, betB.ID}, locked)

	assert.Equal(t, domain.BetProgressLocked, f.store.storedBet(betA.ID).Progress)
	assert.Equal(t, domain.BetProgressLocked, f.store.storedBet(betB.ID).Progress)
	assert.Equal(t, domain.BetProgressVoting, f.store.storedBet(betOther.ID).Progress)

	t.Run("requires admin", func(t *testing.T) {
		viewer := f.store.addUser("viewer3", 1000, false)
		_, err := f.service.LockAtMoment(ctx, viewer.ID, f.moment.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("unknown moment", func(t *testing.T) {
		_, err := f.service.LockAtMoment(ctx, f.admin.ID, uuid.New())
		assert.ErrorIs(t, err, domain.ErrLockMomentNotFound)
	})
}
