package service

import (
	"context"
	"sync"
	"testing"

	"tictac-arena/models"
	"tictac-arena/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordNotifier копит уведомления по игрокам для проверок в тестах
type recordNotifier struct {
	mu   sync.Mutex
	msgs map[string][]string
}

func newRecordNotifier() *recordNotifier {
	return &recordNotifier{msgs: make(map[string][]string)}
}

func (n *recordNotifier) Notify(ctx context.Context, playerID, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs[playerID] = append(n.msgs[playerID], message)
}

func (n *recordNotifier) count(playerID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs[playerID])
}

// newTestArena собирает арену поверх хранилища в памяти. Первый раунд
// всегда начинает Players[0], чтобы ходы в тестах были детерминированы.
func newTestArena(t *testing.T) (*Arena, *storage.MemoryStore, *recordNotifier) {
	t.Helper()
	store := storage.NewMemoryStore()
	rec := newRecordNotifier()
	a := NewArena(store, rec, zap.NewNop(), DefaultConfig())
	a.pickStarter = func() int { return 0 }
	return a, store, rec
}

func register(t *testing.T, a *Arena, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := a.GetOrCreateProfile(context.Background(), id, "user_"+id)
		require.NoError(t, err)
	}
}

// startMatch проводит двух игроков через очередь и возвращает id матча
func startMatch(t *testing.T, a *Arena, kind models.Kind, p1, p2 string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, a.JoinQueue(ctx, p1, kind))
	require.NoError(t, a.JoinQueue(ctx, p2, kind))

	prof, err := a.GetProfile(ctx, p1)
	require.NoError(t, err)
	require.Equal(t, models.StateInMatch, prof.Availability.State)
	return prof.Availability.MatchID
}

func mustMove(t *testing.T, a *Arena, playerID, matchID string, cell int) *MoveResult {
	t.Helper()
	res, err := a.SubmitMove(context.Background(), playerID, matchID, cell)
	require.NoError(t, err)
	return res
}

// starterWinsRound разыгрывает раунд, в котором побеждает начинающий
func starterWinsRound(t *testing.T, a *Arena, matchID, starter, other string) *MoveResult {
	t.Helper()
	mustMove(t, a, starter, matchID, 0)
	mustMove(t, a, other, matchID, 3)
	mustMove(t, a, starter, matchID, 1)
	mustMove(t, a, other, matchID, 4)
	return mustMove(t, a, starter, matchID, 2) // верхний ряд
}

// otherWinsRound разыгрывает раунд, в котором побеждает отвечающий
func otherWinsRound(t *testing.T, a *Arena, matchID, starter, other string) *MoveResult {
	t.Helper()
	mustMove(t, a, starter, matchID, 3)
	mustMove(t, a, other, matchID, 0)
	mustMove(t, a, starter, matchID, 4)
	mustMove(t, a, other, matchID, 1)
	mustMove(t, a, starter, matchID, 8)
	return mustMove(t, a, other, matchID, 2) // верхний ряд
}

// drawRound разыгрывает раунд до полной доски без линии
func drawRound(t *testing.T, a *Arena, matchID, starter, other string) *MoveResult {
	t.Helper()
	mustMove(t, a, starter, matchID, 0)
	mustMove(t, a, other, matchID, 2)
	mustMove(t, a, starter, matchID, 1)
	mustMove(t, a, other, matchID, 3)
	mustMove(t, a, starter, matchID, 5)
	mustMove(t, a, other, matchID, 4)
	mustMove(t, a, starter, matchID, 6)
	mustMove(t, a, other, matchID, 8)
	return mustMove(t, a, starter, matchID, 7)
}
