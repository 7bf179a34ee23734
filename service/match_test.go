package service

import (
	"context"
	"testing"

	"tictac-arena/game"
	"tictac-arena/models"
	"tictac-arena/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Сценарий A: трофейный матч, alice выигрывает раунды 1 и 2,
// матч завершается досрочно без третьего раунда.
func TestTrophyMatchAliceWinsTwoRounds(t *testing.T) {
	a, store, _ := newTestArena(t)
	ctx := context.Background()
	register(t, a, "alice", "bob")

	matchID := startMatch(t, a, models.KindTrophy, "alice", "bob")

	res := starterWinsRound(t, a, matchID, "alice", "bob")
	assert.True(t, res.RoundOver)
	assert.False(t, res.MatchOver)
	assert.Equal(t, 2, res.Match.Round)
	assert.Equal(t, "bob", res.Match.Turn) // раунд 2 начинает второй игрок

	// Раунд 2 начинает bob, выигрывает отвечающая alice — 2:0, конец
	res = otherWinsRound(t, a, matchID, "bob", "alice")
	assert.True(t, res.MatchOver)
	assert.Equal(t, "alice", res.Winner)
	assert.False(t, res.Draw)

	alice, err := a.GetProfile(ctx, "alice")
	require.NoError(t, err)
	bob, err := a.GetProfile(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, 1, alice.Trophies)
	assert.Equal(t, 0, bob.Trophies) // пол: не уходит в минус
	assert.Equal(t, 1, alice.MatchesPlayed)
	assert.Equal(t, 1, bob.MatchesPlayed)
	assert.Equal(t, 1, alice.Wins)
	assert.Equal(t, 0, bob.Wins)
	assert.True(t, alice.Availability.IsIdle())
	assert.True(t, bob.Availability.IsIdle())

	// Запись матча удалена вместе с расчётом
	var m models.Match
	assert.ErrorIs(t, store.Get(ctx, storage.MatchKey(matchID), &m), storage.ErrKeyNotFound)

	var totalMatches int
	require.NoError(t, store.Get(ctx, storage.StatTotalMatches, &totalMatches))
	assert.Equal(t, 1, totalMatches)
}

// Сценарий B: звёздный матч 2:1, расчёт строго по таблице —
// победитель: -1 ставка +1.5 начисление, проигравший: -1 ставка.
func TestStarMatchTwoOne(t *testing.T) {
	a, store, _ := newTestArena(t)
	ctx := context.Background()
	register(t, a, "alice", "bob")

	matchID := startMatch(t, a, models.KindStar, "alice", "bob")

	starterWinsRound(t, a, matchID, "alice", "bob") // 1:0
	res := starterWinsRound(t, a, matchID, "bob", "alice")
	assert.False(t, res.MatchOver) // 1:1, нужен третий раунд
	assert.Equal(t, 3, res.Match.Round)

	res = starterWinsRound(t, a, matchID, "alice", "bob") // 2:1
	assert.True(t, res.MatchOver)
	assert.Equal(t, "alice", res.Winner)

	alice, err := a.GetProfile(ctx, "alice")
	require.NoError(t, err)
	bob, err := a.GetProfile(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, 10.5, alice.Stars) // 10 - 1 + 1.5
	assert.Equal(t, 9.0, bob.Stars)    // 10 - 1

	var distributed float64
	require.NoError(t, store.Get(ctx, storage.StatStarsDistributed, &distributed))
	assert.Equal(t, 0.5, distributed) // чистая эмиссия сервиса
}

// Ничья в звёздном матче возвращает обе ставки полностью
func TestStarMatchDrawRefundsStakes(t *testing.T) {
	a, _, _ := newTestArena(t)
	ctx := context.Background()
	register(t, a, "alice", "bob")

	matchID := startMatch(t, a, models.KindStar, "alice", "bob")

	drawRound(t, a, matchID, "alice", "bob")
	drawRound(t, a, matchID, "bob", "alice")
	res := drawRound(t, a, matchID, "alice", "bob")

	assert.True(t, res.MatchOver)
	assert.True(t, res.Draw)
	assert.Empty(t, res.Winner)

	alice, err := a.GetProfile(ctx, "alice")
	require.NoError(t, err)
	bob, err := a.GetProfile(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, 10.0, alice.Stars)
	assert.Equal(t, 10.0, bob.Stars)
	assert.Equal(t, 0, alice.Wins)
	assert.Equal(t, 0, bob.Wins)
	assert.Equal(t, 1, alice.MatchesPlayed)
	assert.True(t, alice.Availability.IsIdle())
	assert.True(t, bob.Availability.IsIdle())
}

func TestMoveValidation(t *testing.T) {
	a, _, _ := newTestArena(t)
	ctx := context.Background()
	register(t, a, "alice", "bob")

	matchID := startMatch(t, a, models.KindTrophy, "alice", "bob")

	_, err := a.SubmitMove(ctx, "alice", matchID, 9)
	assert.ErrorIs(t, err, game.ErrIllegalMove)
	_, err = a.SubmitMove(ctx, "alice", matchID, -1)
	assert.ErrorIs(t, err, game.ErrIllegalMove)

	_, err = a.SubmitMove(ctx, "bob", matchID, 0)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = a.SubmitMove(ctx, "alice", "no-such-match", 0)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	// Посторонний игрок не видит матч
	register(t, a, "eve")
	_, err = a.SubmitMove(ctx, "eve", matchID, 0)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

// Повторная отправка принятого хода меняет состояние ровно один раз
func TestDuplicateMoveIsRejected(t *testing.T) {
	a, _, _ := newTestArena(t)
	ctx := context.Background()
	register(t, a, "alice", "bob")

	matchID := startMatch(t, a, models.KindTrophy, "alice", "bob")

	mustMove(t, a, "alice", matchID, 0)

	// Дубль от того же игрока: ход уже перешёл к сопернику
	_, err := a.SubmitMove(ctx, "alice", matchID, 0)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	// Соперник в ту же клетку: она занята
	_, err = a.SubmitMove(ctx, "bob", matchID, 0)
	assert.ErrorIs(t, err, game.ErrCellOccupied)
}

// Сценарий D: сдача при счёте 1:0 в пользу сдающегося — победа
// соперника независимо от счёта, расчёт ровно один раз.
func TestSurrenderForcesLoss(t *testing.T) {
	a, _, _ := newTestArena(t)
	ctx := context.Background()
	register(t, a, "alice", "bob")

	matchID := startMatch(t, a, models.KindTrophy, "alice", "bob")

	starterWinsRound(t, a, matchID, "alice", "bob") // alice ведёт 1:0

	res, err := a.Surrender(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, res.MatchOver)
	assert.Equal(t, "bob", res.Winner)
	assert.Equal(t, matchID, res.MatchID)

	alice, err := a.GetProfile(ctx, "alice")
	require.NoError(t, err)
	bob, err := a.GetProfile(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, 0, alice.Trophies)
	assert.Equal(t, 1, bob.Trophies)
	assert.Equal(t, 1, alice.MatchesPlayed)
	assert.Equal(t, 1, bob.MatchesPlayed)
	assert.Equal(t, 1, bob.Wins)

	// Повторная сдача: активного матча больше нет
	_, err = a.Surrender(ctx, "alice")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestSurrenderWithoutMatch(t *testing.T) {
	a, _, _ := newTestArena(t)
	ctx := context.Background()
	register(t, a, "alice")

	_, err := a.Surrender(ctx, "alice")
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = a.Surrender(ctx, "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

// Дубликат триггера завершения не приводит к повторному расчёту
func TestSettlementAppliedExactlyOnce(t *testing.T) {
	a, store, _ := newTestArena(t)
	ctx := context.Background()
	register(t, a, "alice", "bob")

	matchID := startMatch(t, a, models.KindTrophy, "alice", "bob")

	starterWinsRound(t, a, matchID, "alice", "bob")
	res := otherWinsRound(t, a, matchID, "bob", "alice")
	require.True(t, res.MatchOver)

	// Опоздавший тап по завершённому матчу
	_, err := a.SubmitMove(ctx, "bob", matchID, 8)
	assert.Error(t, err)

	alice, err := a.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.Trophies)
	assert.Equal(t, 1, alice.MatchesPlayed)

	var totalMatches int
	require.NoError(t, store.Get(ctx, storage.StatTotalMatches, &totalMatches))
	assert.Equal(t, 1, totalMatches)
}

// Пол трофеев: серия поражений не уводит баланс ниже нуля
func TestTrophyFloorUnderLossStreak(t *testing.T) {
	a, _, _ := newTestArena(t)
	ctx := context.Background()
	register(t, a, "alice", "bob")

	for i := 0; i < 3; i++ {
		startMatch(t, a, models.KindTrophy, "alice", "bob")
		_, err := a.Surrender(ctx, "bob")
		require.NoError(t, err)
	}

	alice, err := a.GetProfile(ctx, "alice")
	require.NoError(t, err)
	bob, err := a.GetProfile(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, 3, alice.Trophies)
	assert.Equal(t, 0, bob.Trophies)
	assert.Equal(t, 3, bob.MatchesPlayed)
}

// Сумма выигранных раундов никогда не превышает номер раунда
func TestRoundWinsBoundedByRound(t *testing.T) {
	a, _, _ := newTestArena(t)
	register(t, a, "alice", "bob")

	matchID := startMatch(t, a, models.KindTrophy, "alice", "bob")

	check := func(res *MoveResult) {
		if res.Match == nil {
			return
		}
		sum := 0
		for _, w := range res.Match.RoundWins {
			sum += w
		}
		assert.LessOrEqual(t, sum, res.Match.Round)
	}

	check(starterWinsRound(t, a, matchID, "alice", "bob"))
	check(drawRound(t, a, matchID, "bob", "alice"))
}
