package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tictac-arena/game"
	"tictac-arena/models"
	"tictac-arena/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MoveResult описывает результат принятого хода для транспортного слоя
type MoveResult struct {
	MatchID     string        `json:"match_id"`
	RoundResult game.Result   `json:"round_result"` // исход доски после хода
	RoundOver   bool          `json:"round_over"`
	MatchOver   bool          `json:"match_over"`
	Winner      string        `json:"winner,omitempty"` // победитель матча, пусто при ничьей
	Draw        bool          `json:"draw"`             // матч завершился вничью
	Match       *models.Match `json:"match,omitempty"`  // состояние после хода; nil если матч удалён
}

// newMatch собирает новый матч: пустая доска, раунд 1, начинающий
// первый раунд выбирается случайно, дальше очередность чередуется.
func (a *Arena) newMatch(p1, p2 string, kind models.Kind) *models.Match {
	players := [2]string{p1, p2}
	starter := a.pickStarter() & 1
	return &models.Match{
		ID:        uuid.New().String(),
		Kind:      kind,
		Players:   players,
		Turn:      players[starter],
		Round:     1,
		RoundWins: map[string]int{p1: 0, p2: 0},
		Starter:   starter,
		CreatedAt: time.Now().UTC(),
	}
}

// matchDecided проверяет условие окончания матча: один из игроков
// набрал большинство раундов либо сыгран последний раунд.
func (a *Arena) matchDecided(m *models.Match) bool {
	majority := a.config.RoundLimit/2 + 1
	for _, wins := range m.RoundWins {
		if wins >= majority {
			return true
		}
	}
	return m.Round >= a.config.RoundLimit
}

// matchOutcome определяет исход матча по счёту раундов
func matchOutcome(m *models.Match) (winner, loser string, draw bool) {
	w1 := m.RoundWins[m.Players[0]]
	w2 := m.RoundWins[m.Players[1]]
	switch {
	case w1 > w2:
		return m.Players[0], m.Players[1], false
	case w2 > w1:
		return m.Players[1], m.Players[0], false
	default:
		return "", "", true
	}
}

// SubmitMove применяет ход игрока в клетку cell. Отклоняет чужой ход,
// занятую клетку и ход в уже завершённый матч: повторная отправка того
// же хода нестрашна — второй раз она получает ошибку, а не повторное
// применение.
func (a *Arena) SubmitMove(ctx context.Context, playerID, matchID string, cell int) (*MoveResult, error) {
	if cell < 0 || cell > 8 {
		return nil, game.ErrIllegalMove
	}

	mk := storage.MatchKey(matchID)

	// Предварительное чтение, чтобы узнать ключи участников для WATCH
	var peek models.Match
	if err := a.store.Get(ctx, mk, &peek); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if !peek.HasPlayer(playerID) {
		return nil, ErrMatchNotFound
	}

	keys := []string{
		mk,
		storage.ProfileKey(peek.Players[0]),
		storage.ProfileKey(peek.Players[1]),
		storage.StatTotalMatches,
		storage.StatStarsDistributed,
	}

	var res *MoveResult
	err := a.store.Update(ctx, keys, func(tx storage.Tx) error {
		res = nil

		var m models.Match
		if err := tx.Get(mk, &m); err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				// Матч успел завершиться — поздний тап соперника
				return ErrMatchInactive
			}
			return err
		}
		if m.Turn != playerID {
			return ErrNotYourTurn
		}

		board, err := game.Apply(m.Board, cell, m.MarkOf(playerID))
		if err != nil {
			return err
		}
		m.Board = board

		out := &MoveResult{MatchID: m.ID, RoundResult: game.Evaluate(board)}

		if out.RoundResult == game.ResultNone {
			m.Turn = m.Opponent(playerID)
			if err := tx.Set(mk, &m); err != nil {
				return err
			}
			out.Match = &m
			res = out
			return nil
		}

		// Раунд завершён: линию может замкнуть только ходивший игрок
		out.RoundOver = true
		if _, won := out.RoundResult.Winner(); won {
			m.RoundWins[playerID]++
		}

		if !a.matchDecided(&m) {
			m.Round++
			m.Board = game.Board{}
			m.Turn = m.Players[m.StarterOf(m.Round)]
			if err := tx.Set(mk, &m); err != nil {
				return err
			}
			out.Match = &m
			res = out
			return nil
		}

		winner, loser, draw := matchOutcome(&m)
		out.MatchOver = true
		out.Winner = winner
		out.Draw = draw

		if err := a.settle(tx, &m, winner, loser, draw); err != nil {
			return err
		}
		tx.Delete(mk)
		res = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("Move accepted",
		zap.String("match_id", matchID),
		zap.String("player_id", playerID),
		zap.Int("cell", cell),
		zap.Bool("round_over", res.RoundOver),
		zap.Bool("match_over", res.MatchOver),
	)

	a.notifyAfterMove(ctx, &peek, res)
	return res, nil
}

// Surrender засчитывает игроку немедленное поражение в его активном
// матче независимо от текущего счёта раундов.
func (a *Arena) Surrender(ctx context.Context, playerID string) (*MoveResult, error) {
	var p models.Profile
	if err := a.store.Get(ctx, storage.ProfileKey(playerID), &p); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if p.Availability.State != models.StateInMatch {
		return nil, ErrMatchNotFound
	}
	matchID := p.Availability.MatchID
	mk := storage.MatchKey(matchID)

	var peek models.Match
	if err := a.store.Get(ctx, mk, &peek); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, ErrMatchInactive
		}
		return nil, err
	}

	keys := []string{
		mk,
		storage.ProfileKey(peek.Players[0]),
		storage.ProfileKey(peek.Players[1]),
		storage.StatTotalMatches,
		storage.StatStarsDistributed,
	}

	var res *MoveResult
	err := a.store.Update(ctx, keys, func(tx storage.Tx) error {
		res = nil

		var m models.Match
		if err := tx.Get(mk, &m); err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				return ErrMatchInactive
			}
			return err
		}
		if !m.HasPlayer(playerID) {
			return fmt.Errorf("surrendering player %s is not in match %s: %w",
				playerID, m.ID, ErrMatchNotFound)
		}

		winner := m.Opponent(playerID)
		if err := a.settle(tx, &m, winner, playerID, false); err != nil {
			return err
		}
		tx.Delete(mk)

		res = &MoveResult{
			MatchID:   m.ID,
			MatchOver: true,
			Winner:    winner,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("Player surrendered",
		zap.String("match_id", matchID),
		zap.String("player_id", playerID),
	)

	a.notifyAfterMove(ctx, &peek, res)
	return res, nil
}
