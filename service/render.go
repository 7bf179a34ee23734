package service

import (
	"context"
	"fmt"
	"strings"

	"tictac-arena/game"
	"tictac-arena/models"
)

// renderBoard возвращает текстовое представление доски, три строки
// по три клетки
func renderBoard(b game.Board) string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		for col := 0; col < 3; col++ {
			if col > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(b[row*3+col].String())
		}
	}
	return sb.String()
}

// renderMatchFor рендерит состояние матча глазами игрока viewerID
func renderMatchFor(m *models.Match, viewerID string, roundLimit int) string {
	opp := m.Opponent(viewerID)
	turn := "Opponent's turn"
	if m.Turn == viewerID {
		turn = "Your turn!"
	}
	return fmt.Sprintf("Tic Tac Toe\nRound %d/%d\nYour mark: %s\nScore: %d - %d\n%s\n%s",
		m.Round, roundLimit,
		m.MarkOf(viewerID),
		m.RoundWins[viewerID], m.RoundWins[opp],
		turn,
		renderBoard(m.Board),
	)
}

// notifyAfterMove рассылает обоим игрокам результат принятого хода.
// prev — снимок матча до хода (нужен для списка участников, когда
// завершившийся матч уже удалён). Вызывается после коммита транзакции.
func (a *Arena) notifyAfterMove(ctx context.Context, prev *models.Match, res *MoveResult) {
	if !res.MatchOver {
		for _, pid := range res.Match.Players {
			msg := renderMatchFor(res.Match, pid, a.config.RoundLimit)
			if res.RoundOver {
				msg = "Round over! New round started.\n" + msg
			}
			a.notifier.Notify(ctx, pid, msg)
		}
		return
	}

	for _, pid := range prev.Players {
		a.notifier.Notify(ctx, pid, a.resultMessage(prev.Kind, pid, res))
	}
}

// resultMessage подбирает итоговое сообщение матча для игрока
func (a *Arena) resultMessage(kind models.Kind, playerID string, res *MoveResult) string {
	if res.Draw {
		if kind == models.KindStar {
			return fmt.Sprintf("Match ended in a draw. Your %.1f star stake is refunded.", a.config.StakeStars)
		}
		return "Match ended in a draw."
	}
	if playerID == res.Winner {
		if kind == models.KindStar {
			return fmt.Sprintf("You won the match! +%.1f stars", a.config.WinStars)
		}
		return "You won the match! +1 trophy"
	}
	if kind == models.KindStar {
		return fmt.Sprintf("You lost the match. Your %.1f star stake is forfeit.", a.config.StakeStars)
	}
	return "You lost the match. -1 trophy"
}
