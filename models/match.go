package models

import (
	"time"

	"tictac-arena/game"
)

// Match представляет один активный матч между двумя игроками.
// Матч играется до roundLimit раундов; каждый раунд — отдельная
// партия крестиков-ноликов на пустой доске.
type Match struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Players   [2]string      `json:"players"` // порядок фиксирован при создании
	Board     game.Board     `json:"board"`
	Turn      string         `json:"turn"`       // id игрока, чей сейчас ход
	Round     int            `json:"round"`      // номер раунда, с 1
	RoundWins map[string]int `json:"round_wins"` // выигранные раунды по игрокам
	Starter   int            `json:"starter"`    // индекс игрока, начинавшего раунд 1
	CreatedAt time.Time      `json:"created_at"`
}

// HasPlayer проверяет, участвует ли игрок в матче
func (m *Match) HasPlayer(id string) bool {
	return m.Players[0] == id || m.Players[1] == id
}

// Opponent возвращает id соперника
func (m *Match) Opponent(id string) string {
	if m.Players[0] == id {
		return m.Players[1]
	}
	return m.Players[0]
}

// StarterOf возвращает индекс игрока, начинающего раунд round.
// Первый раунд начинает Starter, дальше очередность чередуется.
func (m *Match) StarterOf(round int) int {
	return (m.Starter + round - 1) % 2
}

// MarkOf возвращает символ игрока в текущем раунде:
// начинающий раунд всегда играет X.
func (m *Match) MarkOf(id string) game.Mark {
	if m.Players[m.StarterOf(m.Round)] == id {
		return game.X
	}
	return game.O
}
