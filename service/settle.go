package service

import (
	"errors"
	"fmt"
	"time"

	"tictac-arena/models"
	"tictac-arena/storage"
)

// settle применяет экономические последствия завершения матча ровно
// один раз. Вызывается только внутри транзакции, которая тем же
// коммитом удаляет запись матча: повторный триггер завершения увидит
// отсутствующий матч и не попадёт сюда.
//
// Таблица расчёта:
//
//	trophy: победителю +1, проигравшему -1 (не ниже 0), ничья — ничего
//	star:   победителю +WinStars (ставка уплачена при входе и отдельно
//	        не возвращается), проигравший теряет ставку, при ничьей
//	        ставка возвращается обоим
func (a *Arena) settle(tx storage.Tx, m *models.Match, winnerID, loserID string, draw bool) error {
	now := time.Now().UTC()

	profiles := make(map[string]*models.Profile, 2)
	for _, pid := range m.Players {
		var p models.Profile
		if err := tx.Get(storage.ProfileKey(pid), &p); err != nil {
			// Отсутствующий профиль при расчёте — нарушение целостности,
			// а не нулевой баланс; операция прерывается без частичных записей
			if errors.Is(err, storage.ErrKeyNotFound) {
				return fmt.Errorf("settlement of match %s: player %s: %w",
					m.ID, pid, ErrProfileNotFound)
			}
			return err
		}
		p.MatchesPlayed++
		p.Availability = models.Idle()
		p.LastActiveAt = now
		profiles[pid] = &p
	}

	if draw {
		if m.Kind == models.KindStar {
			for _, p := range profiles {
				p.Stars += a.config.StakeStars
			}
		}
	} else {
		w := profiles[winnerID]
		l := profiles[loserID]
		w.Wins++

		switch m.Kind {
		case models.KindTrophy:
			w.Trophies++
			if l.Trophies > 0 {
				l.Trophies--
			}
		case models.KindStar:
			// Проигравший уже расстался со ставкой при входе в очередь
			w.Stars += a.config.WinStars
			if err := incrStatFloat(tx, storage.StatStarsDistributed,
				a.config.WinStars-a.config.StakeStars); err != nil {
				return err
			}
		}
	}

	for _, pid := range m.Players {
		if err := tx.Set(storage.ProfileKey(pid), profiles[pid]); err != nil {
			return err
		}
	}
	return incrStatInt(tx, storage.StatTotalMatches, 1)
}

// incrStatInt увеличивает целочисленный счётчик; отсутствующий ключ
// трактуется как ноль
func incrStatInt(tx storage.Tx, key string, delta int) error {
	var n int
	if err := tx.Get(key, &n); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return err
	}
	return tx.Set(key, n+delta)
}

// incrStatFloat увеличивает дробный счётчик; отсутствующий ключ
// трактуется как ноль
func incrStatFloat(tx storage.Tx, key string, delta float64) error {
	var n float64
	if err := tx.Get(key, &n); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return err
	}
	return tx.Set(key, n+delta)
}
