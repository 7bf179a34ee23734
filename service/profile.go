package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"tictac-arena/models"
	"tictac-arena/storage"

	"go.uber.org/zap"
)

// bonusDateLayout — формат даты последнего бонуса (UTC)
const bonusDateLayout = "2006-01-02"

// GetOrCreateProfile возвращает профиль игрока, создавая его при первом
// контакте со стартовыми балансами. Непустое имя обновляет сохранённое.
func (a *Arena) GetOrCreateProfile(ctx context.Context, playerID, username string) (*models.Profile, error) {
	pk := storage.ProfileKey(playerID)

	var out *models.Profile
	err := a.store.Update(ctx, []string{pk, storage.StatTotalPlayers}, func(tx storage.Tx) error {
		var p models.Profile
		err := tx.Get(pk, &p)
		if err == nil {
			if username != "" {
				p.Username = username
			}
			p.LastActiveAt = time.Now().UTC()
			out = &p
			return tx.Set(pk, &p)
		}
		if !errors.Is(err, storage.ErrKeyNotFound) {
			return err
		}

		created := models.NewProfile(playerID, username, a.config.InitialStars)
		if err := incrStatInt(tx, storage.StatTotalPlayers, 1); err != nil {
			return err
		}
		out = created
		return tx.Set(pk, created)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetProfile возвращает существующий профиль
func (a *Arena) GetProfile(ctx context.Context, playerID string) (*models.Profile, error) {
	var p models.Profile
	if err := a.store.Get(ctx, storage.ProfileKey(playerID), &p); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// SetLanguage сохраняет предпочитаемый язык игрока
func (a *Arena) SetLanguage(ctx context.Context, playerID, lang string) error {
	if lang != "en" && lang != "ru" {
		return ErrUnknownLanguage
	}
	pk := storage.ProfileKey(playerID)
	return a.store.Update(ctx, []string{pk}, func(tx storage.Tx) error {
		var p models.Profile
		if err := tx.Get(pk, &p); err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				return ErrProfileNotFound
			}
			return err
		}
		p.Lang = lang
		return tx.Set(pk, &p)
	})
}

// ClaimDailyBonus начисляет ежедневный бонус, если за сегодняшнюю дату
// (UTC) он ещё не выдавался. Возвращает true, если бонус начислен.
func (a *Arena) ClaimDailyBonus(ctx context.Context, playerID string) (bool, error) {
	pk := storage.ProfileKey(playerID)
	today := time.Now().UTC().Format(bonusDateLayout)

	claimed := false
	err := a.store.Update(ctx, []string{pk, storage.StatStarsDistributed}, func(tx storage.Tx) error {
		claimed = false

		var p models.Profile
		if err := tx.Get(pk, &p); err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				return ErrProfileNotFound
			}
			return err
		}
		if p.LastBonusDate == today {
			return nil
		}

		p.Stars += a.config.DailyBonusStars
		p.LastBonusDate = today
		p.LastActiveAt = time.Now().UTC()

		if err := incrStatFloat(tx, storage.StatStarsDistributed, a.config.DailyBonusStars); err != nil {
			return err
		}
		if err := tx.Set(pk, &p); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if claimed {
		a.logger.Info("Daily bonus granted",
			zap.String("player_id", playerID),
			zap.Float64("amount", a.config.DailyBonusStars),
		)
		a.notifier.Notify(ctx, playerID,
			fmt.Sprintf("Daily bonus: +%.1f stars", a.config.DailyBonusStars))
	}
	return claimed, nil
}

// Поля балансов, доступные административной корректировке
const (
	FieldTrophies = "trophies"
	FieldStars    = "stars"
)

// AdjustBalance применяет административную поправку к балансу игрока.
// Оба баланса не опускаются ниже нуля. Авторизацию обеспечивает
// вызывающий транспортный слой.
func (a *Arena) AdjustBalance(ctx context.Context, playerID, field string, delta float64) (*models.Profile, error) {
	if field != FieldTrophies && field != FieldStars {
		return nil, ErrUnknownField
	}

	pk := storage.ProfileKey(playerID)
	var out *models.Profile
	err := a.store.Update(ctx, []string{pk}, func(tx storage.Tx) error {
		var p models.Profile
		if err := tx.Get(pk, &p); err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				return ErrProfileNotFound
			}
			return err
		}

		switch field {
		case FieldTrophies:
			p.Trophies += int(delta)
			if p.Trophies < 0 {
				p.Trophies = 0
			}
		case FieldStars:
			p.Stars += delta
			if p.Stars < 0 {
				p.Stars = 0
			}
		}

		out = &p
		return tx.Set(pk, &p)
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("Balance adjusted",
		zap.String("player_id", playerID),
		zap.String("field", field),
		zap.Float64("delta", delta),
	)
	return out, nil
}

// LeaderboardEntry — строка таблицы лидеров
type LeaderboardEntry struct {
	PlayerID string  `json:"player_id"`
	Username string  `json:"username,omitempty"`
	Trophies int     `json:"trophies"`
	Stars    float64 `json:"stars"`
	Wins     int     `json:"wins"`
}

// Leaderboard возвращает лучших игроков по трофеям или звёздам
func (a *Arena) Leaderboard(ctx context.Context, by string) ([]LeaderboardEntry, error) {
	if by != FieldTrophies && by != FieldStars {
		return nil, ErrUnknownField
	}

	raw, err := a.store.ListByPrefix(ctx, storage.ProfilePrefix)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(raw))
	for key, data := range raw {
		var p models.Profile
		if err := json.Unmarshal(data, &p); err != nil {
			a.logger.Warn("Failed to unmarshal profile for leaderboard",
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, LeaderboardEntry{
			PlayerID: p.ID,
			Username: p.Username,
			Trophies: p.Trophies,
			Stars:    p.Stars,
			Wins:     p.Wins,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if by == FieldTrophies {
			if entries[i].Trophies != entries[j].Trophies {
				return entries[i].Trophies > entries[j].Trophies
			}
		} else if entries[i].Stars != entries[j].Stars {
			return entries[i].Stars > entries[j].Stars
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})

	if len(entries) > a.config.LeaderboardSize {
		entries = entries[:a.config.LeaderboardSize]
	}
	return entries, nil
}

// ServiceStats — сводная статистика сервиса
type ServiceStats struct {
	TotalPlayers     int     `json:"total_players"`
	TotalMatches     int     `json:"total_matches"`
	StarsDistributed float64 `json:"stars_distributed"`
	Active24h        int     `json:"active_24h"`
}

// Stats собирает глобальные счётчики и число активных за сутки игроков
func (a *Arena) Stats(ctx context.Context) (*ServiceStats, error) {
	stats := &ServiceStats{}

	if err := a.store.Get(ctx, storage.StatTotalPlayers, &stats.TotalPlayers); err != nil &&
		!errors.Is(err, storage.ErrKeyNotFound) {
		return nil, err
	}
	if err := a.store.Get(ctx, storage.StatTotalMatches, &stats.TotalMatches); err != nil &&
		!errors.Is(err, storage.ErrKeyNotFound) {
		return nil, err
	}
	if err := a.store.Get(ctx, storage.StatStarsDistributed, &stats.StarsDistributed); err != nil &&
		!errors.Is(err, storage.ErrKeyNotFound) {
		return nil, err
	}

	raw, err := a.store.ListByPrefix(ctx, storage.ProfilePrefix)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	for _, data := range raw {
		var p models.Profile
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		if p.LastActiveAt.After(cutoff) {
			stats.Active24h++
		}
	}
	return stats, nil
}
