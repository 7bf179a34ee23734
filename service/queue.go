package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tictac-arena/models"
	"tictac-arena/storage"

	"go.uber.org/zap"
)

// JoinQueue ставит игрока в очередь категории kind. Игрок, уже стоящий
// в очереди или играющий матч, не допускается. Для звёздной очереди
// ставка списывается атомарно со вступлением: при нехватке баланса
// игрок в очередь не попадает.
func (a *Arena) JoinQueue(ctx context.Context, playerID string, kind models.Kind) error {
	if !kind.Valid() {
		return ErrUnknownKind
	}

	pk := storage.ProfileKey(playerID)
	qk := storage.QueueKey(kind)

	err := a.store.Update(ctx, []string{pk, qk}, func(tx storage.Tx) error {
		var p models.Profile
		if err := tx.Get(pk, &p); err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				return ErrProfileNotFound
			}
			return err
		}

		switch p.Availability.State {
		case models.StateQueued:
			return ErrAlreadyQueued
		case models.StateInMatch:
			return ErrAlreadyInMatch
		}

		if kind == models.KindStar {
			if p.Stars < a.config.StakeStars {
				return ErrInsufficientBalance
			}
			p.Stars -= a.config.StakeStars
		}

		var queue []string
		if err := tx.Get(qk, &queue); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
			return err
		}
		queue = append(queue, playerID)

		p.Availability = models.Queued(kind)
		p.LastActiveAt = time.Now().UTC()

		if err := tx.Set(pk, &p); err != nil {
			return err
		}
		return tx.Set(qk, queue)
	})
	if err != nil {
		return err
	}

	a.logger.Info("Player joined queue",
		zap.String("player_id", playerID),
		zap.String("kind", string(kind)),
	)
	a.notifier.Notify(ctx, playerID, "Searching for an opponent...")

	// Игрок уже в очереди; неудача спаривания не отменяет вход —
	// страховочный цикл в main доберёт пару позже
	if err := a.TryPair(ctx, kind); err != nil {
		a.logger.Warn("Pairing attempt failed after join",
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
	return nil
}

// LeaveQueue убирает игрока из очереди kind и возвращает удержанную
// ставку, если она была списана при входе.
func (a *Arena) LeaveQueue(ctx context.Context, playerID string, kind models.Kind) error {
	if !kind.Valid() {
		return ErrUnknownKind
	}

	pk := storage.ProfileKey(playerID)
	qk := storage.QueueKey(kind)

	err := a.store.Update(ctx, []string{pk, qk}, func(tx storage.Tx) error {
		var p models.Profile
		if err := tx.Get(pk, &p); err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				return ErrProfileNotFound
			}
			return err
		}

		if p.Availability.State != models.StateQueued || p.Availability.QueueKind != kind {
			return ErrNotQueued
		}

		var queue []string
		if err := tx.Get(qk, &queue); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
			return err
		}
		filtered := queue[:0]
		for _, id := range queue {
			if id != playerID {
				filtered = append(filtered, id)
			}
		}

		if kind == models.KindStar {
			p.Stars += a.config.StakeStars
		}
		p.Availability = models.Idle()
		p.LastActiveAt = time.Now().UTC()

		if err := tx.Set(pk, &p); err != nil {
			return err
		}
		return tx.Set(qk, filtered)
	})
	if err != nil {
		return err
	}

	a.logger.Info("Player left queue",
		zap.String("player_id", playerID),
		zap.String("kind", string(kind)),
	)
	return nil
}

// TryPair спаривает игроков из очереди, пока в ней есть хотя бы двое.
// Вызывается после каждого успешного входа в очередь и из фонового
// цикла; при недоборе игроков ничего не делает.
func (a *Arena) TryPair(ctx context.Context, kind models.Kind) error {
	for {
		paired, err := a.pairOnce(ctx, kind)
		if err != nil {
			return err
		}
		if !paired {
			return nil
		}
	}
}

// pairOnce пытается спарить двух первых игроков очереди. Возвращает
// true, если состояние очереди поменялось и стоит попробовать ещё раз.
func (a *Arena) pairOnce(ctx context.Context, kind models.Kind) (bool, error) {
	qk := storage.QueueKey(kind)

	var queue []string
	if err := a.store.Get(ctx, qk, &queue); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(queue) < 2 {
		return false, nil
	}

	p1, p2 := queue[0], queue[1]
	if p1 == p2 {
		// Самоспаривание — дефект инварианта очереди; убираем дубль
		// и оставляем игрока ждать дальше.
		a.logger.Error("Self-pairing detected in queue, dropping duplicate entry",
			zap.String("player_id", p1),
			zap.String("kind", string(kind)),
		)
		err := a.store.Update(ctx, []string{qk}, func(tx storage.Tx) error {
			var q []string
			if err := tx.Get(qk, &q); err != nil {
				return err
			}
			if len(q) >= 2 && q[0] == p1 && q[1] == p1 {
				return tx.Set(qk, append(q[:1], q[2:]...))
			}
			return nil
		})
		return err == nil, err
	}

	match := a.newMatch(p1, p2, kind)
	keys := []string{qk, storage.ProfileKey(p1), storage.ProfileKey(p2), storage.MatchKey(match.ID)}

	created := false
	err := a.store.Update(ctx, keys, func(tx storage.Tx) error {
		created = false

		var q []string
		if err := tx.Get(qk, &q); err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		// Очередь изменилась между чтением и транзакцией — начинаем заново
		if len(q) < 2 || q[0] != p1 || q[1] != p2 {
			return nil
		}

		var prof1, prof2 models.Profile
		if err := tx.Get(storage.ProfileKey(p1), &prof1); err != nil {
			return fmt.Errorf("paired player %s: %w", p1, ErrProfileNotFound)
		}
		if err := tx.Get(storage.ProfileKey(p2), &prof2); err != nil {
			return fmt.Errorf("paired player %s: %w", p2, ErrProfileNotFound)
		}

		prof1.Availability = models.InMatch(match.ID)
		prof2.Availability = models.InMatch(match.ID)

		if err := tx.Set(storage.MatchKey(match.ID), match); err != nil {
			return err
		}
		if err := tx.Set(storage.ProfileKey(p1), &prof1); err != nil {
			return err
		}
		if err := tx.Set(storage.ProfileKey(p2), &prof2); err != nil {
			return err
		}
		if err := tx.Set(qk, q[2:]); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !created {
		// Фронт очереди успел измениться, pairOnce перечитает его заново
		return true, nil
	}

	a.logger.Info("Match created",
		zap.String("match_id", match.ID),
		zap.String("kind", string(kind)),
		zap.String("player1", p1),
		zap.String("player2", p2),
	)

	for _, pid := range match.Players {
		a.notifier.Notify(ctx, pid, "Opponent found! Game starting...")
		a.notifier.Notify(ctx, pid, renderMatchFor(match, pid, a.config.RoundLimit))
	}
	return true, nil
}
