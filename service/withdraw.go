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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestWithdrawal создает заявку на вывод звёзд. Сумма списывается
// с баланса сразу (резервирование), так что подтверждение админом
// уже ничего не списывает.
func (a *Arena) RequestWithdrawal(ctx context.Context, playerID string, amount float64) (*models.WithdrawalRequest, error) {
	if amount < a.config.MinWithdraw {
		return nil, ErrBelowMinimum
	}

	req := &models.WithdrawalRequest{
		ID:          uuid.New().String(),
		PlayerID:    playerID,
		Amount:      amount,
		Status:      models.WithdrawalPending,
		RequestedAt: time.Now().UTC(),
	}

	pk := storage.ProfileKey(playerID)
	wk := storage.WithdrawalKey(req.ID)

	err := a.store.Update(ctx, []string{pk, wk}, func(tx storage.Tx) error {
		var p models.Profile
		if err := tx.Get(pk, &p); err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				return ErrProfileNotFound
			}
			return err
		}
		if p.Stars < amount {
			return ErrInsufficientBalance
		}

		p.Stars -= amount
		p.LastActiveAt = time.Now().UTC()

		if err := tx.Set(pk, &p); err != nil {
			return err
		}
		return tx.Set(wk, req)
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("Withdrawal requested",
		zap.String("request_id", req.ID),
		zap.String("player_id", playerID),
		zap.Float64("amount", amount),
	)
	a.notifier.Notify(ctx, playerID,
		fmt.Sprintf("Withdrawal request for %.1f stars accepted, awaiting approval.", amount))
	return req, nil
}

// CompleteWithdrawal помечает заявку выполненной. Баланс не меняется —
// списание произошло при создании заявки.
func (a *Arena) CompleteWithdrawal(ctx context.Context, requestID string) (*models.WithdrawalRequest, error) {
	wk := storage.WithdrawalKey(requestID)

	var out *models.WithdrawalRequest
	err := a.store.Update(ctx, []string{wk}, func(tx storage.Tx) error {
		var req models.WithdrawalRequest
		if err := tx.Get(wk, &req); err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if req.Status == models.WithdrawalCompleted {
			return ErrAlreadyCompleted
		}

		req.Status = models.WithdrawalCompleted
		req.CompletedAt = time.Now().UTC()
		out = &req
		return tx.Set(wk, &req)
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("Withdrawal completed",
		zap.String("request_id", requestID),
		zap.String("player_id", out.PlayerID),
		zap.Float64("amount", out.Amount),
	)
	a.notifier.Notify(ctx, out.PlayerID,
		fmt.Sprintf("Your withdrawal of %.1f stars has been completed!", out.Amount))
	return out, nil
}

// PendingWithdrawals возвращает незавершённые заявки, старые первыми
func (a *Arena) PendingWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error) {
	raw, err := a.store.ListByPrefix(ctx, storage.WithdrawalPrefix)
	if err != nil {
		return nil, err
	}

	pending := make([]models.WithdrawalRequest, 0, len(raw))
	for key, data := range raw {
		var req models.WithdrawalRequest
		if err := json.Unmarshal(data, &req); err != nil {
			a.logger.Warn("Failed to unmarshal withdrawal request",
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		if req.Status == models.WithdrawalPending {
			pending = append(pending, req)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].RequestedAt.Before(pending[j].RequestedAt)
	})
	return pending, nil
}
