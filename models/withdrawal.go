package models

import "time"

// WithdrawalStatus — статус заявки на вывод
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalCompleted WithdrawalStatus = "completed"
)

// WithdrawalRequest представляет заявку игрока на вывод звёзд.
// Баланс списывается в момент создания заявки (резервирование),
// подтверждение админом больше баланс не меняет.
type WithdrawalRequest struct {
	ID          string           `json:"id"`
	PlayerID    string           `json:"player_id"`
	Amount      float64          `json:"amount"`
	Status      WithdrawalStatus `json:"status"`
	RequestedAt time.Time        `json:"requested_at"`
	CompletedAt time.Time        `json:"completed_at,omitempty"`
}
