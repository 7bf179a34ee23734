package service

import "errors"

// Ошибки валидации и конфликтов состояния. Все операции возвращают
// одну из них без изменения состояния; гонки (чужой ход, завершённый
// матч, повторное подтверждение) — ожидаемое поведение под нагрузкой,
// а не дефект.
var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrAlreadyQueued       = errors.New("player is already in a queue")
	ErrAlreadyInMatch      = errors.New("player is already in a match")
	ErrNotQueued           = errors.New("player is not in this queue")
	ErrInsufficientBalance = errors.New("insufficient star balance")
	ErrUnknownKind         = errors.New("unknown match kind")
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchInactive       = errors.New("match is no longer active")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrBelowMinimum        = errors.New("amount is below the withdrawal minimum")
	ErrRequestNotFound     = errors.New("withdrawal request not found")
	ErrAlreadyCompleted    = errors.New("withdrawal request already completed")
	ErrUnknownField        = errors.New("unknown balance field")
	ErrUnknownLanguage     = errors.New("unsupported language")
)
