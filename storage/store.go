package storage

import (
	"context"
	"errors"

	"tictac-arena/models"
)

// Ошибки хранилища
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrTxConflict  = errors.New("transaction conflict, retries exhausted")
)

// Tx предоставляет операции чтения и записи внутри одной транзакции.
// Записи буферизуются и применяются атомарно при успешном завершении;
// чтение видит собственные незакоммиченные записи.
type Tx interface {
	Get(key string, v interface{}) error
	Set(key string, v interface{}) error
	Delete(key string)
}

// Store — долговременное key-value хранилище. Значения сериализуются
// в JSON. Update выполняет оптимистичную транзакцию над набором ключей:
// при конкурентном изменении любого из них функция повторяется.
type Store interface {
	Get(ctx context.Context, key string, v interface{}) error
	Set(ctx context.Context, key string, v interface{}) error
	Delete(ctx context.Context, key string) error
	ListByPrefix(ctx context.Context, prefix string) (map[string][]byte, error)
	Update(ctx context.Context, keys []string, fn func(tx Tx) error) error
	Close() error
}

// Схема ключей
const (
	ProfilePrefix    = "profile:"
	MatchPrefix      = "match:"
	QueuePrefix      = "queue:"
	WithdrawalPrefix = "withdrawal:"
	StatPrefix       = "stats:"
)

// Глобальные счётчики
const (
	StatTotalPlayers     = StatPrefix + "total_players"
	StatTotalMatches     = StatPrefix + "total_matches"
	StatStarsDistributed = StatPrefix + "stars_distributed"
)

// ProfileKey возвращает ключ профиля игрока
func ProfileKey(playerID string) string {
	return ProfilePrefix + playerID
}

// MatchKey возвращает ключ матча
func MatchKey(matchID string) string {
	return MatchPrefix + matchID
}

// QueueKey возвращает ключ очереди для категории матча
func QueueKey(kind models.Kind) string {
	return QueuePrefix + string(kind)
}

// WithdrawalKey возвращает ключ заявки на вывод
func WithdrawalKey(requestID string) string {
	return WithdrawalPrefix + requestID
}
