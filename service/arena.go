package service

import (
	"math/rand"

	"tictac-arena/storage"

	"go.uber.org/zap"
)

// Arena управляет очередями, матчами и экономикой
type Arena struct {
	store    storage.Store
	notifier Notifier
	logger   *zap.Logger
	config   *Config

	// pickStarter выбирает индекс игрока (0 или 1), начинающего
	// первый раунд; подменяется в тестах
	pickStarter func() int
}

// Config — настройки экономики и правил матча
type Config struct {
	InitialStars    float64 // стартовый баланс звёзд нового профиля
	StakeStars      float64 // ставка за вход в звёздную очередь
	WinStars        float64 // начисление победителю звёздного матча
	DailyBonusStars float64 // ежедневный бонус
	MinWithdraw     float64 // минимальная сумма вывода
	RoundLimit      int     // раундов в матче
	LeaderboardSize int     // размер таблицы лидеров
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		InitialStars:    10.0,
		StakeStars:      1.0,
		WinStars:        1.5, // ставка уже уплачена при входе, чистый выигрыш +0.5
		DailyBonusStars: 1.0,
		MinWithdraw:     50.0,
		RoundLimit:      3,
		LeaderboardSize: 10,
	}
}

// NewArena создает новый сервис
func NewArena(store storage.Store, notifier Notifier, logger *zap.Logger, config *Config) *Arena {
	if config == nil {
		config = DefaultConfig()
	}
	return &Arena{
		store:       store,
		notifier:    notifier,
		logger:      logger,
		config:      config,
		pickStarter: func() int { return rand.Intn(2) },
	}
}
