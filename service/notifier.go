package service

import (
	"context"

	"go.uber.org/zap"
)

// Notifier доставляет игроку отрендеренное состояние игры или результат.
// Доставка best-effort: отказ доставки не откатывает закоммиченное
// состояние, поэтому Notify не возвращает ошибку. Вызывается только
// после фиксации транзакции, никогда внутри неё.
type Notifier interface {
	Notify(ctx context.Context, playerID, message string)
}

// LogNotifier пишет уведомления в лог. Служит заглушкой транспорта:
// реальный бот подставляет сюда свою доставку сообщений.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier создает нотификатор поверх логгера
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify логирует уведомление
func (n *LogNotifier) Notify(ctx context.Context, playerID, message string) {
	n.logger.Info("Notification",
		zap.String("player_id", playerID),
		zap.String("message", message),
	)
}
