package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tictac-arena/handler"
	"tictac-arena/models"
	"tictac-arena/service"
	"tictac-arena/storage"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	defaultRedisAddr     = "localhost:6379"
	defaultRedisPassword = ""
	defaultRedisDB       = 0
	defaultServerPort    = ":8080"
)

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	// Инициализация логгера
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting Tic Tac Arena")

	// Настройки из .env файла или переменных окружения
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, reading environment variables directly")
	}

	redisAddr := getEnv("REDIS_ADDR", defaultRedisAddr)
	redisPassword := getEnv("REDIS_PASSWORD", defaultRedisPassword)
	redisDB := defaultRedisDB
	if db := os.Getenv("REDIS_DB"); db != "" {
		fmt.Sscanf(db, "%d", &redisDB)
	}
	serverPort := getEnv("SERVER_PORT", defaultServerPort)

	// Инициализация Redis хранилища
	store, err := storage.NewRedisStore(redisAddr, redisPassword, redisDB, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Redis storage", zap.Error(err))
	}
	defer store.Close()

	logger.Info("Connected to Redis", zap.String("addr", redisAddr))

	// Инициализация ядра арены
	arena := service.NewArena(store, service.NewLogNotifier(logger), logger, service.DefaultConfig())

	// Настройка маршрутов
	arenaHandler := handler.NewArenaHandler(arena, logger)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	arenaHandler.Register(api)

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Настройка HTTP сервера
	srv := &http.Server{
		Addr:         serverPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", serverPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Страховочный цикл спаривания: основной триггер — вход в очередь,
	// но после рестарта процесса ожидающие пары подбираются отсюда
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for _, kind := range []models.Kind{models.KindTrophy, models.KindStar} {
					if err := arena.TryPair(ctx, kind); err != nil {
						logger.Warn("Failed to process queue",
							zap.String("kind", string(kind)),
							zap.Error(err),
						)
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Ожидание сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
