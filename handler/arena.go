package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"tictac-arena/game"
	"tictac-arena/models"
	"tictac-arena/service"
	"tictac-arena/storage"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ArenaHandler обрабатывает HTTP запросы к ядру арены. Транспортный
// слой только декодирует запросы и переводит ошибки сервиса в статусы;
// игровой логики здесь нет.
type ArenaHandler struct {
	arena  *service.Arena
	logger *zap.Logger
}

// NewArenaHandler создает новый обработчик
func NewArenaHandler(arena *service.Arena, logger *zap.Logger) *ArenaHandler {
	return &ArenaHandler{
		arena:  arena,
		logger: logger,
	}
}

// Register подключает маршруты к роутеру
func (h *ArenaHandler) Register(api *mux.Router) {
	api.HandleFunc("/players", h.CreateProfile).Methods("POST")
	api.HandleFunc("/players/{player_id}", h.GetProfile).Methods("GET")
	api.HandleFunc("/players/{player_id}/language", h.SetLanguage).Methods("PUT")

	api.HandleFunc("/queue/join", h.JoinQueue).Methods("POST")
	api.HandleFunc("/queue/leave", h.LeaveQueue).Methods("POST")

	api.HandleFunc("/matches/move", h.SubmitMove).Methods("POST")
	api.HandleFunc("/matches/surrender", h.Surrender).Methods("POST")

	api.HandleFunc("/withdrawals", h.RequestWithdrawal).Methods("POST")
	api.HandleFunc("/withdrawals/pending", h.PendingWithdrawals).Methods("GET")
	api.HandleFunc("/withdrawals/{request_id}/complete", h.CompleteWithdrawal).Methods("POST")

	api.HandleFunc("/bonus/claim", h.ClaimDailyBonus).Methods("POST")
	api.HandleFunc("/admin/adjust", h.AdjustBalance).Methods("POST")

	api.HandleFunc("/leaderboard", h.Leaderboard).Methods("GET")
	api.HandleFunc("/stats", h.Stats).Methods("GET")
}

// CreateProfile регистрирует игрока при первом контакте
func (h *ArenaHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	profile, err := h.arena.GetOrCreateProfile(r.Context(), req.PlayerID, req.Username)
	if err != nil {
		h.respondServiceError(w, "Failed to create profile", err)
		return
	}
	h.respondJSON(w, http.StatusOK, profile)
}

// GetProfile возвращает профиль игрока
func (h *ArenaHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["player_id"]

	profile, err := h.arena.GetProfile(r.Context(), playerID)
	if err != nil {
		h.respondServiceError(w, "Failed to get profile", err)
		return
	}
	h.respondJSON(w, http.StatusOK, profile)
}

// SetLanguage сохраняет язык игрока
func (h *ArenaHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["player_id"]

	var req struct {
		Lang string `json:"lang"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.arena.SetLanguage(r.Context(), playerID, req.Lang); err != nil {
		h.respondServiceError(w, "Failed to set language", err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"player_id": playerID,
		"lang":      req.Lang,
	})
}

// JoinQueue ставит игрока в очередь
func (h *ArenaHandler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string      `json:"player_id"`
		Kind     models.Kind `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.arena.JoinQueue(r.Context(), req.PlayerID, req.Kind); err != nil {
		h.respondServiceError(w, "Failed to join queue", err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"player_id": req.PlayerID,
		"kind":      req.Kind,
		"status":    "queued",
	})
}

// LeaveQueue убирает игрока из очереди
func (h *ArenaHandler) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string      `json:"player_id"`
		Kind     models.Kind `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.arena.LeaveQueue(r.Context(), req.PlayerID, req.Kind); err != nil {
		h.respondServiceError(w, "Failed to leave queue", err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"player_id": req.PlayerID,
		"status":    "removed",
	})
}

// SubmitMove применяет ход игрока
func (h *ArenaHandler) SubmitMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
		MatchID  string `json:"match_id"`
		Cell     *int   `json:"cell"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.PlayerID == "" || req.MatchID == "" || req.Cell == nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.arena.SubmitMove(r.Context(), req.PlayerID, req.MatchID, *req.Cell)
	if err != nil {
		h.respondServiceError(w, "Move rejected", err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// Surrender засчитывает сдачу матча
func (h *ArenaHandler) Surrender(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.arena.Surrender(r.Context(), req.PlayerID)
	if err != nil {
		h.respondServiceError(w, "Surrender rejected", err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// RequestWithdrawal создает заявку на вывод
func (h *ArenaHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string  `json:"player_id"`
		Amount   float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	request, err := h.arena.RequestWithdrawal(r.Context(), req.PlayerID, req.Amount)
	if err != nil {
		h.respondServiceError(w, "Failed to request withdrawal", err)
		return
	}
	h.respondJSON(w, http.StatusOK, request)
}

// PendingWithdrawals возвращает незавершённые заявки (админ)
func (h *ArenaHandler) PendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	pending, err := h.arena.PendingWithdrawals(r.Context())
	if err != nil {
		h.respondServiceError(w, "Failed to list withdrawals", err)
		return
	}
	h.respondJSON(w, http.StatusOK, pending)
}

// CompleteWithdrawal помечает заявку выполненной (админ)
func (h *ArenaHandler) CompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	request, err := h.arena.CompleteWithdrawal(r.Context(), requestID)
	if err != nil {
		h.respondServiceError(w, "Failed to complete withdrawal", err)
		return
	}
	h.respondJSON(w, http.StatusOK, request)
}

// ClaimDailyBonus начисляет ежедневный бонус
func (h *ArenaHandler) ClaimDailyBonus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	claimed, err := h.arena.ClaimDailyBonus(r.Context(), req.PlayerID)
	if err != nil {
		h.respondServiceError(w, "Failed to claim bonus", err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"player_id": req.PlayerID,
		"claimed":   claimed,
	})
}

// AdjustBalance применяет административную поправку баланса.
// Авторизация — забота вышестоящего слоя (gateway).
func (h *ArenaHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string  `json:"player_id"`
		Field    string  `json:"field"`
		Delta    float64 `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	profile, err := h.arena.AdjustBalance(r.Context(), req.PlayerID, req.Field, req.Delta)
	if err != nil {
		h.respondServiceError(w, "Failed to adjust balance", err)
		return
	}
	h.respondJSON(w, http.StatusOK, profile)
}

// Leaderboard возвращает таблицу лидеров
func (h *ArenaHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	if by == "" {
		by = service.FieldTrophies
	}

	entries, err := h.arena.Leaderboard(r.Context(), by)
	if err != nil {
		h.respondServiceError(w, "Failed to build leaderboard", err)
		return
	}
	h.respondJSON(w, http.StatusOK, entries)
}

// Stats возвращает статистику сервиса
func (h *ArenaHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.arena.Stats(r.Context())
	if err != nil {
		h.respondServiceError(w, "Failed to collect stats", err)
		return
	}
	h.respondJSON(w, http.StatusOK, stats)
}

// statusFor переводит ошибку сервиса в HTTP статус
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrMatchNotFound),
		errors.Is(err, service.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyQueued),
		errors.Is(err, service.ErrAlreadyInMatch),
		errors.Is(err, service.ErrNotQueued),
		errors.Is(err, service.ErrNotYourTurn),
		errors.Is(err, service.ErrMatchInactive),
		errors.Is(err, service.ErrAlreadyCompleted):
		return http.StatusConflict
	case errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrBelowMinimum),
		errors.Is(err, service.ErrUnknownKind),
		errors.Is(err, service.ErrUnknownField),
		errors.Is(err, service.ErrUnknownLanguage),
		errors.Is(err, game.ErrIllegalMove),
		errors.Is(err, game.ErrCellOccupied):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrTxConflict):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError отправляет ошибку сервиса с подходящим статусом
func (h *ArenaHandler) respondServiceError(w http.ResponseWriter, message string, err error) {
	h.respondError(w, statusFor(err), message, err)
}

// respondJSON отправляет JSON ответ
func (h *ArenaHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// respondError отправляет ошибку в формате JSON
func (h *ArenaHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	h.logger.Warn("Request error",
		zap.Int("status", status),
		zap.String("message", message),
		zap.Error(err),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResp := map[string]interface{}{
		"error": message,
	}
	if err != nil {
		errorResp["details"] = err.Error()
	}
	json.NewEncoder(w).Encode(errorResp)
}
