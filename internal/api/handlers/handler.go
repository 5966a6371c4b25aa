// handler.go — основной обработчик API imagevault.
// Объединяет health и бизнес-обработчики, делегируя запросы в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bigkaa/imagevault/internal/domain/model"
	"github.com/bigkaa/imagevault/internal/service"
)

// Uploader — интерфейс пайплайна загрузки.
// Реализуется service.UploadService.
type Uploader interface {
	Upload(ctx context.Context, params service.UploadParams) (*service.UploadResult, *service.UploadError)
}

// Querier — интерфейс чтения метаданных.
// Реализуется service.QueryService.
type Querier interface {
	ListByOwner(ctx context.Context, email string) ([]*model.ImageRecord, error)
	Lookup(ctx context.Context, cid string) (*model.ImageRecord, error)
}

// APIHandler — основной обработчик API imagevault.
type APIHandler struct {
	uploader      Uploader
	querier       Querier
	health        *HealthHandler
	maxUploadSize int64
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// maxUploadSize — лимит памяти для парсинга multipart-форм (байт).
func NewAPIHandler(
	uploader Uploader,
	querier Querier,
	health *HealthHandler,
	maxUploadSize int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		uploader:      uploader,
		querier:       querier,
		health:        health,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// Root — корневой endpoint, plain-text подтверждение работы сервиса.
func (h *APIHandler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Image upload API is running"))
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
