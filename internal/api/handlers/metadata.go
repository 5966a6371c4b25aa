// metadata.go — обработчики чтения метаданных.
// GET /metadata — записи владельца (требует аутентификации)
// GET /metadata/{cid} — запись по content address (публичный)
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/imagevault/internal/api/errors"
	"github.com/bigkaa/imagevault/internal/api/middleware"
	"github.com/bigkaa/imagevault/internal/domain/model"
	"github.com/bigkaa/imagevault/internal/service"
)

// metadataResponse — представление записи метаданных в API.
// Опциональные поля опускаются, если не заполнены.
type metadataResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	CID         string  `json:"cid"`
	ImageName   *string `json:"imageName,omitempty"`
	CaptureTime *string `json:"captureTime,omitempty"`
	Location    *string `json:"location,omitempty"`
	DeviceInfo  *string `json:"deviceInfo,omitempty"`
	Timestamp   *string `json:"timestamp,omitempty"`
	FileType    *string `json:"fileType,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// toMetadataResponse конвертирует доменную запись в API-представление.
func toMetadataResponse(rec *model.ImageRecord) metadataResponse {
	return metadataResponse{
		ID:          rec.ID,
		Email:       rec.Email,
		CID:         rec.CID,
		ImageName:   rec.ImageName,
		CaptureTime: rec.CaptureTime,
		Location:    rec.Location,
		DeviceInfo:  rec.DeviceInfo,
		Timestamp:   rec.Timestamp,
		FileType:    rec.FileType,
		CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   rec.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ListMetadata — GET /metadata. Возвращает все записи владельца
// в порядке создания. Пустой список — корректный ответ 200.
func (h *APIHandler) ListMetadata(w http.ResponseWriter, r *http.Request) {
	email := middleware.EmailFromContext(r.Context())
	if email == "" {
		apierrors.Forbidden(w, "Invalid or expired token")
		return
	}

	records, err := h.querier.ListByOwner(r.Context(), email)
	if err != nil {
		h.logger.Error("Ошибка выборки записей владельца",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Failed to fetch metadata")
		return
	}

	resp := make([]metadataResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toMetadataResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetMetadataByCID — GET /metadata/{cid}. Публичный поиск записи
// по content address. Отсутствие записи → 404.
func (h *APIHandler) GetMetadataByCID(w http.ResponseWriter, r *http.Request) {
	cid := chi.URLParam(r, "cid")

	record, err := h.querier.Lookup(r.Context(), cid)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Metadata not found")
			return
		}
		h.logger.Error("Ошибка поиска записи по cid",
			slog.String("cid", cid),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Failed to fetch metadata")
		return
	}

	writeJSON(w, http.StatusOK, toMetadataResponse(record))
}
