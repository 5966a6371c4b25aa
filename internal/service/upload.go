// upload.go — пайплайн загрузки изображений.
// Порядок строгий: валидация → парсинг контекста → запись байтов в хранилище →
// создание записи метаданных. Запись метаданных создаётся только после
// успешного сохранения байтов; при сбое записи объект остаётся в хранилище
// без записи (orphan) — такие исходы считаются отдельным статусом метрики.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/imagevault/internal/domain/model"
	"github.com/bigkaa/imagevault/internal/repository"
)

// Prometheus-метрики загрузки.
var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iv_uploads_total",
		Help: "Общее количество загрузок по статусу (success, validation_error, store_error, orphaned).",
	}, []string{"status"})
	uploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "iv_upload_duration_seconds",
		Help:    "Длительность пайплайна загрузки.",
		Buckets: prometheus.DefBuckets,
	})
	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iv_upload_bytes_total",
		Help: "Общий объём успешно загруженных байт.",
	})
)

// ContentStore — граница контент-адресуемого хранилища объектов.
// Реализуется storeclient.Client.
type ContentStore interface {
	// Store сохраняет байты и возвращает назначенный хранилищем CID.
	Store(ctx context.Context, name string, data []byte) (string, error)
}

// UploadParams — параметры загрузки изображения.
type UploadParams struct {
	// Email — email владельца (из верифицированного токена)
	Email string
	// Data — байты изображения
	Data []byte
	// OriginalFilename — имя файла из multipart part
	OriginalFilename string
	// ImageName — клиентское имя изображения (приоритетнее OriginalFilename)
	ImageName string
	// ContentType — MIME-тип из заголовка multipart part (может быть пуст)
	ContentType string
	// MetadataJSON — опциональный JSON с контекстом съёмки
	MetadataJSON string
}

// UploadResult — результат загрузки.
type UploadResult struct {
	// CID — content address сохранённого объекта
	CID string
	// Record — созданная запись метаданных
	Record *model.ImageRecord
}

// UploadError — ошибка загрузки с HTTP-кодом.
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// UploadService — сервис загрузки изображений.
type UploadService struct {
	store     ContentStore
	imageRepo repository.ImageRepository
	logger    *slog.Logger
}

// NewUploadService создаёт сервис загрузки.
func NewUploadService(
	store ContentStore,
	imageRepo repository.ImageRepository,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		store:     store,
		imageRepo: imageRepo,
		logger:    logger.With(slog.String("component", "upload_service")),
	}
}

// Upload выполняет пайплайн загрузки изображения.
//
// Поток:
//  1. Проверка наличия байтов (пустой файл отклоняется до любых вызовов)
//  2. Lenient-парсинг клиентского контекста (некорректный JSON → пустой)
//  3. Разрешение имени (imageName, иначе оригинальное имя файла)
//  4. Store → CID
//  5. Создание записи метаданных (после успешной записи байтов)
//
// При сбое хранилища запись не создаётся. При сбое создания записи
// объект остаётся в хранилище (orphan) — считается в метриках.
func (s *UploadService) Upload(ctx context.Context, params UploadParams) (*UploadResult, *UploadError) {
	start := time.Now()
	defer func() {
		uploadDuration.Observe(time.Since(start).Seconds())
	}()

	// 1. Пустой файл отклоняется до обращений к хранилищу и БД
	if len(params.Data) == 0 {
		uploadsTotal.WithLabelValues("validation_error").Inc()
		return nil, &UploadError{
			StatusCode: http.StatusBadRequest,
			Message:    "No file uploaded",
		}
	}

	// 2. Lenient-парсинг клиентского контекста
	clientMeta := parseClientMetadata(params.MetadataJSON, s.logger)

	// 3. Разрешение имени изображения
	imageName := params.ImageName
	if imageName == "" {
		imageName = params.OriginalFilename
	}

	// 4. Запись байтов в хранилище
	cid, err := s.store.Store(ctx, imageName, params.Data)
	if err != nil {
		uploadsTotal.WithLabelValues("store_error").Inc()
		s.logger.Error("Ошибка записи объекта в хранилище",
			slog.String("email", params.Email),
			slog.String("image_name", imageName),
			slog.String("error", err.Error()),
		)
		return nil, &UploadError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Failed to upload file",
		}
	}

	// 5. Создание записи метаданных
	rec := &model.ImageRecord{
		Email:       params.Email,
		CID:         cid,
		CaptureTime: clientMeta.CaptureTime,
		Location:    clientMeta.Location,
		DeviceInfo:  clientMeta.DeviceInfo,
		Timestamp:   clientMeta.Timestamp,
	}
	if imageName != "" {
		rec.ImageName = &imageName
	}
	if fileType := resolveFileType(params.ContentType, params.Data); fileType != "" {
		rec.FileType = &fileType
	}

	created, err := s.imageRepo.Create(ctx, rec)
	if err != nil {
		// Байты уже в хранилище, записи нет — orphan
		uploadsTotal.WithLabelValues("orphaned").Inc()
		s.logger.Error("Ошибка создания записи метаданных (объект остался в хранилище)",
			slog.String("email", params.Email),
			slog.String("cid", cid),
			slog.String("error", err.Error()),
		)
		return nil, &UploadError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Failed to upload file",
		}
	}

	uploadsTotal.WithLabelValues("success").Inc()
	uploadBytesTotal.Add(float64(len(params.Data)))

	s.logger.Info("Изображение загружено",
		slog.String("cid", cid),
		slog.String("email", params.Email),
		slog.String("image_name", imageName),
		slog.Int("size", len(params.Data)),
	)

	return &UploadResult{CID: cid, Record: created}, nil
}

// parseClientMetadata парсит опциональный JSON клиентского контекста.
// Некорректный JSON трактуется как пустой объект: загрузка продолжается,
// все опциональные поля остаются незаполненными.
func parseClientMetadata(metadataJSON string, logger *slog.Logger) model.ClientMetadata {
	var meta model.ClientMetadata
	if metadataJSON == "" {
		return meta
	}
	if err := json.Unmarshal([]byte(metadataJSON), &meta); err != nil {
		logger.Debug("Некорректный JSON клиентского контекста, игнорируется",
			slog.String("error", err.Error()),
		)
		return model.ClientMetadata{}
	}
	return meta
}

// resolveFileType определяет MIME-тип: заголовок multipart part,
// при его отсутствии — сниффинг по содержимому.
func resolveFileType(contentType string, data []byte) string {
	if contentType != "" {
		// Убираем параметры (charset и т.д.)
		if idx := strings.Index(contentType, ";"); idx != -1 {
			contentType = strings.TrimSpace(contentType[:idx])
		}
		return contentType
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return ""
}
