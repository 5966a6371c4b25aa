// query.go — сервис чтения метаданных изображений.
// Координирует repository, LRU cache и Prometheus-метрики.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/imagevault/internal/domain/model"
	"github.com/bigkaa/imagevault/internal/repository"
)

// Ошибки сервисного слоя.
var (
	// ErrNotFound — запись метаданных не найдена.
	ErrNotFound = errors.New("метаданные не найдены")
)

// Prometheus-метрики чтения.
var (
	queryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iv_queries_total",
		Help: "Общее количество запросов чтения метаданных.",
	}, []string{"operation"})
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iv_query_duration_seconds",
		Help:    "Длительность запросов чтения метаданных.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// QueryService — сервис чтения записей метаданных.
type QueryService struct {
	imageRepo repository.ImageRepository
	cache     *CacheService
	logger    *slog.Logger
}

// NewQueryService создаёт сервис чтения метаданных.
func NewQueryService(
	imageRepo repository.ImageRepository,
	cache *CacheService,
	logger *slog.Logger,
) *QueryService {
	return &QueryService{
		imageRepo: imageRepo,
		cache:     cache,
		logger:    logger.With(slog.String("component", "query_service")),
	}
}

// ListByOwner возвращает все записи владельца в порядке создания.
// Пустой результат — пустой срез, не ошибка.
func (s *QueryService) ListByOwner(ctx context.Context, email string) ([]*model.ImageRecord, error) {
	start := time.Now()
	queryTotal.WithLabelValues("list_by_owner").Inc()

	items, err := s.imageRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("выборка записей владельца: %w", err)
	}

	duration := time.Since(start)
	queryDuration.WithLabelValues("list_by_owner").Observe(duration.Seconds())

	s.logger.Debug("Выборка записей владельца выполнена",
		slog.Int("returned", len(items)),
		slog.Duration("duration", duration),
	)

	return items, nil
}

// Lookup возвращает запись метаданных по content address.
// Сначала проверяет LRU-кэш, при промахе — запрос к PostgreSQL,
// результат кэшируется. Кэш безопасен: записи неизменяемы.
func (s *QueryService) Lookup(ctx context.Context, cid string) (*model.ImageRecord, error) {
	start := time.Now()
	queryTotal.WithLabelValues("lookup").Inc()
	defer func() {
		queryDuration.WithLabelValues("lookup").Observe(time.Since(start).Seconds())
	}()

	// Проверяем кэш
	if record, ok := s.cache.Get(cid); ok {
		s.logger.Debug("Кэш hit для записи", slog.String("cid", cid))
		return record, nil
	}

	// Cache miss — запрос к БД
	record, err := s.imageRepo.FindByCID(ctx, cid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("поиск записи по cid: %w", err)
	}

	// Сохраняем в кэш
	s.cache.Set(cid, record)

	return record, nil
}
