// Пакет service — бизнес-логика imagevault.
// CacheService — LRU-кэш записей метаданных с TTL, ключ — CID.
// Обёртка над hashicorp/golang-lru/v2/expirable.
// Записи метаданных неизменяемы после создания, поэтому кэшированные
// значения не устаревают — TTL нужен только для ограничения памяти.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/imagevault/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iv_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш метаданных.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iv_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша метаданных.",
	})
)

// CacheService — LRU-кэш записей метаданных с автоматическим TTL.
// Каждый экземпляр сервиса имеет собственный in-memory кэш (per-instance).
type CacheService struct {
	cache *expirable.LRU[string, *model.ImageRecord]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей в кэше.
// ttl — время жизни записи после добавления.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	cache := expirable.NewLRU[string, *model.ImageRecord](maxSize, nil, ttl)
	return &CacheService{cache: cache}
}

// Get возвращает ImageRecord из кэша по cid.
// Возвращает (запись, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *CacheService) Get(cid string) (*model.ImageRecord, bool) {
	val, ok := c.cache.Get(cid)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *CacheService) Set(cid string, record *model.ImageRecord) {
	c.cache.Add(cid, record)
}
