// main.go — точка входа imagevault.
// Последовательность запуска: конфигурация → логгер → миграции → PostgreSQL →
// клиент хранилища → JWT middleware → репозиторий → сервисы → обработчики →
// мониторинг зависимостей → HTTP-сервер.
package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/imagevault/internal/api/handlers"
	"github.com/bigkaa/imagevault/internal/api/middleware"
	"github.com/bigkaa/imagevault/internal/config"
	"github.com/bigkaa/imagevault/internal/database"
	"github.com/bigkaa/imagevault/internal/repository"
	"github.com/bigkaa/imagevault/internal/server"
	"github.com/bigkaa/imagevault/internal/service"
	"github.com/bigkaa/imagevault/internal/storeclient"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("imagevault запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	ctx := context.Background()

	// 3. Применение миграций
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка применения миграций", slog.String("error", err.Error()))
		log.Fatalf("Миграции не применены: %v", err)
	}

	// 4. Подключение к PostgreSQL
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		log.Fatalf("PostgreSQL недоступен: %v", err)
	}
	defer pool.Close()

	// *sql.DB поверх pgxpool — для SQL checker topologymetrics
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Клиент хранилища объектов
	store, err := storeclient.New(storeclient.Config{
		BaseURL:    cfg.StoreURL,
		Bucket:     cfg.StoreBucket,
		AccessKey:  cfg.StoreKey,
		SecretKey:  cfg.StoreSecret,
		CACertPath: cfg.StoreCACertPath,
		Timeout:    cfg.StoreTimeout,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента хранилища", slog.String("error", err.Error()))
		log.Fatalf("Клиент хранилища не создан: %v", err)
	}

	// 6. JWT middleware (JWKS identity-провайдера)
	jwtAuth, err := middleware.NewJWTAuth(middleware.JWTAuthConfig{
		JWKSURL:         cfg.JWKSURL,
		Issuer:          cfg.JWTIssuer,
		CACertPath:      cfg.AuthCACertPath,
		ClientTimeout:   cfg.JWKSClientTimeout,
		RefreshInterval: cfg.JWKSRefreshInterval,
		JWTLeeway:       cfg.JWTLeeway,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		log.Fatalf("JWT middleware не создан: %v", err)
	}
	defer jwtAuth.Close()

	// 7. Репозиторий и сервисы
	imageRepo := repository.NewImageRepository(pool)
	cache := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)
	uploadSvc := service.NewUploadService(store, imageRepo, logger)
	querySvc := service.NewQueryService(imageRepo, cache, logger)

	// 8. Readiness checkers и обработчики
	identityChecker, err := middleware.NewIdentityReadinessChecker(
		cfg.JWKSURL, cfg.AuthCACertPath, cfg.JWKSClientTimeout)
	if err != nil {
		logger.Error("Ошибка создания identity checker", slog.String("error", err.Error()))
		log.Fatalf("Identity checker не создан: %v", err)
	}

	healthHandler := handlers.NewHealthHandler(
		database.NewReadinessChecker(pool),
		storeclient.NewReadinessChecker(store),
		identityChecker,
	)
	apiHandler := handlers.NewAPIHandler(uploadSvc, querySvc, healthHandler, cfg.MaxUploadSize, logger)

	// 9. Мониторинг зависимостей (best effort — сервис работает и без него)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"imagevault",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseDSN(),
		cfg.StoreURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("Мониторинг зависимостей не инициализирован",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Мониторинг зависимостей не запущен",
				slog.String("error", startErr.Error()),
			)
		}
	}

	// 10. HTTP-сервер (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		log.Fatalf("Сервер завершился с ошибкой: %v", err)
	}

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("imagevault остановлен")
}
