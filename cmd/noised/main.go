package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/noisefield/internal/api"
	"github.com/annel0/noisefield/internal/cache"
	"github.com/annel0/noisefield/internal/config"
	"github.com/annel0/noisefield/internal/logging"
	"github.com/annel0/noisefield/internal/observability"
	"github.com/annel0/noisefield/internal/sampler"
	"github.com/annel0/noisefield/internal/storage"
)

// version задаётся при сборке: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $NOISE_CONFIG)")
	warmup := flag.Int("warmup", 64, "разрешение поля для прогрева кеша при старте, 0 — без прогрева")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := configureLogging(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка настройки логирования: %v", err)
	}
	if err := logging.InitDefaultLogger("noised"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.LogInfo("🌀 Запуск noisefield...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТРАССИРОВКА ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.Options{
			ServiceName: cfg.Telemetry.ServiceName,
			Version:     version,
			Endpoint:    cfg.Telemetry.Endpoint,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			logging.LogWarn("Трассировка отключена: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.LogError("Ошибка остановки трассировки: %v", err)
				}
			}()
		}
	}

	// === ХРАНИЛИЩЕ И КЕШ ===
	store, err := openStore(cfg.Storage)
	if err != nil {
		logging.LogError("❌ Ошибка открытия хранилища: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	repo, err := openCache(cfg.Cache, store)
	if err != nil {
		logging.LogError("❌ Ошибка создания кеша: %v", err)
		os.Exit(1)
	}
	if repo != nil {
		defer repo.Close()
	}

	invalidator := openInvalidator(cfg.Cache)
	if invalidator != nil {
		defer invalidator.Close()
	}

	// === СЕРВИС ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := sampler.Options{
		Cache:   repo,
		TTL:     cfg.Cache.TTL,
		Workers: cfg.Sampler.Workers,
		Limits: sampler.Limits{
			MaxResolution: cfg.Sampler.MaxResolution,
			MaxPoints:     cfg.Sampler.MaxPoints,
		},
		Metrics: sampler.NewMetrics(reg),
	}
	var peers api.InvalidationStats
	if invalidator != nil {
		opts.Invalidator = invalidator
		peers = invalidator
	}
	svc := sampler.NewService(opts)
	logging.LogInfo("🧮 Горутин на поле: %d", svc.Workers())

	if invalidator != nil {
		if err := invalidator.Subscribe(ctx, svc.Forget); err != nil {
			logging.LogWarn("Подписка на инвалидации не удалась: %v", err)
		}
	}

	if *warmup > 0 {
		warmCache(ctx, svc, cfg.Noise, min(*warmup, cfg.Sampler.MaxResolution))
	}

	// === HTTP ===
	gin.SetMode(gin.ReleaseMode)
	restPort := cfg.Server.GetRESTPort()
	rest := api.NewRestServer(api.Config{
		Port:     fmt.Sprintf(":%d", restPort),
		Service:  svc,
		Cache:    repo,
		Store:    store,
		Peers:    peers,
		Registry: reg,
	})

	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()),
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() { errCh <- rest.Start() }()
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logging.LogInfo("✅ Сервис запущен")
	logging.LogInfo("   🌐 REST API: http://localhost:%d", restPort)
	logging.LogInfo("   📈 Метрики: http://localhost:%d/metrics", cfg.Server.GetMetricsPort())
	logging.LogInfo("💡 curl -X POST http://localhost:%d/api/noise/sample -H 'Content-Type: application/json' -d '{\"kind\":\"perlin\",\"dimensions\":3,\"settings\":{\"frequency\":4,\"octaves\":1,\"lacunarity\":2,\"persistence\":0.5},\"points\":[[0.1,0.2,0.3]]}'", restPort)

	select {
	case <-ctx.Done():
		logging.LogInfo("📡 Получен сигнал завершения, остановка...")
	case err := <-errCh:
		if err != nil {
			logging.LogError("❌ HTTP сервер завершился с ошибкой: %v", err)
		}
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rest.Stop(shutdownCtx); err != nil {
		logging.LogError("❌ Ошибка остановки REST API: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logging.LogError("❌ Ошибка остановки сервера метрик: %v", err)
	}

	logging.LogInfo("👋 Сервис остановлен")
}

func configureLogging(cfg config.LoggingConfig) error {
	opts := logging.DefaultOptions()
	opts.Dir = cfg.Dir
	var err error
	if cfg.ConsoleLevel != "" {
		if opts.ConsoleLevel, err = logging.ParseLevel(cfg.ConsoleLevel); err != nil {
			return err
		}
	}
	if cfg.FileLevel != "" {
		if opts.FileLevel, err = logging.ParseLevel(cfg.FileLevel); err != nil {
			return err
		}
	}
	logging.Configure(opts)
	return logging.GetLoggerManager().ConfigureComponents(cfg.Components)
}

func openStore(cfg config.StorageConfig) (*storage.FieldStore, error) {
	if cfg.InMemory {
		logging.LogInfo("💾 Хранилище полей в памяти")
		return storage.NewInMemoryFieldStore()
	}
	logging.LogInfo("💾 Хранилище полей: %s", cfg.Path)
	return storage.NewFieldStore(cfg.Path)
}

func openCache(cfg config.CacheConfig, store *storage.FieldStore) (cache.CacheRepo, error) {
	cacheCfg := &cache.CacheConfig{
		RedisURL:            cfg.RedisAddr,
		RedisDB:             cfg.RedisDB,
		DefaultTTL:          cfg.TTL,
		WriteBehindEnabled:  cfg.WriteBehind > 0,
		WriteBehindInterval: cfg.WriteBehind,
	}
	switch cfg.Backend {
	case "redis":
		logging.LogInfo("⚡ Кеш: redis %s/%d", cfg.RedisAddr, cfg.RedisDB)
		return cache.NewRedisCache(cacheCfg, store)
	case "memory":
		logging.LogInfo("⚡ Кеш: память")
		return cache.NewMemoryCache(cacheCfg, store), nil
	default:
		logging.LogInfo("⚡ Кеш отключён")
		return nil, nil
	}
}

// openInvalidator подключает рассылку инвалидаций, если задан cache.nats_url.
// Без NATS сервис работает как одиночный экземпляр.
func openInvalidator(cfg config.CacheConfig) *cache.NATSInvalidator {
	if cfg.NATSURL == "" || cfg.Backend == "none" {
		return nil
	}
	inv, err := cache.NewNATSInvalidator(cache.InvalidatorConfig{
		NATSURL: cfg.NATSURL,
		Subject: cfg.NATSSubject,
	}, "")
	if err != nil {
		logging.LogWarn("Инвалидации между экземплярами отключены: %v", err)
		return nil
	}
	logging.LogInfo("📣 Инвалидации: %s (узел %s)", cfg.NATSURL, inv.NodeID())
	return inv
}

// warmCache заранее вычисляет поле с параметрами шума из конфигурации.
func warmCache(ctx context.Context, svc *sampler.Service, cfg config.NoiseConfig, resolution int) {
	kind, err := cfg.ParsedKind()
	if err != nil {
		logging.LogWarn("Прогрев пропущен: %v", err)
		return
	}
	req := sampler.Request{
		Kind:       kind.String(),
		Dimensions: cfg.Dimensions,
		Tiling:     cfg.Tiling,
		Settings:   cfg.Settings,
		Domain:     cfg.SpaceTRS(),
		Resolution: resolution,
	}
	start := time.Now()
	field, err := svc.Field(ctx, req)
	if err != nil {
		logging.LogWarn("Прогрев не удался: %v", err)
		return
	}
	logging.LogInfo("🔥 Прогрев: поле %s (%d×%d, из кеша: %v) за %v",
		field.Key, field.Resolution, field.Resolution, field.Cached, time.Since(start))
}
