// Package main запускает шлюз телеметрии Telemachus
// Сервис реализует:
// - Прокси текущих значений datalink с записью истории по полям
// - Запросы к истории с окном времени и стратегиями latest/minmax
// - WebSocket-подписку на значения поля
// - Дерево объектов по словарю аппарата
// - Зеркалирование истории в Redis и экспорт метрик в Prometheus
package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"telemachus-gateway/internal/cache"
	"telemachus-gateway/internal/config"
	"telemachus-gateway/internal/dictionary"
	"telemachus-gateway/internal/gateway"
	"telemachus-gateway/internal/handlers"
	"telemachus-gateway/internal/history"
	"telemachus-gateway/internal/metrics"
	"telemachus-gateway/internal/mirror"
	"telemachus-gateway/internal/realtime"
	"telemachus-gateway/internal/upstream"
)

func main() {
	log.Println("Starting Telemachus Gateway...")
	log.Printf("Go version: %s", runtime.Version())
	log.Printf("NumCPU: %d", runtime.NumCPU())

	// Загружаем конфигурацию
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store := history.New(cfg.MaxHistory)
	fetcher := upstream.NewFetcher(cfg.DatalinkURL, cfg.FetchTimeout, nil)
	log.Printf("Datalink: %s (timeout %s), history length %d", cfg.DatalinkURL, cfg.FetchTimeout, cfg.MaxHistory)

	// Зеркало Redis необязательно: без REDIS_ADDR история живет только в памяти
	var redisCache *cache.RedisCache
	var pipeline *mirror.Pipeline
	if cfg.RedisAddr != "" {
		redisCache = connectRedis(cfg)
	}
	if redisCache != nil {
		pipeline = mirror.NewPipeline(redisCache, cfg.MirrorBuffer, cfg.MirrorWorkers)
		pipeline.Start()
		log.Printf("Redis mirror started with %d workers", cfg.MirrorWorkers)
	}

	// Пустой *Pipeline в интерфейсе не равен nil, поэтому передаем явно
	var sink gateway.Mirror
	if pipeline != nil {
		sink = pipeline
	}
	gw := gateway.New(fetcher, store, sink)
	poller := realtime.NewPoller(gw, cfg.PollInterval)

	// Создаем обработчики
	handler := handlers.NewHandler(gw, poller).WithDatalink(fetcher)
	if redisCache != nil {
		handler.WithCache(redisCache)
	}
	if cfg.DictionaryPath != "" {
		dict, err := dictionary.Load(cfg.DictionaryPath)
		if err != nil {
			log.Fatalf("Failed to load dictionary: %v", err)
		}
		log.Printf("Dictionary %q loaded: %d measurements", dict.Name, len(dict.Measurements()))
		handler.WithDictionary(dict)
	}

	// Настраиваем маршруты
	router := handlers.NewRouter(handler, cfg.Mount)

	// pprof для профилирования
	router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	// Middleware для логирования и метрик
	router.Use(loggingMiddleware)
	router.Use(metricsMiddleware)

	// Создаем HTTP сервер с настройками таймаутов
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Запускаем горутину для обновления метрик
	go updateMetricsLoop(store)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Server listening on %s", cfg.ServerAddr)
		log.Printf("Endpoints:")
		log.Printf("  GET  %s/latest?<alias>=<field>  - Current datalink values", cfg.Mount)
		log.Printf("  GET  %s/history/{field}         - Stored history", cfg.Mount)
		log.Printf("  POST %s/history/{field}         - Query history", cfg.Mount)
		log.Printf("  GET  %s/history/{field}/summary - History summary", cfg.Mount)
		log.Printf("  GET  %s/stream/{field}          - WebSocket stream", cfg.Mount)
		log.Printf("  GET  %s/dictionary              - Vessel dictionary", cfg.Mount)
		log.Printf("  GET  %s/objects/{key}           - Object tree node", cfg.Mount)
		log.Printf("  GET  %s/composition/{key}       - Object children", cfg.Mount)
		log.Printf("  GET  /health     - Health check")
		log.Printf("  GET  /stats      - Service statistics")
		log.Printf("  GET  /prometheus - Prometheus metrics")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	<-stop
	log.Println("Shutting down server...")

	// Контекст с таймаутом для завершения
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Завершаем HTTP сервер, затем останавливаем зеркало
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if pipeline != nil {
		pipeline.Stop()
	}
	if redisCache != nil {
		redisCache.Close()
	}

	log.Println("Server stopped")
}

// connectRedis подключается к Redis с повторами; nil, если подключиться не удалось
func connectRedis(cfg config.Config) *cache.RedisCache {
	var lastErr error
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MaxHistory)
		cancel()
		if err == nil {
			log.Printf("Connected to Redis at %s", cfg.RedisAddr)
			return redisCache
		}
		lastErr = err
		log.Printf("Redis connection attempt %d failed: %v", i+1, err)
		if i < 4 {
			time.Sleep(time.Duration(i+1) * time.Second)
		}
	}

	log.Printf("Warning: Failed to connect to Redis, running without mirror: %v", lastErr)
	return nil
}

// loggingMiddleware логирует HTTP запросы
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// metricsMiddleware считает запросы в полете
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.InFlightRequests.Inc()
		defer metrics.InFlightRequests.Dec()
		next.ServeHTTP(w, r)
	})
}

// updateMetricsLoop периодически обновляет метрики Prometheus
func updateMetricsLoop(store *history.Store) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		metrics.UpdateHistoryMetrics(store.Stats())
		metrics.ActiveGoroutines.Set(float64(runtime.NumGoroutine()))
	}
}
