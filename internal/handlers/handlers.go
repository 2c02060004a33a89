// Package handlers содержит HTTP обработчики для API
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telemachus-gateway/internal/cache"
	"telemachus-gateway/internal/dictionary"
	"telemachus-gateway/internal/gateway"
	"telemachus-gateway/internal/metrics"
	"telemachus-gateway/internal/models"
	"telemachus-gateway/internal/realtime"
)

// maxQueryBytes ограничение на размер тела запроса к истории
const maxQueryBytes = 64 << 10

// Метки эндпоинтов для метрик
const (
	endpointLatest      = "/latest"
	endpointHistory     = "/history/{field}"
	endpointSummary     = "/history/{field}/summary"
	endpointStream      = "/stream/{field}"
	endpointDictionary  = "/dictionary"
	endpointObjects     = "/objects/{key}"
	endpointComposition = "/composition/{key}"
	endpointStats       = "/stats"
)

// Pinger проверяет доступность зависимости
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler содержит зависимости для HTTP обработчиков
type Handler struct {
	gateway   *gateway.Gateway
	poller    *realtime.Poller
	dict      *dictionary.Dictionary
	cache     *cache.RedisCache
	datalink  Pinger
	upgrader  websocket.Upgrader
	streams   atomic.Int64
	startTime time.Time
}

// NewHandler создает новый обработчик
func NewHandler(gw *gateway.Gateway, poller *realtime.Poller) *Handler {
	return &Handler{
		gateway: gw,
		poller:  poller,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		startTime: time.Now(),
	}
}

// WithDictionary подключает словарь аппарата для эндпоинтов дерева объектов
func (h *Handler) WithDictionary(d *dictionary.Dictionary) *Handler {
	h.dict = d
	return h
}

// WithCache подключает зеркало Redis для /health и /stats
func (h *Handler) WithCache(c *cache.RedisCache) *Handler {
	h.cache = c
	return h
}

// WithDatalink подключает проверку datalink для /health
func (h *Handler) WithDatalink(p Pinger) *Handler {
	h.datalink = p
	return h
}

// Routes регистрирует маршруты телеметрии на r
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc(endpointLatest, h.LatestHandler).Methods("GET")
	r.HandleFunc(endpointHistory, h.HistoryHandler).Methods("GET")
	r.HandleFunc(endpointHistory, h.QueryHandler).Methods("POST")
	r.HandleFunc(endpointSummary, h.SummaryHandler).Methods("GET")
	r.HandleFunc(endpointStream, h.StreamHandler).Methods("GET")
	r.HandleFunc(endpointDictionary, h.DictionaryHandler).Methods("GET")
	r.HandleFunc(endpointObjects, h.ObjectHandler).Methods("GET")
	r.HandleFunc(endpointComposition, h.CompositionHandler).Methods("GET")
}

// NewRouter создает роутер: маршруты телеметрии под mount, служебные в корне
func NewRouter(h *Handler, mount string) *mux.Router {
	router := mux.NewRouter()

	if mount == "" {
		h.Routes(router)
	} else {
		h.Routes(router.PathPrefix(mount).Subrouter())
	}

	router.HandleFunc("/health", h.HealthHandler).Methods("GET")
	router.HandleFunc(endpointStats, h.StatsHandler).Methods("GET")
	router.Handle("/prometheus", promhttp.Handler())

	return router
}

// LatestHandler обрабатывает GET /latest?<alias>=<field> - текущие значения из datalink.
// Всегда отвечает 200; при недоступности datalink тело равно {}.
func (h *Handler) LatestHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpointLatest, r.Method))
	defer timer.ObserveDuration()

	data := h.gateway.GetLatest(r.Context(), r.URL.RawQuery)

	metrics.RequestsTotal.WithLabelValues(endpointLatest, r.Method, "200").Inc()
	h.respondJSON(w, data, http.StatusOK)
}

// HistoryHandler обрабатывает GET /history/{field} - вся хранимая история поля
func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpointHistory, r.Method))
	defer timer.ObserveDuration()

	samples := h.gateway.GetHistory(mux.Vars(r)["field"])

	metrics.RequestsTotal.WithLabelValues(endpointHistory, r.Method, "200").Inc()
	h.respondJSON(w, samples, http.StatusOK)
}

// QueryHandler обрабатывает POST /history/{field} - запрос к истории с окном и стратегией.
// Некорректное тело дает пустой массив.
func (h *Handler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpointHistory, r.Method))
	defer timer.ObserveDuration()

	field := mux.Vars(r)["field"]
	samples := []models.Sample{}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxQueryBytes))
	if err == nil {
		var spec models.QuerySpec
		spec, err = models.DecodeQuery(body)
		if err == nil {
			samples = h.gateway.QueryHistory(field, spec)
		}
	}
	if err != nil {
		metrics.MalformedQueries.Inc()
		log.Printf("Malformed history query for %s: %v", field, err)
	}

	metrics.RequestsTotal.WithLabelValues(endpointHistory, r.Method, "200").Inc()
	h.respondJSON(w, samples, http.StatusOK)
}

// SummaryHandler обрабатывает GET /history/{field}/summary - сводка по окну истории
func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpointSummary, r.Method))
	defer timer.ObserveDuration()

	// Для неизвестного поля отдаем пустую сводку, как и пустую историю
	summary, _ := h.gateway.Store().Summary(mux.Vars(r)["field"])

	metrics.RequestsTotal.WithLabelValues(endpointSummary, r.Method, "200").Inc()
	h.respondJSON(w, summary, http.StatusOK)
}

// HealthHandler обрабатывает GET /health - проверка здоровья
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	redisStatus := "disabled"
	if h.cache != nil {
		redisStatus = "disconnected"
		if h.cache.Ping(ctx) == nil {
			redisStatus = "connected"
		}
	}

	upstreamStatus := "unknown"
	if h.datalink != nil {
		upstreamStatus = "unreachable"
		if h.datalink.Ping(ctx) == nil {
			upstreamStatus = "reachable"
		}
	}

	// Сервис здоров и без datalink: телеметрия деградирует до пустых ответов
	status := models.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Redis:     redisStatus,
		Upstream:  upstreamStatus,
		Uptime:    time.Since(h.startTime).String(),
	}

	h.respondJSON(w, status, http.StatusOK)
}

// StatsHandler обрабатывает GET /stats - статистика хранилища
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpointStats, r.Method))
	defer timer.ObserveDuration()

	// Обновляем метрику горутин
	metrics.ActiveGoroutines.Set(float64(runtime.NumGoroutine()))

	store := h.gateway.Store()
	fields, samples := store.Stats()
	metrics.UpdateHistoryMetrics(fields, samples)

	var mirrored int64
	if h.cache != nil {
		mirrored, _ = h.cache.GetCounter(r.Context(), cache.SamplesTotalKey)
	}

	response := models.StatsResponse{
		Fields:        fields,
		Samples:       samples,
		MaxHistory:    store.MaxHistory(),
		MirroredTotal: mirrored,
		ActiveStreams: int(h.streams.Load()),
		TrackedFields: store.Fields(),
	}

	metrics.RequestsTotal.WithLabelValues(endpointStats, r.Method, "200").Inc()
	h.respondJSON(w, response, http.StatusOK)
}

// respondJSON отправляет JSON ответ
func (h *Handler) respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError отправляет ошибку в JSON формате
func (h *Handler) respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
