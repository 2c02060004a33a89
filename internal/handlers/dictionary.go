package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"telemachus-gateway/internal/metrics"
)

// DictionaryHandler обрабатывает GET /dictionary - словарь аппарата целиком
func (h *Handler) DictionaryHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpointDictionary, r.Method))
	defer timer.ObserveDuration()

	if h.dict == nil {
		h.dictionaryUnavailable(w, r, endpointDictionary)
		return
	}

	metrics.RequestsTotal.WithLabelValues(endpointDictionary, r.Method, "200").Inc()
	h.respondJSON(w, h.dict, http.StatusOK)
}

// ObjectHandler обрабатывает GET /objects/{key} - объект дерева по ключу
func (h *Handler) ObjectHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpointObjects, r.Method))
	defer timer.ObserveDuration()

	if h.dict == nil {
		h.dictionaryUnavailable(w, r, endpointObjects)
		return
	}

	key := mux.Vars(r)["key"]
	obj, ok := h.dict.Object(key)
	if !ok {
		h.respondError(w, "Unknown object: "+key, http.StatusNotFound)
		metrics.RequestsTotal.WithLabelValues(endpointObjects, r.Method, "404").Inc()
		return
	}

	metrics.RequestsTotal.WithLabelValues(endpointObjects, r.Method, "200").Inc()
	h.respondJSON(w, obj, http.StatusOK)
}

// CompositionHandler обрабатывает GET /composition/{key} - дочерние объекты
func (h *Handler) CompositionHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpointComposition, r.Method))
	defer timer.ObserveDuration()

	if h.dict == nil {
		h.dictionaryUnavailable(w, r, endpointComposition)
		return
	}

	children := h.dict.Composition(mux.Vars(r)["key"])

	metrics.RequestsTotal.WithLabelValues(endpointComposition, r.Method, "200").Inc()
	h.respondJSON(w, children, http.StatusOK)
}

func (h *Handler) dictionaryUnavailable(w http.ResponseWriter, r *http.Request, endpoint string) {
	h.respondError(w, "Dictionary not configured", http.StatusNotFound)
	metrics.RequestsTotal.WithLabelValues(endpoint, r.Method, "404").Inc()
}
