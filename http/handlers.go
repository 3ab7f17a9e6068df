package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"housecast/db"
	"housecast/ml"
	"housecast/monitoring"
	"housecast/serving"
)

// API holds the dependencies of the request handlers. The serving context
// is injected once at startup and never swapped.
type API struct {
	ctx    *serving.Context
	hub    *monitoring.Hub
	logger *zap.Logger
}

// NewAPI creates the handler set.
func NewAPI(ctx *serving.Context, hub *monitoring.Hub, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{ctx: ctx, hub: hub, logger: logger}
}

// Register attaches all routes.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/ready", a.handleReady)
	mux.HandleFunc("POST /api/predict", a.handlePredict)
	mux.HandleFunc("GET /api/predictions/recent", a.handleRecentPredictions)
	mux.Handle("GET /metrics", monitoring.MetricsHandler())
	if a.hub != nil {
		mux.HandleFunc("GET /api/ws/predictions", a.hub.HandleWS)
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	state := a.ctx.State()
	status := http.StatusOK
	if state != serving.Ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, map[string]string{"state": state.String()})
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := GetRequestID(r.Context())

	var record ml.CharacterRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		monitoring.PredictionFailures.WithLabelValues("validation").Inc()
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := record.Validate(); err != nil {
		monitoring.PredictionFailures.WithLabelValues("validation").Inc()
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	prediction, err := a.ctx.Predict(&record)
	if err != nil {
		if errors.Is(err, serving.ErrNotReady) {
			monitoring.PredictionFailures.WithLabelValues("not_ready").Inc()
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "service not ready"})
			return
		}
		monitoring.PredictionFailures.WithLabelValues("model").Inc()
		a.logger.Error("prediction failed", zap.String("request_id", requestID), zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	duration := time.Since(start)
	for _, u := range prediction.Unknown {
		monitoring.UnknownCategories.WithLabelValues(u.Field).Inc()
		a.logger.Warn("unknown category zero-filled",
			zap.String("request_id", requestID),
			zap.String("field", u.Field),
			zap.String("value", u.Value))
	}
	monitoring.PredictionsTotal.WithLabelValues(prediction.House).Inc()
	if prediction.Cached {
		monitoring.CacheHits.Inc()
	}
	monitoring.RequestDuration.Observe(duration.Seconds())

	if err := db.SavePrediction(db.PredictionRow{
		RequestID:  requestID,
		House:      prediction.House,
		CacheHit:   prediction.Cached,
		DurationMs: float64(duration.Microseconds()) / 1000,
	}); err != nil {
		a.logger.Warn("audit log write failed", zap.String("request_id", requestID), zap.Error(err))
	}
	if a.hub != nil {
		a.hub.Broadcast(monitoring.PredictionEvent{
			RequestID:  requestID,
			House:      prediction.House,
			Cached:     prediction.Cached,
			DurationMs: float64(duration.Microseconds()) / 1000,
		})
	}

	respondJSON(w, http.StatusOK, map[string]string{"house_affiliation": prediction.House})
}

func (a *API) handleRecentPredictions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	rows, err := db.QueryRecentPredictions(limit)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to query predictions"})
		return
	}
	if rows == nil {
		rows = []db.PredictionRow{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"data": rows})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
