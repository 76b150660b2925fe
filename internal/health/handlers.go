package health

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Handler exposes the state toggle endpoints and the aggregate probe.
type Handler struct {
	state  *State
	db     *sql.DB
	logger *logrus.Logger
}

func NewHandler(state *State, db *sql.DB, logger *logrus.Logger) *Handler {
	return &Handler{state: state, db: db, logger: logger}
}

// ToggleLiveness unconditionally flips the liveness flag and reports the
// new state.
func (h *Handler) ToggleLiveness(w http.ResponseWriter, r *http.Request) {
	ok := h.state.Liveness().Toggle()

	h.logger.WithField("liveness", h.state.LivenessValue()).Info("Liveness state changed")

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"liveness": h.state.LivenessValue(),
		"state":    describe(ok),
	})
}

// ToggleReadiness unconditionally flips the readiness flag and reports the
// new state.
func (h *Handler) ToggleReadiness(w http.ResponseWriter, r *http.Request) {
	ok := h.state.Readiness().Toggle()

	h.logger.WithField("readiness", h.state.ReadinessValue()).Info("Readiness state changed")

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"readiness": h.state.ReadinessValue(),
		"state":     describe(ok),
	})
}

// Probe reports overall service health: both flags must be healthy and the
// database reachable.
func (h *Handler) Probe(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	dbStatus := "up"

	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "down"
		}
	}

	if !h.state.Liveness().OK() || !h.state.Readiness().OK() {
		status = http.StatusServiceUnavailable
	}

	body := map[string]string{
		"status":    "healthy",
		"service":   "order-service",
		"liveness":  h.state.LivenessValue(),
		"readiness": h.state.ReadinessValue(),
		"database":  dbStatus,
	}
	if status != http.StatusOK {
		body["status"] = "unhealthy"
	}

	h.respondWithJSON(w, status, body)
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
