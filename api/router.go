package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cepro/tariffsensors/sensor"
	"github.com/gorilla/mux"
)

// SnapshotReader provides the latest sensor snapshots, e.g. a sensor.Updater.
type SnapshotReader interface {
	Snapshots() []sensor.Snapshot
	Snapshot(uniqueID string) (sensor.Snapshot, bool)
}

type handler struct {
	snapshots SnapshotReader
	logger    *slog.Logger
}

func NewRouter(snapshots SnapshotReader, metrics *Metrics) *mux.Router {
	h := &handler{
		snapshots: snapshots,
		logger:    slog.Default().With("component", "api"),
	}

	r := mux.NewRouter()

	r.HandleFunc("/health", h.health).Methods("GET")
	r.HandleFunc("/sensors", h.listSensors).Methods("GET")
	r.HandleFunc("/sensors/{id}", h.getSensor).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listSensors(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.snapshots.Snapshots())
}

func (h *handler) getSensor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	snapshot, ok := h.snapshots.Snapshot(id)
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "sensor not found"})
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// Serve runs an HTTP server for the router until the context is cancelled.
func Serve(ctx context.Context, addr string, router http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}
