package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/tcp-trace-analyzer/congestion"
	"github.com/inference-sim/tcp-trace-analyzer/congestion/aggregate"
)

var (
	serveAddr   string
	serveQueues []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load queue policies and serve them read-only over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		registry, _ := mustLoad(serveQueues)

		server := &http.Server{
			Addr:    serveAddr,
			Handler: newRouter(registry),
		}
		go func() {
			logrus.Infof("API server starting on %s", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Fatalf("Could not listen on %s: %v", server.Addr, err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logrus.Info("API server shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logrus.Fatalf("Server forced to shutdown: %v", err)
		}
	},
}

// apiHandler serves Datasets from a registry.
type apiHandler struct {
	registry *congestion.Registry
}

func newRouter(registry *congestion.Registry) *mux.Router {
	h := &apiHandler{registry: registry}
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/datasets", h.listDatasets).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{label}", h.dataset).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{label}/samples", h.samples).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{label}/events", h.events).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{label}/state-changes", h.stateChanges).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{label}/summary", h.summary).Methods(http.MethodGet)
	api.HandleFunc("/datasets/{label}/analysis", h.analysis).Methods(http.MethodGet)
	api.HandleFunc("/compare/{a}/{b}", h.compare).Methods(http.MethodGet)
	return r
}

type datasetInfo struct {
	Label        string `json:"label"`
	LoadID       string `json:"load_id"`
	Samples      int    `json:"samples"`
	Events       int    `json:"events"`
	StateChanges int    `json:"state_changes"`
	Metrics      int    `json:"metrics"`
}

func infoOf(d *congestion.Dataset) datasetInfo {
	return datasetInfo{
		Label:        d.Label(),
		LoadID:       d.LoadID(),
		Samples:      d.NumSamples(),
		Events:       d.NumEvents(),
		StateChanges: len(d.StateChanges()),
		Metrics:      d.Summary().Len(),
	}
}

// analysisResponse carries optional values as pointers; undefined results
// are omitted and explained in the matching *_error field.
type analysisResponse struct {
	Label           string                       `json:"label"`
	EventCounts     map[congestion.EventKind]int `json:"event_counts"`
	Cwnd            *aggregate.CwndStats         `json:"cwnd,omitempty"`
	Stability       *float64                     `json:"stability,omitempty"`
	StabilityError  string                       `json:"stability_error,omitempty"`
	Efficiency      *float64                     `json:"efficiency,omitempty"`
	EfficiencyError string                       `json:"efficiency_error,omitempty"`
}

func (h *apiHandler) lookup(w http.ResponseWriter, r *http.Request, key string) (*congestion.Dataset, bool) {
	label := mux.Vars(r)[key]
	d, ok := h.registry.Get(label)
	if !ok {
		http.Error(w, "no dataset loaded for "+label, http.StatusNotFound)
	}
	return d, ok
}

func (h *apiHandler) listDatasets(w http.ResponseWriter, r *http.Request) {
	out := make([]datasetInfo, 0, h.registry.Len())
	for _, label := range h.registry.Labels() {
		if d, ok := h.registry.Get(label); ok {
			out = append(out, infoOf(d))
		}
	}
	writeJSON(w, out)
}

func (h *apiHandler) dataset(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.lookup(w, r, "label"); ok {
		writeJSON(w, infoOf(d))
	}
}

func (h *apiHandler) samples(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.lookup(w, r, "label"); ok {
		writeJSON(w, nonNil(d.Samples()))
	}
}

func (h *apiHandler) events(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.lookup(w, r, "label"); ok {
		writeJSON(w, nonNil(d.Events()))
	}
}

func (h *apiHandler) stateChanges(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.lookup(w, r, "label"); ok {
		writeJSON(w, nonNil(d.StateChanges()))
	}
}

func (h *apiHandler) summary(w http.ResponseWriter, r *http.Request) {
	if d, ok := h.lookup(w, r, "label"); ok {
		writeJSON(w, d.Summary())
	}
}

func (h *apiHandler) analysis(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r, "label")
	if !ok {
		return
	}
	resp := analysisResponse{Label: d.Label(), EventCounts: aggregate.CountByKind(d)}
	if stats, err := aggregate.CwndStatistics(d); err == nil {
		resp.Cwnd = &stats
	}
	if s, err := aggregate.CwndStability(d); err == nil {
		resp.Stability = &s
	} else {
		resp.StabilityError = err.Error()
	}
	if e, err := aggregate.Efficiency(d); err == nil {
		resp.Efficiency = &e
	} else {
		resp.EfficiencyError = err.Error()
	}
	writeJSON(w, resp)
}

func (h *apiHandler) compare(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookup(w, r, "a")
	if !ok {
		return
	}
	b, ok := h.lookup(w, r, "b")
	if !ok {
		return
	}
	writeJSON(w, aggregate.Compare(a, b))
}

// nonNil keeps empty sequences encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// writeJSON encodes v before writing the status, so an encoding failure is
// reported as a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logrus.Warnf("encoding response: %v", err)
		http.Error(w, "cannot encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(append(body, '\n'))
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringSliceVar(&serveQueues, "queues", []string{"DropTail", "RED"}, "Queue policies to load")

	rootCmd.AddCommand(serveCmd)
}
