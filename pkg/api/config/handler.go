package config

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"property_projection/pkg/core/assumption"
	coreConfig "property_projection/pkg/core/config"
	"property_projection/pkg/core/utils"
)

// Response is the public view of the running configuration.
type Response struct {
	Config  *coreConfig.Config `json:"config"`
	Presets []string           `json:"presets"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Config    *coreConfig.Config
	Scenarios *assumption.ScenarioSet
}

// NewHandler creates a new config handler
func NewHandler(cfg *coreConfig.Config, scenarios *assumption.ScenarioSet) *Handler {
	return &Handler{Config: cfg, Scenarios: scenarios}
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/config", h.HandleConfig)
	mux.HandleFunc("/api/assumptions/presets", h.HandlePresets)
	mux.HandleFunc("/api/assumptions/presets/", h.HandlePreset)
}

// HandleConfig returns the effective configuration without secrets.
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := Response{Config: h.Config}
	for _, sc := range h.Scenarios.List() {
		resp.Presets = append(resp.Presets, sc.Name)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandlePresets lists presets (GET) or adds one (POST).
func (h *Handler) HandlePresets(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, POST, OPTIONS")
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.Scenarios.List())
	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
		if err != nil {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		var sc assumption.Scenario
		if _, err := utils.DecodeLenient(body, &sc); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		sc.ID, sc.Builtin = "", false
		if err := h.Scenarios.Add(sc); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, assumption.ErrPresetExists) {
				status = http.StatusConflict
			}
			http.Error(w, err.Error(), status)
			return
		}
		created, _ := h.Scenarios.Get(sc.Name)
		writeJSON(w, http.StatusCreated, created)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandlePreset reads (GET) or removes (DELETE) one preset by name.
func (h *Handler) HandlePreset(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, DELETE, OPTIONS")
	name := strings.TrimPrefix(r.URL.Path, "/api/assumptions/presets/")
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		sc, err := h.Scenarios.Get(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	case http.MethodDelete:
		err := h.Scenarios.Delete(name)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, assumption.ErrBuiltinPreset):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			http.Error(w, err.Error(), http.StatusNotFound)
		}
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func cors(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
