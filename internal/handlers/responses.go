package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Brownie44l1/knee-api/internal/model"
)

// Fixed response messages.
const (
	StatusMessage      = "Knee Arthritis AI API is Running. Use /predict to analyze images."
	ModelNotLoadedText = "Model not loaded properly."
)

// StatusResponse is returned by GET /.
type StatusResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	ModelVersion string `json:"model_version,omitempty"`
}

// PredictionResponse wraps a successful prediction.
type PredictionResponse struct {
	Success    bool              `json:"success"`
	Prediction *model.Prediction `json:"prediction"`
}

// FailureResponse reports a per-request processing failure.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// UnavailableResponse is returned for every prediction when the server
// started without weights.
type UnavailableResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
