package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Brownie44l1/knee-api/internal/docs"
	"github.com/Brownie44l1/knee-api/internal/logger"
	"github.com/Brownie44l1/knee-api/internal/model"
)

// FileField is the multipart field carrying the uploaded image.
const FileField = "file"

// Handler serves the prediction API. A nil classifier means the weights
// could not be found at startup.
type Handler struct {
	classifier *model.Classifier
	maxUpload  int64
	log        logger.Logger
	docsPage   []byte
}

func NewHandler(classifier *model.Classifier, maxUpload int64, log logger.Logger) *Handler {
	return &Handler{
		classifier: classifier,
		maxUpload:  maxUpload,
		log:        log,
		docsPage:   docs.Page("Knee Arthritis AI API"),
	}
}

// ModelLoaded reports whether predictions can be served.
func (h *Handler) ModelLoaded() bool {
	return h.classifier != nil
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Message: StatusMessage})
}

// Health always answers 200 so probes do not restart a server that is
// running without weights; the status field tells them apart.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rec := HealthResponse{Status: "healthy", ModelLoaded: h.ModelLoaded()}
	if !rec.ModelLoaded {
		rec.Status = "degraded"
	} else if meta := h.classifier.Metadata(); meta != nil {
		rec.ModelVersion = meta.Version
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) Docs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(h.docsPage)
}

// Predict classifies the image uploaded as multipart field "file".
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, FailureResponse{
				Error: fmt.Sprintf("upload exceeds %d bytes", h.maxUpload),
			})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, FailureResponse{
			Error: fmt.Sprintf("expected multipart form with field %q: %v", FileField, err),
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(FileField)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, FailureResponse{
			Error: fmt.Sprintf("no file provided, use %q as the form field name", FileField),
		})
		return
	}
	defer file.Close()

	if h.classifier == nil {
		writeJSON(w, http.StatusOK, UnavailableResponse{Error: ModelNotLoadedText})
		return
	}

	h.log.Debug("received file ", header.Filename, ", size: ", header.Size, " bytes")

	prediction, err := h.classify(r, file)
	if err != nil {
		h.log.Warn("prediction failed for ", header.Filename, ": ", err)
		writeJSON(w, http.StatusOK, FailureResponse{Error: err.Error()})
		return
	}

	h.log.Info("predicted ", prediction.Label, " (", prediction.ConfidenceScore, ") for ", header.Filename)
	writeJSON(w, http.StatusOK, PredictionResponse{Success: true, Prediction: prediction})
}

// classify turns a panic anywhere in decode, transform or inference into an
// ordinary error so one bad upload cannot take the server down.
func (h *Handler) classify(r *http.Request, file io.Reader) (prediction *model.Prediction, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			prediction = nil
			err = fmt.Errorf("internal error while processing image: %v", rec)
		}
	}()
	return h.classifier.ClassifyReader(r.Context(), file)
}
