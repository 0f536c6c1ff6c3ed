package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"github.com/umtracker/platform/pkg/circuits"
	"github.com/umtracker/platform/pkg/common/logger"
	"github.com/umtracker/platform/pkg/common/models"
	"github.com/umtracker/platform/pkg/csvcodec"
	"github.com/umtracker/platform/pkg/gateway/respond"
	"github.com/umtracker/platform/pkg/importer"
)

const (
	msgInvalidBody      = "Invalid request body"
	msgNotFound         = "Resource not found"
	msgInternal         = "Internal Server Error"
	msgNoDataField      = "No data field"
	msgMalformedRequest = "Malformed request"
	msgImportStarted    = "Successfully started report"
)

type ImportStarter interface {
	StartImport(ctx context.Context, upload importer.Upload) (importer.Acceptance, error)
}

type CircuitsHandler struct {
	store   circuits.Store
	imports ImportStarter
}

func NewCircuitsHandler(store circuits.Store, imports ImportStarter) *CircuitsHandler {
	return &CircuitsHandler{store: store, imports: imports}
}

// Register mounts the circuit routes on an authenticated /api/circuits subrouter.
func (h *CircuitsHandler) Register(r *mux.Router) {
	r.Handle("/create", adminOnly(h.handleCreate)).Methods(http.MethodPost)
	r.Handle("/update", adminOnly(h.handleUpdate)).Methods(http.MethodPut)
	r.Handle("/import", adminOnly(h.handleImport)).Methods(http.MethodPost)
	r.Handle("/export", anyRole(h.handleExport)).Methods(http.MethodGet)
	r.Handle("/all", anyRole(h.handleList)).Methods(http.MethodGet)
}

// RegisterLookup must be called after every other /api/circuits route so the
// id pattern does not shadow them.
func (h *CircuitsHandler) RegisterLookup(r *mux.Router) {
	r.Handle("/{circuit_id}", anyRole(h.handleGet)).Methods(http.MethodGet)
}

func (h *CircuitsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input models.CircuitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respond.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	circuit := input.ToCircuit(circuits.NewID())
	if err := h.store.Create(r.Context(), circuit); err != nil {
		if errors.Is(err, circuits.ErrDuplicateCircuit) {
			respond.Error(w, http.StatusConflict, err.Error())
			return
		}
		logger.Log.WithError(err).Error("failed to create circuit")
		respond.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}
	respond.JSON(w, http.StatusCreated, circuit)
}

func (h *CircuitsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var circuit models.Circuit
	if err := json.NewDecoder(r.Body).Decode(&circuit); err != nil || circuit.ID == "" {
		respond.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.store.Update(r.Context(), circuit); err != nil {
		if errors.Is(err, circuits.ErrCircuitNotFound) {
			respond.Error(w, http.StatusNotFound, msgNotFound)
			return
		}
		logger.Log.WithError(err).WithField("circuit_id", circuit.ID).Error("failed to update circuit")
		respond.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}
	respond.JSON(w, http.StatusOK, circuit)
}

func (h *CircuitsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.GetAll(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to list circuits")
		respond.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if all == nil {
		all = []models.Circuit{}
	}
	respond.JSON(w, http.StatusOK, all)
}

func (h *CircuitsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["circuit_id"]
	if _, err := ulid.ParseStrict(id); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid circuit id")
		return
	}

	circuit, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, circuits.ErrCircuitNotFound) {
			respond.Error(w, http.StatusNotFound, msgNotFound)
			return
		}
		logger.Log.WithError(err).WithField("circuit_id", id).Error("failed to load circuit")
		respond.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}
	respond.JSON(w, http.StatusOK, circuit)
}

func (h *CircuitsHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.GetAll(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to load circuits for export")
		respond.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}

	var buf bytes.Buffer
	if err := csvcodec.Encode(&buf, all); err != nil {
		logger.Log.WithError(err).Error("failed to encode circuits export")
		respond.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="circuits.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleImport reads the first multipart part and hands it to the importer.
// The response only confirms the begin entry; rows are applied afterwards.
func (h *CircuitsHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	reader, err := r.MultipartReader()
	if err != nil {
		respond.Error(w, http.StatusBadRequest, msgMalformedRequest)
		return
	}
	part, err := reader.NextPart()
	if err != nil {
		respond.Error(w, http.StatusBadRequest, msgMalformedRequest)
		return
	}
	defer part.Close()

	contentType := part.Header.Get("Content-Type")
	var fileName *string
	if name := part.FileName(); name != "" {
		fileName = &name
	}

	content, err := io.ReadAll(part)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !utf8.Valid(content) {
		respond.Error(w, http.StatusBadRequest, "Upload is not valid UTF-8 text")
		return
	}

	acc, err := h.imports.StartImport(r.Context(), importer.Upload{
		Content:     content,
		FileName:    fileName,
		ContentType: contentType,
	})
	if err != nil {
		if importer.IsValidationError(err) {
			respond.Error(w, http.StatusBadRequest, msgNoDataField)
			return
		}
		respond.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}

	respond.JSON(w, http.StatusOK, models.ImportAccepted{
		Message:  msgImportStarted,
		ReportID: acc.ReportID,
		FileName: acc.FileName,
	})
}
