package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/umtracker/platform/pkg/common/logger"
	"github.com/umtracker/platform/pkg/common/models"
	"github.com/umtracker/platform/pkg/gateway/respond"
	"github.com/umtracker/platform/pkg/reports"
)

// NotificationReader is satisfied by *reports.Notifications.
type NotificationReader interface {
	ListAll(ctx context.Context) ([]models.ImportReport, error)
	ListUnseen(ctx context.Context) ([]models.ImportReport, error)
	ListRun(ctx context.Context, runID string) ([]models.ImportReport, error)
	Acknowledge(ctx context.Context, id string) error
}

type ReportsHandler struct {
	notifications NotificationReader
}

func NewReportsHandler(notifications NotificationReader) *ReportsHandler {
	return &ReportsHandler{notifications: notifications}
}

// Register mounts the report routes on an authenticated /api/circuits/reports subrouter.
func (h *ReportsHandler) Register(r *mux.Router) {
	r.Handle("/get/unseen", adminOnly(h.handleUnseen)).Methods(http.MethodGet)
	r.Handle("/get/all", adminOnly(h.handleAll)).Methods(http.MethodGet)
	r.Handle("/run/{run_id}", adminOnly(h.handleRun)).Methods(http.MethodGet)
	r.Handle("/acknowledge", adminOnly(h.handleAcknowledge)).Methods(http.MethodPost)
}

func (h *ReportsHandler) handleUnseen(w http.ResponseWriter, r *http.Request) {
	h.list(w, func() ([]models.ImportReport, error) { return h.notifications.ListUnseen(r.Context()) })
}

func (h *ReportsHandler) handleAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, func() ([]models.ImportReport, error) { return h.notifications.ListAll(r.Context()) })
}

func (h *ReportsHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["run_id"]
	h.list(w, func() ([]models.ImportReport, error) { return h.notifications.ListRun(r.Context(), runID) })
}

func (h *ReportsHandler) list(w http.ResponseWriter, fetch func() ([]models.ImportReport, error)) {
	entries, err := fetch()
	if err != nil {
		logger.Log.WithError(err).Error("failed to list import reports")
		respond.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}
	respond.JSON(w, http.StatusOK, entries)
}

func (h *ReportsHandler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	var ack models.ReportAcknowledgement
	if err := json.NewDecoder(r.Body).Decode(&ack); err != nil || ack.ID == "" {
		respond.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.notifications.Acknowledge(r.Context(), ack.ID); err != nil {
		if errors.Is(err, reports.ErrReportNotFound) {
			respond.Error(w, http.StatusNotFound, msgNotFound)
			return
		}
		logger.Log.WithError(err).WithField("report_id", ack.ID).Error("failed to acknowledge report")
		respond.Error(w, http.StatusInternalServerError, msgInternal)
		return
	}
	respond.JSON(w, http.StatusOK, ack)
}
