package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/X-Plane/dashboard/internal/auth"
	apierrors "github.com/X-Plane/dashboard/internal/errors"
	"github.com/X-Plane/dashboard/internal/reports"
)

// ReportGenerator renders reports; *reports.Generator satisfies it.
type ReportGenerator interface {
	Generate(ctx context.Context, kind reports.Kind, absolute bool) (reports.Report, error)
}

// ReportUploader stores rendered reports; *reports.S3Delivery satisfies it.
type ReportUploader interface {
	Upload(ctx context.Context, kind reports.Kind, name, contentType string, data []byte) (reports.Export, error)
}

// ReportsHandler streams and exports reports.
type ReportsHandler struct {
	responder
	generator ReportGenerator
	uploader  ReportUploader
}

// NewReportsHandler creates a reports handler. A nil uploader disables exports.
func NewReportsHandler(generator ReportGenerator, uploader ReportUploader, logger *zap.Logger) *ReportsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportsHandler{responder: responder{logger: logger}, generator: generator, uploader: uploader}
}

// ExportRequest is the optional body of an export request.
type ExportRequest struct {
	Absolute bool `json:"absolute"`
}

// ExportResponse describes an uploaded report.
type ExportResponse struct {
	Kind        reports.Kind `json:"kind"`
	Name        string       `json:"name"`
	Key         string       `json:"key"`
	URL         string       `json:"url"`
	Checksum    string       `json:"checksum"`
	Size        int64        `json:"size"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	RequestedBy string       `json:"requestedBy,omitempty"`
}

func absoluteParam(r *http.Request) (bool, error) {
	raw := r.URL.Query().Get("absolute")
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// Download handles GET /api/v1/reports/{kind}
func (h *ReportsHandler) Download(w http.ResponseWriter, r *http.Request) {
	kind, err := reports.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.respondError(w, r, apierrors.CodeBadRequest, "unknown report kind", err)
		return
	}
	absolute, err := absoluteParam(r)
	if err != nil {
		h.respondError(w, r, apierrors.CodeBadRequest, "absolute must be a boolean", err)
		return
	}

	report, err := h.generator.Generate(r.Context(), kind, absolute)
	if err != nil {
		h.respondError(w, r, apierrors.CodeUnavailable, "failed to generate report", err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report.Data); err != nil {
		h.logger.Warn("failed to stream report", zap.String("kind", string(kind)), zap.Error(err))
	}
}

// Export handles POST /api/v1/reports/{kind}/exports
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind, err := reports.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.respondError(w, r, apierrors.CodeBadRequest, "unknown report kind", err)
		return
	}
	if h.uploader == nil {
		h.respondError(w, r, apierrors.CodeUnavailable, "report exports are not configured", nil)
		return
	}

	var req ExportRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.respondError(w, r, apierrors.CodeBadRequest, "invalid request body", err)
			return
		}
	}
	if abs, err := absoluteParam(r); err == nil && abs {
		req.Absolute = true
	}

	report, err := h.generator.Generate(r.Context(), kind, req.Absolute)
	if err != nil {
		h.respondError(w, r, apierrors.CodeUnavailable, "failed to generate report", err)
		return
	}

	export, err := h.uploader.Upload(r.Context(), kind, report.Name, report.ContentType, report.Data)
	if err != nil {
		h.respondError(w, r, apierrors.CodeUnavailable, "failed to upload report", err)
		return
	}

	resp := ExportResponse{
		Kind:      kind,
		Name:      report.Name,
		Key:       export.Key,
		URL:       export.URL,
		Checksum:  export.Checksum,
		Size:      export.Size,
		ExpiresAt: export.ExpiresAt,
	}
	if actor, ok := auth.ActorFromContext(r.Context()); ok {
		resp.RequestedBy = actor.Subject
	}
	h.logger.Info("report exported",
		zap.String("kind", string(kind)),
		zap.String("key", export.Key),
		zap.String("requested_by", resp.RequestedBy),
	)
	h.respondJSON(w, http.StatusCreated, resp)
}
