package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vanshika/chargeback/backend/internal/domain"
	"github.com/vanshika/chargeback/backend/internal/service"
)

// DocumentGenerator produces dispute documents.
type DocumentGenerator interface {
	Generate(ctx context.Context, paymentID string) (service.Outcome, error)
	Classify(reason string) domain.ReasonCategory
	OutputDir() string
}

// BatchRunner processes many payment ids in one run.
type BatchRunner interface {
	Run(ctx context.Context, paymentIDs []string) service.BatchSummary
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger    *slog.Logger
	generator DocumentGenerator
	batch     BatchRunner
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, gen DocumentGenerator, batch BatchRunner) *APIHandlers {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &APIHandlers{
		logger:    logger,
		generator: gen,
		batch:     batch,
	}
}

type generateRequest struct {
	PaymentID string `json:"paymentid"`
}

type generateResponse struct {
	Success     bool                 `json:"success"`
	PaymentID   string               `json:"paymentid,omitempty"`
	FileName    string               `json:"filename,omitempty"`
	DownloadURL string               `json:"download_url,omitempty"`
	Category    string               `json:"category,omitempty"`
	Degraded    []service.SlotReport `json:"degraded,omitempty"`
	Error       string               `json:"error,omitempty"`
}

func (h *APIHandlers) generate(w http.ResponseWriter, r *http.Request) {
	var payload generateRequest
	if err := decodeJSON(r, &payload); err != nil {
		respondJSON(w, http.StatusBadRequest, generateResponse{Error: err.Error()})
		return
	}
	paymentID := strings.TrimSpace(payload.PaymentID)
	if paymentID == "" {
		respondJSON(w, http.StatusBadRequest, generateResponse{Error: "paymentid is required"})
		return
	}

	out, err := h.generator.Generate(r.Context(), paymentID)
	if err != nil {
		h.logger.Error("document generation failed", "error", err, "payment_id", paymentID, "subject", subjectFromContext(r.Context()))
		respondJSON(w, http.StatusInternalServerError, generateResponse{PaymentID: paymentID, Error: err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, generateResponse{
		Success:     true,
		PaymentID:   paymentID,
		FileName:    out.FileName,
		DownloadURL: "/download/" + url.PathEscape(out.FileName),
		Category:    string(out.Category),
		Degraded:    out.Degraded,
	})
}

type batchRequest struct {
	PaymentIDs []string `json:"paymentids"`
}

func (h *APIHandlers) runBatch(w http.ResponseWriter, r *http.Request) {
	if h.batch == nil {
		writeError(w, http.StatusNotImplemented, "batch processing is not configured")
		return
	}
	var payload batchRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ids := make([]string, 0, len(payload.PaymentIDs))
	for _, id := range payload.PaymentIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "paymentids must contain at least one id")
		return
	}

	summary := h.batch.Run(r.Context(), ids)
	respondJSON(w, http.StatusOK, summary)
}

type classifyRequest struct {
	Reason string `json:"reason"`
}

type classifyResponse struct {
	Reason   string `json:"reason"`
	Category string `json:"category"`
	Label    string `json:"label"`
}

func (h *APIHandlers) classify(w http.ResponseWriter, r *http.Request) {
	var payload classifyRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c := h.generator.Classify(payload.Reason)
	respondJSON(w, http.StatusOK, classifyResponse{
		Reason:   payload.Reason,
		Category: string(c),
		Label:    c.Label(),
	})
}

func (h *APIHandlers) download(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || !safeFileName(name) {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	path := filepath.Join(h.generator.OutputDir(), name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		h.logger.Error("failed to open document", "error", err, "file", name)
		writeError(w, http.StatusInternalServerError, "failed to open document")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func safeFileName(name string) bool {
	return name != "" && !strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}
