package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/collegemail/idverify/internal/decision"
	"github.com/collegemail/idverify/internal/document"
	"github.com/collegemail/idverify/internal/pipeline"
	"github.com/collegemail/idverify/internal/store"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// verifyHandler accepts a multipart ID card upload plus the requester's
// declared profile, gates the media type, and submits the request to the
// queue. The response returns before processing completes.
func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form", "bad_request")
		return
	}

	declaredName := strings.TrimSpace(r.FormValue("name"))
	declaredEmail := strings.TrimSpace(r.FormValue("email"))
	if declaredName == "" || declaredEmail == "" {
		writeError(w, http.StatusBadRequest, "name and email are required", "bad_request")
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, http.StatusBadRequest, "document file is required", "bad_request")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read document", "bad_request")
		return
	}

	mediaType := resolveMediaType(header.Header.Get("Content-Type"), header.Filename)
	doc := document.Document{Data: data, MediaType: mediaType, Filename: header.Filename}
	if err := document.Validate(doc); err != nil {
		if errors.Is(err, document.ErrUnsupportedMedia) {
			verifyRequestsTotal.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusUnsupportedMediaType, err.Error(), "unsupported_media_type")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error(), "bad_request")
		return
	}

	requestID := strings.TrimSpace(r.FormValue("request_id"))
	if requestID == "" {
		requestID = uuid.NewString()
	}

	req := pipeline.Request{
		ID:       requestID,
		Document: doc,
		Profile:  decision.Profile{DeclaredName: declaredName, DeclaredEmail: declaredEmail},
	}
	if _, err := s.queue.Submit(req); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error(), "queue_unavailable")
		return
	}

	slog.Info("Verification accepted", "request_id", requestID, "filename", header.Filename)
	writeJSON(w, http.StatusAccepted, VerifyResponse{RequestID: requestID, Status: "processing"})
}

// outcomeHandler returns the stored outcome for a request, 404 while
// processing is incomplete.
func (s *Server) outcomeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	requestID := strings.TrimPrefix(r.URL.Path, "/outcome/")
	if requestID == "" {
		writeError(w, http.StatusBadRequest, "request id is required", "bad_request")
		return
	}

	rec, err := s.pipeline.Outcomes().Get(r.Context(), requestID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no outcome for request", "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "outcome lookup failed", "internal")
		return
	}

	verifyConfidence.Observe(rec.Outcome.ConfidenceScore)
	writeJSON(w, http.StatusOK, OutcomeResponse{
		RequestID:       rec.RequestID,
		Category:        string(rec.Outcome.Category),
		ConfidenceScore: rec.Outcome.ConfidenceScore,
		NameMatchScore:  rec.Outcome.NameMatchScore,
		RollMatchScore:  rec.Outcome.RollMatchScore,
		Extraction:      rec.Extraction,
	})
}

// emailHandler issues the institutional address for an approved request.
// The account system resubmits the declared name; the roll comes from the
// stored extraction. Repeat calls for the same request return the address
// already issued.
func (s *Server) emailHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	requestID := strings.TrimSpace(r.FormValue("request_id"))
	declaredName := strings.TrimSpace(r.FormValue("name"))
	if requestID == "" || declaredName == "" {
		writeError(w, http.StatusBadRequest, "request_id and name are required", "bad_request")
		return
	}

	rec, err := s.pipeline.Outcomes().Get(r.Context(), requestID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no outcome for request", "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "outcome lookup failed", "internal")
		return
	}
	if rec.Outcome.Category != decision.LikelyApprove {
		writeError(w, http.StatusConflict, "request is not approved", "not_approved")
		return
	}

	addr, issued, err := s.issueAddress(requestID, declaredName, rec.Extraction.Roll)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error(), "issuance_failed")
		return
	}
	status := http.StatusOK
	if issued {
		status = http.StatusCreated
		emailsIssuedTotal.Inc()
		slog.Info("Institutional address issued", "request_id", requestID, "address", addr)
	}
	writeJSON(w, status, EmailResponse{RequestID: requestID, Address: addr})
}

// resolveMediaType prefers the declared content type, falling back to the
// filename extension.
func resolveMediaType(contentType, filename string) document.MediaType {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch ct {
	case string(document.MediaJPEG), "image/jpg":
		return document.MediaJPEG
	case string(document.MediaPNG):
		return document.MediaPNG
	case string(document.MediaPDF):
		return document.MediaPDF
	}
	if mt, ok := document.TypeForFilename(filename); ok {
		return mt
	}
	return document.MediaType(ct)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}
