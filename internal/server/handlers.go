package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/item-dedupe/internal/report"
	"github.com/sells-group/item-dedupe/internal/runs"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type setupRequest struct {
	ClientID       string `json:"clientId"`
	ClientSecret   string `json:"clientSecret"`
	GrantToken     string `json:"grantToken"`
	OrganizationID string `json:"organizationId"`
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClientID == "" || req.ClientSecret == "" || req.GrantToken == "" || req.OrganizationID == "" {
		writeError(w, http.StatusBadRequest, "All fields are required: clientId, clientSecret, grantToken, organizationId")
		return
	}

	if _, err := s.deps.Auth.Setup(r.Context(), req.ClientID, req.ClientSecret, req.GrantToken); err != nil {
		zap.L().Error("server: setup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Setup failed",
			"details": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Zoho authentication setup completed successfully!",
		"note":    fmt.Sprintf("Token file %s has been created. You can now use the duplicate detection API.", s.deps.TokenFile),
	})
}

type detectRequest struct {
	OrganizationID string `json:"organizationId"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	orgID := req.OrganizationID
	if orgID == "" {
		orgID = s.deps.DefaultOrgID
	}
	if orgID == "" {
		writeError(w, http.StatusBadRequest, "Organization ID is required")
		return
	}

	runID := runs.NewID()
	// A client disconnect must not abort the run.
	ctx := context.WithoutCancel(r.Context())

	out, err := s.deps.Runner.Run(ctx, orgID, runID)
	if err != nil {
		msg := "An unknown error occurred"
		if st, ok := s.deps.Registry.Get(runID); ok && st.Error != "" {
			msg = st.Error
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": msg,
			"runId": runID,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Processing completed successfully.",
		"filename": out.Filename,
		"runId":    runID,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	f, err := s.deps.Artifacts.Open(name)
	switch {
	case errors.Is(err, report.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Invalid file name")
		return
	case errors.Is(err, report.ErrNotFound):
		writeError(w, http.StatusNotFound, "File not found")
		return
	case err != nil:
		zap.L().Error("server: open download", zap.String("filename", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Download failed")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", fmt.Sprint(info.Size()))
	}
	w.WriteHeader(http.StatusOK)

	_, copyErr := io.Copy(w, f)
	f.Close() //nolint:errcheck
	if copyErr != nil {
		zap.L().Error("server: download interrupted", zap.String("filename", name), zap.Error(copyErr))
		return
	}

	if err := s.deps.Artifacts.Remove(name); err != nil {
		zap.L().Warn("server: cleanup after download", zap.String("filename", name), zap.Error(err))
	}
	if runID, ok := s.deps.Registry.FindByFilename(name); ok {
		s.deps.Registry.Evict(runID)
	}
}
