package http

import (
	"context"
	"net/http"

	applog "tally/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			ServiceUnavailableError("not ready").Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.svc.Summarize(r.Context(), userID(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(summary).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := ParseFilter(query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts, err := ParseExportOptions(query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.svc.Export(r.Context(), userID(r), filter, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Body(res.MimeType, []byte(res.Body)).
		Attachment(res.FileName).
		Write(w)
}
