// Package handler — export.go implements the export endpoints.
// POST /v1/exports streams a CSV attachment (or returns a count for
// countOnly requests); POST /v1/exports/count always returns a count.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/thegoodparty/gp-api-sub001/internal/domain"
)

// countResponse is the JSON body for count-mode responses.
type countResponse struct {
	Count int64 `json:"count"`
}

// handleExport implements POST /v1/exports.
//
// Headers are written before the first CSV byte, so a failure during the
// probe phase still produces a clean JSON error; a failure mid-stream can
// only truncate the attachment (CSV export is not transactional for the
// caller).
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	if req.CountOnly {
		count, err := s.exports.Count(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, countResponse{Count: count})
		return
	}

	exportID := uuid.NewString()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+attachmentName(req)+`"`)
	w.Header().Set("X-Export-Id", exportID)

	stats, err := s.exports.Export(r.Context(), req, w)
	if err != nil {
		if stats.Bytes == 0 {
			// Nothing streamed yet; the CSV headers above are still
			// uncommitted and the JSON error replaces them.
			w.Header().Del("Content-Disposition")
			writeError(w, err)
			return
		}
		// Mid-stream failure: the response is already committed, so all we
		// can do is stop. The service has logged and counted the error.
		s.log.WarnContext(r.Context(), "export truncated mid-stream",
			"export_id", exportID, "bytes_written", stats.Bytes)
		return
	}

	s.log.InfoContext(r.Context(), "export complete",
		"export_id", exportID,
		"purpose", req.Purpose,
		"state", req.Scope.State,
		"rows", stats.Rows,
		"bytes", stats.Bytes,
		"fallback", stats.Fallback,
	)
}

// handleCount implements POST /v1/exports/count. It forces count mode no
// matter what the body says.
func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	count, err := s.exports.Count(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: count})
}

// decodeRequest parses and shape-checks the JSON body. Token-level semantics
// (unknown purposes, unknown audience tokens) are the compiler's business;
// only structural problems are rejected here.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (domain.ExportRequest, bool) {
	var req domain.ExportRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		requestError(w, "malformed request body: "+err.Error())
		return domain.ExportRequest{}, false
	}

	if err := s.validate.Struct(req); err != nil {
		writeError(w, fmt.Errorf("%w: %s", domain.ErrValidation, err))
		return domain.ExportRequest{}, false
	}
	return req, true
}

// attachmentName picks the suggested CSV file name: the caller's, sanitized,
// or one derived from state and purpose.
func attachmentName(req domain.ExportRequest) string {
	name := strings.TrimSpace(req.FileName)
	if name == "" {
		name = fmt.Sprintf("%s-%s-voters", strings.ToLower(req.Scope.State), req.Purpose)
	}
	// Strip anything that could escape the quoted disposition value or
	// smuggle a path.
	name = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '/', '\n', '\r':
			return '-'
		}
		return r
	}, name)
	if !strings.HasSuffix(name, ".csv") {
		name += ".csv"
	}
	return name
}
