package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	docpress "github.com/alnah/go-docpress"
	"github.com/alnah/go-docpress/internal/logfields"
)

// documentResponse is the compile response. PDFs are base64 encoded by
// encoding/json; language artifacts are omitted in single mode.
type documentResponse struct {
	Combined []byte           `json:"combined"`
	English  []byte           `json:"english,omitempty"`
	Japanese []byte           `json:"japanese,omitempty"`
	PageInfo pageInfoResponse `json:"pageInfo"`
}

type pageInfoResponse struct {
	CoverPages    *int `json:"coverPages,omitempty"`
	EnglishPages  *int `json:"englishPages,omitempty"`
	JapanesePages *int `json:"japanesePages,omitempty"`
	TotalPages    int  `json:"totalPages"`
}

type errorResponse struct {
	Error       string `json:"error"`
	Diagnostics string `json:"diagnostics,omitempty"`
	RequestID   string `json:"requestId,omitempty"`
}

type healthResponse struct {
	Status    string            `json:"status"`
	Converter docpress.ToolInfo `json:"converter"`
	Compiler  docpress.ToolInfo `json:"compiler"`
}

func newDocumentResponse(res *docpress.Result) documentResponse {
	resp := documentResponse{
		Combined: res.Combined.PDF,
		PageInfo: pageInfoResponse{TotalPages: res.PageInfo.TotalPages},
	}
	if res.Mode == docpress.ModeBilingual {
		info := res.PageInfo
		resp.English = res.English.PDF
		resp.Japanese = res.Japanese.PDF
		resp.PageInfo.CoverPages = &info.CoverPages
		resp.PageInfo.EnglishPages = &info.EnglishPages
		resp.PageInfo.JapanesePages = &info.JapanesePages
	}
	return resp
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req docpress.DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, decodeError(err))
		return
	}

	res, err := s.compiler.Compile(r.Context(), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, newDocumentResponse(res))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := s.health.Health(r.Context())
	resp := healthResponse{Status: "ok", Converter: h.Converter, Compiler: h.Compiler}
	status := http.StatusOK
	if !h.OK() {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, r, status, resp)
}

// decodeError turns a body decoding failure into a validation error.
func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: request body exceeds %d bytes", docpress.ErrValidation, tooLarge.Limit)
	}
	return fmt.Errorf("%w: malformed JSON: %v", docpress.ErrValidation, err)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, docpress.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, docpress.ErrBusy),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded) && !docpress.IsToolError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), RequestID: RequestIDFrom(r.Context())}

	var te *docpress.ToolError
	if errors.As(err, &te) {
		resp.Error = fmt.Sprintf("%s: %v", te.Tool, te.Kind)
		resp.Diagnostics = te.Diagnostics
	}
	if status == http.StatusInternalServerError && te == nil {
		// Local failures may carry filesystem paths.
		resp.Error = http.StatusText(status)
	}

	logger := docpress.LoggerFrom(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", logfields.Status(status), logfields.Error(err))
	} else {
		logger.Info("Request rejected", logfields.Status(status), logfields.Error(err))
	}
	s.writeJSON(w, r, status, resp)
}

// writeJSON encodes v into a buffer first so a failed encode never sends a
// partial body.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		docpress.LoggerFrom(r.Context(), s.logger).Error("Encoding response failed", logfields.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		docpress.LoggerFrom(r.Context(), s.logger).Warn("Writing response failed", logfields.Error(err))
	}
}
