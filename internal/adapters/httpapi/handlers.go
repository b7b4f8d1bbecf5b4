package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"domowner/internal/core/domain"
	"domowner/internal/core/usecases"
	perrors "domowner/internal/platform/errors"
	"domowner/internal/platform/validator"
)

// whoisRequest es el body de POST /v1/whois.
type whoisRequest struct {
	Domains []string `json:"domains" validate:"required,min=1,max=50,dive,domain"`
}

type cveRequest struct {
	ID string `json:"id" validate:"required,cveid"`
}

type errorResponse struct {
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

// handleOwnership: 200 con el reporte, 400 record inválido, 502 si falla
// la inferencia (el reporte parcial va en el body).
func (s *Server) handleOwnership(w http.ResponseWriter, r *http.Request) {
	record, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}

	report, err := s.pipeline.Run(r.Context(), record)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report)
	case domain.IsRecordError(err):
		s.writeError(w, r, http.StatusBadRequest, err)
	case report != nil:
		s.logger.Warn("inference failed",
			"request_id", RequestIDFrom(r.Context()),
			"run_id", report.RunID,
			"error", err,
		)
		writeJSON(w, http.StatusBadGateway, report)
	default:
		s.writeError(w, r, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleDomains(w http.ResponseWriter, r *http.Request) {
	record, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, usecases.Extract(record, s.excluder))
}

func (s *Server) handleWhois(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		s.writeError(w, r, http.StatusNotImplemented, errors.New("whois lookups are disabled"))
		return
	}

	var req whoisRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, perrors.Wrap(perrors.ErrInvalidInput, err.Error()))
		return
	}
	if err := validator.Struct(req); err != nil {
		s.writeValidation(w, r, err)
		return
	}

	domains := make([]domain.CanonicalDomain, 0, len(req.Domains))
	seen := make(map[domain.CanonicalDomain]struct{}, len(req.Domains))
	for _, raw := range req.Domains {
		d := domain.CanonicalDomain(validator.NormalizeDomain(raw))
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		domains = append(domains, d)
	}
	writeJSON(w, http.StatusOK, s.resolver.Resolve(r.Context(), domains))
}

func (s *Server) handleCVE(w http.ResponseWriter, r *http.Request) {
	if s.cve == nil {
		s.writeError(w, r, http.StatusNotImplemented, errors.New("cve lookups are disabled"))
		return
	}

	req := cveRequest{ID: strings.ToUpper(chi.URLParam(r, "id"))}
	if err := validator.Struct(req); err != nil {
		s.writeValidation(w, r, err)
		return
	}

	body, err := s.cve.Lookup(r.Context(), req.ID)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// decodeRecord lee el body como un objeto JSON ordenado.
func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (domain.Record, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, err)
			return domain.Record{}, false
		}
		s.writeError(w, r, http.StatusBadRequest, err)
		return domain.Record{}, false
	}

	record, err := domain.ParseRecordJSON(data)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return domain.Record{}, false
	}
	if record.Len() == 0 {
		s.writeError(w, r, http.StatusBadRequest, domain.ErrEmptyRecord)
		return domain.Record{}, false
	}
	return record, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCVE), perrors.IsInvalidInput(err):
		return http.StatusBadRequest
	case perrors.IsNotFound(err):
		return http.StatusNotFound
	case perrors.IsRateLimit(err):
		return http.StatusTooManyRequests
	case perrors.IsTimeout(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeValidation(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{
		Error:     "validation failed",
		Details:   validator.Messages(err),
		RequestID: RequestIDFrom(r.Context()),
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Err(err, "request_id", RequestIDFrom(r.Context()), "status", status)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: RequestIDFrom(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
