package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mechmind/internal/domain"
	"github.com/kailas-cloud/mechmind/internal/logger"
	healthuc "github.com/kailas-cloud/mechmind/internal/usecase/health"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// RootMessage is the body of GET /.
const RootMessage = "Backend running successfully"

// Answerer resolves questions.
type Answerer interface {
	Resolve(ctx context.Context, question string) (domain.Answer, error)
}

// ClauseService reads and creates clauses.
type ClauseService interface {
	List(ctx context.Context) ([]domain.Clause, error)
	Get(ctx context.Context, id string) (domain.Clause, error)
	Create(ctx context.Context, c domain.Clause) (domain.Clause, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the question answering API.
type Server struct {
	answers       Answerer
	clauses       ClauseService
	health        HealthChecker
	validate      *validator.Validate
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(answers Answerer, clauses ClauseService, health HealthChecker) *Server {
	s := &Server{
		answers:  answers,
		clauses:  clauses,
		health:   health,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuestion, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidClause, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrClauseNotFound, http.StatusNotFound, ErrorCodeClauseNotFound),
		sentinelHandler(domain.ErrClauseExists, http.StatusConflict, ErrorCodeClauseExists),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusInternalServerError, ErrorCodeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingFailed, http.StatusBadGateway, ErrorCodeProviderError),
		sentinelHandler(domain.ErrCompletionFailed, http.StatusBadGateway, ErrorCodeProviderError),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Root)
	r.Post("/qa", s.Ask)
	r.Get("/clauses", s.ListClauses)
	r.Post("/clauses", s.CreateClause)
	r.Get("/clauses/{id}", s.GetClause)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: RootMessage})
}

// Ask handles POST /qa.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req QARequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ans, err := s.answers.Resolve(ctx, req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	citations := ans.Citations
	if citations == nil {
		citations = []string{}
	}

	setUsageHeaders(w, usage)
	w.Header().Set("X-Answer-Stage", string(ans.Stage))
	writeJSON(w, http.StatusOK, QAResponse{Answer: ans.Text, Citations: citations})
}

// ListClauses handles GET /clauses.
func (s *Server) ListClauses(w http.ResponseWriter, r *http.Request) {
	clauses, err := s.clauses.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]ClauseResponse, len(clauses))
	for i, c := range clauses {
		items[i] = clauseToResponse(c)
	}
	writeJSON(w, http.StatusOK, items)
}

// GetClause handles GET /clauses/{id}.
func (s *Server) GetClause(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := s.clauses.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clauseToResponse(c))
}

// CreateClause handles POST /clauses.
func (s *Server) CreateClause(w http.ResponseWriter, r *http.Request) {
	var req ClauseRequest
	if !s.decode(w, r, &req) {
		return
	}

	c, err := s.clauses.Create(r.Context(), domain.Clause{
		ID:          req.ID,
		Heading:     req.Heading,
		Summary:     req.Summary,
		EditionYear: req.EditionYear,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/clauses/"+c.ID)
	writeJSON(w, http.StatusCreated, clauseToResponse(c))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// decode reads a JSON body into dst and validates it. Writes a 400 and
// returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

// validationMessage renders validator errors as "field: rule" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			parts[i] = fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param())
		} else {
			parts[i] = fmt.Sprintf("%s: %s", fe.Field(), fe.Tag())
		}
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

func clauseToResponse(c domain.Clause) ClauseResponse {
	return ClauseResponse{
		ID:          c.ID,
		Heading:     c.Heading,
		Summary:     c.Summary,
		EditionYear: c.EditionYear,
	}
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if usage == nil {
		return
	}
	if usage.EmbeddingTokens > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
	if usage.CompletionTokens > 0 {
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(usage.CompletionTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuestion,
		domain.ErrInvalidClause,
		domain.ErrClauseNotFound,
		domain.ErrClauseExists,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingFailed,
		domain.ErrCompletionFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
