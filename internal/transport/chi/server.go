package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/taginput/internal/domain"
	"github.com/kailas-cloud/taginput/internal/domain/record"
	logpkg "github.com/kailas-cloud/taginput/internal/logger"
	"github.com/kailas-cloud/taginput/internal/transport/html"
	healthuc "github.com/kailas-cloud/taginput/internal/usecase/health"
	tagfielduc "github.com/kailas-cloud/taginput/internal/usecase/tagfield"
	"github.com/kailas-cloud/taginput/internal/version"
)

// Route prefixes.
const (
	FieldsPath = "/fields"
	AssetsPath = "/assets"
)

// ErrorCode is the machine-readable part of an error response.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeFieldNotFound    ErrorCode = "field_not_found"
	ErrorCodeRecordNotFound   ErrorCode = "record_not_found"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeMisconfigured    ErrorCode = "field_misconfigured"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// RecordValue is a record ID with the field's bound value.
type RecordValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves tag input fields over HTTP.
type Server struct {
	fields        map[string]*tagfielduc.Service
	renderer      *html.Renderer
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP server for the given fields.
func NewServer(
	fields []*tagfielduc.Service,
	renderer *html.Renderer,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		fields:   make(map[string]*tagfielduc.Service, len(fields)),
		renderer: renderer,
		health:   health,
		logger:   logger,
	}
	for _, f := range fields {
		s.fields[f.Field().Name()] = f
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrMisconfigured, http.StatusInternalServerError, ErrorCodeMisconfigured),
		sentinelHandler(domain.ErrUnknownField, http.StatusNotFound, ErrorCodeFieldNotFound),
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, ErrorCodeRecordNotFound),
		sentinelHandler(domain.ErrInvalidRecord, http.StatusBadRequest, ErrorCodeValidationFailed),
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Handle(AssetsPath+"/*", http.StripPrefix(AssetsPath+"/", http.FileServer(http.FS(html.Assets()))))

	r.Route(FieldsPath+"/{field}", func(r chi.Router) {
		r.Get("/suggest", s.Suggest)
		r.Get("/form", s.Form)
		r.Get("/records/{id}", s.GetRecord)
		r.Post("/records", s.SubmitRecord)
		r.Post("/records/{id}", s.SubmitRecord)
	})
}

// Suggest handles GET /fields/{field}/suggest?tag=.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.fieldFromPath(w, r)
	if !ok {
		return
	}

	var query *string
	if err := runtime.BindQueryParameter("form", true, false, "tag", r.URL.Query(), &query); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter tag")
		return
	}
	q := ""
	if query != nil {
		q = *query
	}

	tags, err := svc.Suggest(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, tags)
}

// Form handles GET /fields/{field}/form[?record=].
func (s *Server) Form(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.fieldFromPath(w, r)
	if !ok {
		return
	}

	var recordID *string
	if err := runtime.BindQueryParameter("form", true, false, "record", r.URL.Query(), &recordID); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter record")
		return
	}
	id := ""
	if recordID != nil {
		id = *recordID
	}

	rec, value, err := svc.Load(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	f := svc.Field()
	page := html.NewPage(f.Title())
	input, err := s.renderer.Render(page, f, value)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	form, err := html.Form(recordAction(s.renderer.Link(f), rec), input)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	page.Append(form)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := page.WriteTo(w); err != nil {
		logpkg.FromContext(r.Context(), s.logger).Warn("write page", zap.Error(err))
	}
}

// GetRecord handles GET /fields/{field}/records/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.fieldFromPath(w, r)
	if !ok {
		return
	}
	id, ok := recordIDFromPath(w, r)
	if !ok {
		return
	}

	rec, value, err := svc.Load(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecordValue{ID: rec.ID(), Value: value})
}

// SubmitRecord handles POST /fields/{field}/records[/{id}] with a
// form-encoded body carrying the value under the field's name.
func (s *Server) SubmitRecord(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.fieldFromPath(w, r)
	if !ok {
		return
	}
	id := ""
	if chi.URLParam(r, "id") != "" {
		if id, ok = recordIDFromPath(w, r); !ok {
			return
		}
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid form body")
		return
	}
	name := svc.Field().Name()
	submitted := r.PostForm.Has(name)

	rec, value, err := svc.Submit(r.Context(), id, r.PostForm.Get(name), submitted)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, RecordValue{ID: rec.ID(), Value: value})
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

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) fieldFromPath(w http.ResponseWriter, r *http.Request) (*tagfielduc.Service, bool) {
	var name string
	err := runtime.BindStyledParameterWithLocation("simple", false, "field",
		runtime.ParamLocationPath, chi.URLParam(r, "field"), &name)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter field")
		return nil, false
	}
	svc, ok := s.fields[name]
	if !ok {
		s.handleDomainError(w, r, domain.ErrUnknownField)
		return nil, false
	}
	return svc, true
}

func recordIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithLocation("simple", false, "id",
		runtime.ParamLocationPath, chi.URLParam(r, "id"), &id)
	if err != nil || id == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter id")
		return "", false
	}
	return id, true
}

func recordAction(link string, rec record.Record) string {
	if !rec.Persisted() {
		return link + "/records"
	}
	return link + "/records/" + url.PathEscape(rec.ID())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrMisconfigured,
		domain.ErrUnknownField,
		domain.ErrRecordNotFound,
		domain.ErrInvalidRecord,
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
	logger := logpkg.FromContext(r.Context(), s.logger)
	if errors.Is(err, domain.ErrMisconfigured) {
		logger.Error("field misconfigured", zap.Error(err))
	} else {
		logger.Warn("domain error", zap.Error(err))
	}
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
