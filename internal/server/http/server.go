// Package httpserver exposes the sample dispatch REST API.
package httpserver

import (
	"net"
	"net/http"
	"time"

	"github.com/and161185/sample-dispatch/internal/convert"
	"github.com/and161185/sample-dispatch/internal/model"
	"github.com/and161185/sample-dispatch/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BasePath prefixes every API route except /health.
const BasePath = "/api/v1"

// Server wires services into HTTP handlers.
type Server struct {
	auth    service.AuthService
	samples service.SampleService
	log     *zap.Logger
	now     func() time.Time
}

// New constructs a server with injected services. A nil logger is replaced by a no-op one.
func New(auth service.AuthService, samples service.SampleService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, samples: samples, log: log, now: time.Now}
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, Recover(s.log), Logging(s.log), CORS)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.health)
	r.Route(BasePath, func(r chi.Router) {
		r.Post("/auth/register", s.register)
		r.Post("/auth/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/samples/{agentID}", s.listToday)
			r.Post("/samples", s.createSample)
			r.Patch("/samples/{sampleID}/collect", s.collect)
			r.Post("/samples/{sampleID}/report-delay", s.reportDelay)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, convert.HealthResponse{
		Message:   "Sample dispatch API is running",
		Timestamp: s.now().UTC(),
	})
}

// --- Auth ---

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req convert.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := s.auth.Register(r.Context(), req.Name, req.Phone, req.Password)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, convert.RegisterResponse{
		Message: "Agent registered successfully",
		Agent:   convert.ToAgent(a),
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req convert.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	tok, a, err := s.auth.Login(r.Context(), req.Phone, req.Password, remoteIP(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.LoginResponse{
		Message:   "Login successful",
		Token:     tok.AccessToken,
		ExpiresAt: tok.ExpiresAt.UTC(),
		Agent:     convert.ToAgent(a),
	})
}

// --- Samples ---

func (s *Server) listToday(w http.ResponseWriter, r *http.Request) {
	actor, _ := AgentIDFromCtx(r.Context())
	list, err := s.samples.ListToday(r.Context(), actor, chi.URLParam(r, "agentID"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.SamplesResponse{
		Message: "Samples retrieved successfully",
		Samples: convert.ToSamples(list),
	})
}

func (s *Server) createSample(w http.ResponseWriter, r *http.Request) {
	var req convert.CreateSampleRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := convert.FromCreateSampleRequest(req)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	smp, err := s.samples.Create(r.Context(), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeSample(w, http.StatusCreated, "Sample created successfully", smp)
}

func (s *Server) collect(w http.ResponseWriter, r *http.Request) {
	actor, _ := AgentIDFromCtx(r.Context())
	smp, err := s.samples.MarkCollected(r.Context(), actor, chi.URLParam(r, "sampleID"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeSample(w, http.StatusOK, "Sample marked as collected", smp)
}

func (s *Server) reportDelay(w http.ResponseWriter, r *http.Request) {
	var req convert.DelayRequest
	if !decode(w, r, &req) {
		return
	}
	actor, _ := AgentIDFromCtx(r.Context())
	smp, err := s.samples.ReportDelay(r.Context(), actor, chi.URLParam(r, "sampleID"), req.Reason)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeSample(w, http.StatusOK, "Delay reported successfully", smp)
}

func (s *Server) writeSample(w http.ResponseWriter, code int, msg string, smp *model.Sample) {
	writeJSON(w, code, convert.SampleResponse{Message: msg, Sample: convert.ToSample(*smp)})
}
