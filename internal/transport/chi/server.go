package chi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/librarian/internal/domain"
	"github.com/kailas-cloud/librarian/internal/domain/recommendation"
	"github.com/kailas-cloud/librarian/internal/logger"
	healthuc "github.com/kailas-cloud/librarian/internal/usecase/health"
)

const (
	// maxJSONBody bounds POST /recommend bodies.
	maxJSONBody = 64 << 10
	// maxAudioUpload matches the transcription API file limit.
	maxAudioUpload = 25 << 20
	// multipartMemory is kept in memory before the upload spills to disk.
	multipartMemory = 8 << 20
)

// Recommender produces a recommendation for a free-text query.
type Recommender interface {
	Recommend(ctx context.Context, query string) (recommendation.Recommendation, error)
}

// Speech converts between text and audio.
type Speech interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the recommendation HTTP API.
type Server struct {
	recommender   Recommender
	speech        Speech
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(recommender Recommender, speech Speech, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		recommender: recommender,
		speech:      speech,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		moderatedHandler,
		fixedHandler(domain.ErrNoSuitableBook, http.StatusNotFound, codeNotFound, msgNoSuitableBook),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusUnprocessableEntity, codeValidationFailed),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/tts", s.TextToSpeech)
	r.Post("/recommend", s.Recommend)
	r.Post("/stt", s.SpeechToText)
	r.Get("/health", s.HealthCheck)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, detail string) {
	writeJSON(w, status, errorResponse{Code: code, Detail: detail})
}

// moderatedHandler answers refused queries with 200 and a soft error body.
func moderatedHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrContentModerated) {
		return false
	}
	writeJSON(w, http.StatusOK, softErrorResponse{Error: msgRephrase})
	return true
}

// fixedHandler matches a sentinel and answers with a fixed message.
func fixedHandler(sentinel error, status int, code errorCode, detail string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, detail)
		return true
	}
}

// sentinelHandler matches a sentinel and answers with the error text.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// handleDomainError maps err to a response. Unmatched errors become 500
// with the raw error text, prefixed by detailPrefix.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error, detailPrefix string) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	logger.FromContextOr(r.Context(), s.logger).Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, detailPrefix+err.Error())
}
