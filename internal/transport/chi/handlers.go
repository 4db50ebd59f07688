package chi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/librarian/internal/logger"
	healthuc "github.com/kailas-cloud/librarian/internal/usecase/health"
)

// TextToSpeech handles GET /tts?text=.
func (s *Server) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	req := ttsRequest{Text: r.URL.Query().Get("text")}
	if msg := validateRequest(&req); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, codeValidationFailed, msg)
		return
	}

	audio, err := s.speech.Synthesize(r.Context(), req.Text)
	if err != nil {
		s.handleDomainError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, ttsResponse{AudioBase64: base64.StdEncoding.EncodeToString(audio)})
}

// Recommend handles POST /recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidationFailed, "Invalid request body: "+err.Error())
		return
	}
	if msg := validateRequest(&req); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, codeValidationFailed, msg)
		return
	}

	rec, err := s.recommender.Recommend(r.Context(), *req.Query)
	if err != nil {
		s.handleDomainError(w, r, err, "")
		return
	}

	resp := recommendResponse{
		Title:          rec.Title(),
		Recommendation: rec.Explanation(),
		FullSummary:    rec.FullSummary(),
		Score:          rec.Score(),
	}
	if rec.HasImage() {
		img := base64.StdEncoding.EncodeToString(rec.Image())
		resp.ImageBase64 = &img
	}
	writeJSON(w, http.StatusOK, resp)
}

// SpeechToText handles POST /stt with a multipart "file" field.
func (s *Server) SpeechToText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidationFailed, "Invalid upload: "+err.Error())
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.FromContextOr(r.Context(), s.logger).Warn("Failed to remove upload spill files", zap.Error(err))
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeError(w, http.StatusUnprocessableEntity, codeValidationFailed, "file is required")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, codeValidationFailed, fmt.Sprintf("Invalid upload: %v", err))
		return
	}
	defer file.Close()

	text, err := s.speech.Transcribe(r.Context(), header.Filename, file)
	if err != nil {
		s.handleDomainError(w, r, err, msgSTTPrefix)
		return
	}

	writeJSON(w, http.StatusOK, sttResponse{Text: text})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}
