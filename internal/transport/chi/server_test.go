package chi

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/librarian/internal/domain"
	"github.com/kailas-cloud/librarian/internal/domain/recommendation"
	healthuc "github.com/kailas-cloud/librarian/internal/usecase/health"
)

// --- Mocks ---

type mockRecommender struct {
	recommendFn func(ctx context.Context, query string) (recommendation.Recommendation, error)
	got         *string
}

func (m *mockRecommender) Recommend(ctx context.Context, query string) (recommendation.Recommendation, error) {
	m.got = &query
	return m.recommendFn(ctx, query)
}

type mockSpeech struct {
	synthesizeFn func(ctx context.Context, text string) ([]byte, error)
	transcribeFn func(ctx context.Context, filename string, audio io.Reader) (string, error)
}

func (m *mockSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return m.synthesizeFn(ctx, text)
}

func (m *mockSpeech) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	return m.transcribeFn(ctx, filename, audio)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

func newTestRouter(rec *mockRecommender, sp *mockSpeech, h *mockHealth) http.Handler {
	if rec == nil {
		rec = &mockRecommender{}
	}
	if sp == nil {
		sp = &mockSpeech{}
	}
	if h == nil {
		h = &mockHealth{}
	}
	r := chi.NewRouter()
	NewServer(rec, sp, h, zap.NewNop()).Register(r)
	return r
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func postRecommend(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func dune() recommendation.Recommendation {
	return recommendation.New("Dune", "Sandworms and politics.", "Paul goes to Arrakis.", 0.71)
}

// --- /recommend ---

func TestRecommend_Found(t *testing.T) {
	rec := &mockRecommender{recommendFn: func(context.Context, string) (recommendation.Recommendation, error) {
		return dune().WithImage([]byte("png")), nil
	}}
	rr := do(t, newTestRouter(rec, nil, nil), postRecommend(`{"query":"sandworms and politics"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	resp := decode[recommendResponse](t, rr)
	if resp.Title != "Dune" || resp.Recommendation != "Sandworms and politics." ||
		resp.FullSummary != "Paul goes to Arrakis." || resp.Score != 0.71 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.ImageBase64 == nil || *resp.ImageBase64 != base64.StdEncoding.EncodeToString([]byte("png")) {
		t.Errorf("image_base64 = %v", resp.ImageBase64)
	}
	if *rec.got != "sandworms and politics" {
		t.Errorf("query = %q", *rec.got)
	}
}

func TestRecommend_NoImageIsNull(t *testing.T) {
	rec := &mockRecommender{recommendFn: func(context.Context, string) (recommendation.Recommendation, error) {
		return dune(), nil
	}}
	rr := do(t, newTestRouter(rec, nil, nil), postRecommend(`{"query":"x"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"image_base64":null`) {
		t.Errorf("expected explicit null image, got %s", rr.Body.String())
	}
}

func TestRecommend_EmptyQueryDispatched(t *testing.T) {
	rec := &mockRecommender{recommendFn: func(context.Context, string) (recommendation.Recommendation, error) {
		return recommendation.Recommendation{}, domain.ErrNoSuitableBook
	}}
	rr := do(t, newTestRouter(rec, nil, nil), postRecommend(`{"query":""}`))

	if rec.got == nil || *rec.got != "" {
		t.Fatal("empty query must reach the recommender")
	}
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestRecommend_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			"moderated", domain.ErrContentModerated,
			http.StatusOK, `{"error":"Please rephrase your question."}`,
		},
		{
			"not found", fmt.Errorf("gate: %w", domain.ErrNoSuitableBook),
			http.StatusNotFound, `{"code":"not_found","detail":"No suitable book found. Please add more context."}`,
		},
		{
			"upstream", fmt.Errorf("explain recommendation: %w: rate limited", domain.ErrUpstream),
			http.StatusInternalServerError,
			`{"code":"internal_error","detail":"explain recommendation: upstream model error: rate limited"}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &mockRecommender{recommendFn: func(context.Context, string) (recommendation.Recommendation, error) {
				return recommendation.Recommendation{}, tc.err
			}}
			rr := do(t, newTestRouter(rec, nil, nil), postRecommend(`{"query":"q"}`))

			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			if got := strings.TrimSpace(rr.Body.String()); got != tc.wantBody {
				t.Errorf("body = %s, want %s", got, tc.wantBody)
			}
		})
	}
}

func TestRecommend_InvalidBody(t *testing.T) {
	for _, body := range []string{`not json`, `{}`, `{"query": null}`, `{"query": 5}`} {
		rec := &mockRecommender{}
		rr := do(t, newTestRouter(rec, nil, nil), postRecommend(body))

		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("body %s: status = %d, want 422", body, rr.Code)
		}
		if rec.got != nil {
			t.Errorf("body %s: recommender must not run", body)
		}
		if resp := decode[errorResponse](t, rr); resp.Code != codeValidationFailed {
			t.Errorf("body %s: code = %q", body, resp.Code)
		}
	}
}

// --- /tts ---

func TestTextToSpeech(t *testing.T) {
	sp := &mockSpeech{synthesizeFn: func(_ context.Context, text string) ([]byte, error) {
		if text != "Hello reader" {
			t.Errorf("text = %q", text)
		}
		return []byte("mp3-bytes"), nil
	}}
	rr := do(t, newTestRouter(nil, sp, nil), httptest.NewRequest(http.MethodGet, "/tts?text=Hello+reader", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[ttsResponse](t, rr)
	audio, err := base64.StdEncoding.DecodeString(resp.AudioBase64)
	if err != nil || string(audio) != "mp3-bytes" {
		t.Errorf("audio = %q, err %v", audio, err)
	}
}

func TestTextToSpeech_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"missing", "", "text is required"},
		{"too long", "text=" + strings.Repeat("a", 1001), "text must be at most 1000 characters"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sp := &mockSpeech{synthesizeFn: func(context.Context, string) ([]byte, error) {
				t.Error("synthesizer must not run")
				return nil, nil
			}}
			rr := do(t, newTestRouter(nil, sp, nil), httptest.NewRequest(http.MethodGet, "/tts?"+tc.query, http.NoBody))

			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rr.Code)
			}
			if resp := decode[errorResponse](t, rr); resp.Detail != tc.want {
				t.Errorf("detail = %q, want %q", resp.Detail, tc.want)
			}
		})
	}
}

func TestTextToSpeech_MaxLengthAccepted(t *testing.T) {
	sp := &mockSpeech{synthesizeFn: func(context.Context, string) ([]byte, error) { return []byte("x"), nil }}
	// 1000 multi-byte characters count as 1000, not as bytes.
	text := strings.Repeat("é", 1000)
	req := httptest.NewRequest(http.MethodGet, "/tts?text="+url.QueryEscape(text), http.NoBody)

	if rr := do(t, newTestRouter(nil, sp, nil), req); rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestTextToSpeech_UpstreamError(t *testing.T) {
	sp := &mockSpeech{synthesizeFn: func(context.Context, string) ([]byte, error) {
		return nil, errors.New("synthesize: tts down")
	}}
	rr := do(t, newTestRouter(nil, sp, nil), httptest.NewRequest(http.MethodGet, "/tts?text=hi", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp := decode[errorResponse](t, rr); resp.Detail != "synthesize: tts down" {
		t.Errorf("detail = %q", resp.Detail)
	}
}

// --- /stt ---

func multipartUpload(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte(content))
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/stt", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSpeechToText(t *testing.T) {
	sp := &mockSpeech{transcribeFn: func(_ context.Context, filename string, audio io.Reader) (string, error) {
		b, _ := io.ReadAll(audio)
		if filename != "voice.webm" || string(b) != "opus" {
			t.Errorf("filename = %q, audio = %q", filename, b)
		}
		return "a book about whales", nil
	}}
	rr := do(t, newTestRouter(nil, sp, nil), multipartUpload(t, "file", "voice.webm", "opus"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if resp := decode[sttResponse](t, rr); resp.Text != "a book about whales" {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestSpeechToText_Error(t *testing.T) {
	sp := &mockSpeech{transcribeFn: func(context.Context, string, io.Reader) (string, error) {
		return "", errors.New("transcribe: whisper down")
	}}
	rr := do(t, newTestRouter(nil, sp, nil), multipartUpload(t, "file", "voice.webm", "opus"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if resp := decode[errorResponse](t, rr); resp.Detail != "STT error: transcribe: whisper down" {
		t.Errorf("detail = %q", resp.Detail)
	}
}

func TestSpeechToText_MissingFile(t *testing.T) {
	rr := do(t, newTestRouter(nil, nil, nil), multipartUpload(t, "audio", "voice.webm", "opus"))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	if resp := decode[errorResponse](t, rr); resp.Detail != "file is required" {
		t.Errorf("detail = %q", resp.Detail)
	}
}

func TestSpeechToText_NotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/stt", strings.NewReader("raw"))
	if rr := do(t, newTestRouter(nil, nil, nil), req); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
}

// --- /health ---

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		report healthuc.Report
		want   int
	}{
		{"ok", healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}, http.StatusOK},
		{"degraded", healthuc.Report{
			Status: healthuc.Degraded,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError, "openai": healthuc.CheckOK},
		}, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(nil, nil, &mockHealth{report: tc.report})
			rr := do(t, h, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			resp := decode[healthResponse](t, rr)
			if resp.Status != string(tc.report.Status) {
				t.Errorf("status = %q", resp.Status)
			}
			if resp.Checks["database"] != string(tc.report.Checks["database"]) {
				t.Errorf("checks = %v", resp.Checks)
			}
		})
	}
}
