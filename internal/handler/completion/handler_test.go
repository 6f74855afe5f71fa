package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zaviye/zaviye/internal/service/ai"
)

type stubGenerator struct {
	gen ai.Generation
	err error

	system string
	user   string
}

func (s *stubGenerator) Generate(_ context.Context, systemPrompt, userPrompt string) (ai.Generation, error) {
	s.system = systemPrompt
	s.user = userPrompt
	return s.gen, s.err
}

func setupRouter(gen ai.Generator) *chi.Mux {
	r := chi.NewRouter()
	New(gen).RegisterRoutes(r)
	return r
}

func postJSON(r http.Handler, payload []byte) (*httptest.ResponseRecorder, map[string]string) {
	req := httptest.NewRequest(http.MethodPost, "/gemini", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	body := map[string]string{}
	_ = json.Unmarshal(resp.Body.Bytes(), &body)
	return resp, body
}

func validBody() []byte {
	payload, _ := json.Marshal(map[string]string{"systemPrompt": "sys", "userPrompt": "hello"})
	return payload
}

func TestGenerateSuccess(t *testing.T) {
	gen := &stubGenerator{gen: ai.Generation{Text: "hi there"}}
	resp, body := postJSON(setupRouter(gen), validBody())

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body["text"] != "hi there" {
		t.Fatalf("unexpected text %q", body["text"])
	}
	if gen.system != "sys" || gen.user != "hello" {
		t.Fatalf("prompts not forwarded: %q %q", gen.system, gen.user)
	}
}

func TestGenerateBlockedIsSuccess(t *testing.T) {
	gen := &stubGenerator{gen: ai.Generation{Blocked: true, BlockReason: "SAFETY"}}
	resp, body := postJSON(setupRouter(gen), validBody())

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	want := "My apologies, but the response was blocked due to SAFETY. Please try rephrasing your message."
	if body["text"] != want {
		t.Fatalf("unexpected text %q", body["text"])
	}
}

func TestGenerateMissingGenerator(t *testing.T) {
	resp, body := postJSON(setupRouter(nil), validBody())

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if body["error"] != "GEMINI_API_KEY environment variable is not set" {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestGenerateInvalidBody(t *testing.T) {
	resp, _ := postJSON(setupRouter(&stubGenerator{}), []byte(`{not json`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	resp, _ = postJSON(setupRouter(&stubGenerator{}), []byte(`{"systemPrompt":"x"}`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing userPrompt, got %d", resp.Code)
	}
}

func TestGenerateErrorMapping(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("%w: bad key", ai.ErrUpstreamUnauthorized), http.StatusUnauthorized, msgUnauthorized},
		{fmt.Errorf("%w: slow down", ai.ErrUpstreamRateLimited), http.StatusTooManyRequests, msgRateLimited},
		{errors.New("boom"), http.StatusInternalServerError, "Failed to generate content"},
	}

	for _, tc := range cases {
		resp, body := postJSON(setupRouter(&stubGenerator{err: tc.err}), validBody())
		if resp.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, resp.Code)
		}
		if body["error"] != tc.message {
			t.Fatalf("%v: unexpected message %q", tc.err, body["error"])
		}
	}
}
