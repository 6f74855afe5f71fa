package completion

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zaviye/zaviye/internal/service/ai"
	completionapi "github.com/zaviye/zaviye/internal/service/completion"
	"github.com/zaviye/zaviye/pkg/utils"
)

const maxBodySize = 1 << 20

const (
	msgMissingKey   = "GEMINI_API_KEY environment variable is not set"
	msgFailed       = "Failed to generate content"
	msgUnauthorized = "The AI provider rejected the configured credentials"
	msgRateLimited  = "Too many requests. Please try again later."
)

// Handler serves the completion boundary.
type Handler struct {
	generator ai.Generator
}

// New creates the handler. A nil generator means no credentials were configured.
func New(generator ai.Generator) *Handler {
	return &Handler{generator: generator}
}

// RegisterRoutes mounts POST /gemini behind the given middleware.
func (h *Handler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.With(middlewares...).Post("/gemini", h.handleGenerate)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		utils.RespondError(w, http.StatusInternalServerError, msgMissingKey)
		return
	}

	var req completionapi.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.UserPrompt) == "" {
		utils.RespondError(w, http.StatusBadRequest, "userPrompt is required")
		return
	}

	gen, err := h.generator.Generate(r.Context(), req.SystemPrompt, req.UserPrompt)
	if err != nil {
		status, message := classify(err)
		slog.Error("generate_failed", "status", status, "error", err)
		utils.RespondError(w, status, message)
		return
	}

	utils.RespondJSON(w, http.StatusOK, completionapi.Response{Text: gen.Reply()})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ai.ErrUpstreamUnauthorized):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, ai.ErrUpstreamRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	default:
		return http.StatusInternalServerError, msgFailed
	}
}
