package langfuse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"prompt-access/internal/common/cache"
	apperrors "prompt-access/internal/common/errors"
	"prompt-access/internal/common/metrics"
	"prompt-access/internal/common/validation"
	"prompt-access/internal/models"
)

type TextPromptRequest struct {
	Name    string
	Version *int
	Label   string
	// Fallback is returned as a local prompt when the fetch fails remotely.
	Fallback *string
}

type ChatPromptRequest struct {
	Name    string
	Version *int
	Label   string
	// Fallback messages; nil means no fallback.
	Fallback []models.ChatMessage
}

// PromptQuery identifies one prompt to fetch. An empty Kind means text.
type PromptQuery struct {
	Kind    models.PromptKind
	Name    string
	Version *int
	Label   string
}

func (q PromptQuery) validate() error {
	if strings.TrimSpace(q.Name) == "" {
		return apperrors.NewPreconditionError("name", "prompt name is required")
	}
	if q.Version != nil && *q.Version < 1 {
		return apperrors.NewPreconditionError("version", fmt.Sprintf("version must be >= 1, got %d", *q.Version))
	}
	if q.Version != nil && q.Label != "" {
		return apperrors.NewPreconditionError("label", "version and label cannot be combined")
	}
	return nil
}

func (q PromptQuery) key() models.PromptKey {
	return models.NewPromptKey(q.Name, q.Version, q.Label)
}

// path renders {resource}/{name}[?version=N][&label=L] with name and label
// escaped as URI components.
func (q PromptQuery) path() string {
	var b strings.Builder
	b.WriteString(promptsResource)
	b.WriteByte('/')
	b.WriteString(escapeComponent(q.Name))

	sep := byte('?')
	if q.Version != nil {
		b.WriteByte(sep)
		b.WriteString("version=")
		b.WriteString(strconv.Itoa(*q.Version))
		sep = '&'
	}
	if q.Label != "" {
		b.WriteByte(sep)
		b.WriteString("label=")
		b.WriteString(escapeComponent(q.Label))
	}
	return b.String()
}

// escapeComponent encodes spaces as %20 rather than '+', so the result is
// valid both in a path segment and in a query value.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// GetTextPrompt returns the text prompt for req, from cache when a valid
// entry exists. On a remote failure the fallback, if any, is returned
// instead of the error. A prompt that exists but is a chat prompt is always
// an error.
func (c *Client) GetTextPrompt(ctx context.Context, req TextPromptRequest) (*models.TextPrompt, error) {
	q := PromptQuery{Kind: models.PromptKindText, Name: req.Name, Version: req.Version, Label: req.Label}

	var fallback *models.TextPrompt
	if req.Fallback != nil {
		fallback = models.NewTextFallback(req.Name, *req.Fallback)
	}
	return fetchPrompt(ctx, c, q, c.textCache, (*models.PromptPayload).ToTextPrompt, fallback, req.Fallback != nil)
}

// GetChatPrompt is GetTextPrompt for chat prompts.
func (c *Client) GetChatPrompt(ctx context.Context, req ChatPromptRequest) (*models.ChatPrompt, error) {
	q := PromptQuery{Kind: models.PromptKindChat, Name: req.Name, Version: req.Version, Label: req.Label}

	var fallback *models.ChatPrompt
	if req.Fallback != nil {
		fallback = models.NewChatFallback(req.Name, req.Fallback)
	}
	return fetchPrompt(ctx, c, q, c.chatCache, (*models.PromptPayload).ToChatPrompt, fallback, req.Fallback != nil)
}

func fetchPrompt[P models.Prompt](
	ctx context.Context,
	c *Client,
	q PromptQuery,
	store *cache.TTLCache[models.PromptKey, P],
	materialize func(*models.PromptPayload) (P, error),
	fallback P,
	hasFallback bool,
) (P, error) {
	var zero P
	if err := q.validate(); err != nil {
		return zero, err
	}

	key := q.key()
	if cached, ok := store.Get(key); ok {
		return cached, nil
	}

	kind := string(q.Kind)
	log := c.logger.WithFields(map[string]interface{}{
		"prompt": key.String(),
		"kind":   kind,
	})

	prompt, err := fetchRemote(ctx, c, q, materialize)
	if err == nil {
		store.Put(key, prompt)
		metrics.PromptFetches.WithLabelValues(kind, "success").Inc()
		log.Debug("prompt fetched", map[string]interface{}{"version": prompt.PromptVersion()})
		return prompt, nil
	}

	code := apperrors.CodeOf(err)
	switch {
	case ctx.Err() != nil && apperrors.IsCancellation(err):
		metrics.PromptFetches.WithLabelValues(kind, "cancelled").Inc()
		return zero, err

	case apperrors.IsRemoteCode(code):
		metrics.PromptFetches.WithLabelValues(kind, "remote_error").Inc()
		if !hasFallback {
			return zero, err
		}
		metrics.PromptFallbacks.WithLabelValues(kind, string(code)).Inc()
		log.Warn("prompt fetch failed, using fallback", map[string]interface{}{
			"error":     err.Error(),
			"errorCode": code,
		})
		return fallback, nil

	default:
		metrics.PromptFetches.WithLabelValues(kind, "rejected").Inc()
		return zero, err
	}
}

func fetchRemote[P models.Prompt](
	ctx context.Context,
	c *Client,
	q PromptQuery,
	materialize func(*models.PromptPayload) (P, error),
) (P, error) {
	var zero P

	path := q.path()
	body, err := c.transport.Send(ctx, http.MethodGet, path, nil)
	if err != nil {
		if ctx.Err() != nil && apperrors.IsCancellation(err) {
			return zero, err
		}
		if apperrors.CodeOf(err) == "" {
			err = apperrors.NewTransportFailureError(http.MethodGet, path, err)
		}
		return zero, err
	}

	// The declared type is checked before the shape: a prompt of the other
	// kind is a mismatch even when the rest of its payload is malformed.
	var declared struct {
		Type models.PromptKind `json:"type"`
	}
	if err := json.Unmarshal(body, &declared); err != nil {
		return zero, apperrors.NewPromptPayloadInvalidError(q.Name, "response is not a JSON object", err)
	}
	if declared.Type != q.Kind && (declared.Type == models.PromptKindText || declared.Type == models.PromptKindChat) {
		return zero, apperrors.NewPromptKindMismatchError(q.Name, string(q.Kind), string(declared.Type))
	}

	result, err := validation.ValidatePromptPayload(body)
	if err != nil {
		return zero, apperrors.NewPromptPayloadInvalidError(q.Name, "response is not valid JSON", err)
	}
	if !result.Valid {
		return zero, apperrors.NewPromptPayloadInvalidError(q.Name, strings.Join(result.GetErrorMessages(), "; "), nil)
	}

	var payload models.PromptPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return zero, apperrors.NewPromptPayloadInvalidError(q.Name, "decode response", err)
	}
	prompt, err := materialize(&payload)
	if err != nil {
		return zero, apperrors.NewPromptPayloadInvalidError(q.Name, "materialize prompt", err)
	}
	return prompt, nil
}

// Prefetch loads prompts into the cache concurrently. A failed load does not
// stop the others; all failures are returned joined.
func (c *Client) Prefetch(ctx context.Context, queries ...PromptQuery) error {
	p := pool.New().WithMaxGoroutines(c.prefetchConcurrency).WithContext(ctx)
	for _, q := range queries {
		q := q
		p.Go(func(ctx context.Context) error {
			var err error
			switch q.Kind {
			case models.PromptKindText, "":
				_, err = c.GetTextPrompt(ctx, TextPromptRequest{Name: q.Name, Version: q.Version, Label: q.Label})
			case models.PromptKindChat:
				_, err = c.GetChatPrompt(ctx, ChatPromptRequest{Name: q.Name, Version: q.Version, Label: q.Label})
			default:
				err = apperrors.NewPreconditionError("kind", fmt.Sprintf("unknown prompt kind %q", q.Kind))
			}
			if err != nil {
				c.logger.Warn("prompt prefetch failed", map[string]interface{}{
					"prompt": q.key().String(),
					"error":  err.Error(),
				})
				return fmt.Errorf("prefetch %s: %w", q.key(), err)
			}
			return nil
		})
	}
	return p.Wait()
}
