// internal/workers/prompts/compile-prompt/handler.go
package compileprompt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	apperrors "prompt-access/internal/common/errors"
	"prompt-access/internal/common/logger"
	"prompt-access/internal/common/metrics"
	"prompt-access/internal/common/observability"
	"prompt-access/internal/langfuse"
	"prompt-access/internal/models"
	"prompt-access/pkg/registry"
)

const TaskType = "compile-prompt"

// PromptSource is the read side of the access layer.
type PromptSource interface {
	GetTextPrompt(ctx context.Context, req langfuse.TextPromptRequest) (*models.TextPrompt, error)
	GetChatPrompt(ctx context.Context, req langfuse.ChatPromptRequest) (*models.ChatPrompt, error)
}

type Handler struct {
	config       *Config
	prompts      PromptSource
	activity     *registry.Activity
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, prompts PromptSource, activity *registry.Activity, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		prompts:      prompts,
		activity:     activity,
		errorHandler: apperrors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.Int64("job.key", job.Key))
	defer span.End()

	output, err := h.run(ctx, job.Variables)
	if err != nil {
		span.RecordError(err)
		h.finish(ctx, start, "failed", apperrors.NormalizeError(err).Code)
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	h.completeJob(client, job, output)
	h.finish(ctx, start, "completed", "")
}

func (h *Handler) run(ctx context.Context, variables string) (*Output, error) {
	input, err := h.parseInput(variables)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

// parseInput decodes job variables and checks them against the activity's
// input schema.
func (h *Handler) parseInput(variables string) (*Input, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, apperrors.NewPreconditionError("variables", fmt.Sprintf("parse input: %v", err))
	}

	if h.activity != nil {
		result, err := h.activity.ValidateInput(raw)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			field := result.Errors[0].Field
			return nil, apperrors.NewPreconditionError(field, strings.Join(result.GetErrorMessages(), "; "))
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewPreconditionError("variables", fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// Execute fetches the prompt and compiles it with input.Variables.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	switch input.Type {
	case models.PromptKindText:
		prompt, err := h.prompts.GetTextPrompt(ctx, langfuse.TextPromptRequest{
			Name:     input.PromptName,
			Version:  input.Version,
			Label:    input.Label,
			Fallback: input.FallbackText,
		})
		if err != nil {
			return nil, err
		}
		return &Output{
			CompiledText:  prompt.Compile(input.Variables),
			PromptVersion: prompt.Version,
			IsFallback:    prompt.IsFallback,
		}, nil

	case models.PromptKindChat:
		prompt, err := h.prompts.GetChatPrompt(ctx, langfuse.ChatPromptRequest{
			Name:     input.PromptName,
			Version:  input.Version,
			Label:    input.Label,
			Fallback: input.FallbackMessages,
		})
		if err != nil {
			return nil, err
		}
		return &Output{
			CompiledMessages: prompt.Compile(input.Variables),
			PromptVersion:    prompt.Version,
			IsFallback:       prompt.IsFallback,
		}, nil

	default:
		return nil, apperrors.NewPreconditionError("type", fmt.Sprintf("prompt type must be text or chat, got %q", input.Type))
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) finish(ctx context.Context, start time.Time, status string, code apperrors.ErrorCode) {
	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	if status == "completed" {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	} else {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	}
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, elapsed, status)
}
