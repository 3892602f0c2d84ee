package langfuse

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "prompt-access/internal/common/errors"
	"prompt-access/internal/common/metrics"
	"prompt-access/internal/models"
)

// CreateScore submits one score. Input problems are reported before any
// request is made; remote failures are returned unchanged. The server accepts
// scores for trace IDs it has not seen, so success does not prove the trace
// exists.
//
// in.ID is used as the idempotency key and defaults to a random UUID.
func (c *Client) CreateScore(ctx context.Context, in models.ScoreInput) (*models.ScoreResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.ID == "" {
		in.ID = c.newScoreID()
	}

	dataType := string(in.Value.DataType())
	body, err := c.transport.Send(ctx, http.MethodPost, scoresResource, in.ToRequest())
	if err != nil {
		outcome := "remote_error"
		if ctx.Err() != nil && apperrors.IsCancellation(err) {
			outcome = "cancelled"
		}
		metrics.ScoreSubmissions.WithLabelValues(dataType, outcome).Inc()
		return nil, err
	}
	metrics.ScoreSubmissions.WithLabelValues(dataType, "success").Inc()

	result := &models.ScoreResult{ID: in.ID}
	if len(body) > 0 {
		var ack models.ScoreResult
		if err := json.Unmarshal(body, &ack); err == nil && ack.ID != "" {
			result.ID = ack.ID
		}
	}

	c.logger.Debug("score submitted", map[string]interface{}{
		"scoreId":  result.ID,
		"traceId":  in.TraceID,
		"name":     in.Name,
		"dataType": dataType,
	})
	return result, nil
}
