// internal/workers/scores/submit-score/models.go
package submitscore

import (
	"fmt"

	apperrors "prompt-access/internal/common/errors"
	"prompt-access/internal/models"
)

type Input struct {
	TraceID       string               `json:"traceId"`
	ObservationID string               `json:"observationId,omitempty"`
	Name          string               `json:"name"`
	Value         interface{}          `json:"value"`
	DataType      models.ScoreDataType `json:"dataType,omitempty"`
	Comment       string               `json:"comment,omitempty"`
}

type Output struct {
	ScoreID string `json:"scoreId"`
}

// ScoreInput converts job variables into a score. Without an explicit
// dataType the value's JSON type decides: number, boolean or string. A
// BOOLEAN score also accepts 0 and 1.
func (in *Input) ScoreInput() (models.ScoreInput, error) {
	value, err := scoreValue(in.Value, in.DataType)
	if err != nil {
		return models.ScoreInput{}, err
	}
	return models.ScoreInput{
		TraceID:       in.TraceID,
		ObservationID: in.ObservationID,
		Name:          in.Name,
		Value:         value,
		Comment:       in.Comment,
	}, nil
}

func scoreValue(raw interface{}, dataType models.ScoreDataType) (models.ScoreValue, error) {
	var inferred models.ScoreValue
	switch v := raw.(type) {
	case float64:
		inferred = models.NumericValue(v)
		if dataType == models.ScoreDataTypeBoolean && (v == 0 || v == 1) {
			return models.BooleanValue(v == 1), nil
		}
	case bool:
		inferred = models.BooleanValue(v)
	case string:
		inferred = models.CategoricalValue(v)
	case nil:
		return models.ScoreValue{}, apperrors.NewPreconditionError("value", "value is required")
	default:
		return models.ScoreValue{}, apperrors.NewPreconditionError("value", fmt.Sprintf("unsupported value type %T", raw))
	}

	if dataType != "" && dataType != inferred.DataType() {
		return models.ScoreValue{}, apperrors.NewPreconditionError("dataType",
			fmt.Sprintf("dataType %s does not match a %s value", dataType, inferred.DataType()))
	}
	return inferred, nil
}
