// internal/models/score.go
package models

import (
	"math"
	"strings"

	apperrors "prompt-access/internal/common/errors"
)

type ScoreDataType string

const (
	ScoreDataTypeNumeric     ScoreDataType = "NUMERIC"
	ScoreDataTypeBoolean     ScoreDataType = "BOOLEAN"
	ScoreDataTypeCategorical ScoreDataType = "CATEGORICAL"
)

// ScoreValue holds exactly one of a number, a boolean or a category. The zero
// value is unset.
type ScoreValue struct {
	dataType ScoreDataType
	number   float64
	category string
}

func NumericValue(v float64) ScoreValue {
	return ScoreValue{dataType: ScoreDataTypeNumeric, number: v}
}

// BooleanValue is sent as 1 or 0; the API has no boolean value type.
func BooleanValue(v bool) ScoreValue {
	n := 0.0
	if v {
		n = 1
	}
	return ScoreValue{dataType: ScoreDataTypeBoolean, number: n}
}

func CategoricalValue(v string) ScoreValue {
	return ScoreValue{dataType: ScoreDataTypeCategorical, category: v}
}

func (v ScoreValue) DataType() ScoreDataType { return v.dataType }

func (v ScoreValue) IsZero() bool { return v.dataType == "" }

// WireValue is the JSON value of the score: float64 for numeric and boolean
// scores, string for categorical ones.
func (v ScoreValue) WireValue() interface{} {
	switch v.dataType {
	case ScoreDataTypeCategorical:
		return v.category
	case ScoreDataTypeNumeric, ScoreDataTypeBoolean:
		return v.number
	default:
		return nil
	}
}

type ScoreInput struct {
	ID            string
	TraceID       string
	ObservationID string
	Name          string
	Value         ScoreValue
	Comment       string
}

// Validate checks the fields that must hold before anything is sent.
func (in ScoreInput) Validate() error {
	if strings.TrimSpace(in.TraceID) == "" {
		return apperrors.NewPreconditionError("traceId", "traceId is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.NewPreconditionError("name", "name is required")
	}
	switch in.Value.dataType {
	case ScoreDataTypeNumeric:
		if math.IsNaN(in.Value.number) || math.IsInf(in.Value.number, 0) {
			return apperrors.NewPreconditionError("value", "numeric value must be finite")
		}
	case ScoreDataTypeBoolean, ScoreDataTypeCategorical:
	default:
		return apperrors.NewPreconditionError("value", "value is required")
	}
	return nil
}

// ToRequest builds the wire body. Validate must have passed.
func (in ScoreInput) ToRequest() CreateScoreRequest {
	return CreateScoreRequest{
		ID:            in.ID,
		TraceID:       in.TraceID,
		ObservationID: in.ObservationID,
		Name:          in.Name,
		Value:         in.Value.WireValue(),
		Comment:       in.Comment,
		DataType:      in.Value.DataType(),
	}
}

// CreateScoreRequest is the body of POST /api/public/scores.
type CreateScoreRequest struct {
	ID            string        `json:"id,omitempty"`
	TraceID       string        `json:"traceId"`
	ObservationID string        `json:"observationId,omitempty"`
	Name          string        `json:"name"`
	Value         interface{}   `json:"value"`
	Comment       string        `json:"comment,omitempty"`
	DataType      ScoreDataType `json:"dataType"`
}

type ScoreResult struct {
	ID string `json:"id"`
}
