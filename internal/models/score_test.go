package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "prompt-access/internal/common/errors"
)

func TestScoreInput_Serialization(t *testing.T) {
	tests := []struct {
		name     string
		value    ScoreValue
		expected string
	}{
		{
			name:     "boolean true",
			value:    BooleanValue(true),
			expected: `{"traceId":"trace-1","name":"helpful","value":1,"dataType":"BOOLEAN"}`,
		},
		{
			name:     "boolean false",
			value:    BooleanValue(false),
			expected: `{"traceId":"trace-1","name":"helpful","value":0,"dataType":"BOOLEAN"}`,
		},
		{
			name:     "numeric",
			value:    NumericValue(0.95),
			expected: `{"traceId":"trace-1","name":"helpful","value":0.95,"dataType":"NUMERIC"}`,
		},
		{
			name:     "categorical",
			value:    CategoricalValue("positive"),
			expected: `{"traceId":"trace-1","name":"helpful","value":"positive","dataType":"CATEGORICAL"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ScoreInput{TraceID: "trace-1", Name: "helpful", Value: tt.value}
			require.NoError(t, in.Validate())

			body, err := json.Marshal(in.ToRequest())
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(body))
		})
	}
}

func TestScoreInput_OptionalFields(t *testing.T) {
	in := ScoreInput{
		ID:            "score-1",
		TraceID:       "trace-1",
		ObservationID: "obs-1",
		Name:          "accuracy",
		Value:         NumericValue(0.5),
		Comment:       "looks right",
	}

	body, err := json.Marshal(in.ToRequest())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "score-1", decoded["id"])
	assert.Equal(t, "obs-1", decoded["observationId"])
	assert.Equal(t, "looks right", decoded["comment"])
}

func TestScoreInput_Validate(t *testing.T) {
	tests := []struct {
		name  string
		input ScoreInput
		field string
	}{
		{"empty trace id", ScoreInput{Name: "n", Value: NumericValue(1)}, "traceId"},
		{"blank trace id", ScoreInput{TraceID: "   ", Name: "n", Value: NumericValue(1)}, "traceId"},
		{"empty name", ScoreInput{TraceID: "t", Value: NumericValue(1)}, "name"},
		{"missing value", ScoreInput{TraceID: "t", Name: "n"}, "value"},
		{"nan value", ScoreInput{TraceID: "t", Name: "n", Value: NumericValue(math.NaN())}, "value"},
		{"inf value", ScoreInput{TraceID: "t", Name: "n", Value: NumericValue(math.Inf(1))}, "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsPrecondition(err))

			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, tt.field, stdErr.Metadata["field"])
		})
	}
}

func TestScoreValue(t *testing.T) {
	var zero ScoreValue
	assert.True(t, zero.IsZero())
	assert.Nil(t, zero.WireValue())

	assert.Equal(t, ScoreDataTypeCategorical, CategoricalValue("").DataType())
	assert.Equal(t, "", CategoricalValue("").WireValue())
	assert.Equal(t, 1.0, BooleanValue(true).WireValue())
}
