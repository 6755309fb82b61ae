package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseResponse_JSONSerialization(t *testing.T) {
	tests := []struct {
		name     string
		response BaseResponse
		expected string
	}{
		{
			name: "success with data",
			response: BaseResponse{
				Success: true,
				Message: "success",
				Data:    map[string]int64{"id": 42},
			},
			expected: `{"success":true,"message":"success","data":{"id":42}}`,
		},
		{
			name:     "failure keeps data key",
			response: BaseResponse{Message: "Event not found"},
			expected: `{"success":false,"message":"Event not found","data":null}`,
		},
		{
			name: "empty list",
			response: BaseResponse{
				Success: true,
				Message: "success",
				Data:    []Event{},
			},
			expected: `{"success":true,"message":"success","data":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := json.Marshal(tt.response)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(out))
		})
	}
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("no")))
	assert.Equal(t, KindUnauthenticated, KindOf(Unauthenticated("who")))
	assert.True(t, IsNotFound(NotFound("gone")))
	assert.Equal(t, KindInternal, KindOf(assert.AnError))

	assert.Nil(t, Persistence(nil))

	wrapped := Persistence(assert.AnError)
	assert.Equal(t, KindPersistence, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Equal(t, assert.AnError.Error(), wrapped.Error())

	classified := NotFound("Event not found")
	assert.Same(t, classified, Persistence(classified))
}
