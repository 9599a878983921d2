package apperr

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappersKeepCause(t *testing.T) {
	err := NotFound("data dir ./data", fs.ErrNotExist)
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "./data")

	err = LoadFailure("open index", errors.New("file is not a database"))
	assert.True(t, IsLoadFailure(err))
	assert.False(t, IsNotFound(err))
}

func TestProvider(t *testing.T) {
	assert.NoError(t, Provider("openai", nil))

	err := Provider("groq", errors.New("429 rate limited"))
	assert.True(t, IsProvider(err))
	assert.Contains(t, err.Error(), "groq")

	// Already classified errors are not wrapped twice.
	assert.Equal(t, err, Provider("openai", err))

	err = Provider("ollama", context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Config("llm_provider is required"), "config"},
		{NotFound("template.txt", nil), "not_found"},
		{LoadFailure("index.db", nil), "load_failure"},
		{Provider("openai", errors.New("boom")), "provider"},
		{errors.New("other"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err))
	}
}
