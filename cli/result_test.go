package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCommandError(t *testing.T) {
	t.Run("WithoutCause", func(t *testing.T) {
		err := NewCommandError(ExitProblems)
		assert.EqualError(t, err, "exit status 1")
		assert.Equal(t, 1, err.ExitCode())
		assert.NoError(t, errors.Unwrap(err))
	})

	t.Run("WithCause", func(t *testing.T) {
		cause := errors.New(`invalid horizon "soon"`)
		err := exitWith(ExitSettings, cause)
		assert.EqualError(t, err, `invalid horizon "soon"`)
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("FoundThroughWrapping", func(t *testing.T) {
		err := fmt.Errorf("forecast: %w", NewCommandError(ExitSettings))
		var cmdErr *CommandError
		assert.True(t, errors.As(err, &cmdErr))
		assert.Equal(t, 2, cmdErr.ExitCode())
	})
}
