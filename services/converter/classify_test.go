package converter

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/rasterpost/rasterpost/internal/enum"
)

func TestClassifyToolFailure(t *testing.T) {
	exitErr := errors.New("exit status 1")

	tests := []struct {
		name     string
		stderr   string
		expected enum.FailureKind
	}{
		{"password protected", "Error: this PDF requires a password", enum.FailurePasswordProtected},
		{"encrypted", "pdf is Encrypted, cannot open", enum.FailurePasswordProtected},
		{"corrupted", "Corrupt JPEG data found in stream", enum.FailureCorrupted},
		{"damaged", "file appears damaged", enum.FailureCorrupted},
		{"malformed", "malformed xref table", enum.FailureCorrupted},
		{"invalid structure", "invalid object stream", enum.FailureCorrupted},
		{"unrecognized", "something unexpected happened", enum.FailureGeneric},
		{"empty stderr", "", enum.FailureGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			convErr := classifyToolFailure(exitErr, tt.stderr)

			assert.Equal(t, tt.expected, convErr.Kind)
			assert.NotEmpty(t, convErr.Detail)
		})
	}
}

func TestClassifyToolFailureFallsBackToRunError(t *testing.T) {
	convErr := classifyToolFailure(errors.New("signal: killed"), "")

	assert.Equal(t, enum.FailureGeneric, convErr.Kind)
	assert.Equal(t, "signal: killed", convErr.Detail)
}
