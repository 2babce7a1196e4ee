package converter

import (
	"fmt"
	"strings"

	"github.com/rasterpost/rasterpost/internal/enum"
	rperrors "github.com/rasterpost/rasterpost/internal/errors"
)

// classifyToolFailure maps a nonzero tool exit to a closed failure kind by
// inspecting the diagnostic stream.
func classifyToolFailure(runErr error, stderr string) *rperrors.ConversionError {
	diag := strings.ToLower(stderr)

	switch {
	case strings.Contains(diag, "password") || strings.Contains(diag, "encrypted"):
		return rperrors.NewConversionError(enum.FailurePasswordProtected,
			fmt.Sprintf("the document is password-protected or encrypted: %s", strings.TrimSpace(stderr)))

	case strings.Contains(diag, "corrupt") ||
		strings.Contains(diag, "damaged") ||
		strings.Contains(diag, "malformed") ||
		strings.Contains(diag, "invalid"):
		return rperrors.NewConversionError(enum.FailureCorrupted,
			fmt.Sprintf("the document is corrupted or malformed: %s", strings.TrimSpace(stderr)))

	default:
		detail := strings.TrimSpace(stderr)
		if detail == "" {
			detail = runErr.Error()
		}
		return rperrors.NewConversionError(enum.FailureGeneric, detail)
	}
}
