package models

import (
	"strings"

	"github.com/pkg/errors"
)

// PDFAttachment is one extracted file believed to be a PDF, scoped to a single
// EmailMessage. Discarded once the job resolves.
type PDFAttachment struct {
	// Filename is the original name from the MIME part.
	Filename string
	// SanitizedName is the filesystem-safe derivation used as the output
	// file prefix.
	SanitizedName string
	Content       []byte
	Size          int
}

func (a *PDFAttachment) Validate(maxSize int) error {
	if !strings.HasSuffix(strings.ToLower(a.Filename), ".pdf") {
		return errors.Errorf("attachment %q does not have a .pdf extension", a.Filename)
	}
	if len(a.Content) == 0 {
		return errors.Errorf("attachment %q is empty", a.Filename)
	}
	if maxSize > 0 && a.Size > maxSize {
		return errors.Errorf("attachment %q is %d bytes, above the %d byte limit", a.Filename, a.Size, maxSize)
	}
	return nil
}
