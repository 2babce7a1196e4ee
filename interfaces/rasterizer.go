package interfaces

import (
	"context"

	"github.com/rasterpost/rasterpost/internal/models"
)

// Rasterizer turns one PDF into an ordered set of fixed-resolution page
// images. Failures come back as classified *errors.ConversionError values and
// are terminal for that attachment; retry happens at the job level, if at all.
type Rasterizer interface {
	Convert(ctx context.Context, pdf *models.PDFAttachment) ([]*models.RasterPage, error)
}
