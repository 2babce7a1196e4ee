package models

import "github.com/pkg/errors"

// RasterPage is one rendered page image, scoped to the PDF it came from.
// Content is held in memory because the converter's scratch directory is
// removed before the page is consumed.
type RasterPage struct {
	// Filename follows the outgoing convention {sanitized}-{NNN}.png.
	Filename  string
	SourcePDF string
	// PageNumber is 1-indexed and contiguous in source-page order.
	PageNumber int
	Content    []byte
	Width      int
	Height     int
	DensityDPI int
}

func (p *RasterPage) Validate() error {
	if p.PageNumber < 1 {
		return errors.Errorf("page number %d must be >= 1", p.PageNumber)
	}
	if len(p.Content) == 0 {
		return errors.Errorf("page image %q is empty", p.Filename)
	}
	return nil
}
