package converter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/opentracing/opentracing-go"

	"github.com/rasterpost/rasterpost/config"
	"github.com/rasterpost/rasterpost/interfaces"
	"github.com/rasterpost/rasterpost/internal/enum"
	rperrors "github.com/rasterpost/rasterpost/internal/errors"
	"github.com/rasterpost/rasterpost/internal/logger"
	"github.com/rasterpost/rasterpost/internal/models"
	"github.com/rasterpost/rasterpost/internal/tracing"
	"github.com/rasterpost/rasterpost/internal/utils"
)

type ConverterService struct {
	cfg *config.ConverterConfig
	log logger.Logger
}

func NewConverterService(cfg *config.ConverterConfig, log logger.Logger) interfaces.Rasterizer {
	return &ConverterService{
		cfg: cfg,
		log: log,
	}
}

// Convert rasterizes one PDF into page images sized exactly to the configured
// target. The scratch directory is removed on every exit path; page content
// is read into memory before cleanup.
func (s *ConverterService) Convert(ctx context.Context, pdf *models.PDFAttachment) ([]*models.RasterPage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ConverterService.Convert")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("attachment", pdf.Filename)
	span.SetTag("size_bytes", pdf.Size)

	if err := pdf.Validate(s.cfg.MaxPDFSizeBytes); err != nil {
		convErr := rperrors.NewConversionError(enum.FailureGeneric, err.Error())
		tracing.TraceErr(span, convErr)
		return nil, convErr
	}

	scratchDir, err := os.MkdirTemp("", "rasterpost-*")
	if err != nil {
		convErr := rperrors.NewConversionError(enum.FailureGeneric, fmt.Sprintf("failed to create scratch directory: %v", err))
		tracing.TraceErr(span, convErr)
		return nil, convErr
	}
	defer os.RemoveAll(scratchDir)

	pdfPath := filepath.Join(scratchDir, pdf.SanitizedName+".pdf")
	if err := os.WriteFile(pdfPath, pdf.Content, 0o600); err != nil {
		convErr := rperrors.NewConversionError(enum.FailureGeneric, fmt.Sprintf("failed to write scratch pdf: %v", err))
		tracing.TraceErr(span, convErr)
		return nil, convErr
	}

	if convErr := s.runTool(ctx, pdfPath, scratchDir, pdf.SanitizedName); convErr != nil {
		tracing.TraceErr(span, convErr)
		return nil, convErr
	}

	pages, convErr := s.collectPages(scratchDir, pdf)
	if convErr != nil {
		tracing.TraceErr(span, convErr)
		return nil, convErr
	}

	span.SetTag("pages", len(pages))
	return pages, nil
}

// runTool invokes the conversion tool once for the whole PDF, bounded by the
// configured timeout. CommandContext guarantees the process is killed when
// the deadline fires.
func (s *ConverterService) runTool(ctx context.Context, pdfPath, scratchDir, prefix string) *rperrors.ConversionError {
	frame := fmt.Sprintf("%dx%d", s.cfg.ResolutionWidth, s.cfg.ResolutionHeight)
	// One output file per page; %03d keeps lexical order equal to page order.
	outputPattern := filepath.Join(scratchDir, prefix+"-%03d.png")

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.ConversionTimeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.cfg.Binary,
		"-density", fmt.Sprintf("%d", s.cfg.DensityDPI),
		pdfPath,
		"-resize", frame,
		"-background", s.cfg.Background,
		"-gravity", "center",
		"-extent", frame,
		outputPattern,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return rperrors.NewConversionError(enum.FailureTimeout,
			fmt.Sprintf("conversion exceeded %s and was terminated", s.cfg.ConversionTimeout()))
	}
	if err != nil {
		return classifyToolFailure(err, stderr.String())
	}

	return nil
}

// collectPages reads the generated images back in lexical order and numbers
// them 1-indexed per the outgoing filename convention.
func (s *ConverterService) collectPages(scratchDir string, pdf *models.PDFAttachment) ([]*models.RasterPage, *rperrors.ConversionError) {
	matches, err := filepath.Glob(filepath.Join(scratchDir, pdf.SanitizedName+"-*.png"))
	if err != nil {
		return nil, rperrors.NewConversionError(enum.FailureGeneric, err.Error())
	}
	if len(matches) == 0 {
		return nil, rperrors.NewConversionError(enum.FailureEmptyDocument,
			fmt.Sprintf("tool produced no pages for %s; the document may be empty", pdf.Filename))
	}

	sort.Strings(matches)

	pages := make([]*models.RasterPage, 0, len(matches))
	for idx, path := range matches {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, rperrors.NewConversionError(enum.FailureGeneric,
				fmt.Sprintf("failed to read page image %s: %v", filepath.Base(path), err))
		}

		pageNumber := idx + 1
		page := &models.RasterPage{
			Filename:   utils.PageFilename(pdf.SanitizedName, pageNumber),
			SourcePDF:  pdf.Filename,
			PageNumber: pageNumber,
			Content:    content,
			Width:      s.cfg.ResolutionWidth,
			Height:     s.cfg.ResolutionHeight,
			DensityDPI: s.cfg.DensityDPI,
		}
		// A zero-byte image means the tool wrote a file it could not render.
		if err := page.Validate(); err != nil {
			return nil, rperrors.NewConversionError(enum.FailureGeneric, err.Error())
		}
		pages = append(pages, page)
	}

	return pages, nil
}
