package converter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasterpost/rasterpost/config"
	"github.com/rasterpost/rasterpost/internal/enum"
	rperrors "github.com/rasterpost/rasterpost/internal/errors"
	"github.com/rasterpost/rasterpost/internal/logger"
	"github.com/rasterpost/rasterpost/internal/models"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

// writeStubTool installs a shell script standing in for the conversion
// binary. The last argument it receives is the output pattern.
func writeStubTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "magick-stub")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func testConfig(binary string) *config.ConverterConfig {
	return &config.ConverterConfig{
		Binary:                   binary,
		ResolutionWidth:          1920,
		ResolutionHeight:         1080,
		DensityDPI:               300,
		Background:               "white",
		ConversionTimeoutSeconds: 5,
		MaxPDFSizeBytes:          1 << 20,
	}
}

func testPDF() *models.PDFAttachment {
	content := []byte("%PDF-1.7 stub")
	return &models.PDFAttachment{
		Filename:      "Quarterly Report.pdf",
		SanitizedName: "quarterly_report",
		Content:       content,
		Size:          len(content),
	}
}

func TestConvertProducesOrderedPages(t *testing.T) {
	// Arrange: a stub that renders three pages into the output pattern.
	stub := writeStubTool(t, `#!/bin/sh
for a in "$@"; do out="$a"; done
i=0
while [ $i -lt 3 ]; do
  printf 'PNGDATA-%d' $i > "$(printf "$out" $i)"
  i=$((i+1))
done
`)
	service := NewConverterService(testConfig(stub), getLogger())

	// Act
	pages, err := service.Convert(context.Background(), testPDF())

	// Assert
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, page := range pages {
		assert.Equal(t, i+1, page.PageNumber)
		assert.Equal(t, "Quarterly Report.pdf", page.SourcePDF)
		assert.Equal(t, 1920, page.Width)
		assert.Equal(t, 1080, page.Height)
		assert.Equal(t, 300, page.DensityDPI)
	}
	assert.Equal(t, "quarterly_report-001.png", pages[0].Filename)
	assert.Equal(t, "quarterly_report-002.png", pages[1].Filename)
	assert.Equal(t, "quarterly_report-003.png", pages[2].Filename)
	assert.Equal(t, []byte("PNGDATA-0"), pages[0].Content)
}

func TestConvertCleansUpScratchDirectory(t *testing.T) {
	stub := writeStubTool(t, `#!/bin/sh
for a in "$@"; do out="$a"; done
printf 'PNG' > "$(printf "$out" 0)"
`)
	service := NewConverterService(testConfig(stub), getLogger())
	before, _ := filepath.Glob(filepath.Join(os.TempDir(), "rasterpost-*"))

	_, err := service.Convert(context.Background(), testPDF())

	require.NoError(t, err)
	after, _ := filepath.Glob(filepath.Join(os.TempDir(), "rasterpost-*"))
	assert.Len(t, after, len(before))
}

func TestConvertClassifiesEmptyDocument(t *testing.T) {
	// The tool exits cleanly but renders nothing.
	stub := writeStubTool(t, "#!/bin/sh\nexit 0\n")
	service := NewConverterService(testConfig(stub), getLogger())

	pages, err := service.Convert(context.Background(), testPDF())

	assert.Nil(t, pages)
	convErr := rperrors.AsConversionError(err)
	assert.Equal(t, enum.FailureEmptyDocument, convErr.Kind)
}

func TestConvertClassifiesPasswordProtected(t *testing.T) {
	stub := writeStubTool(t, "#!/bin/sh\necho 'Error: pdf is encrypted' >&2\nexit 1\n")
	service := NewConverterService(testConfig(stub), getLogger())

	_, err := service.Convert(context.Background(), testPDF())

	convErr := rperrors.AsConversionError(err)
	assert.Equal(t, enum.FailurePasswordProtected, convErr.Kind)
}

func TestConvertTimesOut(t *testing.T) {
	stub := writeStubTool(t, "#!/bin/sh\nsleep 30\n")
	cfg := testConfig(stub)
	cfg.ConversionTimeoutSeconds = 1
	service := NewConverterService(cfg, getLogger())

	_, err := service.Convert(context.Background(), testPDF())

	convErr := rperrors.AsConversionError(err)
	assert.Equal(t, enum.FailureTimeout, convErr.Kind)
}

func TestConvertRejectsZeroBytePageImage(t *testing.T) {
	// The tool exits cleanly but leaves an empty output file behind.
	stub := writeStubTool(t, `#!/bin/sh
for a in "$@"; do out="$a"; done
: > "$(printf "$out" 0)"
`)
	service := NewConverterService(testConfig(stub), getLogger())

	pages, err := service.Convert(context.Background(), testPDF())

	assert.Nil(t, pages)
	convErr := rperrors.AsConversionError(err)
	assert.Equal(t, enum.FailureGeneric, convErr.Kind)
}

func TestConvertRejectsOversizeAttachment(t *testing.T) {
	stub := writeStubTool(t, "#!/bin/sh\nexit 0\n")
	cfg := testConfig(stub)
	cfg.MaxPDFSizeBytes = 4
	service := NewConverterService(cfg, getLogger())

	_, err := service.Convert(context.Background(), testPDF())

	convErr := rperrors.AsConversionError(err)
	assert.Equal(t, enum.FailureGeneric, convErr.Kind)
}
