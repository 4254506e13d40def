// Package extract pulls plain text out of uploaded documents.
package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"creatorhub/services/creation-api/internal/utils/platformerrors"
)

// PDFExtractor extracts the text layer of a PDF document. Scanned PDFs
// without a text layer yield an empty string, which the caller treats as
// a non-retryable input problem.
type PDFExtractor struct {
	log zerolog.Logger
}

func NewPDFExtractor(log zerolog.Logger) *PDFExtractor {
	return &PDFExtractor{log: log.With().Str("component", "pdf-extractor").Logger()}
}

func (e *PDFExtractor) ExtractText(ctx context.Context, document []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeValidation,
			"could not parse the uploaded PDF", err,
			"2e4a6c8d-0f31-4755-b92e-4a6c8d0f2b87")
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not invalidate the others.
			e.log.Debug().Int("page", i).Err(err).Msg("skipping unreadable page")
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
