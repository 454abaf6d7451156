package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/hpungsan/healthyfy/internal/errors"
)

const (
	pageMargin  = 48.0
	lineHeight  = 14.0
	sectionGap  = 10.0
	breakBefore = 80.0
)

// PDFExporter renders a Document to an A4 PDF in the policy's exports dir.
type PDFExporter struct {
	Policy Policy
	Now    func() time.Time
}

func (e *PDFExporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// ExportPDF writes the document and returns the file path.
func (e *PDFExporter) ExportPDF(ctx context.Context, doc Document) (string, error) {
	dir, err := e.Policy.Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errors.NewInternal(fmt.Errorf("create exports dir: %w", err))
	}

	name := fmt.Sprintf("Healthyfy_%s_FinalSetup_%s.pdf",
		SanitizeForFilename(doc.Domain), e.now().UTC().Format("20060102-150405"))
	path := filepath.Join(dir, name)

	policy := e.Policy
	policy.ExportsDir = dir
	err = WriteFile(ctx, path, PDFExtensions, policy, func(w io.Writer) error {
		return Render(doc, w)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// Render lays out the document: header block, a rule, each section, then
// the disclaimer.
func Render(doc Document, w io.Writer) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	maxW := pageW - 2*pageMargin
	y := pageMargin

	ensure := func(room float64) {
		if y > pageH-pageMargin-room {
			pdf.AddPage()
			y = pageMargin
		}
	}
	wrapped := func(text string) {
		for _, line := range pdf.SplitText(tr(text), maxW) {
			ensure(lineHeight)
			pdf.Text(pageMargin, y, line)
			y += lineHeight
		}
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Text(pageMargin, y, tr("Healthyfy - Final Setup Export"))
	y += 22

	user := doc.User.Name
	if user == "" {
		user = "Unknown"
	}
	email := doc.User.Email
	if email == "" {
		email = "n/a"
	}
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range []string{
		"Domain: " + doc.Domain,
		fmt.Sprintf("User: %s (%s)", user, email),
		"Generated: " + doc.GeneratedAt,
	} {
		pdf.Text(pageMargin, y, tr(line))
		y += 16
	}
	y += 2

	pdf.SetDrawColor(226, 232, 240)
	pdf.Line(pageMargin, y, pageW-pageMargin, y)
	y += 18

	for _, s := range doc.Sections {
		ensure(breakBefore)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Text(pageMargin, y, tr(s.Title))
		y += 16

		pdf.SetFont("Helvetica", "", 11)
		for _, line := range s.Lines {
			wrapped(line)
		}
		y += sectionGap
	}

	ensure(breakBefore)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(pageMargin, y, "Disclaimer")
	y += 16
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range DisclaimerLines {
		wrapped(line)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}
