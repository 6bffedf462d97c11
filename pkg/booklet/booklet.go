// Package booklet renders a paid journey as a printable PDF with a QR code
// of its reveal link, and share links as QR codes for the terminal.
package booklet

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/unowned-ai/giftjourney/pkg/journeys"
)

const qrImageName = "reveal-qr"

// Write renders j as an A4 booklet: a title page with a QR code of
// shareURL, then one section per stop in display order.
func Write(w io.Writer, j journeys.Journey, shareURL string) error {
	if !j.Paid || strings.TrimSpace(shareURL) == "" {
		return journeys.ErrNotShareable
	}

	qrPNG, err := qrcode.Encode(shareURL, qrcode.Medium, 512)
	if err != nil {
		return fmt.Errorf("failed to encode reveal link as QR: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(j.Title), false)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 24)
	pdf.MultiCell(0, 12, tr(j.Title), "", "C", false)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "Scan to open your gift journey", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(qrImageName, imageOpts, bytes.NewReader(qrPNG))
	pageW, _ := pdf.GetPageSize()
	const qrSize = 80.0
	pdf.ImageOptions(qrImageName, (pageW-qrSize)/2, pdf.GetY(), qrSize, qrSize, true, imageOpts, 0, shareURL)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "U", 10)
	pdf.SetTextColor(30, 80, 200)
	pdf.CellFormat(0, 6, tr(shareURL), "", 1, "C", false, 0, shareURL)
	pdf.SetTextColor(0, 0, 0)

	stops := journeys.SortStops(j.Stops)
	for i, s := range stops {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("Stop %d of %d", i+1, len(stops)), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 10, tr(s.Title), "", "L", false)
		pdf.Ln(2)

		if s.Note != "" {
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(0, 6, tr(s.Note), "", "L", false)
			pdf.Ln(2)
		}

		pdf.SetFont("Helvetica", "I", 10)
		switch m := journeys.MediaOf(s); m.Kind {
		case journeys.MediaImage:
			pdf.CellFormat(0, 6, tr("Image: "+m.Source), "", 1, "L", false, 0, m.Source)
		case journeys.MediaIcon:
			pdf.CellFormat(0, 6, tr("Icon: "+m.Source), "", 1, "L", false, 0, "")
		}

		if s.ExternalURL != "" {
			pdf.SetFont("Helvetica", "U", 11)
			pdf.SetTextColor(30, 80, 200)
			pdf.CellFormat(0, 7, "Learn more", "", 1, "L", false, 0, s.ExternalURL)
			pdf.SetTextColor(0, 0, 0)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write booklet: %w", err)
	}
	return nil
}

// TerminalQR renders text as a QR code drawn with half-block characters,
// two modules per character row, light modules filled so it scans on a
// dark terminal.
func TerminalQR(text string) (string, error) {
	q, err := qrcode.New(text, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR: %w", err)
	}
	bitmap := q.Bitmap()

	var sb strings.Builder
	for y := 0; y < len(bitmap); y += 2 {
		for x := range bitmap[y] {
			top := !bitmap[y][x]
			bottom := y+1 < len(bitmap) && !bitmap[y+1][x]
			switch {
			case top && bottom:
				sb.WriteString("█")
			case top:
				sb.WriteString("▀")
			case bottom:
				sb.WriteString("▄")
			default:
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
