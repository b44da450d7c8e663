package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/umx-campus/accesogo/internal/models"
)

// Badge sheet layout: 2x4 badges per A4 page, QR of the leg tag plus the
// visitor's name and the session code.
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	cols       = 2
	rows       = 4
	marginTop  = 12.0
	marginLeft = 10.0
	gapX       = 6.0
	gapY       = 6.0
)

// GenerateBadgesPDF renders one badge per visitor leg of a session.
func GenerateBadgesPDF(reg *models.Registro, footer string) ([]byte, error) {
	if len(reg.Visitantes) == 0 {
		return nil, fmt.Errorf("session %s has no legs to print", reg.Codigo)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	availW := pageWidth - (marginLeft * 2)
	availH := pageHeight - (marginTop * 2)
	labelW := (availW - float64(cols-1)*gapX) / float64(cols)
	labelH := (availH - float64(rows-1)*gapY) / float64(rows)
	perPage := cols * rows

	for i, leg := range reg.Visitantes {
		if i%perPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % perPage
		col := indexOnPage % cols
		row := indexOnPage / cols
		x := marginLeft + float64(col)*(labelW+gapX)
		y := marginTop + float64(row)*(labelH+gapY)

		// The QR carries the tag; the gate scanner resolves it back to
		// the leg.
		qrPng, err := qrcode.Encode(leg.Tag, qrcode.Medium, 256)
		if err != nil {
			return nil, err
		}

		imgName := fmt.Sprintf("qr_%d", i)
		imgOptions := gofpdf.ImageOptions{
			ImageType: "PNG",
			ReadDpi:   true,
		}
		reader := bytes.NewReader(qrPng)
		_ = pdf.RegisterImageOptionsReader(imgName, imgOptions, reader)

		qrSize := labelH * 0.55
		if qrSize > labelW {
			qrSize = labelW * 0.9
		}
		qrX := x + (labelW-qrSize)/2
		qrY := y + 6

		pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, imgOptions, 0, "")

		// Session code top left, kind top right
		pdf.SetXY(x, y+1)
		pdf.SetFontSize(8)
		pdf.CellFormat(labelW/2, 4, reg.Codigo, "", 0, "L", false, 0, "")
		pdf.CellFormat(labelW/2, 4, string(reg.Kind), "", 0, "R", false, 0, "")

		// Tag below the QR
		pdf.SetXY(x, qrY+qrSize+1)
		pdf.SetFontSize(10)
		pdf.CellFormat(labelW, 5, leg.Tag, "", 0, "C", false, 0, "")

		// Visitor name, when preloaded
		if leg.Visitante != nil {
			pdf.SetXY(x, qrY+qrSize+6)
			pdf.SetFontSize(8)
			pdf.CellFormat(labelW, 4, leg.Visitante.Nombre, "", 0, "C", false, 0, "")
		}

		pdf.SetXY(x, y+labelH-5)
		pdf.SetFontSize(6)
		pdf.CellFormat(labelW, 3, footer, "", 0, "C", false, 0, "")

		// Cutting guide
		pdf.Rect(x, y, labelW, labelH, "D")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
