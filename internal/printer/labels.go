// Package printer renders printable barcode label sheets for parts and nest
// sheets. Labels carry the plain entity id; the scan engine classifies them
// by membership in the loaded work order.
package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// Label is one printed sticker: the QR payload plus a human-readable caption.
type Label struct {
	Barcode string
	Caption string
}

// LayoutConfig positions labels on an A4 sheet.
type LayoutConfig struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// DefaultLayout is a 3x8 sticker sheet.
func DefaultLayout() LayoutConfig {
	return LayoutConfig{Cols: 3, Rows: 8, MarginTop: 10, MarginLeft: 7, GapX: 3, GapY: 3}
}

// GenerateLabelsPDF renders the labels onto A4 pages.
func GenerateLabelsPDF(labels []Label, cfg LayoutConfig) ([]byte, error) {
	if cfg.Cols < 1 || cfg.Rows < 1 {
		return nil, fmt.Errorf("invalid layout: %dx%d", cfg.Cols, cfg.Rows)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY
	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)
	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)

	labelsPerPage := cfg.Cols * cfg.Rows

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols

		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		qrPng, err := qrcode.Encode(label.Barcode, qrcode.Low, 256)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", label.Barcode, err)
		}

		imgName := fmt.Sprintf("qr_%d", i)
		imgOptions := gofpdf.ImageOptions{
			ImageType: "PNG",
			ReadDpi:   true,
		}
		reader := bytes.NewReader(qrPng)
		_ = pdf.RegisterImageOptionsReader(imgName, imgOptions, reader)

		qrSize := labelH * 0.7
		if qrSize > labelW {
			qrSize = labelW * 0.9
		}
		qrX := x + (labelW-qrSize)/2
		qrY := y + (labelH-qrSize)/2 - 2

		pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, imgOptions, 0, "")

		pdf.SetXY(x, y+labelH-6)
		pdf.SetFontSize(8)
		pdf.CellFormat(labelW, 5, label.Barcode, "", 0, "C", false, 0, "")

		pdf.SetXY(x, y+1)
		pdf.SetFontSize(6)
		pdf.CellFormat(labelW, 3, label.Caption, "", 0, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
