package consent

import (
	"bytes"
	"fmt"
	"image"

	"github.com/jung-kurt/gofpdf"
)

// BuildPDF renders the consent document: a header naming the signer and the
// signature image below it. Returns the PDF bytes.
func BuildPDF(clientName string, signature image.Image) ([]byte, error) {
	pngData, err := EncodePNG(signature)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Consentimiento firmado por: "+clientName)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(pngData))
	pdf.ImageOptions("signature", 10, 30, 100, 0, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering consent pdf: %w", err)
	}
	return buf.Bytes(), nil
}
