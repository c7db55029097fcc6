package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/vbonduro/vistoria/internal/imaging"
)

// embedImage draws data at the given box. It is best-effort: undecodable
// data or a failed registration leaves the box blank and returns false
// without poisoning the document's error state.
func (d *document) embedImage(data []byte, x, y, w, h float64) bool {
	norm, err := imaging.Normalize(data)
	if err != nil {
		d.skipped++
		return false
	}

	d.images++
	name := fmt.Sprintf("img%d", d.images)
	opts := fpdf.ImageOptions{ImageType: "JPG"}

	info := d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(norm.Data))
	if info == nil || d.pdf.Err() {
		d.pdf.ClearError()
		d.skipped++
		return false
	}

	d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	if d.pdf.Err() {
		d.pdf.ClearError()
		d.skipped++
		return false
	}
	return true
}
