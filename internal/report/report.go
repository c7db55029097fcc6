// Package report lays out an inspection as a paginated A4 PDF.
//
// Layout is a single pass over the inspection in a fixed order: header,
// meters, keys, rooms, notes, signatures. A final pass stamps "Page i of n"
// on every page once the total is known.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/vbonduro/vistoria/internal/domain"
)

const (
	margin       = 15.0
	defaultBrand = "Vistoria"
)

type Options struct {
	// Brand is printed in the subtitle and the page footer.
	Brand            string
	InspectorName    string
	InspectorLicense string
	// Uncompressed disables stream compression so the output can be
	// searched as text.
	Uncompressed bool
}

type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.Brand == "" {
		opts.Brand = defaultBrand
	}
	return &Renderer{opts: opts}
}

// Result describes a rendered document.
type Result struct {
	Pages         int
	SkippedImages int
}

// Render lays out ins and writes the PDF to w.
func (r *Renderer) Render(ins *domain.Inspection, w io.Writer) (*Result, error) {
	d := newDocument(r.opts)
	d.layout(ins)
	res := &Result{Pages: d.pdf.PageCount(), SkippedImages: d.skipped}
	if err := d.pdf.Output(w); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return res, nil
}

// Bytes renders ins into memory, for uploading.
func (r *Renderer) Bytes(ins *domain.Inspection) ([]byte, *Result, error) {
	var buf bytes.Buffer
	res, err := r.Render(ins, &buf)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), res, nil
}

// WriteFile renders ins into dir under Filename(ins) and returns the path.
func (r *Renderer) WriteFile(ins *domain.Inspection, dir string) (string, *Result, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, Filename(ins))
	f, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create report file: %w", err)
	}
	res, err := r.Render(ins, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close report file: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	return path, res, nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func sanitize(s string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

// Filename derives the report file name from the inspection type and the
// first word after the first space of the address.
func Filename(ins *domain.Inspection) string {
	addr := strings.TrimSpace(ins.Address)
	fragment := addr
	if i := strings.IndexByte(addr, ' '); i >= 0 {
		fragment = ""
		if fields := strings.Fields(addr[i+1:]); len(fields) > 0 {
			fragment = fields[0]
		}
	}

	typ := sanitize(string(ins.Type))
	if typ == "" {
		typ = "inspection"
	}
	frag := sanitize(fragment)
	if frag == "" {
		frag = "property"
	}
	return typ + "_" + frag + ".pdf"
}

// document is the state of one layout pass.
type document struct {
	pdf   *fpdf.Fpdf
	cur   *Cursor
	tr    func(string) string
	opts  Options
	pageW float64
	pageH float64

	// embed places an image; replaced in tests to observe grid placement.
	embed   func(data []byte, x, y, w, h float64) bool
	images  int
	skipped int
}

func newDocument(opts Options) *document {
	if opts.Brand == "" {
		opts.Brand = defaultBrand
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!opts.Uncompressed)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetTitle("Property Inspection Report", true)
	pdf.SetCreator(opts.Brand, true)
	pdf.AddPage()

	w, h := pdf.GetPageSize()
	d := &document{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		opts:  opts,
		pageW: w,
		pageH: h,
	}
	d.cur = NewCursor(margin, h-margin, pdf.AddPage)
	d.embed = d.embedImage
	return d
}

func (d *document) layout(ins *domain.Inspection) {
	d.header(ins)
	d.meters(ins.Meters)
	d.keys(ins.Keys)
	d.rooms(ins.Rooms)
	d.notes(ins.Notes)
	d.signatures(ins)
	d.stampPages()
}

// stampPages writes the footer on every page. It runs last because the page
// count is only known once layout is done.
func (d *document) stampPages() {
	n := d.pdf.PageCount()
	for i := 1; i <= n; i++ {
		d.pdf.SetPage(i)
		d.font("", 8)
		d.pdf.SetTextColor(150, 150, 150)
		d.centerText(d.pageH-10, fmt.Sprintf("Page %d of %d - %s", i, n, d.opts.Brand))
	}
}

func (d *document) font(style string, size float64) {
	d.pdf.SetFont("Helvetica", style, size)
}

func (d *document) text(x, y float64, s string) {
	d.pdf.Text(x, y, d.tr(s))
}

func (d *document) width(s string) float64 {
	return d.pdf.GetStringWidth(d.tr(s))
}

func (d *document) centerText(y float64, s string) {
	d.text((d.pageW-d.width(s))/2, y, s)
}

func (d *document) contentWidth() float64 {
	return d.pageW - 2*margin
}

// fit shortens s with an ellipsis until it fits in w.
func (d *document) fit(s string, w float64) string {
	if d.width(s) <= w {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && d.width(string(r)+"...") > w {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// wrap breaks txt into lines no wider than w in the current font. Explicit
// newlines are kept. A word wider than w is split across lines.
func (d *document) wrap(txt string, w float64) []string {
	var lines []string
	for _, para := range strings.Split(txt, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			if d.width(word) > w {
				if line != "" {
					lines = append(lines, line)
				}
				pieces := d.split(word, w)
				lines = append(lines, pieces[:len(pieces)-1]...)
				line = pieces[len(pieces)-1]
				continue
			}
			if line == "" {
				line = word
				continue
			}
			candidate := line + " " + word
			if d.width(candidate) > w {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}

// split cuts word into runs of runes no wider than w. Every run holds at
// least one rune.
func (d *document) split(word string, w float64) []string {
	var out []string
	r := []rune(word)
	for len(r) > 0 {
		n := 1
		for n < len(r) && d.width(string(r[:n+1])) <= w {
			n++
		}
		out = append(out, string(r[:n]))
		r = r[n:]
	}
	return out
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
