package report

import (
	"fmt"
	"strings"

	"github.com/vbonduro/vistoria/internal/domain"
)

const (
	infoPanelHeight = 35.0
	infoLineHeight  = 7.0

	meterPhotoSize = 40.0

	photoCell    = 45.0
	photoGap     = 5.0
	photoColumns = 3

	descLineHeight = 5.0

	signatureBlockHeight = 55.0
	signatureImageW      = 50.0
	signatureImageH      = 20.0
)

func (d *document) header(ins *domain.Inspection) {
	d.font("B", 22)
	d.pdf.SetTextColor(40, 40, 40)
	d.centerText(d.cur.Y, "Property Inspection Report")
	d.cur.Advance(10)

	d.font("", 10)
	d.pdf.SetTextColor(100, 100, 100)
	d.centerText(d.cur.Y, "Generated by "+d.opts.Brand)
	d.cur.Advance(15)

	top := d.cur.Y
	d.pdf.SetDrawColor(200, 200, 200)
	d.pdf.SetFillColor(245, 245, 245)
	d.pdf.Rect(margin, top, d.contentWidth(), infoPanelHeight, "FD")

	col1 := margin + 5
	col2 := d.pageW/2 + 5
	valueW := d.pageW/2 - margin - 30

	date := "-"
	if !ins.ScheduledAt.IsZero() {
		date = ins.ScheduledAt.Format("02 Jan 2006 15:04")
	}
	shortID := ins.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	d.pdf.SetTextColor(0, 0, 0)
	left := [][2]string{
		{"Property:", ins.Address},
		{"Client:", ins.ClientName},
		{"Type:", strings.ToUpper(strings.ReplaceAll(string(ins.Type), "_", " "))},
	}
	right := [][2]string{
		{"Date:", date},
		{"Email:", ins.ClientEmail},
		{"ID:", shortID},
	}
	for i, kv := range left {
		d.infoRow(col1, top+8+float64(i)*infoLineHeight, valueW, kv[0], kv[1])
	}
	for i, kv := range right {
		d.infoRow(col2, top+8+float64(i)*infoLineHeight, valueW, kv[0], kv[1])
	}

	d.cur.Advance(infoPanelHeight + 10)
}

func (d *document) infoRow(x, y, valueW float64, label, value string) {
	d.font("B", 10)
	d.text(x, y, label)
	d.font("", 10)
	d.text(x+20, y, d.fit(orDash(value), valueW))
}

func (d *document) heading(title string, size float64) {
	d.font("B", size)
	d.pdf.SetTextColor(0, 0, 0)
	d.text(margin, d.cur.Y, title)
	d.cur.Advance(8)
}

func (d *document) meters(meters []domain.MeterReading) {
	d.cur.Ensure(20)
	d.heading("Meter Readings", 14)
	d.font("", 10)

	if len(meters) == 0 {
		d.text(margin+5, d.cur.Y, "- No readings recorded.")
		d.cur.Advance(8)
	}
	for _, m := range meters {
		d.cur.Ensure(6)
		d.font("", 10)
		d.text(margin+5, d.cur.Y, fmt.Sprintf("• %s: %s", m.Kind.Label(), orDash(m.Value)))
		d.cur.Advance(6)

		if m.Photo == nil {
			continue
		}
		d.cur.Ensure(meterPhotoSize + 10)
		if d.embed(m.Photo.Data, margin+10, d.cur.Y, meterPhotoSize, meterPhotoSize) {
			d.cur.Advance(meterPhotoSize + 5)
		}
	}
	d.cur.Advance(5)
}

func (d *document) keys(keys []domain.KeySet) {
	d.cur.Ensure(30)
	d.heading("Keys Handed Over", 14)
	d.font("", 10)

	if len(keys) == 0 {
		d.text(margin+5, d.cur.Y, "- No keys recorded.")
		d.cur.Advance(8)
	}
	for _, k := range keys {
		d.cur.Ensure(10)
		line := fmt.Sprintf("• %s (%d pcs) - Location: %s", orDash(k.Description), k.Quantity, k.Location.Label())
		d.text(margin+5, d.cur.Y, d.fit(line, d.contentWidth()-5))
		d.cur.Advance(6)
	}
	d.cur.Advance(10)
}

func (d *document) rooms(rooms []domain.Room) {
	d.cur.Ensure(20)
	d.pdf.SetDrawColor(0, 0, 0)
	d.pdf.Line(margin, d.cur.Y, d.pageW-margin, d.cur.Y)
	d.cur.Advance(10)
	d.font("B", 16)
	d.pdf.SetTextColor(0, 0, 0)
	d.text(margin, d.cur.Y, "Room-by-Room Details")
	d.cur.Advance(15)

	if len(rooms) == 0 {
		d.font("I", 10)
		d.text(margin, d.cur.Y, "No rooms inspected.")
		d.cur.Advance(10)
		return
	}

	for i, room := range rooms {
		d.roomBanner(i+1, room.Name)

		if len(room.Items) == 0 {
			d.font("I", 10)
			d.text(margin+5, d.cur.Y, "No items added to this room.")
			d.cur.Advance(10)
		}
		for _, item := range room.Items {
			d.item(item)
		}
		d.cur.Advance(10)
	}
}

func (d *document) roomBanner(n int, name string) {
	d.cur.Ensure(40)
	d.pdf.SetFillColor(230, 230, 230)
	d.pdf.Rect(margin, d.cur.Y, d.contentWidth(), 10, "F")
	d.font("B", 12)
	d.pdf.SetTextColor(0, 0, 0)
	d.text(margin+5, d.cur.Y+7, d.fit(fmt.Sprintf("%d. %s", n, name), d.contentWidth()-10))
	d.cur.Advance(15)
}

func (d *document) item(item domain.Item) {
	d.cur.Ensure(30)

	d.font("B", 11)
	d.pdf.SetTextColor(0, 0, 0)
	tag := fmt.Sprintf("[ %s ]", strings.ToUpper(item.Condition.Label()))
	tagW := d.width(tag)
	d.text(margin+5, d.cur.Y, d.fit("• "+item.Name, d.contentWidth()-tagW-10))

	switch item.Condition.Tone() {
	case domain.ToneFavorable:
		d.pdf.SetTextColor(0, 100, 0)
	case domain.ToneFair:
		d.pdf.SetTextColor(200, 140, 0)
	default:
		d.pdf.SetTextColor(200, 0, 0)
	}
	d.text(d.pageW-margin-tagW, d.cur.Y, tag)
	d.pdf.SetTextColor(0, 0, 0)
	d.cur.Advance(6)

	if desc := strings.TrimSpace(item.Description); desc != "" {
		d.description(desc)
	}

	if len(item.Photos) > 0 {
		d.cur.Advance(2)
		d.photoGrid(item.Photos)
	}
	d.cur.Advance(5)

	d.pdf.SetDrawColor(240, 240, 240)
	d.pdf.Line(margin+5, d.cur.Y-2, d.pageW-margin, d.cur.Y-2)
	d.cur.Advance(4)
}

func (d *document) description(desc string) {
	d.font("", 10)
	lines := d.wrap(desc, d.contentWidth()-10)
	total := float64(len(lines)) * descLineHeight
	if total <= d.cur.Limit-d.cur.Top {
		d.cur.Ensure(total)
	}
	for _, line := range lines {
		if d.cur.Ensure(descLineHeight) {
			d.font("", 10)
		}
		d.text(margin+10, d.cur.Y, line)
		d.cur.Advance(descLineHeight)
	}
	d.cur.Advance(2)
}

// photoGrid lays photos out in rows of photoColumns cells. The page-break
// check runs before each row so a row is never split across pages. It
// returns the number of rows emitted.
func (d *document) photoGrid(photos []domain.Photo) int {
	rows := 0
	for start := 0; start < len(photos); start += photoColumns {
		end := min(start+photoColumns, len(photos))
		d.cur.Ensure(photoCell + photoGap)

		for col, p := range photos[start:end] {
			x := margin + 10 + float64(col)*(photoCell+photoGap)
			d.embed(p.Data, x, d.cur.Y, photoCell, photoCell)
			d.pdf.SetDrawColor(200, 200, 200)
			d.pdf.Rect(x, d.cur.Y, photoCell, photoCell, "D")
		}
		d.cur.Advance(photoCell + photoGap)
		rows++
	}
	return rows
}

func (d *document) notes(notes string) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return
	}
	d.cur.Ensure(25)
	d.heading("Notes", 14)
	d.description(notes)
	d.cur.Advance(5)
}

func (d *document) signatures(ins *domain.Inspection) {
	d.cur.Ensure(signatureBlockHeight)
	d.cur.Advance(10)

	lineW := (d.contentWidth() - 20) / 2
	leftX := margin
	rightX := margin + lineW + 20

	if len(ins.Signature) > 0 {
		d.embed(ins.Signature, rightX+(lineW-signatureImageW)/2, d.cur.Y, signatureImageW, signatureImageH)
	}
	d.cur.Advance(signatureImageH + 2)

	d.pdf.SetDrawColor(0, 0, 0)
	d.pdf.Line(leftX, d.cur.Y, leftX+lineW, d.cur.Y)
	d.pdf.Line(rightX, d.cur.Y, rightX+lineW, d.cur.Y)
	d.cur.Advance(5)

	d.font("B", 10)
	d.pdf.SetTextColor(0, 0, 0)
	d.centerIn(leftX, lineW, d.fit(orDash(d.opts.InspectorName), lineW))
	d.centerIn(rightX, lineW, d.fit(orDash(ins.ClientName), lineW))
	d.cur.Advance(5)

	inspectorRole := "Inspector"
	if d.opts.InspectorLicense != "" {
		inspectorRole += " - License " + d.opts.InspectorLicense
	}
	d.font("", 9)
	d.pdf.SetTextColor(100, 100, 100)
	d.centerIn(leftX, lineW, inspectorRole)
	d.centerIn(rightX, lineW, "Client")
	d.cur.Advance(10)
}

func (d *document) centerIn(x, w float64, s string) {
	d.text(x+(w-d.width(s))/2, d.cur.Y, s)
}
