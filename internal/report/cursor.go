package report

// Cursor tracks the vertical write position on the current page.
type Cursor struct {
	Y     float64
	Top   float64
	Limit float64

	newPage func()
}

// NewCursor returns a cursor positioned at top. newPage is called whenever
// Ensure needs a fresh page.
func NewCursor(top, limit float64, newPage func()) *Cursor {
	return &Cursor{Y: top, Top: top, Limit: limit, newPage: newPage}
}

// Ensure starts a new page when height does not fit below Y, and reports
// whether it did.
func (c *Cursor) Ensure(height float64) bool {
	if c.Y+height <= c.Limit {
		return false
	}
	if c.newPage != nil {
		c.newPage()
	}
	c.Y = c.Top
	return true
}

func (c *Cursor) Advance(dy float64) {
	c.Y += dy
}

// Remaining is the space left below Y on the current page.
func (c *Cursor) Remaining() float64 {
	return c.Limit - c.Y
}
