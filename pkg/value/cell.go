package value

import "sync"

// Responder is the input element currently receiving edits, e.g. a text field.
type Responder interface {
	// ResignFocus ends editing. It returns false if the responder refused.
	ResignFocus() bool
}

// ListView is the list hosting the value cells.
type ListView interface {
	// ReloadData redraws every cell.
	ReloadData()
}

// CellDelegate is implemented by whatever owns a value cell. Cells use it to
// find the active responder, parse edits and commit new values.
type CellDelegate interface {
	CurrentResponder() Responder
	SetCurrentResponder(r Responder)
	Coordinator() *Coordinator
	ListView() ListView

	// DidUpdateValue commits an edited value into the tweak it belongs to.
	DidUpdateValue(v Value)
}

// Cell presents one value.
type Cell interface {
	DescribeValue(v Value)
	SetDelegate(d CellDelegate)
}

// TextCell is a headless Cell editing a value as text.
type TextCell struct {
	mu       sync.Mutex
	kind     Kind
	text     string
	delegate CellDelegate
}

var _ Cell = (*TextCell)(nil)

// DescribeValue binds the cell to v.
func (c *TextCell) DescribeValue(v Value) {
	if v == nil {
		v = Nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kind = v.Kind()
	c.text = v.Describe()
}

// SetDelegate sets the cell's delegate.
func (c *TextCell) SetDelegate(d CellDelegate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delegate = d
}

// Text returns the text currently shown.
func (c *TextCell) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Commit parses text with the delegate's coordinator as the cell's current
// kind and reports the result through DidUpdateValue. The cell keeps its
// previous text when parsing fails.
func (c *TextCell) Commit(text string) error {
	c.mu.Lock()
	d, kind := c.delegate, c.kind
	c.mu.Unlock()

	if d == nil {
		return nil
	}

	v, err := d.Coordinator().Parse(kind, text)
	if err != nil {
		return err
	}

	c.DescribeValue(v)
	d.DidUpdateValue(v)
	return nil
}
