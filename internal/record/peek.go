package record

// Peekable wraps a Stream with one row of lookahead.
type Peekable struct {
	src    Stream
	peeked bool
	row    Row
	err    error
}

// NewPeekable returns a Peekable reading from src.
func NewPeekable(src Stream) *Peekable { return &Peekable{src: src} }

// Peek returns the next row without consuming it. Repeated calls return the
// same row (or error) until Next is called.
func (p *Peekable) Peek() (Row, error) {
	if !p.peeked {
		p.row, p.err = p.src.Next()
		p.peeked = true
	}
	return p.row, p.err
}

// Next returns the peeked row if there is one, otherwise reads from src.
func (p *Peekable) Next() (Row, error) {
	if p.peeked {
		p.peeked = false
		r, err := p.row, p.err
		p.row, p.err = nil, nil
		return r, err
	}
	return p.src.Next()
}
