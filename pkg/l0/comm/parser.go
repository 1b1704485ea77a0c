package comm

// Markers defines the framing bytes.
type Markers struct {
	Start     byte
	End       byte
	Separator byte
}

// DefaultMarkers are the markers understood by the array firmware.
var DefaultMarkers = Markers{
	Start:     '<',
	End:       '>',
	Separator: ';',
}

// IsMarker tells if b is one of the framing bytes inside a frame.
func (m Markers) IsMarker(b byte) bool {
	return b == m.Start || b == m.End
}

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	// Receiving is true when a frame is open.
	Receiving bool
	// Frame is the payload of a completed frame.
	Frame []byte
}

type parseState int

const (
	stateIdle  parseState = iota // waiting for start marker, everything else dropped
	stateFrame                   // inside a frame, waiting for end marker
)

// Parser extracts frames from bytes received.
type Parser struct {
	Markers Markers

	state parseState
	buf   []byte
}

// NewParser creates a Parser.
func NewParser(m Markers) *Parser {
	return &Parser{Markers: m}
}

// Receiving indicates if it's in the middle of a frame.
func (p *Parser) Receiving() bool {
	return p.state == stateFrame
}

// Reset drops the partial frame, if any.
func (p *Parser) Reset() {
	p.state, p.buf = stateIdle, nil
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateIdle:
		if b == p.Markers.Start {
			p.state, p.buf = stateFrame, make([]byte, 0, 32)
		}
	case stateFrame:
		switch b {
		case p.Markers.Start:
			// a start marker inside an open frame is dropped.
		case p.Markers.End:
			pr.Frame, p.buf = p.buf, nil
			p.state = stateIdle
		default:
			p.buf = append(p.buf, b)
		}
	}
	pr.Receiving = p.Receiving()
	return
}
