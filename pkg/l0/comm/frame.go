package comm

import (
	"bytes"
	"strings"
)

// Encode wraps payload into a frame.
func (m Markers) Encode(payload []byte) []byte {
	b := make([]byte, len(payload)+2)
	b[0], b[len(b)-1] = m.Start, m.End
	copy(b[1:], payload)
	return b
}

// EncodeFrames encodes payloads as frames joined by the separator,
// e.g. "<Up,1>;<Down,2>". There's no separator after the last frame.
func (m Markers) EncodeFrames(payloads ...string) string {
	var w bytes.Buffer
	for n, payload := range payloads {
		if n > 0 {
			w.WriteByte(m.Separator)
		}
		w.Write(m.Encode([]byte(payload)))
	}
	return w.String()
}

// SplitFrames is the reverse of EncodeFrames. Whitespace around each
// segment is ignored; the content of each frame is not validated beyond
// not containing marker bytes.
func (m Markers) SplitFrames(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyBatch
	}
	segments := strings.Split(text, string(m.Separator))
	payloads := make([]string, len(segments))
	for n, seg := range segments {
		seg = strings.TrimSpace(seg)
		if len(seg) < 2 || seg[0] != m.Start || seg[len(seg)-1] != m.End {
			return nil, &MalformedError{Segment: n, Text: seg}
		}
		payload := seg[1 : len(seg)-1]
		if strings.IndexByte(payload, m.Start) >= 0 || strings.IndexByte(payload, m.End) >= 0 {
			return nil, &MalformedError{Segment: n, Text: seg}
		}
		payloads[n] = payload
	}
	return payloads, nil
}
