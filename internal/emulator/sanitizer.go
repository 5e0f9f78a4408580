package emulator

import (
	"unicode/utf8"
)

// parserState tracks where the FSM is within an in-progress escape
// sequence. The FSM is total: every byte sequence, however malformed,
// drives a state transition and the parser never panics.
type parserState int

const (
	stateGround parserState = iota
	stateEscape
	stateCSI
	stateOSC
	stateOSCEsc
	stateDCS
	stateDCSEsc
	stateSS
)

const (
	escByte = 0x1B
	belByte = 0x07
	bsByte  = 0x08
	tabByte = 0x09
	lfByte  = 0x0A
	ffByte  = 0x0C
	crByte  = 0x0D
)

// CSISeq is a fully-parsed Control Sequence Introducer, handed to a Screen
// so cursor movement and erasure can be applied.
type CSISeq struct {
	Params []int
	Final  byte
}

// Sanitizer consumes a raw PTY byte stream and maintains a sanitized,
// escape-stripped plain-text transcript in parallel with a virtual screen
// grid. Both views are fed by the same parser state so cursor-affecting
// sequences update the screen while never appearing in the transcript.
type Sanitizer struct {
	text      []rune
	lineStart int // index into text where the current line begins
	col       int // offset from lineStart, in runes

	state parserState
	csi   []byte
	osc   []byte

	utf8Pending []byte

	screen *Screen
}

// New creates a Sanitizer backed by a Screen of the given dimensions.
func New(cols, rows int) *Sanitizer {
	return &Sanitizer{
		screen: NewScreen(cols, rows),
	}
}

// Screen returns the virtual screen grid maintained alongside the
// transcript.
func (s *Sanitizer) Screen() *Screen {
	return s.screen
}

// Feed processes a chunk of raw PTY bytes and returns the sanitized text
// produced by this call — the full current line (including any
// in-progress, not-yet-newline-terminated tail) so a caller scanning for a
// sentinel line sees it as soon as it is fully written.
func (s *Sanitizer) Feed(p []byte) string {
	start := s.lineStart
	for i := 0; i < len(p); i++ {
		b := p[i]
		switch s.state {
		case stateGround:
			s.feedGround(b)
		case stateEscape:
			s.feedEscape(b)
		case stateCSI:
			s.feedCSI(b)
		case stateOSC:
			s.feedOSC(b)
		case stateOSCEsc:
			s.feedOSCEsc(b)
		case stateDCS:
			s.feedDCS(b)
		case stateDCSEsc:
			s.feedDCSEsc(b)
		case stateSS:
			s.state = stateGround // SS2/SS3 consume exactly one byte, already consumed here
		default:
			s.state = stateGround
		}
	}
	return string(s.text[start:])
}

// Text returns the full sanitized transcript accumulated so far.
func (s *Sanitizer) Text() string {
	return string(s.text)
}

func (s *Sanitizer) feedGround(b byte) {
	if len(s.utf8Pending) > 0 && b < 0x80 {
		// An incomplete multi-byte sequence cut short by a single-byte
		// character is rendered as one replacement character.
		s.writeRune(utf8.RuneError)
		s.utf8Pending = s.utf8Pending[:0]
	}
	switch {
	case b == escByte:
		s.state = stateEscape
		s.csi = s.csi[:0]
		s.osc = s.osc[:0]
	case b == crByte:
		s.col = 0
	case b == lfByte:
		s.newline()
	case b == bsByte:
		s.backspace()
	case b == ffByte:
		s.screen.Clear()
	case b == belByte:
		// dropped
	case b == tabByte:
		s.writeRune('\t')
	case b < 0x20:
		// other C0 controls: dropped
	case b < 0x80:
		s.writeRune(rune(b))
	default:
		s.feedUTF8(b)
	}
}

// feedUTF8 accumulates a multi-byte UTF-8 sequence, emitting the decoded
// rune (or the replacement character on invalid input) once complete.
func (s *Sanitizer) feedUTF8(b byte) {
	s.utf8Pending = append(s.utf8Pending, b)

	r, size := utf8.DecodeRune(s.utf8Pending)
	if r == utf8.RuneError && size <= 1 {
		if len(s.utf8Pending) >= 4 {
			// Never accumulate past the max UTF-8 sequence length; emit a
			// replacement and resynchronize.
			s.writeRune(utf8.RuneError)
			s.utf8Pending = s.utf8Pending[:0]
			return
		}
		if !utf8.FullRune(s.utf8Pending) {
			return // wait for more bytes
		}
		s.writeRune(utf8.RuneError)
		s.utf8Pending = s.utf8Pending[:0]
		return
	}

	s.writeRune(r)
	s.utf8Pending = s.utf8Pending[:0]
}

func (s *Sanitizer) feedEscape(b byte) {
	switch b {
	case '[':
		s.state = stateCSI
		s.csi = s.csi[:0]
	case ']':
		s.state = stateOSC
		s.osc = s.osc[:0]
	case 'P':
		s.state = stateDCS
	case 'N', 'O':
		s.state = stateSS
	default:
		if b >= 0x20 && b <= 0x2F {
			// Intermediate byte (e.g. charset designation): stay in a
			// single-shot escape until a final byte arrives.
			s.state = stateEscape
			return
		}
		// Single-byte escape (ESC =, ESC >, ESC 7, ...): fully consumed.
		s.state = stateGround
	}
}

func (s *Sanitizer) feedCSI(b byte) {
	if b >= 0x40 && b <= 0x7E {
		seq := parseCSI(s.csi, b)
		s.screen.ApplyCSI(seq)
		s.state = stateGround
		return
	}
	s.csi = append(s.csi, b)
}

func (s *Sanitizer) feedOSC(b byte) {
	switch b {
	case belByte:
		s.state = stateGround
	case escByte:
		s.state = stateOSCEsc
	default:
		s.osc = append(s.osc, b)
	}
}

func (s *Sanitizer) feedOSCEsc(b byte) {
	// Expect ST ('\\'); any other byte is tolerated and treated as the
	// terminator too, since the parser must never stall forever.
	s.state = stateGround
	_ = b
}

func (s *Sanitizer) feedDCS(b byte) {
	if b == escByte {
		s.state = stateDCSEsc
	}
}

func (s *Sanitizer) feedDCSEsc(b byte) {
	s.state = stateGround
	_ = b
}

// writeRune overwrites the current column of the in-progress line if it
// already has content there, or appends otherwise, then advances the
// column — mirroring a real terminal's cursor-advance-on-write behavior.
func (s *Sanitizer) writeRune(r rune) {
	idx := s.lineStart + s.col
	switch {
	case idx < len(s.text):
		s.text[idx] = r
	case idx == len(s.text):
		s.text = append(s.text, r)
	default:
		for len(s.text) < idx {
			s.text = append(s.text, ' ')
		}
		s.text = append(s.text, r)
	}
	s.col++
	s.screen.Write(r)
}

func (s *Sanitizer) newline() {
	s.text = append(s.text, '\n')
	s.lineStart = len(s.text)
	s.col = 0
	s.screen.Newline()
}

func (s *Sanitizer) backspace() {
	idx := s.lineStart + s.col - 1
	if s.col <= 0 || idx >= len(s.text) {
		if s.col > 0 {
			s.col--
		}
		return
	}
	s.text = append(s.text[:idx], s.text[idx+1:]...)
	s.col--
	s.screen.Backspace()
}

// parseCSI splits the accumulated CSI parameter bytes (everything between
// "ESC [" and the final byte) into integer parameters, defaulting omitted
// or malformed fields to 0 rather than failing.
func parseCSI(params []byte, final byte) CSISeq {
	seq := CSISeq{Final: final}
	if len(params) == 0 {
		return seq
	}
	n := 0
	have := false
	for _, b := range params {
		switch {
		case b >= '0' && b <= '9':
			n = n*10 + int(b-'0')
			have = true
		case b == ';':
			seq.Params = append(seq.Params, n)
			n, have = 0, false
		default:
			// Private-mode prefixes ('?') and other intermediates are
			// ignored rather than rejected.
		}
	}
	if have || len(seq.Params) == 0 {
		seq.Params = append(seq.Params, n)
	}
	return seq
}
