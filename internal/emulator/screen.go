package emulator

// Screen is a virtual width×height grid of character cells maintained in
// parallel with the sanitized text transcript. It supports the cursor
// movement, line erasure, and scroll-up behaviors a conforming subset of a
// terminal emulator needs (spec §4.2, §9) — enough for the Execution
// Engine's prompt-appearance heuristics, not a full VT100 implementation.
type Screen struct {
	cols, rows int
	grid       [][]rune
	cursorRow  int
	cursorCol  int
	scroll     *scrollback
}

// NewScreen creates a Screen of the given dimensions, defaulting to 80x24
// when either dimension is non-positive.
func NewScreen(cols, rows int) *Screen {
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}
	s := &Screen{cols: cols, rows: rows, scroll: newScrollback(defaultScrollbackCap)}
	s.grid = make([][]rune, rows)
	for i := range s.grid {
		s.grid[i] = blankRow(cols)
	}
	return s
}

// Scrollback returns the rows that have scrolled off the top of the grid,
// oldest first, bounded to the screen's retained scrollback capacity.
func (s *Screen) Scrollback() [][]rune {
	return s.scroll.lines()
}

func blankRow(cols int) []rune {
	row := make([]rune, cols)
	for i := range row {
		row[i] = ' '
	}
	return row
}

// Size reports the screen's dimensions.
func (s *Screen) Size() (cols, rows int) { return s.cols, s.rows }

// Cursor reports the current cursor position (0-indexed).
func (s *Screen) Cursor() (row, col int) { return s.cursorRow, s.cursorCol }

// Row returns a copy of the given row's cells, or nil if out of range.
func (s *Screen) Row(i int) []rune {
	if i < 0 || i >= len(s.grid) {
		return nil
	}
	row := make([]rune, s.cols)
	copy(row, s.grid[i])
	return row
}

// Write places a single rune at the cursor position and advances the
// cursor, wrapping and scrolling as needed.
func (s *Screen) Write(r rune) {
	if s.cursorCol >= s.cols {
		s.Newline()
	}
	s.grid[s.cursorRow][s.cursorCol] = r
	s.cursorCol++
}

// Newline advances the cursor to the start of the next row, scrolling the
// grid up by one row if the cursor was already on the last row.
func (s *Screen) Newline() {
	s.cursorCol = 0
	if s.cursorRow == s.rows-1 {
		s.scrollUp()
		return
	}
	s.cursorRow++
}

func (s *Screen) scrollUp() {
	s.scroll.push(s.grid[0])
	copy(s.grid, s.grid[1:])
	s.grid[s.rows-1] = blankRow(s.cols)
}

// Backspace moves the cursor back one column and blanks the cell it
// vacates, clamped to the start of the row.
func (s *Screen) Backspace() {
	if s.cursorCol > 0 {
		s.cursorCol--
		s.grid[s.cursorRow][s.cursorCol] = ' '
	}
}

// Clear blanks the entire grid and homes the cursor (form-feed behavior).
func (s *Screen) Clear() {
	for i := range s.grid {
		s.grid[i] = blankRow(s.cols)
	}
	s.cursorRow, s.cursorCol = 0, 0
}

// ApplyCSI interprets a parsed CSI sequence against the grid: cursor
// movement (A/B/C/D), cursor position (H/f), erase in line (K), and erase
// in display (J). Unrecognized final bytes (SGR color codes, mode toggles,
// etc.) are accepted and ignored — they affect rendering attributes this
// grid does not model, never cursor position.
func (s *Screen) ApplyCSI(seq CSISeq) {
	p := func(i, def int) int {
		if i < len(seq.Params) && seq.Params[i] != 0 {
			return seq.Params[i]
		}
		return def
	}

	switch seq.Final {
	case 'A': // cursor up
		s.cursorRow = clamp(s.cursorRow-p(0, 1), 0, s.rows-1)
	case 'B': // cursor down
		s.cursorRow = clamp(s.cursorRow+p(0, 1), 0, s.rows-1)
	case 'C': // cursor forward
		s.cursorCol = clamp(s.cursorCol+p(0, 1), 0, s.cols-1)
	case 'D': // cursor back
		s.cursorCol = clamp(s.cursorCol-p(0, 1), 0, s.cols-1)
	case 'H', 'f': // cursor position (1-indexed row;col)
		row := p(0, 1) - 1
		col := p(1, 1) - 1
		s.cursorRow = clamp(row, 0, s.rows-1)
		s.cursorCol = clamp(col, 0, s.cols-1)
	case 'K': // erase in line
		s.eraseLine(p(0, 0))
	case 'J': // erase in display
		s.eraseDisplay(p(0, 0))
	}
}

func (s *Screen) eraseLine(mode int) {
	row := s.grid[s.cursorRow]
	switch mode {
	case 0: // cursor to end
		for i := s.cursorCol; i < s.cols; i++ {
			row[i] = ' '
		}
	case 1: // start to cursor
		for i := 0; i <= s.cursorCol && i < s.cols; i++ {
			row[i] = ' '
		}
	case 2: // entire line
		s.grid[s.cursorRow] = blankRow(s.cols)
	}
}

func (s *Screen) eraseDisplay(mode int) {
	switch mode {
	case 0:
		for r := s.cursorRow; r < s.rows; r++ {
			s.grid[r] = blankRow(s.cols)
		}
	case 1:
		for r := 0; r <= s.cursorRow; r++ {
			s.grid[r] = blankRow(s.cols)
		}
	case 2:
		s.Clear()
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
