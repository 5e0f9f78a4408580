package emulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityOnPlainText(t *testing.T) {
	s := New(80, 24)
	s.Feed([]byte("hello world"))
	assert.Equal(t, "hello world", s.Text())
}

func TestNewlineAccumulates(t *testing.T) {
	s := New(80, 24)
	s.Feed([]byte("line one\nline two\n"))
	assert.Equal(t, "line one\nline two\n", s.Text())
}

func TestStripsCSIColorSequence(t *testing.T) {
	s := New(80, 24)
	s.Feed([]byte("\x1b[31mred text\x1b[0m"))
	assert.Equal(t, "red text", s.Text())
}

func TestStripsOSCSequence(t *testing.T) {
	s := New(80, 24)
	s.Feed([]byte("\x1b]0;window title\x07visible"))
	assert.Equal(t, "visible", s.Text())
}

func TestCarriageReturnOverwritesLine(t *testing.T) {
	s := New(80, 24)
	s.Feed([]byte("AAAAA\rBB"))
	assert.Equal(t, "BBAAA", s.Text())
}

func TestBackspaceDeletesPreviousChar(t *testing.T) {
	s := New(80, 24)
	s.Feed([]byte("AB\bC"))
	assert.Equal(t, "AC", s.Text())
}

func TestSentinelLineSurvivesInterleavedEscapes(t *testing.T) {
	s := New(80, 24)
	s.Feed([]byte("\x1b[32mabc123:0:/tmp\x1b[0m\n"))
	assert.Contains(t, s.Text(), "abc123:0:/tmp")
}

func TestTotalOnMalformedEscapeSequence(t *testing.T) {
	s := New(80, 24)
	assert.NotPanics(t, func() {
		s.Feed([]byte("\x1b[9999999999999999999999999999999m\x1bZgarbage\x1bP\x1b\\more"))
	})
	assert.Contains(t, s.Text(), "garbage")
	assert.Contains(t, s.Text(), "more")
}

func TestInvalidUTF8BecomesReplacementChar(t *testing.T) {
	s := New(80, 24)
	s.Feed([]byte{'a', 0xFF, 'b'})
	assert.Equal(t, "a�b", s.Text())
}

func TestSplitUTF8SequenceAcrossFeeds(t *testing.T) {
	s := New(80, 24)
	full := "café" // "café"
	b := []byte(full)
	s.Feed(b[:len(b)-1])
	s.Feed(b[len(b)-1:])
	assert.Equal(t, full, s.Text())
}

func TestFormFeedClearsScreenNotTranscript(t *testing.T) {
	s := New(80, 24)
	s.Feed([]byte("before"))
	s.Feed([]byte{ffByte})
	row, col := s.Screen().Cursor()
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)
	s.Feed([]byte("after"))
	assert.Equal(t, "beforeafter", s.Text())
}
