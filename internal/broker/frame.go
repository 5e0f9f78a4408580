package broker

import "time"

// Frame is an OutputFrame (spec §3): monotonically numbered, carrying both
// the raw bytes and the sanitized text view produced from them. Frames are
// ephemeral — held only in each Subscription's bounded channel until read
// or dropped.
type Frame struct {
	Seq       uint64
	Raw       []byte
	Text      string
	Timestamp time.Time
}
