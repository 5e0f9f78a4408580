package wsapi

import "github.com/iyulab/shell-tunnel/internal/session"

// clientFrame is a client→server WebSocket message (spec §6).
type clientFrame struct {
	Type string `json:"type"` // input | resize | signal

	Data   string `json:"data,omitempty"`   // input
	Cols   int    `json:"cols,omitempty"`   // resize
	Rows   int    `json:"rows,omitempty"`   // resize
	Signal string `json:"signal,omitempty"` // signal, e.g. "SIGINT"
}

// serverFrame is a server→client WebSocket message (spec §6).
type serverFrame struct {
	Type string `json:"type"` // output | raw | state | exit | error | lagged

	Seq     uint64        `json:"seq,omitempty"`
	Text    string        `json:"text,omitempty"`    // output
	Raw     string        `json:"raw,omitempty"`     // raw, base64
	State   session.State `json:"state,omitempty"`   // state
	Code    int           `json:"code,omitempty"`    // exit
	Kind    string        `json:"kind,omitempty"`    // error
	Message string        `json:"message,omitempty"` // error
	Dropped uint64        `json:"dropped,omitempty"` // lagged
}

func outputFrame(seq uint64, text string) serverFrame {
	return serverFrame{Type: "output", Seq: seq, Text: text}
}

func stateFrame(s session.State) serverFrame {
	return serverFrame{Type: "state", State: s}
}

func exitFrame(code int) serverFrame {
	return serverFrame{Type: "exit", Code: code}
}

func errorFrame(kind, message string) serverFrame {
	return serverFrame{Type: "error", Kind: kind, Message: message}
}

func laggedFrame(dropped uint64) serverFrame {
	return serverFrame{Type: "lagged", Dropped: dropped}
}
