package execengine

import "testing"

func TestNewSentinelIsUnique(t *testing.T) {
	a := newSentinel()
	b := newSentinel()
	if a == b {
		t.Fatal("expected distinct sentinels")
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 hex chars (128 bits), got %d", len(a))
	}
}

func TestFindSentinelExtractsExitCodeAndCwd(t *testing.T) {
	sentinel := "deadbeef"
	written := "echo hi\n"
	transcript := "hi\n" + sentinel + ":0:/home/user\n"

	res, ok := findSentinel(transcript, written, sentinel)
	if !ok {
		t.Fatal("expected sentinel match")
	}
	if res.exitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.exitCode)
	}
	if res.cwd != "/home/user" {
		t.Fatalf("cwd = %q", res.cwd)
	}
	if res.output != "hi\n" {
		t.Fatalf("output = %q", res.output)
	}
}

func TestFindSentinelNegativeExitCode(t *testing.T) {
	sentinel := "abc123"
	transcript := sentinel + ":-1:/tmp\n"
	res, ok := findSentinel(transcript, "", sentinel)
	if !ok {
		t.Fatal("expected match")
	}
	if res.exitCode != -1 {
		t.Fatalf("exit code = %d, want -1", res.exitCode)
	}
}

func TestFindSentinelAbsentReturnsFalse(t *testing.T) {
	_, ok := findSentinel("no marker here\n", "", "sometoken")
	if ok {
		t.Fatal("expected no match")
	}
}

func TestStripEchoRemovesLeadingWrittenCommand(t *testing.T) {
	written := "echo hi\n"
	output := "echo hi\r\nhi\n"
	stripped := stripEcho(output, written)
	if stripped != "hi\n" {
		t.Fatalf("stripped = %q", stripped)
	}
}

func TestStripEchoNoOpWhenAbsent(t *testing.T) {
	output := "hi\n"
	stripped := stripEcho(output, "echo hi\n")
	if stripped != "hi\n" {
		t.Fatalf("stripped = %q", stripped)
	}
}
