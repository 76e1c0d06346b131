package decompiler_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dennis-doyensec/r2pickledec/decompiler"
)

func TestRunPseudoSimpleInt(t *testing.T) {
	// protocol 2: PROTO 2, BININT1 42, STOP
	src := bytes.NewReader([]byte{0x80, 0x02, 0x4b, 0x2a, '.'})
	res, err := decompiler.Run(context.Background(), src, 0, decompiler.Options{BreakOnStop: true})
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if res.Truncated {
		t.Fatalf("Run reported Truncated, want false")
	}
	if res.Protocol != 2 {
		t.Fatalf("Protocol = %d, want 2", res.Protocol)
	}
	if !strings.Contains(res.Output, "42") {
		t.Fatalf("Output = %q, want it to mention 42", res.Output)
	}
}

func TestRunJSON(t *testing.T) {
	src := bytes.NewReader([]byte{0x80, 0x02, 0x4b, 0x2a, '.'})
	res, err := decompiler.Run(context.Background(), src, 0, decompiler.Options{BreakOnStop: true, JSON: true})
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if !strings.Contains(res.Output, `"value"`) {
		t.Fatalf("Output = %q, want a value field", res.Output)
	}
}

func TestRunAtOffset(t *testing.T) {
	// pad with junk bytes before the real pickle starts at offset 3
	src := bytes.NewReader([]byte{0xff, 0xff, 0xff, 0x80, 0x02, 0x4b, 0x2a, '.'})
	res, err := decompiler.Run(context.Background(), src, 3, decompiler.Options{BreakOnStop: true})
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if !strings.Contains(res.Output, "42") {
		t.Fatalf("Output = %q, want it to mention 42", res.Output)
	}
}

func TestRunEmptySource(t *testing.T) {
	src := bytes.NewReader(nil)
	_, err := decompiler.Run(context.Background(), src, 0, decompiler.Options{})
	if err != decompiler.ErrEmptySource {
		t.Fatalf("err = %v, want ErrEmptySource", err)
	}
}

func TestRunTruncated(t *testing.T) {
	// PROTO header with no STOP and a dangling opcode
	src := bytes.NewReader([]byte{0x80, 0x02, 0x4b})
	res, err := decompiler.Run(context.Background(), src, 0, decompiler.Options{BreakOnStop: true})
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if !res.Truncated {
		t.Fatalf("Truncated = false, want true")
	}
}
