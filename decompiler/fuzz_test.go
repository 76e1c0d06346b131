package decompiler_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/dennis-doyensec/r2pickledec/decompiler"
)

// FuzzRun drives decompiler.Run, the entry point this repo ships, and
// asserts only that a malformed or truncated stream produces a best-effort
// Result instead of panicking or hanging.
func FuzzRun(f *testing.F) {
	seeds := [][]byte{
		{0x80, 0x02, '.'},
		{']', '(', 'K', 1, 'K', 2, 'K', 3, 'e', '.'},
		{']', 'K', 1, '2', '.'},
		append([]byte{'c'}, []byte("builtins\nlist\n)R.")...),
		{'('},
		{},
		{0xff},
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		res, err := decompiler.Run(context.Background(), bytes.NewReader(data), 0, decompiler.Options{BreakOnStop: true})
		if err != nil {
			if err != decompiler.ErrEmptySource {
				t.Fatalf("Run() unexpected error = %v", err)
			}
			return
		}
		if res == nil {
			t.Fatalf("Run() returned nil Result with nil error")
		}
	})
}
