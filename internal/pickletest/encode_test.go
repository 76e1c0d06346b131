package pickletest_test

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/dennis-doyensec/r2pickledec/internal/pickletest"
	"github.com/dennis-doyensec/r2pickledec/pvm"
)

func TestEncodeRoundTripsThroughVM(t *testing.T) {
	cases := []any{
		int64(42),
		3.5,
		"hello",
		[]any{int64(1), int64(2), int64(3)},
		pickletest.Tuple{int64(1), "a"},
	}

	for _, v := range cases {
		buf := pickletest.Encode(v)
		s := pvm.New(0, -1, true, zerolog.Nop())
		if err := s.Run(buf); err != nil {
			t.Fatalf("Run(%v) error = %v", v, err)
		}
		if len(s.Stack()) != 1 {
			t.Fatalf("Run(%v) left %d stack items, want 1", v, len(s.Stack()))
		}
	}
}
