package render_test

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/dennis-doyensec/r2pickledec/disasm"
	"github.com/dennis-doyensec/r2pickledec/pvm"
	"github.com/dennis-doyensec/r2pickledec/render"
)

func runPseudo(t *testing.T, buf []byte, returnTop bool) string {
	t.Helper()
	s := pvm.New(0, -1, true, zerolog.Nop())
	if err := s.Run(buf); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return render.NewPseudo().Render(s.Stack(), returnTop)
}

func global(mod, name string) []byte {
	return append([]byte{byte(disasm.OpGlobal)}, []byte(mod+"\n"+name+"\n")...)
}

func TestPseudoEmptyListMemoized(t *testing.T) {
	buf := []byte{byte(disasm.OpEmptyList), byte(disasm.OpMemoize), byte(disasm.OpStop)}
	got := runPseudo(t, buf, false)
	want := "var_0 = []"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPseudoListAppends(t *testing.T) {
	buf := []byte{
		byte(disasm.OpEmptyList), byte(disasm.OpMark),
		byte(disasm.OpBinint1), 1,
		byte(disasm.OpBinint1), 2,
		byte(disasm.OpBinint1), 3,
		byte(disasm.OpAppends), byte(disasm.OpStop),
	}
	got := runPseudo(t, buf, false)
	want := "var_0 = [1, 2, 3]"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPseudoSelfReferentialList(t *testing.T) {
	buf := []byte{byte(disasm.OpEmptyList), byte(disasm.OpDup), byte(disasm.OpAppend), byte(disasm.OpStop)}
	got := runPseudo(t, buf, false)
	want := "var_0 = []\nvar_0.append(var_0)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPseudoGlobalReduce(t *testing.T) {
	buf := append(global("builtins", "list"),
		byte(disasm.OpEmptyTuple), byte(disasm.OpReduce), byte(disasm.OpStop))
	got := runPseudo(t, buf, false)
	want := "var_0 = __import__(\"builtins\").list\nvar_0 = var_0(())"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPseudoGlobalReduceWithListArg(t *testing.T) {
	buf := append(global("builtins", "list"), byte(disasm.OpEmptyList), byte(disasm.OpMark),
		byte(disasm.OpBinint1), 1, byte(disasm.OpBinint1), 2, byte(disasm.OpAppends),
		byte(disasm.OpTuple1), byte(disasm.OpReduce), byte(disasm.OpStop))
	got := runPseudo(t, buf, false)

	wantHas := []string{
		"var_1 = [1, 2]",
		"var_0 = __import__(\"builtins\").list",
		"var_0 = var_0((var_1,))",
	}
	for _, w := range wantHas {
		if !contains(got, w) {
			t.Fatalf("output %q missing statement %q", got, w)
		}
	}
}

func TestPseudoReturnTop(t *testing.T) {
	buf := []byte{byte(disasm.OpBinint1), 42, byte(disasm.OpStop)}
	got := runPseudo(t, buf, true)
	want := "return 42"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
