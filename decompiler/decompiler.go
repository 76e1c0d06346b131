// Package decompiler is the facade a host embeds: point it at a byte
// source and an offset, get back rendered pseudocode or JSON plus whatever
// diagnostics the run produced. It owns nothing the lower packages don't
// already own - it just wires disasm's collaborator role, pvm's
// interpreter, and render's two backends into the one call a CLI or
// plugin command needs.
package decompiler

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/dennis-doyensec/r2pickledec/pvm"
	"github.com/dennis-doyensec/r2pickledec/render"
)

// maxRead bounds how much of src a single Run call will pull into memory.
// A pickle stream that doesn't fit is vanishingly rare in practice; a hard
// cap keeps a hostile or truncated byte source from forcing an unbounded
// allocation.
const maxRead = 8 << 20

// Options configures a single Run call.
type Options struct {
	// JSON selects render.JSON instead of render.Pseudo for the output.
	JSON bool
	// Verbose enables debug-level opcode tracing on the supplied logger.
	Verbose bool
	// BreakOnStop, when true (the default a caller should pass), halts
	// interpretation at the first STOP opcode instead of continuing to
	// decode whatever trailing bytes follow it.
	BreakOnStop bool
	// Log receives interpreter diagnostics. The zero value discards them.
	Log zerolog.Logger
}

// Result is what a run produced.
type Result struct {
	// Output is the rendered pseudocode or JSON document, depending on
	// Options.JSON.
	Output string
	// Truncated is true when the run stopped early - a decode error, an
	// unsupported opcode, or simply running out of bytes - and Output was
	// still produced from whatever partial state remained.
	Truncated bool
	// Protocol is the pickle protocol version the PROTO opcode declared,
	// or 0 if the stream never had one (protocol 0 pickles don't).
	Protocol int
}

// ErrEmptySource is returned when src has nothing to read at offset.
var ErrEmptySource = errors.New("decompiler: empty byte source")

// Run reads a pickle stream from src starting at offset, interprets it,
// and renders the resulting object graph. It never returns a nil Result on
// success, and still returns a best-effort Result (with Truncated set)
// when the interpreter halts on a malformed or unsupported opcode - only
// an empty source (ErrEmptySource), an I/O failure reading src itself, or
// a context cancellation produces a (nil, err) return with no Result at
// all.
func Run(ctx context.Context, src io.ReaderAt, offset int64, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]byte, maxRead)
	n, err := src.ReadAt(buf, offset)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decompiler: read at %d: %w", offset, err)
		}
		return nil, ErrEmptySource
	}
	buf = buf[:n]

	log := opts.Log
	if opts.Verbose {
		log = log.Level(zerolog.DebugLevel)
	}

	breakOnStop := opts.BreakOnStop
	s := pvm.New(0, -1, breakOnStop, log)
	defer s.Close()

	runErr := s.Run(buf)

	result := &Result{
		Truncated: s.Truncated || runErr != nil,
		Protocol:  s.Protocol(),
	}

	if opts.JSON {
		out, jerr := render.NewJSON().Marshal(s.Stack(), result.Truncated)
		if jerr != nil {
			return result, fmt.Errorf("decompiler: render json: %w", jerr)
		}
		result.Output = string(out)
	} else {
		result.Output = render.NewPseudo().Render(s.Stack(), true)
	}

	return result, nil
}
