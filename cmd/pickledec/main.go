// Command pickledec is a standalone host for the decompiler package: it
// reads a pickle stream from a file (or stdin), drives the VM end to end,
// and prints the rendered pseudocode or JSON. It exists so the module is
// runnable outside of whatever plugin host (e.g. a reverse-engineering
// framework) would normally own disassembly and I/O - see decompiler.Run's
// doc comment for the library-level entry point this CLI is a thin shell
// around.
package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

func printError(msg string) {
	if color.NoColor {
		os.Stderr.WriteString(msg + "\n")
		return
	}
	os.Stderr.WriteString(color.RedString(msg) + "\n")
}
