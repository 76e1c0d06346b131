package main

import (
	"bytes"
	"io"
	"os"
)

// readerAtCloser is the subset of *os.File the root command needs: random
// access for decompiler.Run plus a Close it can defer unconditionally.
type readerAtCloser interface {
	io.ReaderAt
	Close() error
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}

// bytesReaderAt adapts a fully-buffered byte slice (read once from stdin,
// since stdin itself isn't seekable) to io.ReaderAt, with a no-op Close so
// it satisfies readerAtCloser alongside *os.File.
type bytesReaderAt struct {
	data []byte
}

func (b bytesReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(b.data).ReadAt(p, off)
}

func (b bytesReaderAt) Close() error { return nil }
