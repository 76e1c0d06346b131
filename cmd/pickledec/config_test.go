package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pickledec.toml")
	if err := os.WriteFile(path, []byte("offset = 7\njson = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	viper.Reset()
	if err := loadConfigFile(path); err != nil {
		t.Fatalf("loadConfigFile error = %v", err)
	}
	if got := viper.GetInt64("offset"); got != 7 {
		t.Fatalf("offset = %d, want 7", got)
	}
	if !viper.GetBool("json") {
		t.Fatalf("json = false, want true")
	}
}

func TestLoadConfigFileEmptyPath(t *testing.T) {
	viper.Reset()
	if err := loadConfigFile(""); err != nil {
		t.Fatalf("loadConfigFile(\"\") error = %v", err)
	}
}

func TestBytesReaderAt(t *testing.T) {
	b := bytesReaderAt{data: []byte("hello world")}
	buf := make([]byte, 5)
	n, err := b.ReadAt(buf, 6)
	if err != nil {
		t.Fatalf("ReadAt error = %v", err)
	}
	if n != 5 || string(buf) != "world" {
		t.Fatalf("ReadAt = %q, want world", buf[:n])
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
}
