package cryosnap

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestLoadInput(t *testing.T) {
	t.Run("text passes through", func(t *testing.T) {
		loaded, err := loadInput(TextInput("hello"), time.Second)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if loaded.text != "hello" || loaded.kind != KindCode || loaded.path != "" {
			t.Errorf("got %+v", loaded)
		}
	})

	t.Run("file records its path", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "input.txt")
		if err := os.WriteFile(path, []byte("contents"), 0o644); err != nil {
			t.Fatal(err)
		}
		loaded, err := loadInput(FileInput(path), time.Second)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if loaded.text != "contents" || loaded.path != path {
			t.Errorf("got %+v", loaded)
		}
	})

	t.Run("missing file is an io error", func(t *testing.T) {
		_, err := loadInput(FileInput("/does/not/exist"), time.Second)
		if !errors.Is(err, ErrIO) {
			t.Errorf("got %v", err)
		}
	})
}

func TestExecuteCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("pty execution requires a POSIX platform")
	}

	t.Run("captures output", func(t *testing.T) {
		out, err := executeCommand("echo hello", 10*time.Second)
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
		if !strings.Contains(out, "hello") {
			t.Errorf("got %q", out)
		}
	})

	t.Run("marks output as ansi", func(t *testing.T) {
		loaded, err := loadInput(CommandInput("echo hi"), 10*time.Second)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if loaded.kind != KindAnsi {
			t.Errorf("got kind %v", loaded.kind)
		}
	})

	t.Run("empty command", func(t *testing.T) {
		_, err := executeCommand("   ", time.Second)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("timeout kills the child", func(t *testing.T) {
		start := time.Now()
		_, err := executeCommand("sleep 2", 10*time.Millisecond)
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("got %v", err)
		}
		if time.Since(start) > time.Second {
			t.Error("timeout took too long to fire")
		}
	})

	t.Run("non-zero exit fails", func(t *testing.T) {
		_, err := executeCommand("false", 10*time.Second)
		if err == nil || !strings.Contains(err.Error(), "command exited with") {
			t.Errorf("got %v", err)
		}
	})
}

func TestIsANSIInput(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("language override", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Language = "ANSI"
		if !isANSIInput(loadedInput{text: "plain"}, &cfg) {
			t.Error("expected ansi")
		}
	})

	t.Run("escape byte in text", func(t *testing.T) {
		if !isANSIInput(loadedInput{text: "a\x1b[31mb"}, &cfg) {
			t.Error("expected ansi")
		}
	})

	t.Run("command output", func(t *testing.T) {
		if !isANSIInput(loadedInput{text: "plain", kind: KindAnsi}, &cfg) {
			t.Error("expected ansi")
		}
	})

	t.Run("plain code", func(t *testing.T) {
		if isANSIInput(loadedInput{text: "plain"}, &cfg) {
			t.Error("expected code")
		}
	})
}
