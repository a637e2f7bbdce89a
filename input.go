package cryosnap

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
	shellwords "github.com/mattn/go-shellwords"
	"golang.org/x/term"
)

// loadedInput is the unified stream handed to the render pipeline.
type loadedInput struct {
	text string
	path string
	kind InputKind
}

func loadInput(input InputSource, timeout time.Duration) (loadedInput, error) {
	switch input.kind {
	case inputText:
		return loadedInput{text: input.text, kind: KindCode}, nil
	case inputFile:
		data, err := os.ReadFile(input.path)
		if err != nil {
			return loadedInput{}, ioErr(err)
		}
		return loadedInput{
			text: strings.ToValidUTF8(string(data), "�"),
			path: input.path,
			kind: KindCode,
		}, nil
	case inputCommand:
		text, err := executeCommand(input.cmd, timeout)
		if err != nil {
			return loadedInput{}, err
		}
		return loadedInput{text: text, kind: KindAnsi}, nil
	default:
		return loadedInput{}, invalidInputf("unsupported input")
	}
}

// isANSIInput reports whether the ANSI path should run: the language
// override "ansi", a PTY-captured source, or a raw ESC byte in the
// text.
func isANSIInput(loaded loadedInput, config *Config) bool {
	if strings.EqualFold(config.Language, "ansi") {
		return true
	}
	if loaded.kind == KindAnsi {
		return true
	}
	return strings.ContainsRune(loaded.text, 0x1b)
}

// terminalSize probes the controlling terminal, falling back to
// 80x24.
func terminalSize() (cols, rows uint16) {
	for _, f := range []*os.File{os.Stdout, os.Stderr, os.Stdin} {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && h > 0 {
			return uint16(w), uint16(h)
		}
	}
	return 80, 24
}

// executeCommand runs cmd in a pseudo-terminal so the child emits
// ANSI sequences as it would to a user terminal. Standard output and
// standard error merge into the PTY; the wait is bounded by timeout.
func executeCommand(cmd string, timeout time.Duration) (string, error) {
	args, err := shellwords.Parse(cmd)
	if err != nil {
		return "", invalidInputf("command parse: %v", err)
	}
	if len(args) == 0 {
		return "", invalidInputf("empty command")
	}

	cols, rows := terminalSize()
	child := exec.Command(args[0], args[1:]...)
	master, err := pty.StartWithSize(child, &pty.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return "", renderErrf("open pty: %v", err)
	}

	outputCh := make(chan []byte, 1)
	go func() {
		// The read fails with EIO once the child exits and the slave
		// side closes; whatever was captured until then is the output.
		data, _ := io.ReadAll(master)
		outputCh <- data
	}()

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- child.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-time.After(timeout):
		_ = child.Process.Kill()
		_ = master.Close()
		return "", ErrTimeout
	}
	_ = master.Close()
	output := strings.ToValidUTF8(string(<-outputCh), "�")

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return "", renderErrf("command exited with %s", exitErr.ProcessState)
		}
		return "", renderErrf("command wait: %v", waitErr)
	}
	if output == "" {
		return "", invalidInputf("no command output")
	}
	return output, nil
}
