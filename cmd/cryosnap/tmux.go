package main

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
)

// captureTmuxOutput returns the pane contents, including ANSI
// escapes, via tmux capture-pane.
func captureTmuxOutput(rawArgs string) (string, error) {
	userArgs, err := normalizeTmuxArgs(rawArgs)
	if err != nil {
		return "", err
	}
	args := append([]string{"capture-pane", "-p", "-e"}, userArgs...)
	output, err := exec.Command("tmux", args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("tmux capture failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("failed to run tmux: %w", err)
	}
	if len(output) == 0 {
		return "", fmt.Errorf("tmux returned empty output")
	}
	return string(output), nil
}

// tmuxTitle resolves the pane title through tmux display-message
// with the configured format string.
func tmuxTitle(rawArgs, format string) (string, bool) {
	format = strings.TrimSpace(format)
	if format == "" {
		return "", false
	}
	userArgs, err := normalizeTmuxArgs(rawArgs)
	if err != nil {
		return "", false
	}
	args := []string{"display-message", "-p"}
	if target, ok := extractTmuxTarget(userArgs); ok {
		args = append(args, "-t", target)
	}
	args = append(args, format)
	output, err := exec.Command("tmux", args...).Output()
	if err != nil {
		return "", false
	}
	title := strings.TrimSpace(string(output))
	return title, title != ""
}

func extractTmuxTarget(args []string) (string, bool) {
	for i, arg := range args {
		if arg == "-t" && i+1 < len(args) {
			return args[i+1], true
		}
		if strings.HasPrefix(arg, "-t") && len(arg) > 2 {
			return arg[2:], true
		}
	}
	return "", false
}

func normalizeTmuxArgs(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	args, err := shellwords.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid tmux arguments: %w", err)
	}
	return args, nil
}
