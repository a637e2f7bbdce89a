package cryosnap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolveTitleText computes the title bar text, or "" when no title
// should be shown. An explicit non-blank title.text wins; otherwise
// file inputs derive from their path and command inputs from the
// command line. Plain text inputs never get an automatic title.
func resolveTitleText(input InputSource, config *Config) string {
	if !config.Title.Enabled || !config.WindowControls {
		return ""
	}
	if trimmed := strings.TrimSpace(config.Title.Text); trimmed != "" {
		return trimmed
	}
	var auto string
	switch input.kind {
	case inputFile:
		auto = titleTextFromPath(input.path, config.Title.PathStyle)
	case inputCommand:
		auto = fmt.Sprintf("cmd: %s", input.cmd)
	default:
		return ""
	}
	return sanitizeTitleText(auto)
}

func titleTextFromPath(path string, style TitlePathStyle) string {
	switch style {
	case PathBasename:
		return filepath.Base(path)
	case PathRelative:
		if cwd, err := os.Getwd(); err == nil {
			if rel, relErr := filepath.Rel(cwd, path); relErr == nil && !strings.HasPrefix(rel, "..") {
				return rel
			}
		}
		return path
	default:
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			if abs, absErr := filepath.Abs(resolved); absErr == nil {
				return abs
			}
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
}

// sanitizeTitleText flattens newlines to spaces and trims the ends.
func sanitizeTitleText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}
