package fonts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envSurface is the CRYOSNAP_* environment the font machinery
// recognises. All fields stay strings; the truthy toggles accept
// 0/false/no/off, which the env package's bool parsing would reject.
type envSurface struct {
	Home         string `env:"CRYOSNAP_HOME"`
	FontDirs     string `env:"CRYOSNAP_FONT_DIRS"`
	AutoDownload string `env:"CRYOSNAP_FONT_AUTO_DOWNLOAD"`
	ForceUpdate  string `env:"CRYOSNAP_FONT_FORCE_UPDATE"`
	GithubProxy  string `env:"CRYOSNAP_GITHUB_PROXY"`
	FontLog      string `env:"CRYOSNAP_FONT_LOG"`
	Log          string `env:"CRYOSNAP_LOG"`
}

func readEnv() envSurface {
	var e envSurface
	_ = env.Parse(&e)
	return e
}

func isFalsy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "0", "false", "no", "off":
		return true
	}
	return false
}

// AutoDownloadEnabled combines the config toggle with the
// CRYOSNAP_FONT_AUTO_DOWNLOAD override.
func AutoDownloadEnabled(opts Options) bool {
	if value, ok := os.LookupEnv("CRYOSNAP_FONT_AUTO_DOWNLOAD"); ok {
		return !isFalsy(value)
	}
	return opts.AutoDownload
}

// ForceUpdateEnabled combines the config toggle with the
// CRYOSNAP_FONT_FORCE_UPDATE override.
func ForceUpdateEnabled(opts Options) bool {
	if value, ok := os.LookupEnv("CRYOSNAP_FONT_FORCE_UPDATE"); ok {
		return !isFalsy(value)
	}
	return opts.ForceUpdate
}

// AppDir resolves the application directory: CRYOSNAP_HOME, else
// ~/.cryosnap.
func AppDir() (string, error) {
	if home := readEnv().Home; home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve home directory")
	}
	return filepath.Join(home, ".cryosnap"), nil
}

// CacheDir is <app-dir>/cache.
func CacheDir() (string, error) {
	appDir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, "cache"), nil
}

// DefaultFontDir is <app-dir>/fonts.
func DefaultFontDir() (string, error) {
	appDir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, "fonts"), nil
}

// ResolveFontDirs returns the app font directories in priority
// order: the CRYOSNAP_FONT_DIRS override, else the configured dirs,
// else the default directory.
func ResolveFontDirs(opts Options) ([]string, error) {
	if raw := readEnv().FontDirs; raw != "" {
		return parseFontDirList(raw), nil
	}
	if len(opts.Dirs) > 0 {
		out := make([]string, 0, len(opts.Dirs))
		for _, value := range opts.Dirs {
			if path := expandHomeDir(value); path != "" {
				out = append(out, path)
			}
		}
		return out, nil
	}
	dir, err := DefaultFontDir()
	if err != nil {
		return nil, err
	}
	return []string{dir}, nil
}

func parseFontDirList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		if path := expandHomeDir(trimmed); path != "" {
			out = append(out, path)
		}
	}
	return out
}

func expandHomeDir(value string) string {
	if value == "~" || strings.HasPrefix(value, "~/") || strings.HasPrefix(value, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		rest := strings.TrimLeft(strings.TrimPrefix(value, "~"), `/\`)
		if rest == "" {
			return home
		}
		return filepath.Join(home, rest)
	}
	return value
}
