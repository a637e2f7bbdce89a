package cryosnap

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"

	gap "github.com/muesli/go-app-paths"
)

//go:embed configurations/base.json
var baseConfigJSON []byte

//go:embed configurations/full.json
var fullConfigJSON []byte

// LoadConfig resolves one of the named configurations. "default" and
// "base" load the embedded baseline, "full" the embedded showcase,
// "user" the per-user overlay; anything else is treated as a path to
// a JSON file. The second return reports whether the default was
// requested.
func LoadConfig(name string) (Config, bool, error) {
	if name == "" {
		name = "default"
	}
	isDefault := name == "default"

	var cfg Config
	var err error
	switch name {
	case "default", "base":
		cfg, err = ParseConfig(baseConfigJSON)
	case "full":
		cfg, err = ParseConfig(fullConfigJSON)
	case "user":
		cfg, err = LoadUserConfig()
	default:
		var contents []byte
		contents, err = os.ReadFile(name)
		if err != nil {
			return Config{}, false, ioErr(err)
		}
		cfg, err = ParseConfig(contents)
	}
	if err != nil {
		return Config{}, false, err
	}
	return cfg, isDefault, nil
}

// LoadUserConfig reads <app-dir>/config/user.json, falling back to
// the embedded baseline when no overlay exists. On first use a
// configuration from the legacy XDG location is migrated over.
func LoadUserConfig() (Config, error) {
	path, err := UserConfigPath()
	if err != nil {
		return Config{}, err
	}
	if _, statErr := os.Stat(path); statErr != nil && !envConfigOverridden() {
		migrateLegacyUserConfig(path)
	}
	if contents, readErr := os.ReadFile(path); readErr == nil {
		return ParseConfig(contents)
	}
	return ParseConfig(baseConfigJSON)
}

// SaveUserConfig writes the per-user overlay, creating its directory
// when needed.
func SaveUserConfig(cfg Config) error {
	path, err := UserConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ioErr(err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return renderErrf("config encode: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ioErr(err)
	}
	return nil
}

// UserConfigPath resolves the user overlay location, honouring the
// CRYOSNAP_CONFIG_PATH and CRYOSNAP_CONFIG_DIR overrides.
func UserConfigPath() (string, error) {
	if path := os.Getenv("CRYOSNAP_CONFIG_PATH"); path != "" {
		return path, nil
	}
	if dir := os.Getenv("CRYOSNAP_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "user.json"), nil
	}
	appDir, err := appDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, "config", "user.json"), nil
}

func envConfigOverridden() bool {
	return os.Getenv("CRYOSNAP_CONFIG_PATH") != "" || os.Getenv("CRYOSNAP_CONFIG_DIR") != ""
}

// appDirPath resolves <app-dir>: CRYOSNAP_HOME, else ~/.cryosnap.
func appDirPath() (string, error) {
	if path := os.Getenv("CRYOSNAP_HOME"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", invalidInputf("unable to resolve home directory")
	}
	return filepath.Join(home, ".cryosnap"), nil
}

// migrateLegacyUserConfig copies a configuration from the old
// platform config directory into the current layout. Best effort;
// failures leave the user with the embedded baseline.
func migrateLegacyUserConfig(targetPath string) {
	if _, err := os.Stat(targetPath); err == nil {
		return
	}
	scope := gap.NewScope(gap.User, "cryosnap")
	legacy, err := scope.ConfigPath("user.json")
	if err != nil {
		return
	}
	data, err := os.ReadFile(legacy)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(targetPath, data, 0o644)
}
