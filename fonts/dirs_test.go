package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppDir(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("CRYOSNAP_HOME", "/tmp/snaproot")
		dir, err := AppDir()
		require.NoError(t, err)
		require.Equal(t, "/tmp/snaproot", dir)
	})

	t.Run("defaults under home", func(t *testing.T) {
		t.Setenv("CRYOSNAP_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)
		dir, err := AppDir()
		require.NoError(t, err)
		require.Equal(t, filepath.Join(home, ".cryosnap"), dir)
	})
}

func TestCacheAndFontDirs(t *testing.T) {
	t.Setenv("CRYOSNAP_HOME", "/tmp/snaproot")
	cache, err := CacheDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/snaproot", "cache"), cache)
	fontsDir, err := DefaultFontDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/snaproot", "fonts"), fontsDir)
}

func TestResolveFontDirs(t *testing.T) {
	t.Run("env list wins", func(t *testing.T) {
		t.Setenv("CRYOSNAP_FONT_DIRS", "/a, /b ,,")
		dirs, err := ResolveFontDirs(Options{Dirs: []string{"/ignored"}})
		require.NoError(t, err)
		require.Equal(t, []string{"/a", "/b"}, dirs)
	})

	t.Run("configured dirs next", func(t *testing.T) {
		t.Setenv("CRYOSNAP_FONT_DIRS", "")
		dirs, err := ResolveFontDirs(Options{Dirs: []string{"/x", "/y"}})
		require.NoError(t, err)
		require.Equal(t, []string{"/x", "/y"}, dirs)
	})

	t.Run("default app font dir last", func(t *testing.T) {
		t.Setenv("CRYOSNAP_FONT_DIRS", "")
		t.Setenv("CRYOSNAP_HOME", "/tmp/snaproot")
		dirs, err := ResolveFontDirs(Options{})
		require.NoError(t, err)
		require.Equal(t, []string{filepath.Join("/tmp/snaproot", "fonts")}, dirs)
	})

	t.Run("tilde expansion", func(t *testing.T) {
		t.Setenv("CRYOSNAP_FONT_DIRS", "~/fonts")
		home, err := os.UserHomeDir()
		require.NoError(t, err)
		dirs, err := ResolveFontDirs(Options{})
		require.NoError(t, err)
		require.Equal(t, []string{filepath.Join(home, "fonts")}, dirs)
	})
}

func TestIsFalsy(t *testing.T) {
	for _, value := range []string{"0", "false", "no", "off", " OFF ", "No"} {
		require.True(t, isFalsy(value), value)
	}
	for _, value := range []string{"", "1", "true", "yes", "on"} {
		require.False(t, isFalsy(value), value)
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, value := range []string{"off", "error", "warn", "info", "debug", "trace"} {
		if _, ok := parseLogLevel(value); !ok {
			t.Errorf("%q should parse", value)
		}
	}
	if _, ok := parseLogLevel("verbose"); ok {
		t.Error("unknown level must not parse")
	}
}
