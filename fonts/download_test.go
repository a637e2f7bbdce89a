package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAutoDownloadEnabled(t *testing.T) {
	t.Run("env disables regardless of config", func(t *testing.T) {
		for _, value := range []string{"0", "false", "no", "off", "FALSE", " Off "} {
			t.Setenv("CRYOSNAP_FONT_AUTO_DOWNLOAD", value)
			require.False(t, AutoDownloadEnabled(Options{AutoDownload: true}), value)
		}
	})

	t.Run("truthy env enables", func(t *testing.T) {
		t.Setenv("CRYOSNAP_FONT_AUTO_DOWNLOAD", "1")
		require.True(t, AutoDownloadEnabled(Options{AutoDownload: false}))
	})

	t.Run("config decides when env is unset", func(t *testing.T) {
		os.Unsetenv("CRYOSNAP_FONT_AUTO_DOWNLOAD")
		require.True(t, AutoDownloadEnabled(Options{AutoDownload: true}))
		require.False(t, AutoDownloadEnabled(Options{AutoDownload: false}))
	})
}

func TestForceUpdateEnabled(t *testing.T) {
	t.Setenv("CRYOSNAP_FONT_FORCE_UPDATE", "yes")
	require.True(t, ForceUpdateEnabled(Options{}))
	t.Setenv("CRYOSNAP_FONT_FORCE_UPDATE", "off")
	require.False(t, ForceUpdateEnabled(Options{ForceUpdate: true}))
}

func TestGithubProxyCandidates(t *testing.T) {
	t.Run("env overrides the built-ins", func(t *testing.T) {
		t.Setenv("CRYOSNAP_GITHUB_PROXY", "https://p1.example/, https://p2.example")
		got := GithubProxyCandidates()
		require.Equal(t, []string{"https://p1.example/", "https://p2.example"}, got)
	})

	t.Run("defaults when unset", func(t *testing.T) {
		t.Setenv("CRYOSNAP_GITHUB_PROXY", "")
		require.Equal(t, defaultGithubProxies, GithubProxyCandidates())
	})
}

func TestBuildCandidates(t *testing.T) {
	t.Setenv("CRYOSNAP_GITHUB_PROXY", "https://proxy.example")
	url := "https://raw.githubusercontent.com/notofonts/x/main/y.ttf"
	got := buildCandidates(url)
	require.Equal(t, []string{url, "https://proxy.example/" + url}, got)
}

func TestLooksLikeJSON(t *testing.T) {
	require.True(t, looksLikeJSON([]byte(`{"a": 1}`)))
	require.True(t, looksLikeJSON([]byte("  \n\t[1]")))
	require.False(t, looksLikeJSON([]byte("<!doctype html>")))
	require.False(t, looksLikeJSON(nil))
}

func TestSetNotofontsState(t *testing.T) {
	prev := SetNotofontsState(fixtureState())
	defer SetNotofontsState(prev)

	state, err := LoadNotofontsState(false)
	require.NoError(t, err)
	_, ok := state["latin-greek-cyrillic"]
	require.True(t, ok)
}

func TestEnsureAvailableDisabled(t *testing.T) {
	// Invariant: no download attempt happens when the env toggle is
	// off, even with every need set.
	t.Setenv("CRYOSNAP_FONT_AUTO_DOWNLOAD", "0")
	t.Setenv("CRYOSNAP_HOME", t.TempDir())
	needs := &Needs{Unicode: true, NerdFont: true, CJK: true, Emoji: true}
	plan := ScriptPlan{Downloads: []ScriptDownload{{Family: "X", Repo: "a/b", FilePath: "f.ttf", Filename: "f.ttf"}}}
	require.NoError(t, EnsureAvailable(Options{AutoDownload: true}, needs, plan))

	fontDir, err := DefaultFontDir()
	require.NoError(t, err)
	entries, _ := os.ReadDir(fontDir)
	require.Empty(t, entries)
}

func TestEnsureAvailableNothingNeeded(t *testing.T) {
	t.Setenv("CRYOSNAP_FONT_AUTO_DOWNLOAD", "1")
	t.Setenv("CRYOSNAP_HOME", t.TempDir())
	require.NoError(t, EnsureAvailable(Options{AutoDownload: true}, &Needs{}, ScriptPlan{}))
}

func TestVerifySHA256(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.bin")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	// sha256("abc")
	sum := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	require.True(t, verifySHA256(path, sum))
	require.True(t, verifySHA256(path, "BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD"))
	require.False(t, verifySHA256(path, "deadbeef"))
	require.False(t, verifySHA256(filepath.Join(dir, "missing"), sum))
	require.True(t, verifySHA256(path, ""))
}

func TestApplyGithubProxy(t *testing.T) {
	require.Equal(t, "https://p/https://u", applyGithubProxy("https://u", "https://p"))
	require.Equal(t, "https://p/https://u", applyGithubProxy("https://u", "https://p/"))
}
