package fonts

import "testing"

func TestRuneClassification(t *testing.T) {
	t.Run("private use", func(t *testing.T) {
		for _, r := range []rune{0xE000, 0xF121, 0xF8FF, 0xF0000, 0x10FFFD} {
			if !IsPrivateUse(r) {
				t.Errorf("U+%04X should be private use", r)
			}
		}
		for _, r := range []rune{'A', 0x4E00, 0xF8FF + 1} {
			if IsPrivateUse(r) {
				t.Errorf("U+%04X should not be private use", r)
			}
		}
	})

	t.Run("cjk", func(t *testing.T) {
		for _, r := range []rune{'漢', 'ひ', 'カ', '한', 'ㄅ', 0x20000, 0xF900} {
			if !IsCJK(r) {
				t.Errorf("U+%04X should be cjk", r)
			}
		}
		for _, r := range []rune{'A', 'д', 'α'} {
			if IsCJK(r) {
				t.Errorf("U+%04X should not be cjk", r)
			}
		}
	})

	t.Run("emoji", func(t *testing.T) {
		for _, r := range []rune{0x2615, 0x231A, 0x2B50, 0x1F600} {
			if !IsEmoji(r) {
				t.Errorf("U+%04X should be emoji", r)
			}
		}
		if IsEmoji('A') {
			t.Error("ascii is not emoji")
		}
	})

	t.Run("scripts", func(t *testing.T) {
		cases := map[rune]string{
			'A': "Latin",
			'д': "Cyrillic",
			'α': "Greek",
			'द': "Devanagari",
			'漢': "Han",
			'ひ': "Hiragana",
			'한': "Hangul",
		}
		for r, want := range cases {
			if got := ScriptOf(r); got != want {
				t.Errorf("U+%04X: got %q, want %q", r, got, want)
			}
		}
		if got := ScriptOf(' '); !IsNeutralScript(got) {
			t.Errorf("space: got %q", got)
		}
	})
}

func TestScanText(t *testing.T) {
	t.Run("ascii sets nothing", func(t *testing.T) {
		var needs Needs
		needs.ScanText("plain ascii text")
		if needs.Unicode || needs.NerdFont || needs.CJK || needs.Emoji || len(needs.Scripts) != 0 {
			t.Errorf("got %+v", needs)
		}
	})

	t.Run("mixed content sets every flag", func(t *testing.T) {
		var needs Needs
		needs.ScanText("a漢☕д")
		if !needs.Unicode || !needs.NerdFont || !needs.CJK || !needs.Emoji {
			t.Errorf("got %+v", needs)
		}
		if !needs.Scripts["Han"] || !needs.Scripts["Cyrillic"] {
			t.Errorf("scripts: %v", needs.Scripts)
		}
	})

	t.Run("sorted scripts are stable", func(t *testing.T) {
		var needs Needs
		needs.ScanText("д漢α")
		got := needs.SortedScripts()
		want := []string{"Cyrillic", "Greek", "Han"}
		if len(got) != len(want) {
			t.Fatalf("got %v", got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("got %v, want %v", got, want)
			}
		}
	})
}
