package fonts

import "testing"

func TestParseCJKRegionFromLocale(t *testing.T) {
	cases := map[string]Region{
		"zh_CN.UTF-8":    RegionSC,
		"zh_SG":          RegionSC,
		"zh-Hans-SG":     RegionSC,
		"zh_TW":          RegionTC,
		"zh-Hant":        RegionTC,
		"zh_HK":          RegionHK,
		"zh_MO.UTF-8":    RegionHK,
		"ja_JP.eucJP":    RegionJP,
		"ja":             RegionJP,
		"ko_KR":          RegionKR,
		"ko_KR@dict":     RegionKR,
		"zh_CN@pinyin":   RegionSC,
		"ZH_TW.Big5":     RegionTC,
	}
	for locale, want := range cases {
		got, ok := ParseCJKRegionFromLocale(locale)
		if !ok || got != want {
			t.Errorf("%q: got (%v, %v), want %v", locale, got, ok, want)
		}
	}
	for _, locale := range []string{"", "en_US.UTF-8", "zh", "C", "POSIX"} {
		if got, ok := ParseCJKRegionFromLocale(locale); ok {
			t.Errorf("%q: unexpectedly resolved to %v", locale, got)
		}
	}
}

func TestLocaleCJKRegion(t *testing.T) {
	t.Run("lc_all wins", func(t *testing.T) {
		t.Setenv("LC_ALL", "ja_JP.UTF-8")
		t.Setenv("LC_CTYPE", "ko_KR")
		t.Setenv("LANG", "zh_CN")
		region, ok := LocaleCJKRegion()
		if !ok || region != RegionJP {
			t.Errorf("got (%v, %v)", region, ok)
		}
	})

	t.Run("falls through unset variables", func(t *testing.T) {
		t.Setenv("LC_ALL", "")
		t.Setenv("LC_CTYPE", "")
		t.Setenv("LANG", "ko_KR")
		region, ok := LocaleCJKRegion()
		if !ok || region != RegionKR {
			t.Errorf("got (%v, %v)", region, ok)
		}
	})

	t.Run("empty locale yields nothing", func(t *testing.T) {
		t.Setenv("LC_ALL", "")
		t.Setenv("LC_CTYPE", "")
		t.Setenv("LANG", "")
		if region, ok := LocaleCJKRegion(); ok {
			t.Errorf("got %v", region)
		}
	})
}

func TestEffectiveRegion(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_CTYPE", "")
	t.Setenv("LANG", "")

	if got := EffectiveRegion(RegionKR); got != RegionKR {
		t.Errorf("explicit region: got %v", got)
	}
	if got := EffectiveRegion(RegionAuto); got != RegionSC {
		t.Errorf("auto with empty locale: got %v", got)
	}
	t.Setenv("LANG", "ja_JP.UTF-8")
	if got := EffectiveRegion(RegionAuto); got != RegionJP {
		t.Errorf("auto with locale: got %v", got)
	}
}

func TestCollectCJKRegions(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_CTYPE", "")
	t.Setenv("LANG", "")
	opts := Options{CJKRegion: RegionAuto}

	t.Run("no cjk no regions", func(t *testing.T) {
		if got := CollectCJKRegions(opts, &Needs{}); len(got) != 0 {
			t.Errorf("got %v", got)
		}
	})

	t.Run("kana and han yield jp then sc", func(t *testing.T) {
		needs := &Needs{CJK: true, Scripts: map[string]bool{"Hiragana": true, "Han": true}}
		got := CollectCJKRegions(opts, needs)
		if len(got) != 2 || got[0] != RegionJP || got[1] != RegionSC {
			t.Errorf("got %v", got)
		}
	})

	t.Run("hangul yields kr only", func(t *testing.T) {
		needs := &Needs{CJK: true, Scripts: map[string]bool{"Hangul": true}}
		got := CollectCJKRegions(opts, needs)
		if len(got) != 1 || got[0] != RegionKR {
			t.Errorf("got %v", got)
		}
	})

	t.Run("bopomofo yields tc", func(t *testing.T) {
		needs := &Needs{CJK: true, Scripts: map[string]bool{"Bopomofo": true}}
		got := CollectCJKRegions(opts, needs)
		if len(got) != 1 || got[0] != RegionTC {
			t.Errorf("got %v", got)
		}
	})

	t.Run("bare cjk flag falls back to the effective region", func(t *testing.T) {
		needs := &Needs{CJK: true}
		got := CollectCJKRegions(opts, needs)
		if len(got) != 1 || got[0] != RegionSC {
			t.Errorf("got %v", got)
		}
	})

	t.Run("configured region dominates for han", func(t *testing.T) {
		needs := &Needs{CJK: true, Scripts: map[string]bool{"Han": true}}
		got := CollectCJKRegions(Options{CJKRegion: RegionTC}, needs)
		if len(got) != 1 || got[0] != RegionTC {
			t.Errorf("got %v", got)
		}
	})
}

func TestRegionTables(t *testing.T) {
	for _, region := range []Region{RegionSC, RegionTC, RegionHK, RegionJP, RegionKR} {
		if len(RegionFamilies(region)) == 0 {
			t.Errorf("%v: empty family list", region)
		}
		if len(RegionURLs(region)) == 0 {
			t.Errorf("%v: empty url list", region)
		}
		if RegionFilename(region) == "" {
			t.Errorf("%v: empty filename", region)
		}
	}
	if RegionFilename(RegionJP) != "NotoSansCJKjp-Regular.otf" {
		t.Errorf("got %q", RegionFilename(RegionJP))
	}
}
