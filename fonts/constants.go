package fonts

// Fallback family prefixes appended per detected need. Order matters:
// the SVG renderer tries families left to right.
var (
	AutoFallbackNF = []string{"Symbols Nerd Font Mono"}

	AutoFallbackCJK = []string{
		"Noto Sans Mono CJK SC",
		"Noto Sans Mono CJK TC",
		"Noto Sans Mono CJK HK",
		"Noto Sans Mono CJK JP",
		"Noto Sans Mono CJK KR",
		"Noto Sans CJK SC",
		"Noto Sans CJK TC",
		"Noto Sans CJK HK",
		"Noto Sans CJK JP",
		"Noto Sans CJK KR",
		"Source Han Sans SC",
		"Source Han Sans TC",
		"Source Han Sans HK",
		"Source Han Sans JP",
		"Source Han Sans KR",
		"PingFang SC",
		"PingFang TC",
		"PingFang HK",
		"Hiragino Sans GB",
		"Hiragino Sans",
		"Apple SD Gothic Neo",
		"Microsoft YaHei",
		"Microsoft JhengHei",
		"SimSun",
		"MS Gothic",
		"Meiryo",
		"Yu Gothic",
		"Malgun Gothic",
		"WenQuanYi Micro Hei",
		"WenQuanYi Zen Hei",
	}

	autoFallbackCJKSC = []string{
		"Noto Sans Mono CJK SC",
		"Noto Sans CJK SC",
		"Source Han Sans SC",
		"PingFang SC",
		"Microsoft YaHei",
		"SimSun",
		"WenQuanYi Micro Hei",
		"WenQuanYi Zen Hei",
	}
	autoFallbackCJKTC = []string{
		"Noto Sans Mono CJK TC",
		"Noto Sans CJK TC",
		"Source Han Sans TC",
		"PingFang TC",
		"Microsoft JhengHei",
	}
	autoFallbackCJKHK = []string{
		"Noto Sans Mono CJK HK",
		"Noto Sans CJK HK",
		"Source Han Sans HK",
		"PingFang HK",
		"Microsoft JhengHei",
	}
	autoFallbackCJKJP = []string{
		"Noto Sans Mono CJK JP",
		"Noto Sans CJK JP",
		"Source Han Sans JP",
		"Hiragino Sans",
		"Yu Gothic",
		"MS Gothic",
		"Meiryo",
	}
	autoFallbackCJKKR = []string{
		"Noto Sans Mono CJK KR",
		"Noto Sans CJK KR",
		"Source Han Sans KR",
		"Apple SD Gothic Neo",
		"Malgun Gothic",
	}

	AutoFallbackGlobal = []string{
		"Noto Sans",
		"Noto Sans Mono",
		"Segoe UI",
		"Arial Unicode MS",
	}

	AutoFallbackEmoji = []string{
		"Apple Color Emoji",
		"Segoe UI Emoji",
		"Noto Color Emoji",
	}
)

const (
	notofontsStateURL  = "https://raw.githubusercontent.com/notofonts/notofonts.github.io/main/state.json"
	notofontsFilesRepo = "notofonts/notofonts.github.io"
	stateCacheName     = "notofonts_state.json"
)

var notoEmojiURLs = []string{
	"https://raw.githubusercontent.com/googlefonts/noto-emoji/main/fonts/NotoColorEmoji.ttf",
	"https://raw.githubusercontent.com/notofonts/noto-emoji/main/fonts/NotoColorEmoji.ttf",
}

var notoCJKURLs = map[Region][]string{
	RegionSC: {
		"https://raw.githubusercontent.com/notofonts/noto-cjk/main/Sans/OTF/SimplifiedChinese/NotoSansCJKsc-Regular.otf",
		"https://raw.githubusercontent.com/googlefonts/noto-cjk/main/Sans/OTF/SimplifiedChinese/NotoSansCJKsc-Regular.otf",
	},
	RegionTC: {
		"https://raw.githubusercontent.com/notofonts/noto-cjk/main/Sans/OTF/TraditionalChinese/NotoSansCJKtc-Regular.otf",
		"https://raw.githubusercontent.com/googlefonts/noto-cjk/main/Sans/OTF/TraditionalChinese/NotoSansCJKtc-Regular.otf",
	},
	RegionHK: {
		"https://raw.githubusercontent.com/notofonts/noto-cjk/main/Sans/OTF/HongKong/NotoSansCJKhk-Regular.otf",
		"https://raw.githubusercontent.com/googlefonts/noto-cjk/main/Sans/OTF/HongKong/NotoSansCJKhk-Regular.otf",
	},
	RegionJP: {
		"https://raw.githubusercontent.com/notofonts/noto-cjk/main/Sans/OTF/Japanese/NotoSansCJKjp-Regular.otf",
		"https://raw.githubusercontent.com/googlefonts/noto-cjk/main/Sans/OTF/Japanese/NotoSansCJKjp-Regular.otf",
	},
	RegionKR: {
		"https://raw.githubusercontent.com/notofonts/noto-cjk/main/Sans/OTF/Korean/NotoSansCJKkr-Regular.otf",
		"https://raw.githubusercontent.com/googlefonts/noto-cjk/main/Sans/OTF/Korean/NotoSansCJKkr-Regular.otf",
	},
}

var defaultGithubProxies = []string{"https://fastgit.cc/", "https://ghfast.top/"}
