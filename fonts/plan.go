package fonts

import (
	"path"
	"strings"
)

// NotofontsState is the parsed Notofonts state document, keyed by
// repository name.
type NotofontsState map[string]NotofontsRepo

// NotofontsRepo is one repository entry of the state document.
type NotofontsRepo struct {
	Families map[string]NotofontsFamily `json:"families"`
}

// NotofontsFamily lists the files and latest release of one family.
type NotofontsFamily struct {
	LatestRelease *NotofontsRelease `json:"latest_release"`
	Files         []string          `json:"files"`
}

// NotofontsRelease carries the release URL the tag and repo are
// inferred from.
type NotofontsRelease struct {
	URL string `json:"url"`
}

// StylePreference selects sans or serif fallback families.
type StylePreference int

const (
	PreferSans StylePreference = iota
	PreferSerif
)

// FallbackStylePreference derives the preference from the configured
// primary family.
func FallbackStylePreference(opts Options) StylePreference {
	family := strings.ToLower(strings.TrimSpace(opts.Family))
	if strings.Contains(family, "serif") {
		return PreferSerif
	}
	return PreferSans
}

// NormalizeRepoKey lowercases and strips everything that is not
// ASCII alphanumeric.
func NormalizeRepoKey(value string) string {
	var out strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			out.WriteRune(r + ('a' - 'A'))
		}
	}
	return out.String()
}

func buildRepoKeyIndex(state NotofontsState) map[string]string {
	index := make(map[string]string, len(state))
	for key := range state {
		index[NormalizeRepoKey(key)] = key
	}
	return index
}

// IsCJKScript reports whether the script is covered by the CJK
// resolver instead of Notofonts planning.
func IsCJKScript(script string) bool {
	switch script {
	case "Han", "Hiragana", "Katakana", "Hangul", "Bopomofo":
		return true
	}
	return false
}

// scriptRepoKey maps a script name to the state-document repository
// key, or "" when the script has no Notofonts repo.
func scriptRepoKey(script string, index map[string]string) string {
	if IsNeutralScript(script) || IsCJKScript(script) {
		return ""
	}
	switch script {
	case "Latin", "Greek", "Cyrillic":
		return "latin-greek-cyrillic"
	}
	return index[NormalizeRepoKey(script)]
}

// ScoreFamilyName rates a family name for the given style
// preference. Noto-prefixed matches rate highest; supplements,
// looped variants, display and UI faces are penalised.
func ScoreFamilyName(name string, style StylePreference) int {
	lower := strings.ToLower(name)
	score := 0
	switch style {
	case PreferSerif:
		if strings.Contains(lower, "noto serif") {
			score += 300
		} else if strings.Contains(lower, "serif") {
			score += 200
		}
		if strings.Contains(lower, "naskh") {
			score += 120
		}
	default:
		if strings.Contains(lower, "noto sans") {
			score += 300
		} else if strings.Contains(lower, "sans") {
			score += 200
		}
		if strings.Contains(lower, "kufi") {
			score += 120
		}
	}
	if strings.Contains(lower, "supplement") {
		score -= 200
	}
	if strings.Contains(lower, "looped") {
		score -= 120
	}
	if strings.Contains(lower, "display") {
		score -= 40
	}
	if strings.Contains(lower, "ui") {
		score -= 20
	}
	return score
}

// ChooseFamilyName picks the best-scoring family of a repository,
// breaking ties on shorter then lexicographically earlier names.
func ChooseFamilyName(families map[string]NotofontsFamily, style StylePreference) string {
	var bestName string
	bestScore := 0
	for name, info := range families {
		if info.LatestRelease == nil && len(info.Files) == 0 {
			continue
		}
		score := ScoreFamilyName(name, style)
		if bestName == "" ||
			score > bestScore ||
			(score == bestScore && len(name) < len(bestName)) ||
			(score == bestScore && len(name) == len(bestName) && name < bestName) {
			bestName = name
			bestScore = score
		}
	}
	return bestName
}

// ScoreFontPath rates a font file path; non-font extensions return
// ok=false. TTF beats OTF, hinted directories boost, Regular weights
// win over Italic and variable faces.
func ScoreFontPath(filePath string) (int, bool) {
	lower := strings.ToLower(filePath)
	var score int
	switch {
	case strings.HasSuffix(lower, ".ttf"):
		score = 100
	case strings.HasSuffix(lower, ".otf"):
		score = 80
	default:
		return 0, false
	}
	if strings.Contains(lower, "/full/") {
		score += 60
	}
	if strings.Contains(lower, "/hinted/") {
		score += 45
	}
	if strings.Contains(lower, "/googlefonts/") {
		score += 30
	}
	if strings.Contains(lower, "/unhinted/") {
		score += 10
	}
	if strings.Contains(lower, "regular") {
		score += 200
	}
	if strings.Contains(lower, "italic") {
		score -= 120
	}
	if strings.Contains(lower, "variable") || strings.Contains(lower, "[") {
		score -= 20
	}
	if strings.Contains(lower, "slim") {
		score -= 10
	}
	return score, true
}

// PickBestFontFile selects the best-scoring file, preferring shorter
// paths on ties.
func PickBestFontFile(files []string) string {
	var bestFile string
	bestScore := 0
	for _, file := range files {
		score, ok := ScoreFontPath(file)
		if !ok {
			continue
		}
		if bestFile == "" || score > bestScore ||
			(score == bestScore && len(file) < len(bestFile)) {
			bestFile = file
			bestScore = score
		}
	}
	return bestFile
}

func repoFromReleaseURL(url string) string {
	_, suffix, found := strings.Cut(url, "github.com/")
	if !found {
		return ""
	}
	parts := strings.Split(suffix, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "/" + parts[1]
}

func tagFromReleaseURL(url string) string {
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		return url[idx+1:]
	}
	return url
}

// PlanScripts computes the script plan from a state document. It is
// pure: no I/O, deterministic for a given state, options, and needs.
func PlanScripts(state NotofontsState, opts Options, needs *Needs) ScriptPlan {
	var plan ScriptPlan
	index := buildRepoKeyIndex(state)
	style := FallbackStylePreference(opts)
	seenRepo := make(map[string]bool)
	seenFamily := make(map[string]bool)
	seenDownload := make(map[string]bool)

	for _, script := range needs.SortedScripts() {
		repoKey := scriptRepoKey(script, index)
		if repoKey == "" || seenRepo[repoKey] {
			continue
		}
		seenRepo[repoKey] = true
		repo, ok := state[repoKey]
		if !ok {
			continue
		}
		family := ChooseFamilyName(repo.Families, style)
		if family == "" {
			continue
		}
		info := repo.Families[family]
		filePath := PickBestFontFile(info.Files)
		if filePath == "" {
			continue
		}
		repoName := notofontsFilesRepo
		tag := ""
		if !strings.HasPrefix(filePath, "fonts/") {
			repoName = ""
			if info.LatestRelease != nil {
				repoName = repoFromReleaseURL(info.LatestRelease.URL)
			}
			if repoName == "" {
				repoName = "notofonts/" + repoKey
			}
			if info.LatestRelease != nil {
				tag = tagFromReleaseURL(info.LatestRelease.URL)
			}
		}
		rawName := path.Base(filePath)
		if rawName == "." || rawName == "/" {
			continue
		}
		if !seenFamily[family] {
			seenFamily[family] = true
			plan.Families = append(plan.Families, family)
		}
		downloadKey := repoName + "|" + filePath
		if !seenDownload[downloadKey] {
			seenDownload[downloadKey] = true
			plan.Downloads = append(plan.Downloads, ScriptDownload{
				Family:   family,
				Repo:     repoName,
				FilePath: filePath,
				Filename: strings.ReplaceAll(repoName, "/", "_") + "__" + rawName,
				Tag:      tag,
			})
		}
	}
	return plan
}

// StateLoader fetches the Notofonts state document; tests inject
// fixtures through it.
type StateLoader func(forceUpdate bool) (NotofontsState, error)

// ResolveScriptPlan loads the state document (via loader, defaulting
// to the cached HTTP loader) and plans fallback fonts for the needed
// scripts. No scripts, or no non-ASCII text at all, yields an empty
// plan.
func ResolveScriptPlan(opts Options, needs *Needs, loader StateLoader) (ScriptPlan, error) {
	if len(needs.Scripts) == 0 || !needs.Unicode {
		return ScriptPlan{}, nil
	}
	if loader == nil {
		loader = LoadNotofontsState
	}
	state, err := loader(ForceUpdateEnabled(opts))
	if err != nil {
		return ScriptPlan{}, err
	}
	return PlanScripts(state, opts, needs), nil
}
