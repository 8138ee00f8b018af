package browser

import (
	"regexp"
	"strings"

	"github.com/stupside/veil/internal/profile"
)

// Identity is the set of values sent to Chrome through CDP so that headers,
// Client Hints and navigator agree with the profile.
type Identity struct {
	UserAgent         string
	Brands            [][2]string // [brand, majorVersion]
	FullVersionList   [][2]string // [brand, fullVersion]
	Platform          string      // Client Hints platform (e.g. "Windows")
	PlatformVersion   string
	Architecture      string
	Bitness           string
	Mobile            bool
	NavigatorPlatform string
	AcceptLanguage    string
	Languages         []string
}

type platformPreset struct {
	chPlatform   string
	architecture string
	bitness      string
}

// platformPresets maps navigator.platform to Client Hints values.
var platformPresets = map[string]platformPreset{
	"Win32":        {"Windows", "x86", "64"},
	"MacIntel":     {"macOS", "x86", "64"},
	"Linux x86_64": {"Linux", "x86", "64"},
	"Linux armv81": {"Android", "arm", "64"},
	"iPhone":       {"iOS", "arm", "64"},
}

var greaseBrands = []string{`Not A(Brand`, `Not/A)Brand`, `Not_A Brand`}

var chromeVersionPattern = regexp.MustCompile(`Chrome/((\d+)[\d.]*)`)

// NewIdentity derives the CDP identity from a profile. The GREASE brand is
// picked from the seed so it is stable for a profile.
func NewIdentity(p *profile.Profile) Identity {
	plat, ok := platformPresets[p.UA.Platform]
	if !ok {
		plat = platformPresets["Win32"]
	}

	full, major := "146.0.0.0", "146"
	if m := chromeVersionPattern.FindStringSubmatch(p.UA.UAString); m != nil {
		full, major = m[1], m[2]
	}

	grease := greaseBrands[uint(p.GlobalSeed)%uint(len(greaseBrands))]
	languages := languageList(p.UA.Language)

	return Identity{
		UserAgent:         p.UA.UAString,
		Brands:            buildBrands(grease, major),
		FullVersionList:   buildFullVersionList(grease, full),
		Platform:          plat.chPlatform,
		PlatformVersion:   p.UA.PlatformVersion,
		Architecture:      plat.architecture,
		Bitness:           plat.bitness,
		Mobile:            p.UA.Mobile,
		NavigatorPlatform: p.UA.Platform,
		AcceptLanguage:    acceptLanguage(languages),
		Languages:         languages,
	}
}

func buildBrands(grease, major string) [][2]string {
	return [][2]string{
		{grease, "8"},
		{"Chromium", major},
		{"Google Chrome", major},
	}
}

func buildFullVersionList(grease, full string) [][2]string {
	return [][2]string{
		{grease, "8.0.0.0"},
		{"Chromium", full},
		{"Google Chrome", full},
	}
}

// languageList expands a locale into navigator.languages: "de-DE" becomes
// ["de-DE", "de"].
func languageList(lang string) []string {
	if lang == "" {
		lang = "en-US"
	}
	base, _, found := strings.Cut(lang, "-")
	if !found || base == "" {
		return []string{lang}
	}
	return []string{lang, base}
}

func acceptLanguage(languages []string) string {
	var b strings.Builder
	for i, l := range languages {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(l)
		if i > 0 {
			b.WriteString(";q=0.9")
		}
	}
	return b.String()
}
