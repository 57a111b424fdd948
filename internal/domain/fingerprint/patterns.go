package fingerprint

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// Patterns follow the content addressed repository so that locally computed
// fingerprints match the ones it publishes. Paths containing ".." are never
// followed.
var (
	tocComment   = regexp2.MustCompile(`(?m)\s*#.*$`, regexp2.None)
	xmlComment   = regexp2.MustCompile(`(?s)<!--.*?-->`, regexp2.None)
	tocInclusion = regexp2.MustCompile(`(?mi)^\s*((?:(?<!\.\.).)+\.(?:xml|lua))\s*$`, regexp2.None)
	xmlInclusion = regexp2.MustCompile(`(?i)<(?:Include|Script)\s+file=["']((?:(?<!\.\.).)+)["']\s*/>`, regexp2.None)
	bindings     = regexp2.MustCompile(`(?i)^Bindings\.xml$`, regexp2.None)
)

// initialInclusion matches the files of folder that seed the traversal:
// its TOC files, including flavor specific ones, and its same-named XML.
func initialInclusion(folder string) *regexp2.Regexp {
	return regexp2.MustCompile(
		fmt.Sprintf(`(?i)^%s(?:[-_](?:mainline|bcc|tbc|classic|vanilla|wrath|cata))?\.toc$|^%s\.xml$`,
			regexp2.Escape(folder), regexp2.Escape(folder)),
		regexp2.None)
}

// submatches returns capture group 1 of every match of re in s.
func submatches(re *regexp2.Regexp, s string) []string {
	var out []string
	m, err := re.FindStringMatch(s)
	for err == nil && m != nil {
		if g := m.GroupByNumber(1); g != nil && g.Length > 0 {
			out = append(out, g.String())
		}
		m, err = re.FindNextMatch(m)
	}
	return out
}

func strip(re *regexp2.Regexp, s string) string {
	out, err := re.Replace(s, "", -1, -1)
	if err != nil {
		return s
	}
	return out
}

func matches(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}
