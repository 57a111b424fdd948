package filesystem

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Manifest is the metadata an addon declares in its TOC file.
type Manifest struct {
	Path         string
	Title        string
	Author       string
	Notes        string
	Version      string
	Interface    string
	Dependencies []string

	// Repository ids declared by the author
	CurseID string
	TukuiID string
	WowIID  string
	WagoID  string
}

var (
	tocDirective = regexp.MustCompile(`^##\s*(.*?)\s*:\s?(.*)$`)
	colorCode    = regexp.MustCompile(`\|[cC][a-fA-F0-9]{8}|\|[rR]`)
)

// tocSuffixes lists the flavor specific TOC suffixes in preference order.
func tocSuffixes(flavor types.Flavor) []string {
	switch flavor.Base() {
	case types.FlavorRetail:
		return []string{"Mainline"}
	case types.FlavorClassicTBC:
		return []string{"TBC", "BCC"}
	case types.FlavorClassicEra:
		return []string{"Vanilla", "Classic"}
	default:
		return nil
	}
}

// FindTOC returns the TOC file the game would load for folder dir: a flavor
// specific one when present, otherwise <Folder>.toc. Names compare without
// case.
func FindTOC(dir string, flavor types.Flavor) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	byName := make(map[string]string, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			byName[strings.ToLower(e.Name())] = e.Name()
		}
	}

	folder := filepath.Base(dir)
	for _, suffix := range tocSuffixes(flavor) {
		for _, sep := range []string{"-", "_"} {
			name := strings.ToLower(folder + sep + suffix + ".toc")
			if actual, ok := byName[name]; ok {
				return filepath.Join(dir, actual), true
			}
		}
	}
	if actual, ok := byName[strings.ToLower(folder+".toc")]; ok {
		return filepath.Join(dir, actual), true
	}
	return "", false
}

// ParseTOC reads a TOC file, decoding legacy encodings to UTF-8.
func ParseTOC(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ParseError{Path: path, Err: err}
	}
	text, err := decodeText(data)
	if err != nil {
		return nil, &types.ParseError{Path: path, Err: err}
	}

	m := &Manifest{Path: path}
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		match := tocDirective.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if match == nil {
			continue
		}
		m.apply(match[1], strings.TrimSpace(match[2]))
	}
	if err := scanner.Err(); err != nil {
		return nil, &types.ParseError{Path: path, Err: err}
	}
	return m, nil
}

func (m *Manifest) apply(key, value string) {
	switch strings.ToLower(key) {
	case "title":
		m.Title = strings.TrimSpace(colorCode.ReplaceAllString(value, ""))
	case "author":
		m.Author = value
	case "notes":
		m.Notes = colorCode.ReplaceAllString(value, "")
	case "version":
		m.Version = value
	case "interface":
		m.Interface = value
	case "dependencies", "requireddeps", "dependancies":
		for _, dep := range strings.Split(value, ",") {
			if dep = strings.TrimSpace(dep); dep != "" {
				m.Dependencies = append(m.Dependencies, dep)
			}
		}
	case "x-curse-project-id":
		m.CurseID = value
	case "x-tukui-projectid":
		m.TukuiID = value
	case "x-wowi-id":
		m.WowIID = value
	case "x-wago-id":
		m.WagoID = value
	}
}

// decodeText returns data as UTF-8 without a byte order mark.
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		r := transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(unicode.UTF8.NewDecoder()))
		out, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("decode utf-8: %w", err)
		}
		return string(out), nil
	}

	label := "windows-1252"
	if result, err := chardet.NewTextDetector().DetectBest(data); err == nil && result != nil {
		label = strings.ToLower(result.Charset)
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		r, err = charset.NewReaderLabel("windows-1252", bytes.NewReader(data))
		if err != nil {
			return "", err
		}
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", label, err)
	}
	return string(out), nil
}
