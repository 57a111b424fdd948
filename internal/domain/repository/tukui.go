package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/PuerkitoBio/goquery"
)

// Tukui serves its own UI suites under these reserved ids.
const (
	TukuiUIID = "-1"
	ElvUIID   = "-2"
)

type tukuiAddon struct {
	ID         flexString `json:"id"`
	Name       string     `json:"name"`
	SmallDesc  string     `json:"small_desc"`
	Author     string     `json:"author"`
	Version    string     `json:"version"`
	WebURL     string     `json:"web_url"`
	URL        string     `json:"url"`
	Changelog  string     `json:"changelog"`
	LastUpdate string     `json:"lastupdate"`
	Patch      string     `json:"patch"`
	Downloads  flexString `json:"downloads"`
}

// Tukui resolves packages on the Tukui catalog.
type Tukui struct {
	baseURL string
	fetcher Fetcher
}

// NewTukui creates a Tukui backend
func NewTukui(baseURL string, fetcher Fetcher) *Tukui {
	return &Tukui{baseURL: strings.TrimRight(baseURL, "/"), fetcher: fetcher}
}

// Kind returns types.KindTukui
func (t *Tukui) Kind() types.RepositoryKind { return types.KindTukui }

// endpoint returns the API query for one addon of flavor.
func (t *Tukui) endpoint(flavor types.Flavor, id string) string {
	switch id {
	case TukuiUIID:
		return t.baseURL + "/api.php?ui=tukui"
	case ElvUIID:
		return t.baseURL + "/api.php?ui=elvui"
	}
	switch flavor.Base() {
	case types.FlavorClassicEra:
		return fmt.Sprintf("%s/api.php?classic-addon=%s", t.baseURL, id)
	case types.FlavorClassicTBC:
		return fmt.Sprintf("%s/api.php?classic-tbc-addon=%s", t.baseURL, id)
	default:
		return fmt.Sprintf("%s/api.php?addon=%s", t.baseURL, id)
	}
}

// catalog returns the API query listing every addon of flavor.
func (t *Tukui) catalog(flavor types.Flavor) string {
	switch flavor.Base() {
	case types.FlavorClassicEra:
		return t.baseURL + "/api.php?classic-addons=all"
	case types.FlavorClassicTBC:
		return t.baseURL + "/api.php?classic-tbc-addons=all"
	default:
		return t.baseURL + "/api.php?addons=all"
	}
}

func parseTukuiDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func (a tukuiAddon) pkg(id string) *Package {
	downloads, err := a.Downloads.Int64()
	if err != nil {
		// unreadable counters are reported as zero
		downloads = 0
	}

	return NewPackage(types.KindTukui, id, Metadata{
		Title:         a.Name,
		Author:        a.Author,
		Summary:       a.SmallDesc,
		WebsiteURL:    a.WebURL,
		ChangelogURL:  a.Changelog,
		GameVersion:   a.Patch,
		DownloadCount: downloads,
	}, []Release{{
		Version:     a.Version,
		Channel:     types.ChannelStable,
		DownloadURL: a.URL,
		Date:        parseTukuiDate(a.LastUpdate),
		GameVersion: a.Patch,
	}})
}

// Fetch resolves one addon id
func (t *Tukui) Fetch(ctx context.Context, flavor types.Flavor, id string) (*Package, error) {
	if id == "" {
		return nil, &types.RepositoryError{Kind: types.KindTukui, Reason: types.ReasonInvalidID}
	}

	var addon tukuiAddon
	if err := t.fetcher.GetJSON(ctx, t.endpoint(flavor, id), nil, &addon); err != nil {
		return nil, transportError(types.KindTukui, id, err)
	}
	// The API answers unknown ids with an empty object
	if addon.ID == "" && addon.Name == "" {
		return nil, &types.RepositoryError{Kind: types.KindTukui, ID: id, Reason: types.ReasonNotFound}
	}
	return addon.pkg(id), nil
}

// Batch resolves many ids with one catalog request, plus one request per
// UI suite id.
func (t *Tukui) Batch(ctx context.Context, flavor types.Flavor, ids []string) (map[string]*Package, error) {
	out := make(map[string]*Package, len(ids))
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		switch id {
		case TukuiUIID, ElvUIID:
			pkg, err := t.Fetch(ctx, flavor, id)
			if err != nil {
				if types.IsNotFound(err) {
					continue
				}
				return nil, err
			}
			out[id] = pkg
		default:
			wanted[id] = true
		}
	}
	if len(wanted) == 0 {
		return out, nil
	}

	var addons []tukuiAddon
	if err := t.fetcher.GetJSON(ctx, t.catalog(flavor), nil, &addons); err != nil {
		return nil, transportError(types.KindTukui, "", err)
	}
	for _, a := range addons {
		if id := a.ID.String(); wanted[id] {
			out[id] = a.pkg(id)
		}
	}
	return out, nil
}

// Changelog extracts the changelog text from the package's changelog page.
func (t *Tukui) Changelog(ctx context.Context, _ types.Flavor, pkg *Package, _ Release) (string, error) {
	url := pkg.Metadata().ChangelogURL
	if url == "" {
		return "", ErrNoChangelog
	}

	page, err := t.fetcher.GetText(ctx, url)
	if err != nil {
		return "", transportError(types.KindTukui, pkg.ID(), err)
	}
	text, err := changelogFromHTML(page)
	if err != nil {
		return "", &types.RepositoryError{Kind: types.KindTukui, ID: pkg.ID(), Reason: types.ReasonTransport, Err: err}
	}
	if text == "" {
		return "", ErrNoChangelog
	}
	return text, nil
}

// changelogFromHTML renders headings, paragraphs and list items of a
// changelog page as plain text lines.
func changelogFromHTML(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse changelog page: %w", err)
	}

	root := doc.Find("#changelog, .changelog").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var lines []string
	root.Find("h1, h2, h3, h4, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		if goquery.NodeName(s) == "li" {
			text = "- " + text
		}
		lines = append(lines, text)
	})
	if len(lines) == 0 {
		return strings.TrimSpace(root.Text()), nil
	}
	return strings.Join(lines, "\n"), nil
}
