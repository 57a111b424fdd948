package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/GriffinCanCode/chmon/internal/shared/utils"
)

type curseFile struct {
	ID                int64         `json:"id"`
	DisplayName       string        `json:"displayName"`
	FileName          string        `json:"fileName"`
	FileDate          time.Time     `json:"fileDate"`
	ReleaseType       int           `json:"releaseType"`
	DownloadURL       string        `json:"downloadUrl"`
	IsAlternate       bool          `json:"isAlternate"`
	GameVersion       []string      `json:"gameVersion"`
	GameVersionFlavor string        `json:"gameVersionFlavor"`
	Modules           []curseModule `json:"modules"`
}

type curseModule struct {
	Foldername  string `json:"foldername"`
	Fingerprint uint32 `json:"fingerprint"`
}

type curseAuthor struct {
	Name string `json:"name"`
}

type curseAddon struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Authors       []curseAuthor `json:"authors"`
	Summary       string        `json:"summary"`
	WebsiteURL    string        `json:"websiteUrl"`
	DownloadCount float64       `json:"downloadCount"`
	LatestFiles   []curseFile   `json:"latestFiles"`
}

type curseFingerprintMatch struct {
	ID          int64       `json:"id"`
	File        curseFile   `json:"file"`
	LatestFiles []curseFile `json:"latestFiles"`
}

type curseFingerprintResponse struct {
	ExactMatches []curseFingerprintMatch `json:"exactMatches"`
}

// Curse resolves packages on the content addressed repository.
type Curse struct {
	baseURL string
	fetcher Fetcher
}

// NewCurse creates a Curse backend
func NewCurse(baseURL string, fetcher Fetcher) *Curse {
	return &Curse{baseURL: strings.TrimRight(baseURL, "/"), fetcher: fetcher}
}

// Kind returns types.KindCurse
func (c *Curse) Kind() types.RepositoryKind { return types.KindCurse }

// curseFlavor is the gameVersionFlavor the API publishes files under.
func curseFlavor(flavor types.Flavor) string {
	switch flavor.Base() {
	case types.FlavorClassicTBC:
		return "wow_burning_crusade"
	case types.FlavorClassicEra:
		return "wow_classic"
	default:
		return "wow_retail"
	}
}

func curseChannel(releaseType int) types.ReleaseChannel {
	switch releaseType {
	case 2:
		return types.ChannelBeta
	case 3:
		return types.ChannelAlpha
	default:
		return types.ChannelStable
	}
}

func (f curseFile) release() Release {
	modules := make([]string, 0, len(f.Modules))
	for _, m := range f.Modules {
		modules = append(modules, m.Foldername)
	}
	gameVersion := ""
	if len(f.GameVersion) > 0 {
		gameVersion = f.GameVersion[0]
	}
	return Release{
		Version:     f.DisplayName,
		Channel:     curseChannel(f.ReleaseType),
		FileID:      strconv.FormatInt(f.ID, 10),
		DownloadURL: f.DownloadURL,
		Date:        f.FileDate,
		GameVersion: gameVersion,
		Modules:     modules,
	}
}

func (a curseAddon) pkg(flavor types.Flavor) *Package {
	want := curseFlavor(flavor)
	var releases []Release
	for _, f := range a.LatestFiles {
		if f.IsAlternate || f.GameVersionFlavor != want {
			continue
		}
		releases = append(releases, f.release())
	}

	author := ""
	if len(a.Authors) > 0 {
		author = a.Authors[0].Name
	}
	return NewPackage(types.KindCurse, strconv.FormatInt(a.ID, 10), Metadata{
		Title:         a.Name,
		Author:        author,
		Summary:       a.Summary,
		WebsiteURL:    a.WebsiteURL,
		DownloadCount: int64(a.DownloadCount),
	}, releases)
}

// Fetch resolves one project id
func (c *Curse) Fetch(ctx context.Context, flavor types.Flavor, id string) (*Package, error) {
	pkgs, err := c.Batch(ctx, flavor, []string{id})
	if err != nil {
		return nil, err
	}
	pkg, ok := pkgs[id]
	if !ok {
		return nil, &types.RepositoryError{Kind: types.KindCurse, ID: id, Reason: types.ReasonNotFound}
	}
	return pkg, nil
}

// Batch resolves project ids with one request
func (c *Curse) Batch(ctx context.Context, flavor types.Flavor, ids []string) (map[string]*Package, error) {
	numeric := make([]int64, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, &types.RepositoryError{Kind: types.KindCurse, ID: id, Reason: types.ReasonInvalidID, Err: err}
		}
		numeric = append(numeric, n)
	}
	if len(numeric) == 0 {
		return map[string]*Package{}, nil
	}

	var addons []curseAddon
	if err := c.fetcher.PostJSON(ctx, c.baseURL+"/addon", numeric, &addons); err != nil {
		return nil, transportError(types.KindCurse, "", err)
	}

	out := make(map[string]*Package, len(addons))
	for _, a := range addons {
		pkg := a.pkg(flavor)
		out[pkg.ID()] = pkg
	}
	return out, nil
}

// MatchFingerprints looks up folder fingerprints and returns the packages
// whose published files match exactly, with the installed file recorded.
func (c *Curse) MatchFingerprints(ctx context.Context, flavor types.Flavor, fingerprints []uint32) ([]FingerprintMatch, error) {
	if len(fingerprints) == 0 {
		return nil, nil
	}

	var resp curseFingerprintResponse
	if err := c.fetcher.PostJSON(ctx, c.baseURL+"/fingerprint", fingerprints, &resp); err != nil {
		return nil, transportError(types.KindCurse, "", err)
	}

	ids := make([]string, 0, len(resp.ExactMatches))
	for _, m := range resp.ExactMatches {
		ids = append(ids, strconv.FormatInt(m.ID, 10))
	}
	pkgs, err := c.Batch(ctx, flavor, ids)
	if err != nil {
		return nil, err
	}

	matches := make([]FingerprintMatch, 0, len(resp.ExactMatches))
	for _, m := range resp.ExactMatches {
		id := strconv.FormatInt(m.ID, 10)
		pkg, ok := pkgs[id]
		if !ok {
			// Project unknown to the batch endpoint; build it from the match
			pkg = curseAddon{ID: m.ID, Name: m.File.DisplayName, LatestFiles: m.LatestFiles}.pkg(flavor)
		}

		meta := pkg.Metadata()
		meta.FileID = strconv.FormatInt(m.File.ID, 10)
		if len(m.File.GameVersion) > 0 {
			meta.GameVersion = m.File.GameVersion[0]
		}
		meta.ChangelogURL = c.changelogURL(id, meta.FileID)

		modules := make([]Module, 0, len(m.File.Modules))
		for _, mod := range m.File.Modules {
			modules = append(modules, Module{Folder: mod.Foldername, Fingerprint: mod.Fingerprint})
		}
		matches = append(matches, FingerprintMatch{Package: pkg.WithMetadata(meta), Modules: modules})
	}
	return matches, nil
}

func (c *Curse) changelogURL(id, fileID string) string {
	return fmt.Sprintf("%s/addon/%s/file/%s/changelog", c.baseURL, id, fileID)
}

// Changelog fetches the HTML changelog of a file and converts it to text
func (c *Curse) Changelog(ctx context.Context, _ types.Flavor, pkg *Package, release Release) (string, error) {
	if release.FileID == "" {
		return "", ErrNoChangelog
	}
	text, err := c.fetcher.GetText(ctx, c.changelogURL(pkg.ID(), release.FileID))
	if err != nil {
		return "", transportError(types.KindCurse, pkg.ID(), err)
	}
	return utils.HTMLToText(text), nil
}

// transportError classifies a fetch failure.
func transportError(kind types.RepositoryKind, id string, err error) error {
	reason := types.ReasonTransport
	if httpStatus(err) == http.StatusNotFound {
		reason = types.ReasonNotFound
	}
	return &types.RepositoryError{Kind: kind, ID: id, Reason: reason, Err: err}
}

// httpStatus extracts the status of a non-2xx answer, or 0.
func httpStatus(err error) int {
	var statusErr interface{ HTTPStatus() int }
	if errors.As(err, &statusErr) {
		return statusErr.HTTPStatus()
	}
	return 0
}
