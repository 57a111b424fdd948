package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/chmon/internal/shared/types"
)

type wowiAddon struct {
	UID        flexString `json:"UID"`
	Name       string     `json:"UIName"`
	Version    string     `json:"UIVersion"`
	Date       int64      `json:"UIDate"`
	Author     string     `json:"UIAuthorName"`
	Download   string     `json:"UIDownload"`
	FileName   string     `json:"UIFileName"`
	FileInfo   string     `json:"UIFileInfoURL"`
	Folders    []string   `json:"UIDir"`
	Downloads  int64      `json:"UIDownloadTotal"`
	Changelog  string     `json:"UIChangeLog"`
	Compatible []struct {
		Version string `json:"version"`
	} `json:"UICompatibility"`
}

// WowI resolves packages on WoWInterface.
type WowI struct {
	baseURL string
	fetcher Fetcher
}

// NewWowI creates a WoWInterface backend
func NewWowI(baseURL string, fetcher Fetcher) *WowI {
	return &WowI{baseURL: strings.TrimRight(baseURL, "/"), fetcher: fetcher}
}

// Kind returns types.KindWowI
func (w *WowI) Kind() types.RepositoryKind { return types.KindWowI }

func (a wowiAddon) pkg() *Package {
	id := a.UID.String()
	gameVersion := ""
	if len(a.Compatible) > 0 {
		gameVersion = a.Compatible[0].Version
	}
	website := a.FileInfo
	if website == "" {
		website = fmt.Sprintf("https://www.wowinterface.com/downloads/info%s", id)
	}

	return NewPackage(types.KindWowI, id, Metadata{
		Title:         a.Name,
		Author:        a.Author,
		WebsiteURL:    website,
		ChangelogURL:  website + "#changelog",
		GameVersion:   gameVersion,
		DownloadCount: a.Downloads,
	}, []Release{{
		Version:     a.Version,
		Channel:     types.ChannelStable,
		DownloadURL: a.Download,
		Date:        time.UnixMilli(a.Date).UTC(),
		GameVersion: gameVersion,
		Modules:     a.Folders,
		Notes:       a.Changelog,
	}})
}

// Fetch resolves one file id
func (w *WowI) Fetch(ctx context.Context, flavor types.Flavor, id string) (*Package, error) {
	pkgs, err := w.Batch(ctx, flavor, []string{id})
	if err != nil {
		return nil, err
	}
	pkg, ok := pkgs[id]
	if !ok {
		return nil, &types.RepositoryError{Kind: types.KindWowI, ID: id, Reason: types.ReasonNotFound}
	}
	return pkg, nil
}

// Batch resolves file ids with one request
func (w *WowI) Batch(ctx context.Context, _ types.Flavor, ids []string) (map[string]*Package, error) {
	for _, id := range ids {
		if id == "" || strings.ContainsAny(id, ",/") {
			return nil, &types.RepositoryError{Kind: types.KindWowI, ID: id, Reason: types.ReasonInvalidID}
		}
	}
	if len(ids) == 0 {
		return map[string]*Package{}, nil
	}

	var addons []wowiAddon
	url := fmt.Sprintf("%s/filedetails/%s.json", w.baseURL, strings.Join(ids, ","))
	if err := w.fetcher.GetJSON(ctx, url, nil, &addons); err != nil {
		if httpStatus(err) == http.StatusNotFound {
			return map[string]*Package{}, nil
		}
		return nil, transportError(types.KindWowI, "", err)
	}

	out := make(map[string]*Package, len(addons))
	for _, a := range addons {
		pkg := a.pkg()
		out[pkg.ID()] = pkg
	}
	return out, nil
}

// Changelog returns the notes published with the file
func (w *WowI) Changelog(_ context.Context, _ types.Flavor, _ *Package, release Release) (string, error) {
	if strings.TrimSpace(release.Notes) == "" {
		return "", ErrNoChangelog
	}
	return cleanBBCode(release.Notes), nil
}

// cleanBBCode drops the most common forum markup from WoWInterface notes.
func cleanBBCode(s string) string {
	r := strings.NewReplacer(
		"[b]", "", "[/b]", "", "[i]", "", "[/i]", "", "[u]", "", "[/u]", "",
		"[list]", "", "[/list]", "", "[*]", "- ", "[code]", "", "[/code]", "",
		"\r\n", "\n",
	)
	return strings.TrimSpace(r.Replace(s))
}
