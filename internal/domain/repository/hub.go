package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/GriffinCanCode/chmon/internal/shared/utils"
)

type hubRelease struct {
	ID          flexString `json:"id"`
	Name        string     `json:"name"`
	TagName     string     `json:"tag_name"`
	Prerelease  bool       `json:"prerelease"`
	Body        string     `json:"body"`
	GameType    string     `json:"game_type"`
	PublishedAt time.Time  `json:"published_at"`
	DownloadURL string     `json:"download_url"`
}

type hubAddon struct {
	ID          flexString   `json:"id"`
	Name        string       `json:"repository_name"`
	Owner       string       `json:"owner_name"`
	Description string       `json:"description"`
	Homepage    string       `json:"homepage"`
	Downloads   int64        `json:"total_download_count"`
	Releases    []hubRelease `json:"releases"`
}

type hubBatchRequest struct {
	AddonIDs []string `json:"addonIds"`
}

type hubBatchResponse struct {
	Addons []hubAddon `json:"addons"`
}

// Hub resolves packages on the community addon hub.
type Hub struct {
	baseURL string
	fetcher Fetcher
}

// NewHub creates a Hub backend
func NewHub(baseURL string, fetcher Fetcher) *Hub {
	return &Hub{baseURL: strings.TrimRight(baseURL, "/"), fetcher: fetcher}
}

// Kind returns types.KindHub
func (h *Hub) Kind() types.RepositoryKind { return types.KindHub }

func hubGameType(flavor types.Flavor) string {
	switch flavor.Base() {
	case types.FlavorClassicTBC:
		return "burningCrusade"
	case types.FlavorClassicEra:
		return "classic"
	default:
		return "retail"
	}
}

func (a hubAddon) pkg(flavor types.Flavor) *Package {
	want := hubGameType(flavor)
	var releases []Release
	for _, r := range a.Releases {
		if r.GameType != "" && r.GameType != want {
			continue
		}
		channel := types.ChannelStable
		if r.Prerelease {
			channel = types.ChannelBeta
		}
		version := r.TagName
		if version == "" {
			version = r.Name
		}
		releases = append(releases, Release{
			Version:     version,
			Channel:     channel,
			FileID:      r.ID.String(),
			DownloadURL: r.DownloadURL,
			Date:        r.PublishedAt,
			Notes:       r.Body,
		})
	}

	return NewPackage(types.KindHub, a.ID.String(), Metadata{
		Title:         a.Name,
		Author:        a.Owner,
		Summary:       a.Description,
		WebsiteURL:    a.Homepage,
		DownloadCount: a.Downloads,
	}, releases)
}

// Fetch resolves one hub id
func (h *Hub) Fetch(ctx context.Context, flavor types.Flavor, id string) (*Package, error) {
	if id == "" {
		return nil, &types.RepositoryError{Kind: types.KindHub, Reason: types.ReasonInvalidID}
	}
	var addon hubAddon
	if err := h.fetcher.GetJSON(ctx, fmt.Sprintf("%s/addons/%s", h.baseURL, id), nil, &addon); err != nil {
		return nil, transportError(types.KindHub, id, err)
	}
	return addon.pkg(flavor), nil
}

// Batch resolves hub ids with one request
func (h *Hub) Batch(ctx context.Context, flavor types.Flavor, ids []string) (map[string]*Package, error) {
	if len(ids) == 0 {
		return map[string]*Package{}, nil
	}

	var resp hubBatchResponse
	url := fmt.Sprintf("%s/addons/batch/%s", h.baseURL, hubGameType(flavor))
	if err := h.fetcher.PostJSON(ctx, url, hubBatchRequest{AddonIDs: ids}, &resp); err != nil {
		return nil, transportError(types.KindHub, "", err)
	}

	out := make(map[string]*Package, len(resp.Addons))
	for _, a := range resp.Addons {
		pkg := a.pkg(flavor)
		out[pkg.ID()] = pkg
	}
	return out, nil
}

// Changelog returns the release notes, which the hub serves as HTML
func (h *Hub) Changelog(_ context.Context, _ types.Flavor, _ *Package, release Release) (string, error) {
	if strings.TrimSpace(release.Notes) == "" {
		return "", ErrNoChangelog
	}
	return utils.HTMLToText(release.Notes), nil
}
