package repository

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/gobwas/glob"
)

// Git hosts a Git backend understands.
const (
	HostGitHub = "github.com"
	HostGitLab = "gitlab.com"
)

type githubAsset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	ContentType string `json:"content_type"`
}

type githubRelease struct {
	ID          int64         `json:"id"`
	TagName     string        `json:"tag_name"`
	Name        string        `json:"name"`
	Body        string        `json:"body"`
	Draft       bool          `json:"draft"`
	Prerelease  bool          `json:"prerelease"`
	PublishedAt time.Time     `json:"published_at"`
	Assets      []githubAsset `json:"assets"`
}

type githubRepo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type gitlabLink struct {
	Name           string `json:"name"`
	URL            string `json:"url"`
	DirectAssetURL string `json:"direct_asset_url"`
}

type gitlabRelease struct {
	TagName         string    `json:"tag_name"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	ReleasedAt      time.Time `json:"released_at"`
	UpcomingRelease bool      `json:"upcoming_release"`
	Assets          struct {
		Links []gitlabLink `json:"links"`
	} `json:"assets"`
}

type gitlabProject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	WebURL      string `json:"web_url"`
	Namespace   struct {
		Name string `json:"name"`
	} `json:"namespace"`
}

// Asset name patterns per flavor, matched against lower-cased names.
var (
	classicAssets = glob.MustCompile("{*classic*,*vanilla*,*-era*}")
	tbcAssets     = glob.MustCompile("{*bcc*,*tbc*,*burning*}")
	zipAssets     = glob.MustCompile("*.zip")
)

// Git resolves packages published as releases of GitHub or GitLab projects.
// Ids have the form host/owner/name.
type Git struct {
	githubURL   string
	gitlabURL   string
	githubToken string
	fetcher     Fetcher
}

// NewGit creates a Git backend
func NewGit(githubURL, gitlabURL, githubToken string, fetcher Fetcher) *Git {
	return &Git{
		githubURL:   strings.TrimRight(githubURL, "/"),
		gitlabURL:   strings.TrimRight(gitlabURL, "/"),
		githubToken: githubToken,
		fetcher:     fetcher,
	}
}

// Kind returns types.KindGit
func (g *Git) Kind() types.RepositoryKind { return types.KindGit }

// ParseSource turns a project URL into an id, e.g.
// https://github.com/owner/Addon/releases -> github.com/owner/Addon.
func (g *Git) ParseSource(rawURL string) (string, error) {
	invalid := func(err error) error {
		return &types.RepositoryError{Kind: types.KindGit, ID: rawURL, Reason: types.ReasonInvalidURL, Err: err}
	}

	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", invalid(err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	switch host {
	case HostGitHub:
		if len(segments) < 2 {
			return "", invalid(fmt.Errorf("expected %s/owner/repository", HostGitHub))
		}
		return fmt.Sprintf("%s/%s/%s", HostGitHub, segments[0], strings.TrimSuffix(segments[1], ".git")), nil
	case HostGitLab:
		// GitLab groups nest; everything before the first "-" segment is the project
		var project []string
		for _, s := range segments {
			if s == "-" {
				break
			}
			project = append(project, s)
		}
		if len(project) < 2 {
			return "", invalid(fmt.Errorf("expected %s/group/project", HostGitLab))
		}
		project[len(project)-1] = strings.TrimSuffix(project[len(project)-1], ".git")
		return HostGitLab + "/" + strings.Join(project, "/"), nil
	default:
		return "", invalid(fmt.Errorf("unsupported host %q", u.Host))
	}
}

// splitID separates the host from the project path of an id.
func splitID(id string) (host, path string, err error) {
	host, path, ok := strings.Cut(id, "/")
	if !ok || path == "" || (host != HostGitHub && host != HostGitLab) {
		return "", "", &types.RepositoryError{Kind: types.KindGit, ID: id, Reason: types.ReasonInvalidID}
	}
	return host, path, nil
}

// pickAsset chooses the archive built for flavor. A single zip serves every
// flavor; otherwise classic and tbc builds are recognised by name and retail
// takes the archive matching neither.
func pickAsset(flavor types.Flavor, names []string) (int, bool) {
	var zips []int
	for i, n := range names {
		if zipAssets.Match(strings.ToLower(n)) {
			zips = append(zips, i)
		}
	}
	if len(zips) == 1 {
		return zips[0], true
	}

	for _, i := range zips {
		name := strings.ToLower(names[i])
		isClassic := classicAssets.Match(name)
		isTBC := tbcAssets.Match(name)
		switch flavor.Base() {
		case types.FlavorClassicEra:
			if isClassic && !isTBC {
				return i, true
			}
		case types.FlavorClassicTBC:
			if isTBC {
				return i, true
			}
		default:
			if !isClassic && !isTBC {
				return i, true
			}
		}
	}
	return 0, false
}

func (g *Git) githubHeaders() map[string]string {
	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if g.githubToken != "" {
		headers["Authorization"] = "Bearer " + g.githubToken
	}
	return headers
}

func (g *Git) fetchGitHub(ctx context.Context, flavor types.Flavor, id, path string) (*Package, error) {
	var repo githubRepo
	if err := g.fetcher.GetJSON(ctx, fmt.Sprintf("%s/repos/%s", g.githubURL, path), g.githubHeaders(), &repo); err != nil {
		return nil, transportError(types.KindGit, id, err)
	}
	var releases []githubRelease
	if err := g.fetcher.GetJSON(ctx, fmt.Sprintf("%s/repos/%s/releases", g.githubURL, path), g.githubHeaders(), &releases); err != nil {
		return nil, transportError(types.KindGit, id, err)
	}

	var out []Release
	for _, r := range releases {
		if r.Draft {
			continue
		}
		names := make([]string, len(r.Assets))
		for i, a := range r.Assets {
			names[i] = a.Name
		}
		idx, ok := pickAsset(flavor, names)
		if !ok {
			continue
		}
		channel := types.ChannelStable
		if r.Prerelease {
			channel = types.ChannelBeta
		}
		out = append(out, Release{
			Version:     r.TagName,
			Channel:     channel,
			FileID:      fmt.Sprint(r.ID),
			DownloadURL: r.Assets[idx].DownloadURL,
			Date:        r.PublishedAt,
			Notes:       r.Body,
		})
	}

	return NewPackage(types.KindGit, id, Metadata{
		Title:        repo.Name,
		Author:       repo.Owner.Login,
		Summary:      repo.Description,
		WebsiteURL:   repo.HTMLURL,
		ChangelogURL: repo.HTMLURL + "/releases",
	}, out), nil
}

func (g *Git) fetchGitLab(ctx context.Context, flavor types.Flavor, id, path string) (*Package, error) {
	project := url.PathEscape(path)
	var meta gitlabProject
	if err := g.fetcher.GetJSON(ctx, fmt.Sprintf("%s/projects/%s", g.gitlabURL, project), nil, &meta); err != nil {
		return nil, transportError(types.KindGit, id, err)
	}
	var releases []gitlabRelease
	if err := g.fetcher.GetJSON(ctx, fmt.Sprintf("%s/projects/%s/releases", g.gitlabURL, project), nil, &releases); err != nil {
		return nil, transportError(types.KindGit, id, err)
	}

	var out []Release
	for _, r := range releases {
		names := make([]string, len(r.Assets.Links))
		for i, l := range r.Assets.Links {
			names[i] = l.Name
		}
		idx, ok := pickAsset(flavor, names)
		if !ok {
			continue
		}
		link := r.Assets.Links[idx]
		download := link.DirectAssetURL
		if download == "" {
			download = link.URL
		}
		channel := types.ChannelStable
		if r.UpcomingRelease {
			channel = types.ChannelBeta
		}
		out = append(out, Release{
			Version:     r.TagName,
			Channel:     channel,
			FileID:      r.TagName,
			DownloadURL: download,
			Date:        r.ReleasedAt,
			Notes:       r.Description,
		})
	}

	return NewPackage(types.KindGit, id, Metadata{
		Title:        meta.Name,
		Author:       meta.Namespace.Name,
		Summary:      meta.Description,
		WebsiteURL:   meta.WebURL,
		ChangelogURL: meta.WebURL + "/-/releases",
	}, out), nil
}

// Fetch resolves one host/owner/name id
func (g *Git) Fetch(ctx context.Context, flavor types.Flavor, id string) (*Package, error) {
	host, path, err := splitID(id)
	if err != nil {
		return nil, err
	}
	if host == HostGitHub {
		return g.fetchGitHub(ctx, flavor, id, path)
	}
	return g.fetchGitLab(ctx, flavor, id, path)
}

// Batch resolves ids one by one; neither host offers a batch endpoint.
// Unknown projects are left out, any other failure aborts.
func (g *Git) Batch(ctx context.Context, flavor types.Flavor, ids []string) (map[string]*Package, error) {
	out := make(map[string]*Package, len(ids))
	for _, id := range ids {
		pkg, err := g.Fetch(ctx, flavor, id)
		if err != nil {
			if types.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out[id] = pkg
	}
	return out, nil
}

// Changelog returns the release notes, which both hosts serve as Markdown
func (g *Git) Changelog(_ context.Context, _ types.Flavor, _ *Package, release Release) (string, error) {
	notes := strings.TrimSpace(strings.ReplaceAll(release.Notes, "\r\n", "\n"))
	if notes == "" {
		return "", ErrNoChangelog
	}
	return notes, nil
}
