package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GriffinCanCode/chmon/internal/domain/repository"
	"github.com/GriffinCanCode/chmon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/GriffinCanCode/chmon/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const curseAddons = `[{
	"id": 1337, "name": "Details", "authors": [{"name": "Terciob"}], "summary": "Damage meter",
	"websiteUrl": "https://www.curseforge.com/wow/addons/details", "downloadCount": 1000.0,
	"latestFiles": [
		{"id": 11, "displayName": "Details.9.0.1", "fileDate": "2021-03-01T10:00:00Z", "releaseType": 1,
		 "downloadUrl": "https://edge.forgecdn.net/11.zip", "gameVersionFlavor": "wow_retail",
		 "gameVersion": ["9.0.5"], "modules": [{"foldername": "Details", "fingerprint": 1}]},
		{"id": 12, "displayName": "Details.9.0.2-beta", "fileDate": "2021-03-05T10:00:00Z", "releaseType": 2,
		 "downloadUrl": "https://edge.forgecdn.net/12.zip", "gameVersionFlavor": "wow_retail"},
		{"id": 13, "displayName": "Details.9.0.2-nolib", "fileDate": "2021-03-06T10:00:00Z", "releaseType": 1,
		 "isAlternate": true, "gameVersionFlavor": "wow_retail"},
		{"id": 14, "displayName": "Details.1.13.7", "fileDate": "2021-03-07T10:00:00Z", "releaseType": 1,
		 "gameVersionFlavor": "wow_classic"}
	]
}]`

func TestCurseBatchFiltersFlavorAndAlternates(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	fetcher.On("PostJSON", "https://curse.test/addon", []int64{1337}).Return(curseAddons, nil)

	curse := repository.NewCurse("https://curse.test/", fetcher)
	pkgs, err := curse.Batch(context.Background(), types.FlavorRetail, []string{"1337"})
	require.NoError(t, err)

	pkg := pkgs["1337"]
	require.NotNil(t, pkg)
	assert.Equal(t, "Details", pkg.Metadata().Title)
	assert.Equal(t, "Terciob", pkg.Metadata().Author)

	releases := pkg.Releases()
	require.Len(t, releases, 2)
	assert.Equal(t, types.ChannelStable, releases[0].Channel)
	assert.Equal(t, "11", releases[0].FileID)
	assert.Equal(t, []string{"Details"}, releases[0].Modules)
	assert.Equal(t, types.ChannelBeta, releases[1].Channel)

	fetcher.AssertExpectations(t)
}

func TestCurseBatchRejectsNonNumericID(t *testing.T) {
	curse := repository.NewCurse("https://curse.test", new(testutil.MockFetcher))
	_, err := curse.Batch(context.Background(), types.FlavorRetail, []string{"abc"})

	var repoErr *types.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, types.ReasonInvalidID, repoErr.Reason)
}

func TestCurseMatchFingerprints(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	fetcher.On("PostJSON", "https://curse.test/fingerprint", []uint32{1, 2}).Return(`{
		"exactMatches": [{"id": 1337, "file": {"id": 11, "gameVersion": ["9.0.5"],
			"modules": [{"foldername": "Details", "fingerprint": 1}]}}]
	}`, nil)
	fetcher.On("PostJSON", "https://curse.test/addon", []int64{1337}).Return(curseAddons, nil)

	curse := repository.NewCurse("https://curse.test", fetcher)
	matches, err := curse.MatchFingerprints(context.Background(), types.FlavorRetail, []uint32{1, 2})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, "1337", m.Package.ID())
	assert.Equal(t, "11", m.Package.Metadata().FileID)
	assert.Equal(t, "9.0.5", m.Package.Metadata().GameVersion)
	assert.Equal(t, []repository.Module{{Folder: "Details", Fingerprint: 1}}, m.Modules)
}

func TestCurseChangelog(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	fetcher.On("GetText", "https://curse.test/addon/1337/file/11/changelog").
		Return("<p>Fixed &amp; improved</p><p>More</p>", nil)

	curse := repository.NewCurse("https://curse.test", fetcher)
	pkg := repository.NewPackage(types.KindCurse, "1337", repository.Metadata{}, nil)
	text, err := curse.Changelog(context.Background(), types.FlavorRetail, pkg, repository.Release{FileID: "11"})
	require.NoError(t, err)
	assert.Equal(t, "Fixed & improved\nMore", text)
}

func TestTukuiFetch(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	fetcher.On("GetJSON", "https://tukui.test/api.php?classic-addon=42").Return(`{
		"id": "42", "name": "AddonX", "author": "Someone", "version": "1.5",
		"url": "https://tukui.test/dl/42.zip", "lastupdate": "2021-02-03", "patch": "1.13.6",
		"downloads": 1200, "changelog": "https://tukui.test/changelog/42"
	}`, nil)

	tukui := repository.NewTukui("https://tukui.test", fetcher)
	pkg, err := tukui.Fetch(context.Background(), types.FlavorClassicEra, "42")
	require.NoError(t, err)

	assert.Equal(t, types.KindTukui, pkg.Kind())
	assert.Equal(t, int64(1200), pkg.Metadata().DownloadCount)
	r, ok := pkg.RelevantRelease(types.ChannelStable)
	require.True(t, ok)
	assert.Equal(t, "1.5", r.Version)
	assert.Equal(t, time.Date(2021, 2, 3, 0, 0, 0, 0, time.UTC), r.Date)
}

func TestTukuiFetchUnreadableDownloads(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	fetcher.On("GetJSON", "https://tukui.test/api.php?addon=42").Return(`{
		"id": "42", "name": "AddonX", "version": "1.5", "url": "https://tukui.test/dl/42.zip",
		"lastupdate": "2021-02-03", "downloads": "n/a"
	}`, nil)

	pkg, err := repository.NewTukui("https://tukui.test", fetcher).Fetch(context.Background(), types.FlavorRetail, "42")
	require.NoError(t, err)
	assert.Zero(t, pkg.Metadata().DownloadCount)
	assert.Equal(t, "AddonX", pkg.Metadata().Title)
}

func TestTukuiFetchUnknownID(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	fetcher.On("GetJSON", "https://tukui.test/api.php?addon=999").Return(`{}`, nil)

	_, err := repository.NewTukui("https://tukui.test", fetcher).Fetch(context.Background(), types.FlavorRetail, "999")
	assert.True(t, types.IsNotFound(err))
}

func TestTukuiBatchIncludesUISuites(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	fetcher.On("GetJSON", "https://tukui.test/api.php?ui=elvui").Return(`{"id": -2, "name": "ElvUI", "version": "13.01"}`, nil)
	fetcher.On("GetJSON", "https://tukui.test/api.php?addons=all").Return(`[
		{"id": "42", "name": "AddonX", "version": "1.0"},
		{"id": "43", "name": "AddonY", "version": "2.0"}
	]`, nil)

	tukui := repository.NewTukui("https://tukui.test", fetcher)
	pkgs, err := tukui.Batch(context.Background(), types.FlavorRetail, []string{repository.ElvUIID, "42", "77"})
	require.NoError(t, err)

	assert.Len(t, pkgs, 2)
	assert.Equal(t, "ElvUI", pkgs[repository.ElvUIID].Metadata().Title)
	assert.Equal(t, "AddonX", pkgs["42"].Metadata().Title)
	fetcher.AssertNumberOfCalls(t, "GetJSON", 2)
}

func TestWowIBatch(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	fetcher.On("GetJSON", "https://wowi.test/filedetails/5108,5109.json").Return(`[{
		"UID": "5108", "UIName": "Bagnon", "UIVersion": "9.0.3", "UIDate": 1614556800000,
		"UIAuthorName": "Jaliborc", "UIDownload": "https://cdn.wowi.test/5108.zip",
		"UIDir": ["Bagnon", "Bagnon_Config"], "UIChangeLog": "[b]9.0.3[/b]"
	}]`, nil)

	wowi := repository.NewWowI("https://wowi.test", fetcher)
	pkgs, err := wowi.Batch(context.Background(), types.FlavorRetail, []string{"5108", "5109"})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)

	r, ok := pkgs["5108"].RelevantRelease(types.ChannelStable)
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, []string{"Bagnon", "Bagnon_Config"}, r.Modules)

	text, err := wowi.Changelog(context.Background(), types.FlavorRetail, pkgs["5108"], r)
	require.NoError(t, err)
	assert.Equal(t, "9.0.3", text)
}

func TestWowIFetchMissing(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	url := "https://wowi.test/filedetails/1.json"
	fetcher.On("GetJSON", url).Return("", testutil.NotFound(url))

	_, err := repository.NewWowI("https://wowi.test", fetcher).Fetch(context.Background(), types.FlavorRetail, "1")
	assert.True(t, types.IsNotFound(err))
}

func TestHubBatch(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	fetcher.On("PostJSON", "https://hub.test/addons/batch/classic", mock.Anything).Return(`{"addons": [{
		"id": 7, "repository_name": "Questie", "owner_name": "Questie",
		"releases": [
			{"id": 1, "tag_name": "v6.3.0", "game_type": "classic", "published_at": "2021-03-01T00:00:00Z",
			 "download_url": "https://hub.test/q.zip", "body": "<p>Fixes</p>"},
			{"id": 2, "tag_name": "v6.3.1-beta", "prerelease": true, "game_type": "classic",
			 "published_at": "2021-03-02T00:00:00Z"},
			{"id": 3, "tag_name": "v6.3.0-tbc", "game_type": "burningCrusade", "published_at": "2021-03-03T00:00:00Z"}
		]
	}]}`, nil)

	hub := repository.NewHub("https://hub.test", fetcher)
	pkgs, err := hub.Batch(context.Background(), types.FlavorClassicEra, []string{"7"})
	require.NoError(t, err)

	pkg := pkgs["7"]
	require.NotNil(t, pkg)
	require.Len(t, pkg.Releases(), 2)
	r, ok := pkg.RelevantRelease(types.ChannelStable)
	require.True(t, ok)
	assert.Equal(t, "v6.3.0", r.Version)

	text, err := hub.Changelog(context.Background(), types.FlavorClassicEra, pkg, r)
	require.NoError(t, err)
	assert.Equal(t, "Fixes", text)
}

func TestGitFetchGitHub(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	fetcher.On("GetJSON", "https://gh.test/repos/owner/AddonX").Return(`{
		"name": "AddonX", "description": "desc", "html_url": "https://github.com/owner/AddonX",
		"owner": {"login": "owner"}
	}`, nil)
	fetcher.On("GetJSON", "https://gh.test/repos/owner/AddonX/releases").Return(`[
		{"id": 3, "tag_name": "v2.0.0-rc1", "prerelease": true, "published_at": "2021-03-03T00:00:00Z",
		 "assets": [{"name": "AddonX-v2.0.0-rc1.zip", "browser_download_url": "https://gh.test/rc1.zip"}]},
		{"id": 2, "tag_name": "v1.1.0", "draft": true, "published_at": "2021-03-02T00:00:00Z",
		 "assets": [{"name": "AddonX.zip", "browser_download_url": "https://gh.test/draft.zip"}]},
		{"id": 1, "tag_name": "v1.0.0", "published_at": "2021-03-01T00:00:00Z", "body": "First",
		 "assets": [
			{"name": "AddonX-v1.0.0.zip", "browser_download_url": "https://gh.test/retail.zip"},
			{"name": "AddonX-v1.0.0-classic.zip", "browser_download_url": "https://gh.test/classic.zip"}
		 ]}
	]`, nil)

	git := repository.NewGit("https://gh.test", "https://gl.test", "", fetcher)
	pkg, err := git.Fetch(context.Background(), types.FlavorClassicEra, "github.com/owner/AddonX")
	require.NoError(t, err)

	assert.Equal(t, "owner", pkg.Metadata().Author)
	releases := pkg.Releases()
	require.Len(t, releases, 2, "drafts are skipped")

	stable, ok := pkg.RelevantRelease(types.ChannelStable)
	require.True(t, ok)
	assert.Equal(t, "https://gh.test/classic.zip", stable.DownloadURL)

	beta, ok := pkg.RelevantRelease(types.ChannelBeta)
	require.True(t, ok)
	assert.Equal(t, "v2.0.0-rc1", beta.Version)
}

func TestGitFetchGitLab(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	fetcher.On("GetJSON", "https://gl.test/projects/group%2FAddonY").Return(`{
		"name": "AddonY", "web_url": "https://gitlab.com/group/AddonY", "namespace": {"name": "group"}
	}`, nil)
	fetcher.On("GetJSON", "https://gl.test/projects/group%2FAddonY/releases").Return(`[
		{"tag_name": "1.0", "released_at": "2021-03-01T00:00:00Z", "description": "notes",
		 "assets": {"links": [{"name": "AddonY-1.0.zip", "url": "https://gl.test/1.zip"}]}}
	]`, nil)

	git := repository.NewGit("https://gh.test", "https://gl.test", "", fetcher)
	pkg, err := git.Fetch(context.Background(), types.FlavorRetail, "gitlab.com/group/AddonY")
	require.NoError(t, err)

	r, ok := pkg.RelevantRelease(types.ChannelStable)
	require.True(t, ok)
	assert.Equal(t, "https://gl.test/1.zip", r.DownloadURL)

	text, err := git.Changelog(context.Background(), types.FlavorRetail, pkg, r)
	require.NoError(t, err)
	assert.Equal(t, "notes", text)
}

func TestGitFetchInvalidID(t *testing.T) {
	git := repository.NewGit("https://gh.test", "https://gl.test", "", new(testutil.MockFetcher))
	_, err := git.Fetch(context.Background(), types.FlavorRetail, "bitbucket.org/a/b")

	var repoErr *types.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, types.ReasonInvalidID, repoErr.Reason)
}

func TestClientDispatchAndMetrics(t *testing.T) {
	fetcher := new(testutil.MockFetcher)
	fetcher.On("GetJSON", "https://tukui.test/api.php?addon=42").Return(`{"id": "42", "name": "AddonX"}`, nil)
	fetcher.On("GetJSON", "https://tukui.test/api.php?addon=43").Return("", errors.New("connection reset"))

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	c := repository.NewClient(metrics, logging.NewNop(), repository.NewTukui("https://tukui.test", fetcher))

	pkg, err := c.Resolve(context.Background(), types.FlavorRetail, types.KindTukui, "42")
	require.NoError(t, err)
	assert.Equal(t, "AddonX", pkg.Metadata().Title)

	_, err = c.Resolve(context.Background(), types.FlavorRetail, types.KindTukui, "43")
	var repoErr *types.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, types.ReasonTransport, repoErr.Reason)

	_, err = c.Resolve(context.Background(), types.FlavorRetail, types.KindWowI, "1")
	assert.ErrorIs(t, err, repository.ErrUnknownKind)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(metrics.RepositoryFetches.WithLabelValues("tukui", "ok")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(metrics.RepositoryFetches.WithLabelValues("tukui", "error")))
}

func TestClientResolveSource(t *testing.T) {
	c := repository.NewClient(nil, nil, repository.NewGit("https://gh.test", "https://gl.test", "", new(testutil.MockFetcher)))

	_, err := c.ResolveSource(context.Background(), types.FlavorRetail, "https://example.com/not/a/forge")
	var repoErr *types.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, types.ReasonInvalidURL, repoErr.Reason)
}
