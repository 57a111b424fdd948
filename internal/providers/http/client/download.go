package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/chmon/internal/providers/filesystem"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotArchive is returned when a download is not a zip archive.
var ErrNotArchive = errors.New("downloaded file is not a zip archive")

// Download fetches an addon archive into destDir and returns its path. The
// body is written to a uniquely named partial file which is only moved into
// place once it is known to be a zip archive.
func (c *Client) Download(ctx context.Context, rawURL, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", &types.DownloadError{URL: rawURL, Err: fmt.Errorf("create %s: %w", destDir, err)}
	}

	partial := filepath.Join(destDir, uuid.NewString()+".part")
	_, err := c.execute(ctx, http.MethodGet, rawURL, func(req *resty.Request) {
		req.SetHeader("Accept", "application/zip, application/octet-stream").
			SetOutput(partial)
	})
	if err != nil {
		os.Remove(partial)
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return "", &types.DownloadError{URL: rawURL, Status: statusErr.Status, Err: err}
		}
		return "", &types.DownloadError{URL: rawURL, Err: err}
	}

	mtype, err := mimetype.DetectFile(partial)
	if err != nil {
		os.Remove(partial)
		return "", &types.DownloadError{URL: rawURL, Err: err}
	}
	if !mtype.Is("application/zip") {
		os.Remove(partial)
		return "", &types.DownloadError{URL: rawURL, Err: fmt.Errorf("%w: %s", ErrNotArchive, mtype.String())}
	}

	final := filepath.Join(destDir, archiveName(rawURL))
	if err := filesystem.Rename(partial, final); err != nil {
		os.Remove(partial)
		return "", &types.DownloadError{URL: rawURL, Err: err}
	}

	c.logger.Debug("archive downloaded", zap.String("url", rawURL), zap.String("path", final))
	return final, nil
}

// archiveName derives a file name from the last URL path segment.
func archiveName(rawURL string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = uuid.NewString()
	}
	if !strings.HasSuffix(strings.ToLower(name), ".zip") {
		name += ".zip"
	}
	return name
}
