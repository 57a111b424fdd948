package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
)

// FolderInfo describes one addon folder found on disk.
type FolderInfo struct {
	Name     string
	Path     string
	Modified time.Time
	Manifest *Manifest
}

// Scanner lists the addon folders of a flavor.
type Scanner struct {
	logger *logging.Logger
}

// NewScanner creates a Scanner
func NewScanner(logger *logging.Logger) *Scanner {
	return &Scanner{logger: logger.Component("scanner")}
}

// Scan returns every folder below dir that carries a TOC file, sorted by
// name. Folders shipped with the game client are skipped. A missing dir is
// an empty installation, not an error.
func (s *Scanner) Scan(ctx context.Context, dir string, flavor types.Flavor) ([]FolderInfo, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &types.FilesystemError{Op: "scan", Path: dir, Attempts: 1, Err: err}
	}

	folders := make([]FolderInfo, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), "Blizzard_") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		toc, ok := FindTOC(path, flavor)
		if !ok {
			continue
		}

		manifest, err := ParseTOC(toc)
		if err != nil {
			s.logger.Warn("unreadable manifest", zap.String("path", toc), zap.Error(err))
			manifest = &Manifest{Path: toc}
		}

		modified, err := LatestModified(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("cannot stat folder", zap.String("path", path), zap.Error(err))
		}

		folders = append(folders, FolderInfo{
			Name:     entry.Name(),
			Path:     path,
			Modified: modified,
			Manifest: manifest,
		})
	}

	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	return folders, nil
}

// LatestModified returns the newest modification time of dir or anything
// below it.
func LatestModified(ctx context.Context, dir string) (time.Time, error) {
	var (
		mu     sync.Mutex
		latest time.Time
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		mu.Lock()
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		mu.Unlock()
		return nil
	})
	return latest, err
}
