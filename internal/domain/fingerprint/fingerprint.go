package fingerprint

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/bmatcuk/doublestar/v4"
)

// Fingerprinter computes content fingerprints of addon folders. It holds no
// state and is safe for concurrent use.
type Fingerprinter struct{}

// New creates a Fingerprinter
func New() *Fingerprinter {
	return &Fingerprinter{}
}

// Folder returns the fingerprint of the addon folder at dir.
//
// Starting from the folder's TOC files, its same-named XML and Bindings.xml,
// every Lua and XML file referenced by a TOC line or an XML Script/Include
// element is collected breadth first. Each file is hashed without
// whitespace, the hashes are sorted and hashed again as one decimal string.
func (f *Fingerprinter) Folder(ctx context.Context, dir string) (uint32, error) {
	index, err := indexFiles(dir)
	if err != nil {
		return 0, &types.ParseError{Path: dir, Err: err}
	}

	initial := initialInclusion(filepath.Base(dir))
	var queue []string
	for lower, rel := range index {
		if strings.Contains(lower, "/") {
			continue
		}
		if matches(initial, rel) || matches(bindings, rel) {
			queue = append(queue, rel)
		}
	}
	slices.Sort(queue)

	seen := make(map[string]bool, len(queue))
	for _, rel := range queue {
		seen[rel] = true
	}

	var hashes []uint32
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		rel := queue[0]
		queue = queue[1:]

		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return 0, &types.ParseError{Path: filepath.Join(dir, rel), Err: err}
		}
		hashes = append(hashes, FileHash(data))

		for _, ref := range references(rel, string(data)) {
			target, ok := index[strings.ToLower(ref)]
			if !ok || seen[target] {
				continue
			}
			seen[target] = true
			queue = append(queue, target)
		}
	}

	return Combine(hashes), nil
}

// FileHash hashes file content with tabs, newlines, carriage returns and
// spaces removed.
func FileHash(data []byte) uint32 {
	stripped := make([]byte, 0, len(data))
	for _, b := range data {
		switch b {
		case '\t', '\n', '\r', ' ':
		default:
			stripped = append(stripped, b)
		}
	}
	return Murmur2(stripped, Seed)
}

// Combine folds per-file hashes into one fingerprint. Order does not matter.
func Combine(hashes []uint32) uint32 {
	sorted := slices.Clone(hashes)
	slices.Sort(sorted)

	var b strings.Builder
	for _, h := range sorted {
		b.WriteString(strconv.FormatUint(uint64(h), 10))
	}
	return Murmur2([]byte(b.String()), Seed)
}

// indexFiles maps the lower-cased slash separated relative path of every
// file below dir to its actual relative path.
func indexFiles(dir string) (map[string]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "fingerprint", Path: dir, Err: fs.ErrInvalid}
	}

	index := make(map[string]string)
	err = doublestar.GlobWalk(os.DirFS(dir), "**", func(p string, d fs.DirEntry) error {
		if !d.IsDir() {
			index[strings.ToLower(p)] = p
		}
		return nil
	})
	return index, err
}

// references returns the slash separated paths, relative to the folder,
// of the files rel includes.
func references(rel, content string) []string {
	var raw []string
	switch strings.ToLower(path.Ext(rel)) {
	case ".toc":
		raw = submatches(tocInclusion, strip(tocComment, content))
	case ".xml":
		raw = submatches(xmlInclusion, strip(xmlComment, content))
	default:
		return nil
	}

	base := path.Dir(rel)
	refs := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(strings.ReplaceAll(r, `\`, "/"))
		refs = append(refs, path.Clean(path.Join(base, r)))
	}
	return refs
}
