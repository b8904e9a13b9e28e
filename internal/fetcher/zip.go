package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ShapefileExts are the sidecar files ReadShapefile needs or can use.
var ShapefileExts = []string{".shp", ".shx", ".dbf", ".prj", ".cpg"}

// DefaultMaxUnzippedBytes bounds the total size extracted from one archive.
const DefaultMaxUnzippedBytes = 4 << 30

// ZIPOptions filter and bound an extraction.
type ZIPOptions struct {
	// Exts keeps only entries with these extensions (case-insensitive). Empty keeps all.
	Exts []string
	// MaxBytes caps the total uncompressed size. Default: DefaultMaxUnzippedBytes.
	MaxBytes int64
}

func (o ZIPOptions) wants(name string) bool {
	if len(o.Exts) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range o.Exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// ExtractZIP extracts the entries of a downloaded archive, such as a zipped
// footprint shapefile, into destDir and returns the paths written.
func ExtractZIP(zipPath, destDir string, opts ZIPOptions) ([]string, error) {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxUnzippedBytes
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var (
		extracted []string
		budget    = opts.MaxBytes
	)
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !opts.wants(f.Name) {
			continue
		}
		path, n, err := extractEntry(f, destDir, budget)
		if err != nil {
			return extracted, err
		}
		budget -= n
		extracted = append(extracted, path)
	}
	return extracted, nil
}

// FindByExt returns the first path with extension ext (case-insensitive).
func FindByExt(paths []string, ext string) (string, bool) {
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ext) {
			return p, true
		}
	}
	return "", false
}

func extractEntry(f *zip.File, destDir string, budget int64) (string, int64, error) {
	destPath := filepath.Join(destDir, f.Name)
	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", 0, eris.Errorf("zip: illegal path %q (zip slip attempt)", f.Name)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", 0, eris.Wrap(err, "zip: create parent directory")
	}

	rc, err := f.Open()
	if err != nil {
		return "", 0, eris.Wrapf(err, "zip: open %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", 0, eris.Wrap(err, "zip: create file")
	}
	defer out.Close() //nolint:errcheck

	// Read one byte past the budget to detect overflow without trusting the
	// sizes in the archive header.
	n, err := io.Copy(out, io.LimitReader(rc, budget+1))
	if err != nil {
		return "", n, eris.Wrapf(err, "zip: write %s", f.Name)
	}
	if n > budget {
		return "", n, eris.Errorf("zip: archive expands beyond limit at %s", f.Name)
	}
	return destPath, n, nil
}
