// Package upload stores attachments sent with a question, expanding zip
// archives in place.
package upload

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// MaxExpandedBytes bounds the total size written when expanding an archive.
const MaxExpandedBytes int64 = 256 << 20

var (
	// ErrBadFilename is returned for empty or path-like upload names.
	ErrBadFilename = errors.New("invalid upload filename")
	// ErrArchiveTooLarge is returned when an archive expands beyond MaxExpandedBytes.
	ErrArchiveTooLarge = errors.New("archive expands beyond size limit")
)

// File is a stored upload.
type File struct {
	// Dir is the per-request directory holding everything for this upload.
	Dir string
	// Path is what handlers receive: the saved file, or the directory a zip
	// archive was expanded into.
	Path string
	// Names lists the stored files relative to Path's directory (or Path
	// itself for an expanded archive), slash-separated and sorted.
	Names []string
}

// Store saves uploads below a root directory.
type Store struct {
	root string
}

// NewStore returns a store rooted at dir. The directory is created on first save.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Save writes r under a fresh per-request directory as filename. A .zip
// upload is expanded into a directory named after the archive and the
// archive itself is removed.
func (s *Store) Save(filename string, r io.Reader) (*File, error) {
	name, err := cleanFilename(filename)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	f := &File{Dir: dir}

	dest := filepath.Join(dir, name)
	if err := writeFileFromReader(dest, r, 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("save upload: %w", err)
	}

	if !strings.EqualFold(filepath.Ext(name), ".zip") {
		f.Path = dest
		f.Names = []string{name}
		return f, nil
	}

	out := filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name)))
	names, err := expandZip(dest, out)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	_ = os.Remove(dest)
	f.Path = out
	f.Names = names
	return f, nil
}

// Remove deletes everything stored for f.
func (s *Store) Remove(f *File) error {
	if f == nil || f.Dir == "" {
		return nil
	}
	return os.RemoveAll(f.Dir)
}

func cleanFilename(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "" || base == "." || base == ".." || base == "/" {
		return "", fmt.Errorf("%w: %q", ErrBadFilename, name)
	}
	return base, nil
}

// expandZip writes every regular entry of the archive below destDir and
// returns the entry names. Entries escaping destDir fail the whole archive.
func expandZip(archivePath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}

	var names []string
	budget := MaxExpandedBytes
	for _, f := range r.File {
		name := sanitizeArchivePath(f.Name)
		if name == "" {
			if strings.Trim(f.Name, "./\\") == "" {
				continue
			}
			return nil, fmt.Errorf("unsafe archive entry %q", f.Name)
		}
		target := filepath.Join(destDir, name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}
		n, err := extractEntry(f, target, budget)
		if err != nil {
			return nil, err
		}
		budget -= n
		names = append(names, filepath.ToSlash(name))
	}
	sort.Strings(names)
	return names, nil
}

func extractEntry(f *zip.File, target string, budget int64) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	lr := &io.LimitedReader{R: rc, N: budget + 1}
	cr := &countingReader{r: lr}
	if err := writeFileFromReader(target, cr, 0o644); err != nil {
		return cr.n, fmt.Errorf("extract %s: %w", f.Name, err)
	}
	if cr.n > budget {
		return cr.n, fmt.Errorf("%w (%s)", ErrArchiveTooLarge, humanize.IBytes(uint64(MaxExpandedBytes)))
	}
	return cr.n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// sanitizeArchivePath rejects absolute paths and traversal sequences in archive entries.
func sanitizeArchivePath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "/") || filepath.VolumeName(name) != "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return ""
		}
	}
	clean := filepath.Clean(name)
	if clean == "." {
		return ""
	}
	return clean
}

// writeFileFromReader writes a file by copying from r and setting mode.
func writeFileFromReader(path string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return err
	}
	return nil
}
