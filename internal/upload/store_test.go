package upload

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSanitizeArchivePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"data.csv", "data.csv"},
		{"./data.csv", "data.csv"},
		{"dir/data.csv", "dir/data.csv"},
		{"../data.csv", ""},
		{"dir/../data.csv", ""},
		{"/abs/data.csv", ""},
		{"dir\\data.csv", "dir/data.csv"},
	}
	for _, c := range cases {
		got := sanitizeArchivePath(c.in)
		if got != filepath.FromSlash(c.want) {
			t.Fatalf("sanitizeArchivePath(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestSave_PlainFile(t *testing.T) {
	s := NewStore(t.TempDir())
	f, err := s.Save("report.csv", strings.NewReader("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(f.Path) != "report.csv" || filepath.Dir(f.Path) != f.Dir {
		t.Fatalf("unexpected path %q in dir %q", f.Path, f.Dir)
	}
	if !reflect.DeepEqual(f.Names, []string{"report.csv"}) {
		t.Fatalf("names=%v", f.Names)
	}
	b, err := os.ReadFile(f.Path)
	if err != nil || string(b) != "a,b\n1,2\n" {
		t.Fatalf("content=%q err=%v", b, err)
	}
}

func TestSave_SeparateDirPerUpload(t *testing.T) {
	s := NewStore(t.TempDir())
	a, err := s.Save("same.txt", strings.NewReader("a"))
	if err != nil {
		t.Fatalf("Save a: %v", err)
	}
	b, err := s.Save("same.txt", strings.NewReader("b"))
	if err != nil {
		t.Fatalf("Save b: %v", err)
	}
	if a.Dir == b.Dir {
		t.Fatalf("uploads share dir %q", a.Dir)
	}
}

func TestSave_ExpandsZip(t *testing.T) {
	s := NewStore(t.TempDir())
	data := zipBytes(t, map[string]string{
		"q1/b.csv": "x\n2\n",
		"a.csv":    "x\n1\n",
	})
	f, err := s.Save("q1.zip", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if f.Path != filepath.Join(f.Dir, "q1") {
		t.Fatalf("path=%q", f.Path)
	}
	if !reflect.DeepEqual(f.Names, []string{"a.csv", "q1/b.csv"}) {
		t.Fatalf("names=%v", f.Names)
	}
	if _, err := os.Stat(filepath.Join(f.Dir, "q1.zip")); !os.IsNotExist(err) {
		t.Fatalf("archive should be removed, stat err=%v", err)
	}
	b, err := os.ReadFile(filepath.Join(f.Path, "q1", "b.csv"))
	if err != nil || string(b) != "x\n2\n" {
		t.Fatalf("content=%q err=%v", b, err)
	}

	if err := s.Remove(f); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(f.Dir); !os.IsNotExist(err) {
		t.Fatalf("dir should be gone, stat err=%v", err)
	}
}

func TestSave_RejectsTraversal(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)
	data := zipBytes(t, map[string]string{"../evil.txt": "x"})
	if _, err := s.Save("bad.zip", bytes.NewReader(data)); err == nil {
		t.Fatalf("expected traversal entry to fail")
	}
	if _, err := os.Stat(filepath.Join(root, "evil.txt")); !os.IsNotExist(err) {
		t.Fatalf("traversal entry was written")
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Fatalf("failed upload left %d entries behind", len(entries))
	}
}

func TestSave_CorruptZip(t *testing.T) {
	s := NewStore(t.TempDir())
	if _, err := s.Save("broken.zip", strings.NewReader("not a zip")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSave_BadFilename(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, name := range []string{"", ".", "..", "/"} {
		if _, err := s.Save(name, strings.NewReader("x")); !errors.Is(err, ErrBadFilename) {
			t.Fatalf("Save(%q) err=%v", name, err)
		}
	}
	f, err := s.Save("../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Dir(f.Path) != f.Dir {
		t.Fatalf("path escaped upload dir: %q", f.Path)
	}
}
