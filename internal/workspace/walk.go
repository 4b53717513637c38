// Package workspace finds the files in a project that are worth sending to a model.
package workspace

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/mod/modfile"
)

// File is a reviewable file found by Walk.
type File struct {
	Path     string // absolute
	Rel      string // relative to the walk root, slash-separated
	Language string
	Size     int64
}

// Options limit Walk. Zero values use the defaults.
type Options struct {
	MaxFileBytes int64 // larger files are skipped; default 200 KiB
	MaxFiles     int   // stop after this many files; default 500
}

const (
	defaultMaxFileBytes = 200 << 10
	defaultMaxFiles     = 500
)

// ErrTooManyFiles is returned along with the first MaxFiles files when the tree has more.
var ErrTooManyFiles = errors.New("workspace: too many files")

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	".codepal":     true,
	"node_modules": true,
	"vendor":       true,
}

// Walk returns the source files under root, sorted by Rel. It honors .gitignore and .codepal/ignore at root, and skips binaries, files with unknown languages,
// and files larger than opts.MaxFileBytes. If more than opts.MaxFiles files qualify, the first MaxFiles (in walk order) are returned with ErrTooManyFiles.
func Walk(root string, opts Options) ([]File, error) {
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = defaultMaxFileBytes
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = defaultMaxFiles
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	rules := IgnoreRules(absRoot)

	var files []File
	errStop := errors.New("stop")
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil
		}
		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if skipDirs[d.Name()] || (rules != nil && rules.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsSourcePath(path) {
			return nil
		}
		if rules != nil && rules.MatchesPath(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > opts.MaxFileBytes {
			return nil
		}
		if binary, err := looksBinary(path); err != nil || binary {
			return nil
		}

		if len(files) == opts.MaxFiles {
			return errStop
		}
		files = append(files, File{Path: path, Rel: rel, Language: LanguageForPath(path), Size: info.Size()})
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })
	if errors.Is(err, errStop) {
		return files, ErrTooManyFiles
	}
	if err != nil {
		return nil, err
	}
	return files, nil
}

// IgnoreRules compiles .gitignore and .codepal/ignore in root. It returns nil if neither exists.
func IgnoreRules(root string) *ignore.GitIgnore {
	var lines []string
	for _, p := range []string{filepath.Join(root, ".gitignore"), filepath.Join(root, ".codepal", "ignore")} {
		if l, err := readLines(p); err == nil {
			lines = append(lines, l...)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// looksBinary reports whether the first 8000 bytes of path contain a NUL byte.
func looksBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 8000)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}

// ModulePath returns the module path declared in root/go.mod, or "" if there is no go.mod or it has no module directive.
func ModulePath(root string) string {
	b, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(b)
}

// FindRoot walks upward from dir looking for a directory containing .git, .codepal, or go.mod. It returns dir itself if none is found.
func FindRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for cur := abs; ; {
		for _, marker := range []string{".git", ".codepal", "go.mod"} {
			if _, err := os.Stat(filepath.Join(cur, marker)); err == nil {
				return cur
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		cur = parent
	}
}

// Filter answers Walk's inclusion questions for single paths under a root, for callers that learn about files one at a time (ex: a file watcher).
type Filter struct {
	root  string
	rules *ignore.GitIgnore
}

// NewFilter returns a Filter for root, loading its ignore rules once.
func NewFilter(root string) (*Filter, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Filter{root: abs, rules: IgnoreRules(abs)}, nil
}

// Root returns the absolute root.
func (f *Filter) Root() string { return f.root }

func (f *Filter) rel(path string) (string, bool) {
	rel, err := filepath.Rel(f.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// SkipDir reports whether Walk would not descend into the directory at path. The root itself is never skipped.
func (f *Filter) SkipDir(path string) bool {
	rel, ok := f.rel(path)
	if !ok {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if skipDirs[part] {
			return true
		}
	}
	return f.rules != nil && f.rules.MatchesPath(rel+"/")
}

// Reviewable reports whether the file at path is a source file that is not ignored and not inside a skipped directory. It does not stat the file.
func (f *Filter) Reviewable(path string) bool {
	rel, ok := f.rel(path)
	if !ok || !IsSourcePath(path) {
		return false
	}
	if f.SkipDir(filepath.Dir(path)) {
		return false
	}
	return f.rules == nil || !f.rules.MatchesPath(rel)
}
