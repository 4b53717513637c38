package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func rels(files []File) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Rel)
	}
	return out
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main\n")
	writeFile(t, filepath.Join(root, "pkg", "util.py"), "print(1)\n")
	writeFile(t, filepath.Join(root, "README.md"), "# readme\n")
	writeFile(t, filepath.Join(root, "build", "gen.go"), "package build\n")
	writeFile(t, filepath.Join(root, "secret.js"), "x\n")
	writeFile(t, filepath.Join(root, ".git", "hooks", "pre-commit.sh"), "#!/bin/sh\n")
	writeFile(t, filepath.Join(root, "node_modules", "lib", "index.js"), "x\n")
	writeFile(t, filepath.Join(root, "blob.c"), "ab\x00cd")
	writeFile(t, filepath.Join(root, "big.go"), strings.Repeat("x", 2048))
	writeFile(t, filepath.Join(root, ".gitignore"), "build/\n")
	writeFile(t, filepath.Join(root, ".codepal", "ignore"), "secret.js\n")

	files, err := Walk(root, Options{MaxFileBytes: 1024})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "pkg/util.py"}, rels(files))

	assert.Equal(t, "go", files[0].Language)
	assert.Equal(t, filepath.Join(root, "main.go"), files[0].Path)
	assert.Equal(t, int64(len("package main\n")), files[0].Size)
}

func TestWalk_MaxFiles(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.go", "b.go", "c.go"} {
		writeFile(t, filepath.Join(root, name), "package x\n")
	}
	files, err := Walk(root, Options{MaxFiles: 2})
	assert.ErrorIs(t, err, ErrTooManyFiles)
	assert.Len(t, files, 2)
}

func TestWalk_MissingRoot(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "nope"), Options{})
	assert.Error(t, err)
}

func TestLanguageForPath(t *testing.T) {
	assert.Equal(t, "go", LanguageForPath("a/b/main.go"))
	assert.Equal(t, "typescriptreact", LanguageForPath("App.TSX"))
	assert.Equal(t, PlainText, LanguageForPath("notes.txt"))
	assert.False(t, IsSourcePath("Makefile"))
}

func TestModulePath(t *testing.T) {
	root := t.TempDir()
	assert.Equal(t, "", ModulePath(root))
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/demo\n\ngo 1.24\n")
	assert.Equal(t, "example.com/demo", ModulePath(root))
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module x\n")
	deep := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(deep, 0o755))
	assert.Equal(t, root, FindRoot(deep))
}

func TestFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "build/\n*.gen.go\n")

	f, err := NewFilter(root)
	require.NoError(t, err)
	assert.Equal(t, root, f.Root())

	assert.True(t, f.Reviewable(filepath.Join(root, "main.go")))
	assert.True(t, f.Reviewable(filepath.Join(root, "pkg", "util.py")))
	assert.False(t, f.Reviewable(filepath.Join(root, "README.md")))
	assert.False(t, f.Reviewable(filepath.Join(root, "x.gen.go")))
	assert.False(t, f.Reviewable(filepath.Join(root, "build", "out.go")))
	assert.False(t, f.Reviewable(filepath.Join(root, "node_modules", "a", "b.js")))
	assert.False(t, f.Reviewable(filepath.Join(filepath.Dir(root), "outside.go")))

	assert.False(t, f.SkipDir(root))
	assert.True(t, f.SkipDir(filepath.Join(root, ".git")))
	assert.True(t, f.SkipDir(filepath.Join(root, "build")))
	assert.False(t, f.SkipDir(filepath.Join(root, "pkg")))
}
