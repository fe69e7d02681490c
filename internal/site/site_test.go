package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths(t *testing.T) Paths {
	t.Helper()
	root := t.TempDir()
	p, err := NewPaths(filepath.Join(root, "src"), filepath.Join(root, "dist"))
	require.NoError(t, err)
	return p
}

func TestNewPaths_RejectsNestedOutput(t *testing.T) {
	root := t.TempDir()
	_, err := NewPaths(root, filepath.Join(root, "dist"))
	require.Error(t, err)

	_, err = NewPaths(root, root)
	require.Error(t, err)

	// Output containing the source dir.
	_, err = NewPaths(filepath.Join(root, "src"), root)
	require.Error(t, err)
	_, err = NewPaths(filepath.Join(root, "site", "src"), filepath.Join(root, "site"))
	require.Error(t, err)

	// Siblings sharing a name prefix are fine.
	_, err = NewPaths(filepath.Join(root, "src"), filepath.Join(root, "src-out"))
	require.NoError(t, err)
	_, err = NewPaths(filepath.Join(root, "dist-src"), filepath.Join(root, "dist"))
	require.NoError(t, err)
}

func TestClassify(t *testing.T) {
	p := testPaths(t)

	cases := map[string]Subtree{
		filepath.Join(p.Source, "assets", "css", "a.css"): SubtreeAssets,
		filepath.Join(p.Source, "layouts", "Blog.html"):   SubtreeLayouts,
		filepath.Join(p.Source, "pages", "index.md"):      SubtreePages,
		filepath.Join(p.Source, "snippets", "Nav.html"):   SubtreeSnippets,
		filepath.Join(p.Source, "pages"):                  SubtreePages,
		filepath.Join(p.Source, "drafts", "x.md"):         SubtreeNone,
		filepath.Join(p.Source, "pagesextra", "x.md"):     SubtreeNone,
		p.Source:                              SubtreeNone,
		filepath.Join(p.Output, "index.html"): SubtreeNone,
	}
	for path, want := range cases {
		assert.Equal(t, want, p.Classify(path), path)
	}
}

func TestOutputPath(t *testing.T) {
	p := testPaths(t)

	cases := map[string]string{
		filepath.Join("pages", "index.md"):           "index.html",
		filepath.Join("pages", "blog", "post.md"):    filepath.Join("blog", "post.html"),
		filepath.Join("pages", "about.html"):         "about.html",
		filepath.Join("assets", "img", "logo.png"):   filepath.Join("assets", "img", "logo.png"),
		filepath.Join("assets", "notes.md"):          filepath.Join("assets", "notes.html"),
		filepath.Join("pages", "md.d", "readme.mdx"): filepath.Join("md.d", "readme.mdx"),
	}
	for rel, want := range cases {
		got, err := p.OutputPath(filepath.Join(p.Source, rel))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(p.Output, want), got, rel)
	}

	_, err := p.OutputPath("/elsewhere/file.md")
	require.Error(t, err)
}

func TestOutputDir(t *testing.T) {
	p := testPaths(t)

	got, err := p.OutputDir(filepath.Join(p.Source, "pages"))
	require.NoError(t, err)
	require.Equal(t, p.Output, got)

	got, err = p.OutputDir(filepath.Join(p.Source, "pages", "blog"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(p.Output, "blog"), got)

	got, err = p.OutputDir(filepath.Join(p.Source, "assets", "css"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(p.Output, "assets", "css"), got)
}

func TestURLPathAndNames(t *testing.T) {
	p := testPaths(t)

	require.Equal(t, "/assets/css/site.css", p.URLPath(filepath.Join(p.Source, "assets", "css", "site.css")))
	require.Equal(t, "BlogLayout", LayoutName(filepath.Join(p.Source, "layouts", "Blog.html")))
	require.Equal(t, "DefaultLayout", LayoutName(p.DefaultLayout()))
	require.Equal(t, "Footer", SnippetName("/x/snippets/Footer.html"))
}

func TestEnsureSourceTree(t *testing.T) {
	p := testPaths(t)
	require.NoError(t, p.EnsureSourceTree())
	for _, st := range Subtrees {
		info, err := os.Stat(p.Dir(st))
		require.NoError(t, err)
		require.True(t, info.IsDir())
	}
}

func TestIgnored(t *testing.T) {
	for _, name := range []string{".index.md.swp", "index.md~", "notes.swx", "#draft#", ".DS_Store", "4913"} {
		require.True(t, Ignored(filepath.Join("/src/pages", name)), name)
	}
	for _, name := range []string{"index.md", "site.css", "Footer.html"} {
		require.False(t, Ignored(filepath.Join("/src/pages", name)), name)
	}
}
