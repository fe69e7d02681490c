// Package site maps between the source tree and the output tree.
//
// A source tree has four recognised top-level subtrees:
//
//	SRC/assets/**      copied byte-for-byte
//	SRC/layouts/*.html wrapper templates with a <slot></slot> marker
//	SRC/pages/**       rendered pages, flattened to the output root
//	SRC/snippets/*.html fragments substituted verbatim
//
// Anything else under SRC is ignored.
package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Subtree names a top-level source directory.
type Subtree string

const (
	SubtreeAssets   Subtree = "assets"
	SubtreeLayouts  Subtree = "layouts"
	SubtreePages    Subtree = "pages"
	SubtreeSnippets Subtree = "snippets"
	SubtreeNone     Subtree = ""
)

// Subtrees lists the recognised subtrees in scan order.
var Subtrees = []Subtree{SubtreeAssets, SubtreeLayouts, SubtreePages, SubtreeSnippets}

const (
	// DefaultLayoutFile is the layout used by pages that opt into no named layout.
	DefaultLayoutFile = "Default.html"
	// LayoutSuffix is appended to a layout's file stem to form its tag name.
	LayoutSuffix = "Layout"
)

// Paths holds the absolute source and output roots.
type Paths struct {
	Source string
	Output string
}

// NewPaths resolves src and out to absolute paths.
func NewPaths(src, out string) (Paths, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return Paths{}, fmt.Errorf("resolve source dir: %w", err)
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return Paths{}, fmt.Errorf("resolve output dir: %w", err)
	}
	if absSrc == absOut || within(absOut, absSrc) {
		return Paths{}, fmt.Errorf("output dir %s must not be inside source dir %s", absOut, absSrc)
	}
	// A full build replaces the output dir wholesale, so it must not hold
	// the sources either.
	if within(absSrc, absOut) {
		return Paths{}, fmt.Errorf("source dir %s must not be inside output dir %s", absSrc, absOut)
	}
	return Paths{Source: absSrc, Output: absOut}, nil
}

// within reports whether path lies strictly below dir.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// WithOutput returns a copy writing to a different output root.
func (p Paths) WithOutput(out string) Paths {
	p.Output = out
	return p
}

// Dir returns the absolute directory of a subtree.
func (p Paths) Dir(t Subtree) string {
	return filepath.Join(p.Source, string(t))
}

// DefaultLayout returns the absolute path of the default layout.
func (p Paths) DefaultLayout() string {
	return filepath.Join(p.Dir(SubtreeLayouts), DefaultLayoutFile)
}

// Classify reports which subtree path belongs to.
func (p Paths) Classify(path string) Subtree {
	rel, err := filepath.Rel(p.Source, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return SubtreeNone
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	for _, t := range Subtrees {
		if first == string(t) {
			return t
		}
	}
	return SubtreeNone
}

// OutputPath maps a source file to its output location: the source root is
// replaced by the output root, a leading pages/ segment is dropped and a
// trailing .md becomes .html.
func (p Paths) OutputPath(src string) (string, error) {
	rel, err := filepath.Rel(p.Source, src)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside source dir %s", src, p.Source)
	}
	rel = filepath.ToSlash(rel)
	if after, ok := strings.CutPrefix(rel, string(SubtreePages)+"/"); ok {
		rel = after
	}
	if strings.HasSuffix(rel, ".md") {
		rel = strings.TrimSuffix(rel, ".md") + ".html"
	}
	return filepath.Join(p.Output, filepath.FromSlash(rel)), nil
}

// OutputDir maps a source directory to the output directory mirroring it.
func (p Paths) OutputDir(dir string) (string, error) {
	rel, err := filepath.Rel(p.Source, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside source dir %s", dir, p.Source)
	}
	rel = filepath.ToSlash(rel)
	if rel == string(SubtreePages) {
		return p.Output, nil
	}
	if after, ok := strings.CutPrefix(rel, string(SubtreePages)+"/"); ok {
		rel = after
	}
	return filepath.Join(p.Output, filepath.FromSlash(rel)), nil
}

// URLPath returns the site-absolute URL path of a source file, e.g.
// /assets/css/site.css. Pages and layouts reference assets by this string.
func (p Paths) URLPath(src string) string {
	rel, err := filepath.Rel(p.Source, src)
	if err != nil {
		return ""
	}
	return "/" + filepath.ToSlash(rel)
}

// EnsureSourceTree creates the source root and its four subtrees if missing.
func (p Paths) EnsureSourceTree() error {
	for _, t := range Subtrees {
		if err := os.MkdirAll(p.Dir(t), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", p.Dir(t), err)
		}
	}
	return nil
}

// LayoutName derives a layout's tag name: Blog.html -> BlogLayout.
func LayoutName(path string) string {
	return stem(path) + LayoutSuffix
}

// SnippetName derives a snippet's tag name: Footer.html -> Footer.
func SnippetName(path string) string {
	return stem(path)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Ignored reports whether a file is a hidden file or an editor artefact.
// Ignored files are neither scanned nor watched.
func Ignored(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db", base == "4913":
		return true
	}
	return false
}
