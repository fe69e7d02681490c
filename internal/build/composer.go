package build

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
	"git.home.luguber.info/inful/sssg/internal/markdown"
	"git.home.luguber.info/inful/sssg/internal/site"
	"git.home.luguber.info/inful/sssg/internal/store"
	"git.home.luguber.info/inful/sssg/internal/tags"
)

// Converter turns markdown into HTML.
type Converter interface {
	ToHTML(src []byte) ([]byte, error)
}

// Composition is the rendered text of one page and the sources it used.
type Composition struct {
	Source       string
	Text         []byte
	Layout       string
	Dependencies []string
}

// Result describes one file written to the output tree.
type Result struct {
	Source       string
	Output       string
	Dependencies []string
}

// Composer renders single source files.
type Composer struct {
	paths   site.Paths
	convert Converter
	matcher tags.Matcher
}

// ComposerOption customises a Composer.
type ComposerOption func(*Composer)

// WithConverter replaces the markdown converter.
func WithConverter(conv Converter) ComposerOption {
	return func(c *Composer) { c.convert = conv }
}

// WithMatcher replaces the tag matcher.
func WithMatcher(m tags.Matcher) ComposerOption {
	return func(c *Composer) { c.matcher = m }
}

// NewComposer returns a composer using goldmark and literal tag matching
// unless overridden.
func NewComposer(paths site.Paths, opts ...ComposerOption) *Composer {
	c := &Composer{paths: paths, convert: markdown.New(), matcher: tags.Literal{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithOutput returns a copy of the composer writing below out.
func (c *Composer) WithOutput(out string) *Composer {
	cp := *c
	cp.paths = c.paths.WithOutput(out)
	return &cp
}

// Paths returns the roots the composer reads from and writes to.
func (c *Composer) Paths() site.Paths { return c.paths }

// Analyze composes a page in memory. st supplies the layouts, snippets and
// assets the page may use. Nothing is written.
func (c *Composer) Analyze(st *store.Store, src string) (Composition, error) {
	raw, err := readSource(src)
	if err != nil {
		return Composition{}, err
	}
	text := raw
	if strings.EqualFold(filepath.Ext(src), ".md") {
		if text, err = c.convert.ToHTML(raw); err != nil {
			return Composition{}, ferrors.WrapError(err, ferrors.CategoryValidation, "markdown conversion failed").
				WithSeverity(ferrors.SeverityError).
				WithContext("path", src).
				Build()
		}
	}
	page := string(text)

	layout, err := c.selectLayout(st, src, page)
	if err != nil {
		return Composition{}, err
	}
	layoutText, err := readSource(layout.Path)
	if err != nil {
		return Composition{}, err
	}
	composed := c.matcher.Wrap(string(layoutText), page, layout.Name)

	deps := []string{layout.Path}

	snippets := st.Snippets()
	available := make([]tags.Snippet, 0, len(snippets))
	byName := make(map[string]string, len(snippets))
	for _, sn := range snippets {
		content, err := readSource(sn.Path)
		if IsSourceMissing(err) {
			continue
		}
		if err != nil {
			return Composition{}, err
		}
		available = append(available, tags.Snippet{Name: sn.Name, Content: string(content)})
		byName[sn.Name] = sn.Path
	}
	composed, used := c.matcher.ReplaceSnippets(composed, available)
	for _, name := range used {
		deps = append(deps, byName[name])
	}

	for _, a := range st.Assets() {
		if strings.Contains(composed, c.paths.URLPath(a.Path)) {
			deps = append(deps, a.Path)
		}
	}
	slices.Sort(deps)

	return Composition{Source: src, Text: []byte(composed), Layout: layout.Path, Dependencies: deps}, nil
}

// selectLayout returns the first layout, in path order, whose tags bound the
// page, or the default layout when none does.
func (c *Composer) selectLayout(st *store.Store, src, page string) (*store.Layout, error) {
	for _, l := range st.Layouts() {
		if c.matcher.MatchLayout(page, l.Name) {
			return l, nil
		}
	}
	l, err := st.Layout(c.paths.DefaultLayout())
	if err != nil {
		return nil, ferrors.ConfigError("default layout missing").
			WithSeverity(ferrors.SeverityError).
			WithCause(err).
			WithContext("path", src).
			WithContext("layout", c.paths.DefaultLayout()).
			Build()
	}
	return l, nil
}

// Write stores a composition at its output path.
func (c *Composer) Write(comp Composition) (Result, error) {
	out, err := c.outputPath(comp.Source)
	if err != nil {
		return Result{}, err
	}
	if err := os.WriteFile(out, comp.Text, 0o644); err != nil {
		return Result{}, ioError(err, "write output", out)
	}
	return Result{Source: comp.Source, Output: out, Dependencies: comp.Dependencies}, nil
}

// Render renders src into the output tree. Assets are copied unchanged;
// everything else is analyzed and written. The returned dependencies are not
// committed to st.
func (c *Composer) Render(st *store.Store, src string) (Result, error) {
	if c.paths.Classify(src) == site.SubtreeAssets {
		return c.copyAsset(src)
	}
	comp, err := c.Analyze(st, src)
	if err != nil {
		return Result{}, err
	}
	return c.Write(comp)
}

func (c *Composer) copyAsset(src string) (Result, error) {
	in, err := os.Open(src)
	if err != nil {
		return Result{}, classifyFSError(err, "open asset", src)
	}
	defer in.Close()

	out, err := c.outputPath(src)
	if err != nil {
		return Result{}, err
	}
	f, err := os.Create(out)
	if err != nil {
		return Result{}, ioError(err, "create output", out)
	}
	if _, err := io.Copy(f, in); err != nil {
		_ = f.Close()
		return Result{}, ioError(err, "copy asset", out)
	}
	if err := f.Close(); err != nil {
		return Result{}, ioError(err, "close output", out)
	}
	return Result{Source: src, Output: out}, nil
}

// outputPath maps src into the output tree and makes sure its directory
// exists.
func (c *Composer) outputPath(src string) (string, error) {
	out, err := c.paths.OutputPath(src)
	if err != nil {
		return "", ferrors.InternalError("cannot map source to output").WithCause(err).WithContext("path", src).Build()
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", ioError(err, "create output dir", filepath.Dir(out))
	}
	return out, nil
}
