package build

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
	"git.home.luguber.info/inful/sssg/internal/logfields"
	"git.home.luguber.info/inful/sssg/internal/site"
	"git.home.luguber.info/inful/sssg/internal/store"
)

// Graph is the outcome of a full scan: a populated store and the
// composition of every page, ready to be written.
type Graph struct {
	Store   *store.Store
	Pages   []Composition
	Skipped []string
}

// Builder scans a source tree into a new store.
type Builder struct {
	composer *Composer
	logger   *slog.Logger
}

func NewBuilder(composer *Composer, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{composer: composer, logger: logger}
}

// Scan registers every asset, layout, page and snippet and derives all
// edges. Unreadable files abort the scan; files that vanish mid-scan are
// skipped.
func (b *Builder) Scan(ctx context.Context) (*Graph, error) {
	paths := b.composer.Paths()
	st := store.New()
	g := &Graph{Store: st}

	assets, err := listFiles(paths.Dir(site.SubtreeAssets))
	if err != nil {
		return nil, err
	}
	for _, a := range assets {
		st.RegisterAsset(a)
	}

	layouts, err := listFiles(paths.Dir(site.SubtreeLayouts))
	if err != nil {
		return nil, err
	}
	for _, l := range layouts {
		if _, err := st.RegisterLayout(l); err != nil {
			return nil, err
		}
	}
	for _, l := range st.Layouts() {
		if err := b.linkLayoutAssets(st, l.Path); err != nil {
			return nil, err
		}
	}

	pages, err := listFiles(paths.Dir(site.SubtreePages))
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		st.RegisterPage(p)
	}

	snippets, err := listFiles(paths.Dir(site.SubtreeSnippets))
	if err != nil {
		return nil, err
	}
	for _, s := range snippets {
		if _, err := st.RegisterSnippet(s); err != nil {
			return nil, err
		}
	}

	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "scan canceled").Build()
		}
		comp, err := b.composer.Analyze(st, p)
		if IsSourceMissing(err) {
			b.logger.Warn("Source vanished during scan, skipping", logfields.Path(p), logfields.Error(err))
			st.RemovePage(p)
			g.Skipped = append(g.Skipped, p)
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := st.SetPageDependencies(p, comp.Dependencies); err != nil {
			return nil, err
		}
		g.Pages = append(g.Pages, comp)
	}

	stats := st.Stats()
	b.logger.Debug("Scanned source tree",
		slog.Int("assets", stats.Assets),
		slog.Int("layouts", stats.Layouts),
		slog.Int("pages", stats.Pages),
		slog.Int("snippets", stats.Snippets))
	return g, nil
}

// linkLayoutAssets records every asset whose URL path appears in the layout.
func (b *Builder) linkLayoutAssets(st *store.Store, layout string) error {
	text, err := readSource(layout)
	if IsSourceMissing(err) {
		b.logger.Warn("Layout vanished during scan", logfields.Path(layout))
		return nil
	}
	if err != nil {
		return err
	}
	paths := b.composer.Paths()
	for _, a := range st.Assets() {
		if strings.Contains(string(text), paths.URLPath(a.Path)) {
			if err := st.AddLayoutAssetEdge(layout, a.Path); err != nil {
				return err
			}
		}
	}
	return nil
}

// listFiles walks dir depth-first and returns its files in lexical order. A
// missing dir yields no files.
func listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if path == dir {
					return filepath.SkipDir
				}
				return nil
			}
			return err
		}
		if d.IsDir() {
			if path != dir && site.Ignored(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if site.Ignored(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, ioError(err, "walk source dir", dir)
	}
	return files, nil
}

// listDirs returns dir and every directory below it.
func listDirs(dir string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && site.Ignored(path) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, ioError(err, "walk source dir", dir)
	}
	return dirs, nil
}
