// Package store holds the in-memory dependency graph between the assets,
// layouts, snippets and pages of a source tree.
//
// Every entity is keyed by its absolute source path. A Page's Dependencies and
// the Dependents of the Layout, Snippet or Asset it uses are two views of the
// same edge and are always updated together.
//
// A Store is not safe for concurrent mutation. The build engine is its single
// writer; readers outside a build must not touch it.
package store

import (
	"cmp"
	"slices"

	ferrors "git.home.luguber.info/inful/sssg/internal/foundation/errors"
	"git.home.luguber.info/inful/sssg/internal/site"
	"git.home.luguber.info/inful/sssg/internal/util/sets"
)

// Kind identifies the entity type stored under a path.
type Kind string

const (
	KindAsset   Kind = "asset"
	KindLayout  Kind = "layout"
	KindSnippet Kind = "snippet"
	KindPage    Kind = "page"
	KindUnknown Kind = ""
)

type Asset struct {
	Path       string
	Dependents sets.Set[string]
}

type Layout struct {
	Path       string
	Name       string
	Dependents sets.Set[string]
}

type Snippet struct {
	Path       string
	Name       string
	Dependents sets.Set[string]
}

type Page struct {
	Path         string
	Dependencies sets.Set[string]
}

// Store is the entity graph of one build.
type Store struct {
	assets   map[string]*Asset
	layouts  map[string]*Layout
	snippets map[string]*Snippet
	pages    map[string]*Page

	layoutNames  map[string]string
	snippetNames map[string]string
}

// New returns an empty store.
func New() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset drops every entity and edge.
func (s *Store) Reset() {
	s.assets = map[string]*Asset{}
	s.layouts = map[string]*Layout{}
	s.snippets = map[string]*Snippet{}
	s.pages = map[string]*Page{}
	s.layoutNames = map[string]string{}
	s.snippetNames = map[string]string{}
}

// RegisterAsset adds an asset. Registering a known path keeps its edges.
func (s *Store) RegisterAsset(path string) *Asset {
	if a, ok := s.assets[path]; ok {
		return a
	}
	a := &Asset{Path: path, Dependents: sets.New[string]()}
	s.assets[path] = a
	return a
}

// RegisterLayout adds a layout named after its file. Two layouts deriving the
// same name are rejected with an ambiguous template error.
func (s *Store) RegisterLayout(path string) (*Layout, error) {
	if l, ok := s.layouts[path]; ok {
		return l, nil
	}
	name := site.LayoutName(path)
	if other, ok := s.layoutNames[name]; ok {
		return nil, ferrors.AmbiguousTemplateError("duplicate layout name").
			WithContext("name", name).
			WithContext("path", path).
			WithContext("existing", other).
			Build()
	}
	l := &Layout{Path: path, Name: name, Dependents: sets.New[string]()}
	s.layouts[path] = l
	s.layoutNames[name] = path
	return l, nil
}

// RegisterSnippet adds a snippet named after its file. Name collisions are
// rejected like layouts.
func (s *Store) RegisterSnippet(path string) (*Snippet, error) {
	if sn, ok := s.snippets[path]; ok {
		return sn, nil
	}
	name := site.SnippetName(path)
	if other, ok := s.snippetNames[name]; ok {
		return nil, ferrors.AmbiguousTemplateError("duplicate snippet name").
			WithContext("name", name).
			WithContext("path", path).
			WithContext("existing", other).
			Build()
	}
	sn := &Snippet{Path: path, Name: name, Dependents: sets.New[string]()}
	s.snippets[path] = sn
	s.snippetNames[name] = path
	return sn, nil
}

// RegisterPage adds a page. Registering a known path keeps its edges.
func (s *Store) RegisterPage(path string) *Page {
	if p, ok := s.pages[path]; ok {
		return p
	}
	p := &Page{Path: path, Dependencies: sets.New[string]()}
	s.pages[path] = p
	return p
}

// Kind reports what is stored under path.
func (s *Store) Kind(path string) Kind {
	switch {
	case s.pages[path] != nil:
		return KindPage
	case s.layouts[path] != nil:
		return KindLayout
	case s.snippets[path] != nil:
		return KindSnippet
	case s.assets[path] != nil:
		return KindAsset
	default:
		return KindUnknown
	}
}

func notFound(kind Kind, path string) error {
	return ferrors.NotFoundError("unknown "+string(kind)).WithContext("path", path).Build()
}

// Asset looks up an asset by path.
func (s *Store) Asset(path string) (*Asset, error) {
	if a, ok := s.assets[path]; ok {
		return a, nil
	}
	return nil, notFound(KindAsset, path)
}

// Layout looks up a layout by path.
func (s *Store) Layout(path string) (*Layout, error) {
	if l, ok := s.layouts[path]; ok {
		return l, nil
	}
	return nil, notFound(KindLayout, path)
}

// Snippet looks up a snippet by path.
func (s *Store) Snippet(path string) (*Snippet, error) {
	if sn, ok := s.snippets[path]; ok {
		return sn, nil
	}
	return nil, notFound(KindSnippet, path)
}

// Page looks up a page by path.
func (s *Store) Page(path string) (*Page, error) {
	if p, ok := s.pages[path]; ok {
		return p, nil
	}
	return nil, notFound(KindPage, path)
}

// dependents returns the dependents set of an asset, layout or snippet.
func (s *Store) dependents(path string) (sets.Set[string], error) {
	if a, ok := s.assets[path]; ok {
		return a.Dependents, nil
	}
	if l, ok := s.layouts[path]; ok {
		return l.Dependents, nil
	}
	if sn, ok := s.snippets[path]; ok {
		return sn.Dependents, nil
	}
	return nil, notFound(KindUnknown, path)
}

// AddEdge records that page depends on dep (an asset, layout or snippet).
// Both ends are validated before either set changes.
func (s *Store) AddEdge(page, dep string) error {
	p, err := s.Page(page)
	if err != nil {
		return err
	}
	deps, err := s.dependents(dep)
	if err != nil {
		return err
	}
	p.Dependencies.Add(dep)
	deps.Add(page)
	return nil
}

// AddLayoutAssetEdge records that a layout references an asset. Layouts are
// not pages, so only the asset's dependents set changes.
func (s *Store) AddLayoutAssetEdge(layout, asset string) error {
	if _, err := s.Layout(layout); err != nil {
		return err
	}
	a, err := s.Asset(asset)
	if err != nil {
		return err
	}
	a.Dependents.Add(layout)
	return nil
}

// RemoveAllEdgesFor removes page from the dependents of everything it
// depends on, then clears its dependencies.
func (s *Store) RemoveAllEdgesFor(page string) error {
	p, err := s.Page(page)
	if err != nil {
		return err
	}
	for dep := range p.Dependencies {
		if deps, err := s.dependents(dep); err == nil {
			deps.Delete(page)
		}
	}
	p.Dependencies.Clear()
	return nil
}

// RemovePage drops a page and all of its edges. Unknown pages are ignored.
func (s *Store) RemovePage(page string) {
	if err := s.RemoveAllEdgesFor(page); err != nil {
		return
	}
	delete(s.pages, page)
}

// SetPageDependencies replaces a page's edges with deps. Every dep is
// validated first so a bad entry leaves the old edges in place.
func (s *Store) SetPageDependencies(page string, deps []string) error {
	if _, err := s.Page(page); err != nil {
		return err
	}
	for _, dep := range deps {
		if _, err := s.dependents(dep); err != nil {
			return err
		}
	}
	if err := s.RemoveAllEdgesFor(page); err != nil {
		return err
	}
	for _, dep := range deps {
		if err := s.AddEdge(page, dep); err != nil {
			return err
		}
	}
	return nil
}

// Dependents returns the sorted dependents of an asset, layout or snippet.
func (s *Store) Dependents(path string) ([]string, error) {
	deps, err := s.dependents(path)
	if err != nil {
		return nil, err
	}
	return sets.Sorted(deps), nil
}

// Dependencies returns the sorted dependencies of a page.
func (s *Store) Dependencies(page string) ([]string, error) {
	p, err := s.Page(page)
	if err != nil {
		return nil, err
	}
	return sets.Sorted(p.Dependencies), nil
}

func sortedValues[T any](m map[string]*T, key func(*T) string) []*T {
	out := make([]*T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *T) int { return cmp.Compare(key(a), key(b)) })
	return out
}

// Assets returns all assets ordered by path.
func (s *Store) Assets() []*Asset {
	return sortedValues(s.assets, func(a *Asset) string { return a.Path })
}

// Layouts returns all layouts ordered by path. This is the layout matching order.
func (s *Store) Layouts() []*Layout {
	return sortedValues(s.layouts, func(l *Layout) string { return l.Path })
}

// Snippets returns all snippets ordered by path.
func (s *Store) Snippets() []*Snippet {
	return sortedValues(s.snippets, func(sn *Snippet) string { return sn.Path })
}

// Pages returns all pages ordered by path.
func (s *Store) Pages() []*Page {
	return sortedValues(s.pages, func(p *Page) string { return p.Path })
}

// Stats summarises entity counts.
type Stats struct {
	Assets   int
	Layouts  int
	Snippets int
	Pages    int
}

func (s *Store) Stats() Stats {
	return Stats{Assets: len(s.assets), Layouts: len(s.layouts), Snippets: len(s.snippets), Pages: len(s.pages)}
}
