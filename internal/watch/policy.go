package watch

import (
	"fmt"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/sssg/internal/build"
	"git.home.luguber.info/inful/sssg/internal/site"
	"git.home.luguber.info/inful/sssg/internal/util/sets"
)

// Action is the rebuild scope one event needs.
type Action int

const (
	ActionIgnore Action = iota
	// ActionRender renders the changed file alone.
	ActionRender
	// ActionRenderDependents re-copies an asset and re-renders its dependents.
	ActionRenderDependents
	ActionFull
)

func (a Action) String() string {
	switch a {
	case ActionRender:
		return "render"
	case ActionRenderDependents:
		return "render_dependents"
	case ActionFull:
		return "full"
	default:
		return "ignore"
	}
}

// Policy decides the rebuild scope of a change.
type Policy interface {
	Decide(subtree site.Subtree, op Op) Action
}

// TablePolicy is a Policy backed by a subtree x op table. Missing entries
// are ignored.
type TablePolicy map[site.Subtree]map[Op]Action

func (p TablePolicy) Decide(subtree site.Subtree, op Op) Action {
	return p[subtree][op]
}

// DefaultPolicy targets asset creates and modifies; every other change in a
// recognised subtree triggers a full rebuild.
var DefaultPolicy = TablePolicy{
	site.SubtreeAssets: {
		OpCreate: ActionRender,
		OpModify: ActionRenderDependents,
		OpRemove: ActionFull,
		OpRename: ActionFull,
	},
	site.SubtreeLayouts:  allFull(),
	site.SubtreePages:    allFull(),
	site.SubtreeSnippets: allFull(),
}

func allFull() map[Op]Action {
	m := make(map[Op]Action, len(Ops))
	for _, op := range Ops {
		m[op] = ActionFull
	}
	return m
}

// Plan is the work for one batch of events.
type Plan struct {
	Full    bool
	Targets build.Targets
	Reason  string
}

// Empty reports whether the batch needs no build.
func (p Plan) Empty() bool { return !p.Full && p.Targets.Empty() }

// PlanBatch merges a batch into a single plan: one full rebuild if any event
// needs it, otherwise the union of the targeted renders.
func PlanBatch(paths site.Paths, policy Policy, batch []Event, fullReasons []string) Plan {
	var (
		reasons    []string
		full       = len(fullReasons) > 0
		files      = sets.New[string]()
		dependents = sets.New[string]()
	)
	reasons = append(reasons, fullReasons...)

	for _, ev := range batch {
		subtree := paths.Classify(ev.Path)
		action := policy.Decide(subtree, ev.Op)
		switch action {
		case ActionIgnore:
			continue
		case ActionFull:
			full = true
		case ActionRender:
			files.Add(ev.Path)
		case ActionRenderDependents:
			dependents.Add(ev.Path)
		}
		reasons = append(reasons, describe(paths, ev))
	}

	p := Plan{Full: full}
	if !full {
		p.Targets = build.Targets{Files: sets.Sorted(files), DependentsOf: sets.Sorted(dependents)}
	}
	p.Reason = summarize(slices.Compact(reasons))
	return p
}

func describe(paths site.Paths, ev Event) string {
	rel, err := filepath.Rel(paths.Source, ev.Path)
	if err != nil {
		rel = ev.Path
	}
	return fmt.Sprintf("%s %s", ev.Op, filepath.ToSlash(rel))
}

func summarize(reasons []string) string {
	switch len(reasons) {
	case 0:
		return ""
	case 1:
		return reasons[0]
	default:
		return fmt.Sprintf("%s (+%d more)", reasons[0], len(reasons)-1)
	}
}
