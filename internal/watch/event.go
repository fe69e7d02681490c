package watch

import "github.com/fsnotify/fsnotify"

// Op is the kind of change observed on a source path.
type Op string

const (
	OpCreate Op = "create"
	OpModify Op = "modify"
	OpRemove Op = "remove"
	OpRename Op = "rename"
)

// Ops lists every Op.
var Ops = []Op{OpCreate, OpModify, OpRemove, OpRename}

// Event is one change to one absolute source path.
type Event struct {
	Op   Op
	Path string
}

// FromFSNotify maps an fsnotify event. Chmod-only events report false.
func FromFSNotify(ev fsnotify.Event) (Event, bool) {
	var op Op
	switch {
	case ev.Has(fsnotify.Remove):
		op = OpRemove
	case ev.Has(fsnotify.Rename):
		op = OpRename
	case ev.Has(fsnotify.Create):
		op = OpCreate
	case ev.Has(fsnotify.Write):
		op = OpModify
	default:
		return Event{}, false
	}
	return Event{Op: op, Path: ev.Name}, true
}
