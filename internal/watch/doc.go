// Package watch turns filesystem changes into rebuilds.
//
// A Watcher feeds fsnotify events into a Dispatcher. The Dispatcher debounces
// bursts, plans each batch with a Policy and runs at most one build at a
// time:
//
//	Idle --event--> Debouncing --quiet window--> Rebuilding --done--> Idle
//	                                                  |
//	                                  events queued --+--> Debouncing
//
// Events that arrive while a build runs are queued and coalesced into the
// next batch; none are dropped.
package watch
