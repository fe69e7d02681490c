// Package build turns a source tree into an output tree.
//
// The Composer renders one source file: assets are copied, pages are
// converted from markdown when needed, wrapped in a layout and have their
// snippet tags substituted. The Builder scans the whole source tree into a
// fresh store.Store, deriving every page's dependencies with the same
// Composer analysis used for rendering. The Engine ties both together:
//
//   - FullBuild scans into a new store, renders into a staging directory next
//     to the output root and promotes it only when every file succeeded.
//   - Render and RenderDependents re-render a known subset in place and
//     refresh the edges of every page they touch.
//
// Builds are serialized by the Engine; the store is never shared with
// readers outside a build.
//
// Detection is substring search over full file contents, so a scan costs
// O(layouts*assets + pages*(assets+layouts+snippets)). That is fine for small
// sites and a known limit for large ones.
package build
