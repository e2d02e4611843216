// Package preflight provides readiness checks for the external tools and
// filesystem paths that slidescribe depends on.
//
// These checks run in two contexts:
//   - The extraction workflow calls RunAll before opening the video. If any
//     required check fails, the run stops with a configuration error.
//   - The CLI "slidescribe status" command renders the same results, plus
//     tool versions from ToolVersion.
//
// The history directory is only checked when history is enabled.
package preflight
