// Package workflow runs one extraction end to end.
//
// A Pipeline checks tool and directory readiness, parses the transcript,
// locks the output directory, decodes the video through a scoped decode
// handle, detects slide boundaries, writes the slide images, aligns the
// transcript to the slides and renders the Markdown document. Each step runs
// under its own stage name so log lines carry run_id and stage fields.
//
// This is the only layer that logs. The slides, transcript, video and
// markdown packages return values and errors; the pipeline turns them into
// structured log events and history records.
package workflow
