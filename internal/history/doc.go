// Package history records extraction runs in SQLite.
//
// Every `slidescribe extract` invocation opens a run row when it starts and
// closes it as completed or failed, together with the detected slides and
// their assigned transcript sizes. The CLI reads the table back for
// `slidescribe history` and prunes old rows on request.
//
// The schema revision lives in SQLite's user_version pragma. A database
// written by a different revision is refused rather than migrated.
package history
