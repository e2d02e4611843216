// Package textutil provides small text helpers shared by the CLI and the
// extraction workflow.
//
// DeriveTitle turns a video file name into a human readable document title
// when no explicit title is configured. Ternary is a generic conditional used
// by the report renderers.
package textutil
