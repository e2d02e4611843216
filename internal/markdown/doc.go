// Package markdown assembles the lecture document: optional YAML front
// matter, a title block with the slide count, and one section per slide with
// its image link and the transcript text assigned to it.
//
// Rendering is pure; Write places the result on disk atomically.
package markdown
