// Package video decodes lecture recordings into RGBA frames.
//
// Open checks the file header with h2non/filetype, reads stream geometry and
// frame rate through ffprobe, then runs ffmpeg with a raw rgb24 pipe. The
// returned Decoder satisfies slides.FrameSource. Callers own the handle and
// must Close it; Close terminates ffmpeg if it is still running.
package video
