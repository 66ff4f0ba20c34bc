// Package deps locates the external ffmpeg and ffprobe executables.
//
// Configured values that look like paths are used as-is; bare command names
// are looked up in the configured binaries directory and then on PATH.
package deps
