// Package ffprobe provides a typed wrapper around ffprobe output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: per-stream properties, including frame rate and frame count
//
// Entry points:
//   - Inspect: executes ffprobe and returns the parsed Result
//   - PictureTypes: lists the picture type of every decoded video frame
//
// Helper methods on Result locate the primary video stream and estimate its
// frame count, which callers use to size extraction work up front.
package ffprobe
