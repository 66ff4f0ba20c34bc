// Package pipeline orchestrates one keyframe run for a video.
//
// Run validates the method, resolves ffmpeg and ffprobe, consults the result
// cache, finds shot boundaries, extracts frames, selects keyframes and
// publishes them with a manifest. The color and flow methods extract every
// frame into a locked working directory; iframes and cache hits only extract
// the frames that end up in the output directory.
package pipeline
