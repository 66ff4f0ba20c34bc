// Package frames loads decoded video frames from a frames directory and
// derives the per-frame data the keyframe selector compares: an 8×8×8 RGB
// colour histogram, a grayscale buffer, and Shi-Tomasi corner features.
//
// Frames are addressed by 0-based index and stored on disk as
// "<index+1>.<ext>", the numbering ffmpeg's image2 muxer produces.
package frames
