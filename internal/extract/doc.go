// Package extract writes video frames to disk with ffmpeg.
//
// All decodes every frame into "<dir>/<n>.<ext>" (1-based, matching the
// frame index plus one). Selected decodes only the requested 0-based indexes
// and renames the outputs so file names still encode the frame index.
// Argument lists are assembled with ffmpeg-go and executed through
// exec.CommandContext so cancellation reaches the subprocess.
package extract
