// Package preflight provides readiness checks for the filesystem paths a run
// writes to.
//
// The pipeline calls RunAll before extracting every frame of a video. If any
// check fails the run stops before ffmpeg fills the disk. The CLI "deps"
// command shows the same results next to the binary status table.
package preflight
