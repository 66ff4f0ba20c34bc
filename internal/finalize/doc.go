// Package finalize publishes selected keyframes: it copies the chosen frame
// images into the output directory, records a keyframes.json manifest with a
// perceptual hash per image, and removes the working frames directory when
// asked to.
//
// An output directory that already holds files is left untouched.
package finalize
