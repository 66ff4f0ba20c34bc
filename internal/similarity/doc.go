// Package similarity scores how alike two frames are.
//
// Correlation compares colour histograms; Stillness measures motion between
// consecutive grayscale frames by tracking corner features with pyramidal
// Lucas–Kanade optical flow. Lower stillness scores mean less motion.
package similarity
