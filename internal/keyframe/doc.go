// Package keyframe picks one representative frame per shot.
//
// Shots are the half-open ranges between consecutive boundary indexes. The
// iframes method returns the boundaries themselves; color keeps the frame
// whose histogram best correlates with the shot's mean histogram; flow keeps
// the frame that moved least relative to its predecessor. Each shot is scanned
// independently, so Selector can spread shots across workers while keeping
// output in shot order.
package keyframe
