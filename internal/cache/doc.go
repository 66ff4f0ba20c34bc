// Package cache stores selection results in SQLite so repeated runs on an
// unchanged video skip segmentation and selection.
//
// Entries are keyed by an xxhash digest of the video contents (seeded with
// the file size) together with the method name. Rows are scanned with scany.
// The schema is versioned; a mismatch asks the user to clear the cache.
package cache
