// Package filestore keeps each card queue in its own JSON file.
//
// A queue for key k lives at <dir>/<k>.json as a plain JSON array of
// {"source", "target"} objects, front first. A missing file is an empty
// queue. Files are replaced atomically (write to a temp file in the same
// directory, then rename) so a crash never leaves a half written array.
package filestore
