// Package file implements driven.DocumentStore on the local filesystem.
//
// Layout under the data directory:
//
//	index.json                              file index
//	files/<stage-dir>/<id><ext>             uploaded original
//	files/<stage-dir>/<id>.chunks.json      chunk data
//
// Every write goes through fsutil.WriteFile (temp file, fsync, rename), so a
// crash leaves the previous content in place. A malformed index.json is
// renamed to index.json.corrupt-<unix> and an empty index is served.
package file
