// Package models defines the library entities daylist works with.
//
// The package contains two kinds of types:
//
// 1. Library snapshots: read-only records fetched once per run
//   - [Song] : Track metadata including tempo, play history and genre tags
//
// 2. Remote references: objects that exist only on the server
//   - [RemotePlaylist] : A playlist as reported by the server, used for base-name cleanup
//
// Songs are never mutated after they are fetched. Generation derives new slices from the
// pool rather than editing records in place, which lets several playlists be built from the
// same pool at once.
package models
