// Package memory provides an embedded in-memory backend.
//
// Data is distributed over multiple concurrent map shards (one xsync.MapOf
// per shard, shard selected by FNV-1a key hash) so that concurrent writers
// rarely contend. The backend implements every optional capability: health
// checks (trivially healthy), native batch operations, and snapshot
// persistence via Save/Load with a versioned binary format.
package memory
