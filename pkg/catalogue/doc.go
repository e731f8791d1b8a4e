// Package catalogue provides the module, section-type, level-type and
// window-type lookups the layout engine consumes.
//
// The engine never assumes a catalogue hit: every lookup returns an explicit
// error coded NOT_FOUND when nothing matches. Catalogue data is read-only
// for the duration of any engine computation; [Snapshot] is an immutable
// in-memory implementation that is safe for concurrent readers.
//
// # Sources
//
// A [Source] fetches a Snapshot for one building system:
//   - [FileSource]: TOML, YAML or JSON files on disk
//   - [HTTPSource]: JSON document over HTTP with retry
//   - [MongoSource]: catalogue collections in MongoDB
//   - [CachedSource]: wraps any Source with a cache-then-remote fallback
//
// Retries and fallbacks live here, never in the engine.
package catalogue
