// Package layercache implements a uniform key/value cache contract over
// interchangeable byte stores, and a layered cache that chains them.
//
// Components:
//   - Provider: byte store with TTL (memory, ristretto, bigcache, file, SQL, Redis, null).
//   - Codec[V]: (de)serializes V <-> []byte (JSON, msgpack, CBOR, protobuf, optionally compressed).
//   - Envelope: every stored value carries its creation time and TTL, so expiry is
//     decided client-side even when the backend has no native TTL.
//   - Layered: ordered tiers, fastest first. Reads fall through and back-populate
//     the tiers that missed; writes go to every tier.
//
// Keys are 1..512 bytes and are mapped to a backend token (query-escaped or a
// 128-bit SHA-256 prefix, depending on the provider) before touching storage.
//
// Layered read-through:
//
//	mem, _ := layercache.New[User](layercache.Options[User]{Provider: memory.New(memory.Config{}), Codec: codec.Msgpack[User]{}})
//	db, _  := layercache.New[User](layercache.Options[User]{Provider: sqlProvider, Codec: codec.Msgpack[User]{}})
//	cache, _ := layercache.NewLayered[User](layercache.LayeredOptions{}, mem, db)
//	u, ok, err := cache.Get(ctx, "user:42") // a hit in db is copied into mem
//
// No cross-operation atomicity is provided: a back-population racing a Set or
// Delete on the same key may briefly leave a stale copy in a faster tier.
package layercache
