// Package stores provides the Redis-backed verification record store.
//
// # Design
//
// Each email maps to one versioned Redis hash holding the code digest, the
// logical expiry and the verified flag. Every mutation runs as a Lua script
// so issue, check and consume are atomic per key. The key's native expiry is
// set slightly past the logical expiry, so records are removed by Redis
// itself while a late check can still tell Expired from NotFound.
//
// # What this package must NOT do
//
//   - Import goSignup or any sibling internal package.
//   - Store or log plaintext codes.
package stores
