// Package password implements salted, deliberately slow password hashing.
//
// New hashes use argon2id by default, encoded as PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// bcrypt can be selected instead, and [Multi] verifies both encodings so a
// credential table may hold a mix of them.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Enforce password policy; the engine owns length limits.
//   - Log plaintext passwords.
package password
