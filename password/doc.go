// Package password implements argon2id hashing and verification for the
// password hashes stored in the ACL source.
//
// # Encoding
//
// Hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Verify] derives its cost parameters from the encoded hash itself, so
// hashes authored with older defaults keep verifying after the defaults
// change. Comparison is constant-time.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Log plaintext passwords or hash parameters.
//   - Import any other drivegate package.
package password
