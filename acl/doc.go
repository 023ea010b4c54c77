// Package acl implements the rule-based path authorization model used by
// drivegate: named users with argon2id password hashes, named groups, and an
// ordered list of allow/deny rules whose patterns are matched against the
// full request path.
//
// # Evaluation model
//
// [ACL.CanAccess] scans the rule list in declaration order and returns the
// permit of the first rule that (a) binds to the principal being evaluated,
// directly or through one of a user's groups, and (b) fully matches the
// normalized path. Precedence is purely positional: a later rule never
// overrides an earlier one, regardless of how specific either pattern is.
// When no rule matches, the decision is deny.
//
// # Immutability
//
// An ACL is assembled once (by [Parse]/[Load] or the Create/Add methods) and
// must be treated as read-only afterwards. Concurrent CanAccess calls need no
// locking; policy changes are made by building a new ACL and swapping the
// reference, never by mutating a live instance.
package acl
