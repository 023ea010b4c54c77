package acl

import (
	"strings"
)

// Built-in group names. Both are created by [New] and receive every user
// added through [ACL.CreateUser].
const (
	GroupEveryone = "everyone"
	GroupLogged   = "logged"
)

// Kind tags the two principal variants.
type Kind int

const (
	// KindUser identifies a [User] principal.
	KindUser Kind = iota
	// KindGroup identifies a [Group] principal.
	KindGroup
)

func (k Kind) String() string {
	if k == KindGroup {
		return "group"
	}
	return "user"
}

// Principal is the identity a rule binds to and the identity access
// decisions are evaluated for. The two implementations are [User] and
// [Group]. Principals compare by identity — kind plus name — never by
// structural equality of the underlying objects.
type Principal interface {
	// Name returns the unique name of the principal within its kind.
	Name() string
	// Kind reports whether the principal is a user or a group.
	Kind() Kind
}

// Same reports whether two principals denote the same identity.
func Same(a, b Principal) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Kind() == b.Kind() && a.Name() == b.Name()
}

// Identity returns the stable cache-key form of a principal,
// e.g. "user:alice" or "group:everyone".
func Identity(p Principal) string {
	if p == nil {
		return ""
	}
	return p.Kind().String() + ":" + p.Name()
}

// User is a declared account: a name, an argon2id password hash, and the
// groups the user belongs to. Membership is held on both sides; the user
// does not own its groups.
type User struct {
	name         string
	passwordHash string
	groups       []*Group
}

// Name returns the username.
func (u *User) Name() string { return u.name }

// Kind returns [KindUser].
func (u *User) Kind() Kind { return KindUser }

// PasswordHash returns the stored PHC-encoded password hash.
func (u *User) PasswordHash() string { return u.passwordHash }

// Groups returns the groups the user is a member of, in enrollment order.
// The returned slice is shared; callers must not modify it.
func (u *User) Groups() []*Group { return u.groups }

// MemberOf reports whether the user belongs to the named group.
func (u *User) MemberOf(name string) bool {
	for _, g := range u.groups {
		if g.name == name {
			return true
		}
	}
	return false
}

// Group is a named set of users.
type Group struct {
	name    string
	members []*User
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Kind returns [KindGroup].
func (g *Group) Kind() Kind { return KindGroup }

// Members returns the group's members in enrollment order.
// The returned slice is shared; callers must not modify it.
func (g *Group) Members() []*User { return g.members }

// Stats summarizes a built ACL. DroppedRules counts rules whose principal
// reference named an unknown user or group and were therefore excluded.
type Stats struct {
	Users        int
	Groups       int
	Rules        int
	DroppedRules int
}

// ACL holds the users, groups, and ordered rule list of one policy
// snapshot.
type ACL struct {
	users  map[string]*User
	groups map[string]*Group
	rules  []*Rule

	dropped int
}

// New returns an empty ACL with the built-in groups pre-created.
func New() *ACL {
	a := &ACL{
		users:  make(map[string]*User),
		groups: make(map[string]*Group),
	}
	a.CreateGroup(GroupEveryone)
	a.CreateGroup(GroupLogged)
	return a
}

// CreateUser adds a user and enrolls it in the built-in groups. An existing
// user with the same name is replaced.
func (a *ACL) CreateUser(name, passwordHash string) *User {
	u := &User{name: name, passwordHash: passwordHash}
	a.users[name] = u
	a.enroll(u, a.groups[GroupEveryone])
	a.enroll(u, a.groups[GroupLogged])
	return u
}

// CreateGroup adds an empty group, replacing any existing group with the
// same name.
func (a *ACL) CreateGroup(name string) *Group {
	g := &Group{name: name}
	a.groups[name] = g
	return g
}

// AddMember enrolls a user in a group. Enrolling twice is a no-op.
func (a *ACL) AddMember(u *User, g *Group) {
	if u == nil || g == nil || u.MemberOf(g.name) {
		return
	}
	a.enroll(u, g)
}

func (a *ACL) enroll(u *User, g *Group) {
	u.groups = append(u.groups, g)
	g.members = append(g.members, u)
}

// AddRule appends a rule to the end of the rule list, assigning it the next
// declaration index.
func (a *ACL) AddRule(permit Permit, p Principal, pattern string) (*Rule, error) {
	r, err := newRule(permit, p, pattern, len(a.rules))
	if err != nil {
		return nil, err
	}
	a.rules = append(a.rules, r)
	return r, nil
}

// User looks up a declared user by name.
func (a *ACL) User(name string) (*User, bool) {
	u, ok := a.users[name]
	return u, ok
}

// Group looks up a group by name.
func (a *ACL) Group(name string) (*Group, bool) {
	g, ok := a.groups[name]
	return g, ok
}

// Everyone returns the built-in anonymous group.
func (a *ACL) Everyone() *Group { return a.groups[GroupEveryone] }

// Usernames returns the declared usernames in unspecified order.
func (a *ACL) Usernames() []string {
	names := make([]string, 0, len(a.users))
	for name := range a.users {
		names = append(names, name)
	}
	return names
}

// GroupNames returns all group names, built-ins included, in unspecified
// order.
func (a *ACL) GroupNames() []string {
	names := make([]string, 0, len(a.groups))
	for name := range a.groups {
		names = append(names, name)
	}
	return names
}

// Rules returns the rule list in declaration order.
// The returned slice is shared; callers must not modify it.
func (a *ACL) Rules() []*Rule { return a.rules }

// Stats returns counts for the built ACL.
func (a *ACL) Stats() Stats {
	return Stats{
		Users:        len(a.users),
		Groups:       len(a.groups),
		Rules:        len(a.rules),
		DroppedRules: a.dropped,
	}
}

// NormalizePath reduces any number of leading separators to exactly one,
// prepending one if absent. No other normalization is performed.
func NormalizePath(path string) string {
	return "/" + strings.TrimLeft(path, "/")
}

// CanAccess decides whether the principal may reach the path. The path is
// normalized to a single leading separator, then the rule list is scanned in
// declaration order; the first rule that binds to the principal and fully
// matches the path determines the outcome. Group rules and user rules are
// considered interleaved at their original positions, never regrouped. With
// no matching rule the decision is deny.
func (a *ACL) CanAccess(p Principal, path string) bool {
	if p == nil {
		return false
	}
	path = NormalizePath(path)
	for _, r := range a.rules {
		if !r.bindsTo(p) {
			continue
		}
		if r.Matches(path) {
			return r.permit.Allowed()
		}
	}
	return false
}

// MatchAny reports whether any rule pattern matches the path, regardless of
// principal or permit. Useful for distinguishing "never reachable" paths
// from denied ones.
func (a *ACL) MatchAny(path string) bool {
	path = NormalizePath(path)
	for _, r := range a.rules {
		if r.Matches(path) {
			return true
		}
	}
	return false
}
