package acl

import (
	"testing"
)

func mustRule(t *testing.T, a *ACL, permit Permit, p Principal, pattern string) *Rule {
	t.Helper()
	r, err := a.AddRule(permit, p, pattern)
	if err != nil {
		t.Fatalf("AddRule(%s, %s, %q): %v", permit, Identity(p), pattern, err)
	}
	return r
}

func TestCanAccessFailClosed(t *testing.T) {
	a := New()
	alice := a.CreateUser("alice", "")

	if a.CanAccess(alice, "/anything") {
		t.Fatal("empty rule list must deny")
	}

	mustRule(t, a, Allow, alice, "/public(/.*)?")
	if a.CanAccess(alice, "/private/x.pdf") {
		t.Fatal("path with no matching rule must deny")
	}
}

func TestCanAccessNilPrincipal(t *testing.T) {
	a := New()
	if a.CanAccess(nil, "/public") {
		t.Fatal("nil principal must deny")
	}
}

// The canonical positional-precedence scenario: an earlier broad ALLOW on
// group:everyone beats a later, more specific DENY on user:alice.
func TestDeclarationOrderPrecedence(t *testing.T) {
	a := New()
	alice := a.CreateUser("alice", "")
	a.CreateUser("bob", "")

	mustRule(t, a, Allow, a.Everyone(), "/public(/.*)?")
	mustRule(t, a, Deny, alice, "/public/secret\\.pdf")

	if !a.CanAccess(alice, "/public/secret.pdf") {
		t.Fatal("earlier allow rule must win over later deny rule")
	}

	bob, _ := a.User("bob")
	if !a.CanAccess(bob, "/public/secret.pdf") {
		t.Fatal("bob reaches the path through group:everyone")
	}
}

func TestDeclarationOrderPrecedenceReversed(t *testing.T) {
	a := New()
	alice := a.CreateUser("alice", "")

	mustRule(t, a, Deny, alice, "/public/secret\\.pdf")
	mustRule(t, a, Allow, a.Everyone(), "/public(/.*)?")

	if a.CanAccess(alice, "/public/secret.pdf") {
		t.Fatal("deny declared first must win")
	}
	if !a.CanAccess(alice, "/public/other.pdf") {
		t.Fatal("paths outside the deny pattern fall through to the allow rule")
	}
}

// Group rules and user rules keep their interleaved source positions; they
// are never regrouped by principal kind.
func TestInterleavedGroupAndUserRules(t *testing.T) {
	a := New()
	alice := a.CreateUser("alice", "")
	staff := a.CreateGroup("staff")
	a.AddMember(alice, staff)

	mustRule(t, a, Deny, staff, "/docs(/.*)?")
	mustRule(t, a, Allow, alice, "/docs(/.*)?")

	if a.CanAccess(alice, "/docs/a.txt") {
		t.Fatal("group deny at index 0 must beat user allow at index 1")
	}
}

func TestBuiltinGroupMembership(t *testing.T) {
	a := New()
	alice := a.CreateUser("alice", "")
	bob := a.CreateUser("bob", "")

	for _, u := range []*User{alice, bob} {
		if !u.MemberOf(GroupEveryone) {
			t.Errorf("%s not in %s", u.Name(), GroupEveryone)
		}
		if !u.MemberOf(GroupLogged) {
			t.Errorf("%s not in %s", u.Name(), GroupLogged)
		}
	}

	if got := len(a.Everyone().Members()); got != 2 {
		t.Fatalf("everyone has %d members, want 2", got)
	}
}

func TestPatternFullMatch(t *testing.T) {
	a := New()
	alice := a.CreateUser("alice", "")
	mustRule(t, a, Allow, alice, "/public(/.+)?")

	cases := []struct {
		path string
		want bool
	}{
		{"/public", true},
		{"/public/a.pdf", true},
		{"/public/sub/b.pdf", true},
		{"/publicx", false},
		{"/public2/a.pdf", false},
		{"/prefix/public", false},
	}
	for _, tc := range cases {
		if got := a.CanAccess(alice, tc.path); got != tc.want {
			t.Errorf("CanAccess(alice, %q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestPathNormalization(t *testing.T) {
	a := New()
	alice := a.CreateUser("alice", "")
	mustRule(t, a, Allow, alice, "/public(/.*)?")

	if !a.CanAccess(alice, "public/a.pdf") {
		t.Error("missing leading separator must be added before matching")
	}
	if !a.CanAccess(alice, "//public/a.pdf") {
		t.Error("doubled leading separators must collapse to one")
	}
}

func TestNormalizePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"a/b", "/a/b"},
		{"/a/b", "/a/b"},
		{"///a", "/a"},
	}
	for _, tc := range cases {
		if got := NormalizePath(tc.in); got != tc.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGroupPrincipalEvaluation(t *testing.T) {
	a := New()
	a.CreateUser("alice", "")
	staff := a.CreateGroup("staff")

	mustRule(t, a, Allow, staff, "/wiki(/.*)?")

	if !a.CanAccess(staff, "/wiki/page") {
		t.Fatal("a group principal matches its own rules")
	}
	if a.CanAccess(a.Everyone(), "/wiki/page") {
		t.Fatal("a group principal must not inherit another group's rules")
	}
}

func TestSameComparesByIdentity(t *testing.T) {
	a := New()
	b := New()
	ua := a.CreateUser("alice", "h1")
	ub := b.CreateUser("alice", "h2")

	if !Same(ua, ub) {
		t.Error("users with the same name are the same principal")
	}
	ga, _ := a.Group(GroupEveryone)
	if Same(ua, ga) {
		t.Error("a user and a group never compare equal")
	}
	if Same(nil, ua) || Same(ua, nil) {
		t.Error("nil principals compare unequal")
	}
}

func TestIdentity(t *testing.T) {
	a := New()
	alice := a.CreateUser("alice", "")
	if got := Identity(alice); got != "user:alice" {
		t.Errorf("Identity(alice) = %q", got)
	}
	if got := Identity(a.Everyone()); got != "group:everyone" {
		t.Errorf("Identity(everyone) = %q", got)
	}
}

func TestMatchAny(t *testing.T) {
	a := New()
	alice := a.CreateUser("alice", "")
	mustRule(t, a, Deny, alice, "/public(/.*)?")

	if !a.MatchAny("/public/x") {
		t.Error("deny rules still count as pattern coverage")
	}
	if a.MatchAny("/elsewhere") {
		t.Error("uncovered path reported as covered")
	}
}

func TestInvalidPattern(t *testing.T) {
	a := New()
	alice := a.CreateUser("alice", "")
	if _, err := a.AddRule(Allow, alice, "/public(/.*"); err == nil {
		t.Fatal("uncompilable pattern must be rejected")
	}
	if _, err := a.AddRule(Allow, alice, ""); err == nil {
		t.Fatal("empty pattern must be rejected")
	}
	if _, err := a.AddRule(Allow, nil, "/x"); err == nil {
		t.Fatal("nil principal must be rejected")
	}
}
