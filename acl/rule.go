package acl

import (
	"errors"
	"fmt"
	"regexp"
)

// Permit is the outcome a rule attaches to matching paths.
type Permit int

const (
	// Deny is the zero value and the fail-closed default.
	Deny Permit = iota
	// Allow grants access.
	Allow
)

// Allowed reports whether the permit grants access.
func (p Permit) Allowed() bool { return p == Allow }

func (p Permit) String() string {
	if p == Allow {
		return "allow"
	}
	return "deny"
}

// ParsePermit maps the source-form permit keywords. The empty string
// defaults to [Deny]; anything else unrecognized is an error.
func ParsePermit(s string) (Permit, error) {
	switch s {
	case "", "deny":
		return Deny, nil
	case "allow":
		return Allow, nil
	}
	return Deny, fmt.Errorf("unknown permit %q", s)
}

// Rule binds a permit to a principal and a full-match path pattern. The
// declaration index records the rule's position in the source list and is
// what gives rules their precedence.
type Rule struct {
	permit    Permit
	principal Principal
	pattern   *regexp.Regexp
	index     int
}

func newRule(permit Permit, p Principal, pattern string, index int) (*Rule, error) {
	if p == nil {
		return nil, errors.New("rule principal must not be nil")
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	return &Rule{permit: permit, principal: p, pattern: re, index: index}, nil
}

// compilePattern anchors the source pattern so that matching is full-string:
// "/public(/.*)?" matches "/public" and "/public/a.pdf" but not "/publicx".
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errors.New("rule pattern must not be empty")
	}
	re, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
	if err != nil {
		return nil, fmt.Errorf("invalid rule pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Permit returns the rule's outcome.
func (r *Rule) Permit() Permit { return r.permit }

// Principal returns the principal the rule binds to.
func (r *Rule) Principal() Principal { return r.principal }

// Index returns the rule's declaration index.
func (r *Rule) Index() int { return r.index }

// Matches tests the already-normalized path against the anchored pattern.
func (r *Rule) Matches(path string) bool {
	return r.pattern.MatchString(path)
}

// bindsTo reports whether the rule applies to the principal: either the
// rule's principal is the same identity, or the principal is a user and the
// rule's principal is one of the user's groups.
func (r *Rule) bindsTo(p Principal) bool {
	if Same(r.principal, p) {
		return true
	}
	u, ok := p.(*User)
	if !ok || r.principal.Kind() != KindGroup {
		return false
	}
	return u.MemberOf(r.principal.Name())
}

func (r *Rule) String() string {
	return fmt.Sprintf("rule[%d] %s %s %s", r.index, r.permit, Identity(r.principal), r.pattern)
}
