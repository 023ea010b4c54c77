package acl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// source is the declarative ACL schema.
//
//	users:
//	  alice: $argon2id$...
//	groups:
//	  staff: [alice, bob]
//	rules:
//	  - permit: allow
//	    principal: group:everyone
//	    pattern: /public(/.*)?
type source struct {
	Users  map[string]string   `yaml:"users"`
	Groups map[string][]string `yaml:"groups"`
	Rules  []ruleSource        `yaml:"rules"`
}

type ruleSource struct {
	Permit    string `yaml:"permit"`
	Principal string `yaml:"principal"`
	Pattern   string `yaml:"pattern"`
}

// Load reads and parses an ACL file.
func Load(path string) (*ACL, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open acl file: %w", err)
	}
	defer f.Close()
	a, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse acl file %s: %w", path, err)
	}
	return a, nil
}

// Parse builds an ACL from its YAML source. Declared users are enrolled in
// the built-in everyone and logged groups. Group members naming an unknown
// user are skipped. Rules whose principal reference names an unknown user or
// group are dropped without failing the load; the drop count is reported via
// [ACL.Stats]. A malformed permit keyword or an uncompilable pattern fails
// the load.
func Parse(r io.Reader) (*ACL, error) {
	var src source
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&src); err != nil && err != io.EOF {
		return nil, err
	}

	a := New()

	for name, hash := range src.Users {
		a.CreateUser(name, hash)
	}

	for name, members := range src.Groups {
		g := a.CreateGroup(name)
		for _, member := range members {
			if u, ok := a.User(member); ok {
				a.AddMember(u, g)
			}
		}
	}

	for i, rs := range src.Rules {
		permit, err := ParsePermit(rs.Permit)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		p, ok := a.resolveReference(rs.Principal)
		if !ok {
			// Unknown or malformed principal references drop the rule
			// rather than failing the load.
			a.dropped++
			continue
		}

		if _, err := a.AddRule(permit, p, rs.Pattern); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	return a, nil
}

// resolveReference resolves a "user:<name>" or "group:<name>" reference
// against the declared principals.
func (a *ACL) resolveReference(ref string) (Principal, bool) {
	if name, ok := strings.CutPrefix(ref, "user:"); ok {
		u, ok := a.User(name)
		return u, ok
	}
	if name, ok := strings.CutPrefix(ref, "group:"); ok {
		g, ok := a.Group(name)
		return g, ok
	}
	return nil, false
}
