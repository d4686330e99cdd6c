package registry

import (
	"fmt"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Policy controls which tool names may be injected. A nil Policy allows
// everything.
type Policy struct {
	allowed map[string]struct{}
	deny    *gitignore.GitIgnore
}

// NewPolicy builds a policy from an allowlist of exact names and a list
// of gitignore-style deny patterns. An empty allowlist admits any name
// not matched by a deny pattern.
func NewPolicy(allowed, denyPatterns []string) *Policy {
	p := &Policy{}
	if len(allowed) > 0 {
		p.allowed = make(map[string]struct{}, len(allowed))
		for _, name := range allowed {
			p.allowed[name] = struct{}{}
		}
	}
	if len(denyPatterns) > 0 {
		p.deny = gitignore.CompileIgnoreLines(denyPatterns...)
	}
	return p
}

// Allows reports whether name passes the policy.
func (p *Policy) Allows(name string) bool {
	if p == nil {
		return true
	}
	if p.allowed != nil {
		if _, ok := p.allowed[name]; !ok {
			return false
		}
	}
	if p.deny != nil && p.deny.MatchesPath(name) {
		return false
	}
	return true
}

// PolicyError lists names rejected during an injection attempt.
type PolicyError struct {
	Rejected []string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("injection policy rejected %d tool(s): %s", len(e.Rejected), strings.Join(e.Rejected, ", "))
}
