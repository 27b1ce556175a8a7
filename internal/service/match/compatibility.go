package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oggyb/matchmaker/internal/db"
)

// CompatibilityRule decides which genders a user is shown.
type CompatibilityRule interface {
	EligibleGenders(u *db.User) []string
}

// GenderMatrix maps a requester's gender to the genders they may see.
// A gender with no entry sees nobody.
type GenderMatrix map[string][]string

// DefaultGenderMatrix pairs male with female and nothing else.
func DefaultGenderMatrix() GenderMatrix {
	return GenderMatrix{
		"male":   {"female"},
		"female": {"male"},
	}
}

func (m GenderMatrix) EligibleGenders(u *db.User) []string {
	if u == nil {
		return nil
	}
	return m[strings.ToLower(strings.TrimSpace(u.Gender))]
}

// ParseGenderMatrix reads rules of the form
//
//	male:female;female:male;nonbinary:male,female,nonbinary
//
// An empty string yields the default matrix.
func ParseGenderMatrix(s string) (GenderMatrix, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultGenderMatrix(), nil
	}

	m := GenderMatrix{}
	for _, rule := range strings.Split(s, ";") {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		from, to, ok := strings.Cut(rule, ":")
		from = strings.ToLower(strings.TrimSpace(from))
		if !ok || from == "" {
			return nil, fmt.Errorf("invalid gender rule %q", rule)
		}
		if _, dup := m[from]; dup {
			return nil, fmt.Errorf("gender %q listed twice", from)
		}

		seen := map[string]bool{}
		targets := []string{}
		for _, g := range strings.Split(to, ",") {
			g = strings.ToLower(strings.TrimSpace(g))
			if g == "" || seen[g] {
				continue
			}
			seen[g] = true
			targets = append(targets, g)
		}
		sort.Strings(targets)
		m[from] = targets
	}
	return m, nil
}
