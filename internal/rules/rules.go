// Package rules implements keyword-based category matching. Rules are
// configured as ordered groups of categories; compilation flattens them into
// one total order that is preserved through matching, because the first rule
// whose keywords hit wins.
package rules

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// CategoryConfig describes one destination category and its keywords.
type CategoryConfig struct {
	Name     string   `toml:"name"`
	Keywords []string `toml:"keywords"`
	// MatchAll requires every keyword to appear; otherwise any one suffices.
	MatchAll bool `toml:"match_all"`
}

// Group is an ordered set of categories under a shared main-group folder.
// An empty group name omits the main-group path segment.
type Group struct {
	Name       string           `toml:"name"`
	Categories []CategoryConfig `toml:"categories"`
}

// Rule is one flattened, compiled category rule.
type Rule struct {
	MainGroup string
	Category  string
	Keywords  []string
	MatchAll  bool
}

// RelativeDir composes the destination-relative directory for the rule.
func (r Rule) RelativeDir() string {
	if r.MainGroup == "" {
		return r.Category
	}
	return r.MainGroup + string(os.PathSeparator) + r.Category
}

// Compiled is the flattened rule sequence for one run. It is computed once
// from configuration and never mutated afterwards.
type Compiled struct {
	rules []Rule
}

// Compile flattens groups into an ordered rule list, trimming and lowercasing
// keywords. Categories without any usable keyword are rejected so a silent
// never-matching rule cannot hide in the configuration.
func Compile(groups []Group) (*Compiled, error) {
	var flattened []Rule
	for _, group := range groups {
		groupName := strings.TrimSpace(group.Name)
		for _, category := range group.Categories {
			name := strings.TrimSpace(category.Name)
			if name == "" {
				return nil, fmt.Errorf("rules: category without a name in group %q", groupName)
			}
			keywords := make([]string, 0, len(category.Keywords))
			for _, keyword := range category.Keywords {
				trimmed := strings.ToLower(strings.TrimSpace(keyword))
				if trimmed == "" {
					continue
				}
				keywords = append(keywords, trimmed)
			}
			if len(keywords) == 0 {
				return nil, fmt.Errorf("rules: category %q has no keywords", name)
			}
			flattened = append(flattened, Rule{
				MainGroup: groupName,
				Category:  name,
				Keywords:  keywords,
				MatchAll:  category.MatchAll,
			})
		}
	}
	return &Compiled{rules: flattened}, nil
}

// Len returns the number of compiled rules.
func (c *Compiled) Len() int {
	return len(c.rules)
}

// Rules returns a copy of the compiled rule order.
func (c *Compiled) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Match scans the rule order and returns the first rule whose keyword
// predicate succeeds against the normalized haystack.
func (c *Compiled) Match(haystack string) (Rule, bool) {
	for _, rule := range c.rules {
		if matches(rule, haystack) {
			return rule, true
		}
	}
	return Rule{}, false
}

func matches(rule Rule, haystack string) bool {
	if rule.MatchAll {
		for _, keyword := range rule.Keywords {
			if !strings.Contains(haystack, keyword) {
				return false
			}
		}
		return true
	}
	for _, keyword := range rule.Keywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}

// NormalizeHaystack lowercases a name and folds separator characters to
// single spaces so keywords match regardless of kick_01 / kick-01 / Kick 01
// spelling.
func NormalizeHaystack(name string) string {
	lowered := strings.ToLower(name)
	lowered = strings.Map(func(r rune) rune {
		switch r {
		case '-', '_':
			return ' '
		}
		return r
	}, lowered)
	return strings.Join(strings.Fields(lowered), " ")
}

type rulesFile struct {
	Groups []Group `toml:"groups"`
}

// LoadFile reads grouped rules from a TOML file.
func LoadFile(path string) ([]Group, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer file.Close()

	var parsed rulesFile
	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if len(parsed.Groups) == 0 {
		return nil, fmt.Errorf("rules file %s defines no groups", path)
	}
	return parsed.Groups, nil
}
