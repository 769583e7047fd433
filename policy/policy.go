// Copyright 2025 The EncGuard Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package policy decides whether a path is governed by an encryption
// requirement. Rules are read from a gitattributes-shaped file and matched
// against candidate paths in file order, first match wins.
package policy

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"

	"github.com/encguard/go-encguard/log"
)

// Rule is a single pattern to directive mapping from the rules file.
type Rule struct {
	// Pattern is the path glob the rule applies to.
	Pattern string `json:"pattern" jsonschema:"title=Pattern,description=Path glob the rule applies to"`

	// Directive is the raw attribute text following the pattern.
	Directive string `json:"directive" jsonschema:"title=Directive,description=Attribute text following the pattern"`
}

// RelevantMarkers is the set of directive substrings that mark a rule as
// encryption relevant. Rules whose directive contains none of these are
// parsed but never participate in matching. The set is data so new
// encryption conventions can be recognized without touching match logic.
var RelevantMarkers = []string{
	"filter=",
	"git-crypt",
	"sops",
	"ansible-vault",
	"encrypt",
}

// recursiveSuffix marks a rule pattern as covering an entire subtree.
const recursiveSuffix = "/**"

// Relevant reports whether the rule's directive carries one of the
// recognized encryption markers.
func (r Rule) Relevant() bool {
	for _, marker := range RelevantMarkers {
		if strings.Contains(r.Directive, marker) {
			return true
		}
	}

	return false
}

// Matches tests the candidate path against the rule's pattern. Patterns
// ending in "/**" match every path under the directory prefix; all other
// patterns use shell glob semantics where "*" does not cross path
// separators. A "**" anywhere but the trailing position gets no special
// treatment and degrades to ordinary glob matching.
func (r Rule) Matches(path string) bool {
	if strings.HasSuffix(r.Pattern, recursiveSuffix) {
		prefix := strings.TrimSuffix(r.Pattern, recursiveSuffix)
		return strings.HasPrefix(path, prefix+"/")
	}

	g, err := glob.Compile(r.Pattern, '/')
	if err != nil {
		log.Debugf("(policy) skipping unparseable pattern %q: %s", r.Pattern, err)
		return false
	}

	return g.Match(path)
}

// LoadRules parses the rules file at path into an ordered rule list.
// Comment lines, blank lines, and lines that don't split into a pattern
// token followed by directive text are skipped. Order is preserved exactly
// as written since matching is first match wins.
func LoadRules(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}

	defer f.Close()

	rules := []Rule{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			log.Debugf("(policy) skipping malformed rule line: %q", line)
			continue
		}

		rules = append(rules, Rule{
			Pattern:   fields[0],
			Directive: strings.Join(fields[1:], " "),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	return rules, nil
}

// IsGoverned reports whether path is subject to an encryption requirement
// under the rules file at rulesFilePath, along with the rule that matched.
// A missing rules file means nothing is governed; this is surfaced as a
// warning rather than an error so repositories without a policy can still
// commit.
func IsGoverned(path, rulesFilePath string) (bool, *Rule) {
	if _, err := os.Stat(rulesFilePath); err != nil {
		log.Warnf("(policy) rules file %s not found, no files are governed", rulesFilePath)
		return false, nil
	}

	rules, err := LoadRules(rulesFilePath)
	if err != nil {
		log.Warnf("(policy) failed to load rules from %s: %s", rulesFilePath, err)
		return false, nil
	}

	return Match(path, rules)
}

// Match tests path against the encryption relevant subset of rules in
// order, returning the first rule that matches.
func Match(path string, rules []Rule) (bool, *Rule) {
	for i := range rules {
		if !rules[i].Relevant() {
			continue
		}

		if rules[i].Matches(path) {
			return true, &rules[i]
		}
	}

	return false, nil
}
