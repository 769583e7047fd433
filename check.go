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

// Package encguard verifies that files a repository policy designates as
// encrypted actually hold ciphertext before they reach version control.
// Check is the top level entry point: it asks the policy package whether
// each candidate path is governed and the classify package whether its
// content is encrypted, then folds the per-file verdicts into a pass or
// fail report for the batch.
package encguard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/encguard/go-encguard/classify"
	"github.com/encguard/go-encguard/leakscan"
	"github.com/encguard/go-encguard/log"
	"github.com/encguard/go-encguard/policy"
)

// DefaultRulesFile is the conventional rules file location relative to the
// repository root.
const DefaultRulesFile = ".gitattributes"

// Verdict is the per-file outcome of a check.
type Verdict string

const (
	// VerdictEncrypted means the file is governed and its content is
	// encrypted.
	VerdictEncrypted Verdict = "governed-encrypted"

	// VerdictPlaintext means the file is governed but its content is
	// plaintext. Any file with this verdict fails the batch.
	VerdictPlaintext Verdict = "governed-plaintext"

	// VerdictUngoverned means no encryption rule applies to the file.
	VerdictUngoverned Verdict = "ungoverned"

	// VerdictSkipped means the file could not be read and was not checked.
	VerdictSkipped Verdict = "skipped"
)

// Result is the verdict for a single candidate file.
type Result struct {
	// Path is the candidate path as supplied by the caller.
	Path string `json:"path" jsonschema:"title=Path,description=Candidate file path"`

	// Verdict is the outcome for this file.
	Verdict Verdict `json:"verdict" jsonschema:"title=Verdict,description=Per-file outcome"`

	// Rule is the policy rule that governed the file, if any.
	Rule *policy.Rule `json:"rule,omitempty" jsonschema:"title=Rule,description=Policy rule that matched the path"`

	// Evidence is what the classifier observed, present for governed files.
	Evidence *classify.Evidence `json:"evidence,omitempty" jsonschema:"title=Evidence,description=Classifier evidence for governed files"`

	// Findings holds confirmed secret leaks for plaintext violations when
	// leak scanning is enabled.
	Findings []leakscan.Finding `json:"findings,omitempty" jsonschema:"title=Findings,description=Confirmed secret leaks in plaintext violations"`
}

// Report aggregates the results for one batch of candidate files.
type Report struct {
	Results []Result `json:"results" jsonschema:"title=Results,description=Per-file results in input order"`

	Governed  int `json:"governed" jsonschema:"title=Governed,description=Count of files subject to an encryption rule"`
	Encrypted int `json:"encrypted" jsonschema:"title=Encrypted,description=Count of governed files with encrypted content"`
	Violating int `json:"violating" jsonschema:"title=Violating,description=Count of governed files with plaintext content"`
	Skipped   int `json:"skipped" jsonschema:"title=Skipped,description=Count of unreadable files that were not checked"`
}

// Passed reports whether the batch may be committed. A batch fails only
// when a governed file holds plaintext; an empty batch passes.
func (r *Report) Passed() bool {
	return r.Violating == 0
}

// ViolatingPaths lists the governed files whose content is plaintext.
func (r *Report) ViolatingPaths() []string {
	paths := []string{}
	for _, result := range r.Results {
		if result.Verdict == VerdictPlaintext {
			paths = append(paths, result.Path)
		}
	}

	return paths
}

// Schema returns the JSON schema describing a Report.
func (r *Report) Schema() *jsonschema.Schema {
	return jsonschema.Reflect(r)
}

type checkOptions struct {
	rulesFile   string
	workingDir  string
	prefix      string
	probeLimit  int
	leakScanner *leakscan.Scanner
}

// CheckOption configures a Check invocation.
type CheckOption func(*checkOptions)

// CheckWithRulesFile overrides the rules file location. Relative paths are
// resolved against the working directory.
func CheckWithRulesFile(path string) CheckOption {
	return func(co *checkOptions) {
		if path != "" {
			co.rulesFile = path
		}
	}
}

// CheckWithWorkingDir sets the directory candidate paths are resolved
// against. Defaults to the process working directory.
func CheckWithWorkingDir(dir string) CheckOption {
	return func(co *checkOptions) {
		if dir != "" {
			co.workingDir = dir
		}
	}
}

// CheckWithPrefix restricts the check to candidates under the given path
// prefix; candidates outside it are ignored entirely.
func CheckWithPrefix(prefix string) CheckOption {
	return func(co *checkOptions) {
		co.prefix = strings.TrimSuffix(prefix, "/")
	}
}

// CheckWithProbeLimit overrides the classifier's printable-ratio sample
// size.
func CheckWithProbeLimit(limit int) CheckOption {
	return func(co *checkOptions) {
		if limit > 0 {
			co.probeLimit = limit
		}
	}
}

// CheckWithLeakScan enables a secret scan over plaintext violations so the
// report can say whether live credentials are exposed.
func CheckWithLeakScan(scanner *leakscan.Scanner) CheckOption {
	return func(co *checkOptions) {
		co.leakScanner = scanner
	}
}

// Check classifies each candidate path and aggregates the verdicts. Files
// not governed by the policy never affect the outcome. Unreadable files
// are skipped with a warning rather than failing the batch. The rules file
// is read once per invocation and nothing is cached across invocations.
func Check(ctx context.Context, paths []string, opts ...CheckOption) (*Report, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	co := &checkOptions{
		rulesFile:  DefaultRulesFile,
		workingDir: wd,
		probeLimit: classify.DefaultProbeLimit,
	}

	for _, opt := range opts {
		opt(co)
	}

	rulesFile := co.rulesFile
	if !filepath.IsAbs(rulesFile) {
		rulesFile = filepath.Join(co.workingDir, rulesFile)
	}

	var rules []policy.Rule
	if _, err := os.Stat(rulesFile); err != nil {
		log.Warnf("(check) rules file %s not found, no files are governed", co.rulesFile)
	} else if rules, err = policy.LoadRules(rulesFile); err != nil {
		log.Warnf("(check) failed to load rules from %s: %s", co.rulesFile, err)
	}

	report := &Report{Results: []Result{}}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if co.prefix != "" && !strings.HasPrefix(path, co.prefix+"/") && path != co.prefix {
			continue
		}

		report.Results = append(report.Results, checkFile(co, rules, path))
	}

	for _, result := range report.Results {
		switch result.Verdict {
		case VerdictEncrypted:
			report.Governed++
			report.Encrypted++
		case VerdictPlaintext:
			report.Governed++
			report.Violating++
		case VerdictSkipped:
			report.Skipped++
		}
	}

	return report, nil
}

func checkFile(co *checkOptions, rules []policy.Rule, path string) Result {
	result := Result{Path: path, Verdict: VerdictUngoverned}

	governed, rule := policy.Match(path, rules)
	if !governed {
		return result
	}

	result.Rule = rule

	content, err := os.ReadFile(filepath.Join(co.workingDir, path))
	if err != nil {
		// A candidate deleted in this commit, or otherwise unreadable, is
		// not checked and never fails the batch.
		if !errors.Is(err, os.ErrNotExist) {
			log.Warnf("(check) skipping unreadable file %s: %s", path, err)
		}

		result.Verdict = VerdictSkipped
		return result
	}

	encrypted, evidence := classify.Classify(content, classify.WithProbeLimit(co.probeLimit))
	result.Evidence = &evidence

	if encrypted {
		result.Verdict = VerdictEncrypted
		return result
	}

	result.Verdict = VerdictPlaintext

	if co.leakScanner != nil {
		findings, err := co.leakScanner.Scan(content, path)
		if err != nil {
			log.Warnf("(check) leak scan failed for %s: %s", path, err)
		} else {
			result.Findings = findings
		}
	}

	return result
}
