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

// Package leakscan confirms whether a plaintext policy violation actually
// exposes secret material. It runs a Gitleaks detector over the file's
// bytes and reports redacted findings, so the guard can tell the user
// "this file is plaintext and contains a live credential" instead of only
// "this file should be encrypted."
package leakscan

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	gitleaksconfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/encguard/go-encguard/log"
)

const (
	defaultMaxFileSizeMB = 10

	// matchSegmentLength is how much of a matched secret survives
	// redaction on each side of the ellipsis.
	matchSegmentLength = 8
	maxMatchLength     = 40
)

// Finding is one confirmed secret in a plaintext file. The secret value is
// redacted before it is stored so reports never leak what they guard.
type Finding struct {
	// RuleID identifies the detection rule that fired.
	RuleID string `json:"ruleId" jsonschema:"title=Rule ID,description=Detection rule that found the secret"`

	// Description is the rule's human readable explanation.
	Description string `json:"description" jsonschema:"title=Description,description=Explanation of the finding"`

	// Line is the line number the secret was found on.
	Line int `json:"line" jsonschema:"title=Line,description=Line number of the secret"`

	// Match is a redacted snippet of the matched content.
	Match string `json:"match,omitempty" jsonschema:"title=Match,description=Redacted snippet of the matched content"`
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithConfigPath points the scanner at a custom Gitleaks TOML config
// instead of the built-in default rules.
func WithConfigPath(path string) Option {
	return func(s *Scanner) {
		s.configPath = path
	}
}

// WithMaxFileSizeMB caps the content size the detector will scan.
func WithMaxFileSizeMB(mb int) Option {
	return func(s *Scanner) {
		if mb > 0 {
			s.maxFileSizeMB = mb
		}
	}
}

// Scanner wraps a Gitleaks detector. The detector is built lazily on first
// use so constructing a Scanner never fails.
type Scanner struct {
	configPath    string
	maxFileSizeMB int

	detector *detect.Detector
}

// New creates a Scanner with the given options.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		maxFileSizeMB: defaultMaxFileSizeMB,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Scan runs the detector over content and returns redacted findings. The
// path is only used for logging.
func (s *Scanner) Scan(content []byte, path string) ([]Finding, error) {
	detector, err := s.initDetector()
	if err != nil {
		return nil, err
	}

	raw := detector.DetectBytes(content)
	log.Debugf("(leakscan) gitleaks reported %d raw findings for %s", len(raw), path)

	findings := make([]Finding, 0, len(raw))
	for _, f := range raw {
		findings = append(findings, Finding{
			RuleID:      f.RuleID,
			Description: f.Description,
			Line:        f.StartLine,
			Match:       redactMatch(f.Match),
		})
	}

	return findings, nil
}

func (s *Scanner) initDetector() (*detect.Detector, error) {
	if s.detector != nil {
		return s.detector, nil
	}

	var detector *detect.Detector
	var err error
	if s.configPath != "" {
		detector, err = s.loadCustomConfig()
	} else {
		detector, err = detect.NewDetectorDefaultConfig()
	}

	if err != nil {
		return nil, err
	}

	if s.maxFileSizeMB > 0 {
		detector.MaxTargetMegaBytes = s.maxFileSizeMB
	}

	s.detector = detector
	return detector, nil
}

// loadCustomConfig builds a detector from a Gitleaks TOML config file. A
// fresh viper instance is used to avoid touching global viper state.
func (s *Scanner) loadCustomConfig() (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigFile(s.configPath)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("gitleaks config file not found at %s: %w", s.configPath, err)
		}

		return nil, fmt.Errorf("failed to read gitleaks config file %s: %w", s.configPath, err)
	}

	var viperConfig gitleaksconfig.ViperConfig
	if err := v.Unmarshal(&viperConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gitleaks config from %s: %w", s.configPath, err)
	}

	cfg, err := viperConfig.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate gitleaks config from %s: %w", s.configPath, err)
	}

	if len(cfg.Rules) == 0 {
		log.Warnf("(leakscan) gitleaks config from %s contains no rules", s.configPath)
	}

	return detect.NewDetector(cfg), nil
}

// redactMatch truncates a matched snippet so the secret value itself is
// never carried in a report.
func redactMatch(match string) string {
	if len(match) <= maxMatchLength {
		return match
	}

	return match[:matchSegmentLength] + "..." + match[len(match)-matchSegmentLength:]
}
