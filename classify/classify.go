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

// Package classify decides whether file content is encrypted or plaintext.
// It runs an ordered cascade of heuristics and stops at the first one that
// finds evidence of encryption: a content-type sniff, a scan for known
// encryption scheme markers, and a printable-byte ratio fallback. The
// cascade intentionally trades precision for coverage: a compressed but
// unencrypted artifact may classify as encrypted, which is the safe
// direction for a guard that blocks plaintext secrets.
package classify

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// DefaultProbeLimit caps how many leading bytes the printable-ratio
	// heuristic samples, keeping classification O(1) per file.
	DefaultProbeLimit = 1000

	// printableThreshold is the percentage below which sampled content is
	// considered binary ciphertext.
	printableThreshold = 80
)

// sniffKeywords flag a sniffed type descriptor as non-text. Matched
// case-insensitively against the descriptor.
var sniffKeywords = []string{"data", "encrypted", "binary", "gzip", "compressed"}

// typeDescriptors maps sniffed MIME types to file-style type descriptors.
// Types absent from this table report their MIME string unchanged.
var typeDescriptors = map[string]string{
	"application/octet-stream":    "data",
	"application/gzip":            "gzip compressed data",
	"application/x-bzip2":         "bzip2 compressed data",
	"application/x-xz":            "XZ compressed data",
	"application/zstd":            "Zstandard compressed data",
	"application/x-7z-compressed": "7-zip compressed data",
	"application/x-tar":           "tar archive data",
	"application/zip":             "Zip archive data",
}

// Evidence records what the cascade observed for one file. It is computed
// fresh per classification and never cached, since the same path may hold
// different bytes on the next run.
type Evidence struct {
	// ReportedType is the sniffed content type descriptor, empty when
	// sniffing failed.
	ReportedType string `json:"reportedType,omitempty" jsonschema:"title=Reported Type,description=Sniffed content type descriptor"`

	// Scheme names the encryption scheme whose marker was found, if any.
	Scheme string `json:"scheme,omitempty" jsonschema:"title=Scheme,description=Encryption scheme whose marker matched"`

	// Marker is the specific marker that matched within the scheme.
	Marker string `json:"marker,omitempty" jsonschema:"title=Marker,description=Marker text that matched"`

	// PrintableRatio is the percentage of printable or whitespace bytes in
	// the sampled prefix of the file.
	PrintableRatio int `json:"printableRatio" jsonschema:"title=Printable Ratio,description=Percent of sampled bytes that are printable or whitespace"`
}

// Option configures a classification.
type Option func(*settings)

type settings struct {
	probeLimit int
}

// WithProbeLimit overrides how many leading bytes the printable-ratio
// fallback samples.
func WithProbeLimit(limit int) Option {
	return func(s *settings) {
		if limit > 0 {
			s.probeLimit = limit
		}
	}
}

// Classify reports whether content looks encrypted, along with the
// evidence the decision rests on. Heuristics run in order and the first
// positive signal wins; when none fires the content is plaintext.
func Classify(content []byte, opts ...Option) (bool, Evidence) {
	s := &settings{probeLimit: DefaultProbeLimit}
	for _, opt := range opts {
		opt(s)
	}

	evidence := Evidence{PrintableRatio: 100}

	evidence.ReportedType = sniffType(content)
	if descriptorIsNonText(evidence.ReportedType) {
		return true, evidence
	}

	for _, scheme := range schemes {
		if marker, ok := scheme.Match(content); ok {
			evidence.Scheme = scheme.Name
			evidence.Marker = marker
			return true, evidence
		}
	}

	sample := content
	if len(sample) > s.probeLimit {
		sample = sample[:s.probeLimit]
	}

	// A zero-byte sample abstains; an empty file is plaintext by default.
	if len(sample) > 0 {
		evidence.PrintableRatio = printableRatio(sample)
		if evidence.PrintableRatio < printableThreshold {
			return true, evidence
		}
	}

	return false, evidence
}

// sniffType returns a file-style descriptor for the content. The sniffer
// has no failure mode; unknown content reports application/octet-stream.
func sniffType(content []byte) string {
	mime := mimetype.Detect(content).String()
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}

	if descriptor, ok := typeDescriptors[mime]; ok {
		return descriptor
	}

	return mime
}

func descriptorIsNonText(descriptor string) bool {
	lowered := strings.ToLower(descriptor)
	for _, keyword := range sniffKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}

	return false
}

// printableRatio computes the percentage of bytes in sample that are ASCII
// printable or whitespace.
func printableRatio(sample []byte) int {
	printable := 0
	for _, b := range sample {
		if isPrintable(b) {
			printable++
		}
	}

	return printable * 100 / len(sample)
}

func isPrintable(b byte) bool {
	switch b {
	case '\t', '\n', '\v', '\f', '\r':
		return true
	}

	return b >= 0x20 && b < 0x7f
}
