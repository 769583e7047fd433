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

package classify

import (
	"bytes"
	"strings"
)

// Scheme describes the serialized shape of one encryption tool's output.
// The marker set is data so new schemes can be recognized without changes
// to the classifier cascade.
type Scheme struct {
	// Name identifies the encryption scheme, such as "ansible-vault" or "sops".
	Name string `json:"name" jsonschema:"title=Name,description=Name of the encryption scheme"`

	// LinePrefixes match when any line of the content starts with the prefix.
	LinePrefixes []string `json:"linePrefixes,omitempty" jsonschema:"title=Line Prefixes,description=Prefixes matched against each line of the content"`

	// Substrings match anywhere in the content.
	Substrings []string `json:"substrings,omitempty" jsonschema:"title=Substrings,description=Markers matched anywhere in the content"`

	// Magic matches a byte signature at offset 0.
	Magic []byte `json:"magic,omitempty" jsonschema:"title=Magic,description=Byte signature expected at the start of the file"`
}

// schemes is ordered. Order decides which scheme is reported when content
// carries markers from more than one, never the encrypted/plaintext outcome.
var schemes = []Scheme{
	{
		Name:         "ansible-vault",
		LinePrefixes: []string{"$ANSIBLE_VAULT", "ansible-vault"},
	},
	{
		Name:       "sops",
		Substrings: []string{"sops:", "ENC["},
	},
	{
		Name:       "age",
		Substrings: []string{"age:"},
	},
	{
		Name: "pgp",
		Substrings: []string{
			"pgp:",
			"BEGIN PGP MESSAGE",
			"BEGIN ENCRYPTED MESSAGE",
			"-----BEGIN PGP MESSAGE-----",
		},
	},
	{
		Name:  "git-crypt",
		Magic: []byte("\x00GITCRYPT"),
	},
}

// RegisterScheme appends a scheme to the recognized set. Registered schemes
// are consulted after the built-in ones.
func RegisterScheme(s Scheme) {
	schemes = append(schemes, s)
}

// Schemes returns the recognized schemes in evaluation order.
func Schemes() []Scheme {
	out := make([]Scheme, len(schemes))
	copy(out, schemes)
	return out
}

// Match reports the first of the scheme's markers present in content.
// Prefixes are tested before substrings, then the magic signature.
func (s Scheme) Match(content []byte) (string, bool) {
	text := string(content)

	for _, prefix := range s.LinePrefixes {
		if lineHasPrefix(text, prefix) {
			return prefix, true
		}
	}

	for _, sub := range s.Substrings {
		if strings.Contains(text, sub) {
			return sub, true
		}
	}

	if len(s.Magic) > 0 && bytes.HasPrefix(content, s.Magic) {
		return string(s.Magic), true
	}

	return "", false
}

func lineHasPrefix(text, prefix string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}

	return false
}
