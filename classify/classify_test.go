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
	"compress/gzip"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ansibleVaultHeader = "$ANSIBLE_VAULT;1.1;AES256\n66386439653236336462626566653063336164663966303231363934653561363964363833313662\n"

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	r := rand.New(rand.NewSource(42))
	buf := make([]byte, n)
	_, err := r.Read(buf)
	require.NoError(t, err)
	return buf
}

func TestClassifyPlaintext(t *testing.T) {
	encrypted, evidence := Classify([]byte("foo: bar\n"))
	assert.False(t, encrypted)
	assert.Empty(t, evidence.Scheme)
	assert.Equal(t, 100, evidence.PrintableRatio)
}

func TestClassifyEmptyFile(t *testing.T) {
	// A zero byte file produces no evidence of encryption, so it falls
	// through to plaintext.
	encrypted, _ := Classify([]byte{})
	assert.False(t, encrypted)
}

func TestClassifyRandomBinary(t *testing.T) {
	encrypted, evidence := Classify(randomBytes(t, 4096))
	assert.True(t, encrypted)
	assert.NotEmpty(t, evidence.ReportedType)
}

func TestClassifyGzip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte("not actually a secret, just compressed\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// Compressed-but-unencrypted content classifying as encrypted is the
	// accepted false positive direction.
	encrypted, evidence := Classify(buf.Bytes())
	assert.True(t, encrypted)
	assert.Contains(t, evidence.ReportedType, "gzip")
}

func TestClassifyMarkers(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		scheme string
	}{
		{"ansible vault header", ansibleVaultHeader, "ansible-vault"},
		{"ansible vault lowercase", "ansible-vault;1.2;AES256\nabcdef\n", "ansible-vault"},
		{"sops metadata", "data: ENC[AES256_GCM,data:abc]\nsops:\n  kms: []\n", "sops"},
		{"sops enc value only", "password: ENC[AES256_GCM,data:Tr7o=,type:str]\n", "sops"},
		{"age recipient", "age:\n  - recipient: age1abc\n", "age"},
		{"pgp key", "pgp: hQEMA9XUlzyEq3+EAQf8\n", "pgp"},
		{"pgp armor", "-----BEGIN PGP MESSAGE-----\nhQEMA9XUlzyEq3+EAQf8\n-----END PGP MESSAGE-----\n", "pgp"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			encrypted, evidence := Classify([]byte(test.input))
			require.True(t, encrypted)
			assert.Equal(t, test.scheme, evidence.Scheme)
		})
	}
}

func TestClassifyMarkerShortCircuit(t *testing.T) {
	// Fully printable content with a vault header must classify encrypted
	// without reaching the ratio fallback.
	encrypted, evidence := Classify([]byte(ansibleVaultHeader))
	require.True(t, encrypted)
	assert.Equal(t, "ansible-vault", evidence.Scheme)
	assert.Equal(t, "$ANSIBLE_VAULT", evidence.Marker)
	assert.Equal(t, 100, evidence.PrintableRatio)
}

func TestClassifyMarkerMidFileLinePrefix(t *testing.T) {
	// A vault header on a later line still counts: prefixes are tested per
	// line, not only at offset 0.
	content := "some: header\nencrypted: !vault |\n$ANSIBLE_VAULT;1.1;AES256\n303132\n"
	encrypted, evidence := Classify([]byte(content))
	require.True(t, encrypted)
	assert.Equal(t, "ansible-vault", evidence.Scheme)
}

func TestClassifyVaultMarkerNotAtLineStart(t *testing.T) {
	// "$ANSIBLE_VAULT" mentioned mid-line is not a header.
	encrypted, _ := Classify([]byte("doc: how the $ANSIBLE_VAULT header works\n"))
	assert.False(t, encrypted)
}

func TestClassifyGitCryptMagic(t *testing.T) {
	content := append([]byte("\x00GITCRYPT\x00"), randomBytes(t, 64)...)
	encrypted, evidence := Classify(content)
	require.True(t, encrypted)
	// The sniff step may already flag this as data; either way the verdict
	// is encrypted.
	if evidence.Scheme != "" {
		assert.Equal(t, "git-crypt", evidence.Scheme)
	}
}

func TestClassifyPrintableRatioFallback(t *testing.T) {
	// Valid UTF-8 text sniffs as text/plain and carries no marker, but its
	// bytes are almost entirely outside the ASCII printable range.
	content := []byte(strings.Repeat("é", 600))
	encrypted, evidence := Classify(content)
	require.True(t, encrypted)
	assert.Empty(t, evidence.Scheme)
	assert.Less(t, evidence.PrintableRatio, 80)
}

func TestClassifyProbeLimit(t *testing.T) {
	// 100 printable bytes followed by binary. With a probe limit inside the
	// printable prefix the ratio heuristic sees only text.
	content := append([]byte(strings.Repeat("a", 100)), []byte(strings.Repeat("é", 1000))...)

	encrypted, _ := Classify(content, WithProbeLimit(100))
	assert.False(t, encrypted)

	encrypted, _ = Classify(content)
	assert.True(t, encrypted)
}

func TestClassifyIdempotent(t *testing.T) {
	content := randomBytes(t, 1024)

	first, firstEvidence := Classify(content)
	second, secondEvidence := Classify(content)

	assert.Equal(t, first, second)
	assert.Equal(t, firstEvidence, secondEvidence)
}

func TestRegisterScheme(t *testing.T) {
	original := len(schemes)
	defer func() { schemes = schemes[:original] }()

	RegisterScheme(Scheme{
		Name:       "custom",
		Substrings: []string{"-----CUSTOM CIPHERTEXT-----"},
	})

	encrypted, evidence := Classify([]byte("-----CUSTOM CIPHERTEXT-----\nabcdef\n"))
	require.True(t, encrypted)
	assert.Equal(t, "custom", evidence.Scheme)
}

func TestSchemesReturnsCopy(t *testing.T) {
	got := Schemes()
	require.NotEmpty(t, got)
	got[0].Name = "mutated"
	assert.NotEqual(t, "mutated", schemes[0].Name)
}
