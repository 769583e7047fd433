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

package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestRepo(t *testing.T) (*git.Repository, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("readme\n"), 0o644))

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add("README.md")
	require.NoError(t, err)

	_, err = worktree.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return repo, dir
}

func stageFile(t *testing.T, repo *git.Repository, dir, name, contents string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add(name)
	require.NoError(t, err)
}

func TestStagedFiles(t *testing.T) {
	repo, dir := createTestRepo(t)

	stageFile(t, repo, dir, "secret/creds.yaml", "foo: bar\n")
	stageFile(t, repo, dir, "app.go", "package app\n")

	// An untracked but unstaged file must not appear.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("wip\n"), 0o644))

	paths, err := StagedFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.go", "secret/creds.yaml"}, paths)
}

func TestStagedFilesSkipsDeletions(t *testing.T) {
	repo, dir := createTestRepo(t)

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "README.md")))
	_, err = worktree.Add("README.md")
	require.NoError(t, err)

	paths, err := StagedFiles(dir)
	require.NoError(t, err)
	assert.NotContains(t, paths, "README.md")
}

func TestStagedFilesCleanRepo(t *testing.T) {
	_, dir := createTestRepo(t)

	paths, err := StagedFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestStagedFilesSubdirectory(t *testing.T) {
	repo, dir := createTestRepo(t)
	stageFile(t, repo, dir, "secret/creds.yaml", "foo: bar\n")

	// DetectDotGit walks up from nested directories.
	paths, err := StagedFiles(filepath.Join(dir, "secret"))
	require.NoError(t, err)
	assert.Contains(t, paths, "secret/creds.yaml")
}

func TestStagedFilesNotARepo(t *testing.T) {
	_, err := StagedFiles(t.TempDir())
	require.Error(t, err)
}

func TestFromArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, FromArgs([]string{"a", "", "b"}))
	assert.Empty(t, FromArgs(nil))
}
