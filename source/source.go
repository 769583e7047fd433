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

// Package source gathers the candidate files a check runs over. Two modes
// are supported: the files currently staged for commit, and an explicit
// list of paths supplied by the caller.
package source

import (
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"

	"github.com/encguard/go-encguard/log"
)

// StagedFiles returns the paths staged for commit in the repository at or
// above workingDir. Files staged for deletion are omitted since there is
// no content left to classify.
func StagedFiles(workingDir string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(workingDir, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, err
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, err
	}

	paths := []string{}
	for path, fileStatus := range status {
		switch fileStatus.Staging {
		case git.Added, git.Modified, git.Renamed, git.Copied:
			paths = append(paths, path)
		case git.Deleted:
			log.Debugf("(source) skipping %s staged for deletion", path)
		}
	}

	// The status map has no stable iteration order.
	sort.Strings(paths)

	return paths, nil
}

// FromArgs returns the explicitly supplied paths, dropping empty entries.
func FromArgs(args []string) []string {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != "" {
			paths = append(paths, arg)
		}
	}

	return paths
}
