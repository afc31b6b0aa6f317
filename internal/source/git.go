package source

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// GitSource reads files from the tree of a branch's head commit. Because the
// tree of a commit is immutable, the same revision always yields the same
// entries in the same order, so chunk identities derived from it are stable.
type GitSource struct {
	repoPath string
	branch   string
	targets  []Target
	log      *zap.Logger

	commit *object.Commit
}

// NewGitSource opens the repository at repoPath and resolves the local
// branch to its head commit.
func NewGitSource(repoPath, branch string, targets []Target, log *zap.Logger) (*GitSource, error) {
	if log == nil {
		log = zap.NewNop()
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", repoPath, err)
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", branch, err)
	}

	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", ref.Hash(), err)
	}

	return &GitSource{
		repoPath: repoPath,
		branch:   branch,
		targets:  targets,
		log:      log,
		commit:   commit,
	}, nil
}

// Revision returns the head commit hash.
func (s *GitSource) Revision() string { return s.commit.Hash.String() }

// Files walks the commit tree and returns every matching, decodable blob.
func (s *GitSource) Files(ctx context.Context) ([]FileEntry, error) {
	tree, err := s.commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree for %s: %w", s.commit.Hash, err)
	}

	var entries []FileEntry
	err = tree.Files().ForEach(func(f *object.File) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !matchesTarget(f.Name, s.targets) {
			return nil
		}

		text, err := f.Contents()
		if err != nil {
			s.log.Warn("skipping unreadable blob",
				zap.String("path", f.Name), zap.Error(err))
			return nil
		}
		if !utf8.ValidString(text) {
			s.log.Warn("skipping non-text blob", zap.String("path", f.Name))
			return nil
		}

		entries = append(entries, FileEntry{
			Path:     f.Name,
			Text:     text,
			Category: CategoryForPath(f.Name),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
