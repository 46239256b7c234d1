// Package drafts keeps BRD drafts in a local git repository using go-git, so
// every save is a commit and unsaved edits can be shown as a diff.
package drafts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	godiffpatch "github.com/sourcegraph/go-diff-patch"

	"github.com/buker/brdesk/internal/logging"
)

var log = logging.New("DRAFTS")

// Sentinel errors for draft operations.
var (
	// ErrNoChanges is returned when a draft matches its last saved revision.
	ErrNoChanges = errors.New("draft has no unsaved changes")
	// ErrNoDraft is returned when a project has no draft file.
	ErrNoDraft = errors.New("no draft for project")
)

// Author signs draft commits.
var Author = object.Signature{Name: "brdesk", Email: "brdesk@localhost"}

// Store is a git repository of Markdown drafts, one file per project.
type Store struct {
	repo *git.Repository
	root string
}

// Open opens the draft repository at dir, creating it when missing.
func Open(dir string) (*Store, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create drafts directory: %w", err)
		}
		log.Debugf("initializing draft repository in %s", dir)
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open drafts repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	return &Store{repo: repo, root: worktree.Filesystem.Root()}, nil
}

// Root returns the repository directory.
func (s *Store) Root() string {
	return s.root
}

// FileName returns the draft file name for project.
func FileName(project string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '/':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(project))
	if name == "" {
		name = "draft"
	}
	return name + ".md"
}

// Write stores content as the working copy of project's draft.
func (s *Store) Write(project, content string) error {
	path := filepath.Join(s.root, FileName(project))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return nil
}

// Read returns the working copy of project's draft.
func (s *Store) Read(project string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, FileName(project)))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoDraft
	}
	if err != nil {
		return "", fmt.Errorf("failed to read draft: %w", err)
	}
	return string(data), nil
}

// headTree returns the tree of the last commit, or nil before the first one.
func (s *Store) headTree() (*object.Tree, error) {
	head, err := s.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get head: %w", err)
	}
	commit, err := s.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get head commit: %w", err)
	}
	return commit.Tree()
}

// Saved returns project's draft as of the last save.
func (s *Store) Saved(project string) (string, error) {
	tree, err := s.headTree()
	if err != nil {
		return "", err
	}
	if tree == nil {
		return "", ErrNoDraft
	}
	return fileContent(tree, FileName(project))
}

func fileContent(tree *object.Tree, name string) (string, error) {
	file, err := tree.File(name)
	if errors.Is(err, object.ErrFileNotFound) {
		return "", ErrNoDraft
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return file.Contents()
}

// Diff returns a unified diff of unsaved changes to project's draft. A draft
// that was never saved is shown as all additions.
func (s *Store) Diff(project string) (string, error) {
	name := FileName(project)
	current, err := s.Read(project)
	if err != nil {
		return "", err
	}

	saved, err := s.Saved(project)
	if errors.Is(err, ErrNoDraft) {
		var b strings.Builder
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", name, name)
		b.WriteString("new file mode 100644\n")
		fmt.Fprintf(&b, "+++ b/%s\n", name)
		for _, line := range strings.Split(strings.TrimSuffix(current, "\n"), "\n") {
			b.WriteString("+" + line + "\n")
		}
		return b.String(), nil
	}
	if err != nil {
		return "", err
	}
	if saved == current {
		return "", ErrNoChanges
	}
	return godiffpatch.GeneratePatch(name, saved, current), nil
}

// Save commits project's draft and returns the commit hash.
func (s *Store) Save(project, message string) (string, error) {
	worktree, err := s.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	name := FileName(project)
	if _, err := os.Stat(filepath.Join(s.root, name)); err != nil {
		return "", ErrNoDraft
	}
	if _, err := worktree.Add(name); err != nil {
		return "", fmt.Errorf("failed to stage draft: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get status: %w", err)
	}
	if st := status.File(name); st.Staging == git.Unmodified || st.Staging == git.Untracked {
		return "", ErrNoChanges
	}

	if strings.TrimSpace(message) == "" {
		message = "Update " + project + " BRD"
	}
	author := Author
	author.When = time.Now()
	hash, err := worktree.Commit(message, &git.CommitOptions{Author: &author})
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}
	log.Debugf("saved %s as %s", name, hash)
	return hash.String(), nil
}

// Revision is one saved version of a draft.
type Revision struct {
	Hash    string
	Message string
	When    time.Time
}

// Short returns the abbreviated hash.
func (r Revision) Short() string {
	if len(r.Hash) > 7 {
		return r.Hash[:7]
	}
	return r.Hash
}

// History lists saved revisions of project's draft, newest first. limit <= 0
// means no limit.
func (s *Store) History(project string, limit int) ([]Revision, error) {
	if _, err := s.repo.Head(); errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	name := FileName(project)
	iter, err := s.repo.Log(&git.LogOptions{FileName: &name})
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer iter.Close()

	var revs []Revision
	for {
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read history: %w", err)
		}
		revs = append(revs, Revision{
			Hash:    c.Hash.String(),
			Message: strings.TrimSpace(c.Message),
			When:    c.Author.When,
		})
		if limit > 0 && len(revs) >= limit {
			break
		}
	}
	return revs, nil
}

// At returns project's draft as of revision hash.
func (s *Store) At(project, hash string) (string, error) {
	commit, err := s.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return "", fmt.Errorf("failed to find revision %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("failed to get tree: %w", err)
	}
	return fileContent(tree, FileName(project))
}
