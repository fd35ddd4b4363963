package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"soscancer.org/internal/obs"
)

// document is the on-disk layout: one JSON object holding the whole
// collection. Every mutation rewrites the file wholesale; there are no
// partial writes and no log. Not safe for concurrent writers across
// processes — single-process deployments only.
type document struct {
	Users []User `json:"users"`
}

// FileRepository keeps the collection in memory and mirrors it to a flat
// JSON file on every mutation.
type FileRepository struct {
	path   string
	strict bool

	mu    sync.RWMutex
	users []User
}

// NewFileRepository loads the collection from path. A missing file is
// treated as an empty collection and written out. A malformed file is a
// startup error when strict is set; otherwise the repository degrades to an
// empty collection with a logged warning.
func NewFileRepository(path string, strict bool) (*FileRepository, error) {
	r := &FileRepository{path: path, strict: strict}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepository) load() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		obs.Warn("users file missing, bootstrapping empty collection", map[string]any{"path": r.path})
		r.users = nil
		return r.persist()
	}
	if err != nil {
		if r.strict {
			return fmt.Errorf("read users file: %w", err)
		}
		obs.Warn("users file unreadable, starting empty", map[string]any{"path": r.path, "error": err.Error()})
		r.users = nil
		return nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		if r.strict {
			return fmt.Errorf("decode users file: %w", err)
		}
		obs.Warn("users file malformed, starting empty", map[string]any{"path": r.path, "error": err.Error()})
		r.users = nil
		return nil
	}
	r.users = doc.Users
	return nil
}

// persist rewrites the whole document. Callers must hold the write lock.
func (r *FileRepository) persist() error {
	doc := document{Users: r.users}
	if doc.Users == nil {
		doc.Users = []User{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users file: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	return nil
}

func (r *FileRepository) indexByID(id string) int {
	for i := range r.users {
		if r.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *FileRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Email == u.Email {
			return ErrEmailTaken
		}
	}
	r.users = append(r.users, *u)
	if err := r.persist(); err != nil {
		r.users = r.users[:len(r.users)-1]
		return err
	}
	return nil
}

func (r *FileRepository) FindAll(_ context.Context) ([]Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Profile, 0, len(r.users))
	for i := range r.users {
		out = append(out, r.users[i].Profile())
	}
	return out, nil
}

func (r *FileRepository) FindByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexByID(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	u := r.users[i]
	return &u, nil
}

// FindByEmail returns (nil, nil) when no user matches; absence is an
// expected outcome here, not an error.
func (r *FileRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.users {
		if r.users[i].Email == email {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (r *FileRepository) Update(_ context.Context, id string, patch UpdateInput) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexByID(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	updated, err := applyPatch(r.users[i], patch)
	if err != nil {
		return nil, err
	}
	if updated.Email != r.users[i].Email {
		for j := range r.users {
			if j != i && r.users[j].Email == updated.Email {
				return nil, ErrEmailTaken
			}
		}
	}
	previous := r.users[i]
	r.users[i] = updated
	if err := r.persist(); err != nil {
		r.users[i] = previous
		return nil, err
	}
	u := updated
	return &u, nil
}

func (r *FileRepository) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexByID(id)
	if i < 0 {
		return ErrNotFound
	}
	removed := r.users[i]
	r.users = append(r.users[:i], r.users[i+1:]...)
	if err := r.persist(); err != nil {
		r.users = append(r.users, removed)
		return err
	}
	return nil
}

func (r *FileRepository) ChangePassword(_ context.Context, id, current, next string) error {
	if next == "" {
		return ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexByID(id)
	if i < 0 {
		return ErrNotFound
	}
	if err := VerifyPassword(r.users[i].PasswordHash, current); err != nil {
		return ErrWrongPassword
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	previous := r.users[i]
	r.users[i].PasswordHash = hash
	r.users[i].UpdatedAt = time.Now().UTC()
	if err := r.persist(); err != nil {
		r.users[i] = previous
		return err
	}
	return nil
}
