package user

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"soscancer.org/internal/rbac"
)

func newTestRepo(t *testing.T) (*FileRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	repo, err := NewFileRepository(path, false)
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}
	return repo, path
}

func mustCreate(t *testing.T, repo Repository, name, email, password string, role rbac.Role) *User {
	t.Helper()
	u, err := New(CreateInput{Name: name, Email: email, Password: password, Role: role})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return u
}

func TestMissingFileBootstrapsEmptyCollection(t *testing.T) {
	repo, path := newTestRepo(t)

	all, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty collection, got %d", len(all))
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected bootstrap file to be written: %v", err)
	}
}

func TestCreateAndLookup(t *testing.T) {
	repo, _ := newTestRepo(t)
	created := mustCreate(t, repo, "Alice", "Alice@B.com", "secret-pw", "")

	if created.Role != rbac.RoleUser {
		t.Fatalf("expected default role user, got %s", created.Role)
	}
	if created.Email != "alice@b.com" {
		t.Fatalf("expected normalized email, got %s", created.Email)
	}

	byID, err := repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID.Name != "Alice" {
		t.Fatalf("unexpected name: %s", byID.Name)
	}

	byEmail, err := repo.FindByEmail(context.Background(), "ALICE@b.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if byEmail == nil || byEmail.ID != created.ID {
		t.Fatalf("email lookup failed: %+v", byEmail)
	}

	absent, err := repo.FindByEmail(context.Background(), "nobody@b.com")
	if err != nil {
		t.Fatalf("FindByEmail absent: %v", err)
	}
	if absent != nil {
		t.Fatalf("expected nil for absent email, got %+v", absent)
	}
}

func TestDuplicateEmailConflict(t *testing.T) {
	repo, _ := newTestRepo(t)
	first := mustCreate(t, repo, "Alice", "a@b.com", "secret-pw", "")

	dup, err := New(CreateInput{Name: "Mallory", Email: "a@b.com", Password: "other-pw"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := repo.Create(context.Background(), dup); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// First record must be untouched.
	got, err := repo.FindByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Name != "Alice" {
		t.Fatalf("first record mutated: %+v", got)
	}
}

func TestFindAllStripsPasswordHash(t *testing.T) {
	repo, _ := newTestRepo(t)
	mustCreate(t, repo, "Alice", "a@b.com", "secret-pw", rbac.RoleVolunteer)

	all, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one profile, got %d", len(all))
	}
	// Profile has no hash field at all; spot-check the rest survived.
	if all[0].Role != rbac.RoleVolunteer || all[0].Email != "a@b.com" {
		t.Fatalf("unexpected profile: %+v", all[0])
	}
}

func TestUpdatePatchSemantics(t *testing.T) {
	repo, _ := newTestRepo(t)
	created := mustCreate(t, repo, "Alice", "a@b.com", "secret-pw", "")

	phone := "+31 6 1234 5678"
	role := rbac.RoleSponsor
	updated, err := repo.Update(context.Background(), created.ID, UpdateInput{Phone: &phone, Role: &role})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Phone != phone || updated.Role != role {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Name != "Alice" {
		t.Fatalf("unpatched field changed: %+v", updated)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("updated_at not bumped: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}

	bad := rbac.Role("warlord")
	if _, err := repo.Update(context.Background(), created.ID, UpdateInput{Role: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown role, got %v", err)
	}

	if _, err := repo.Update(context.Background(), "missing-id", UpdateInput{Phone: &phone}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateEmailCollision(t *testing.T) {
	repo, _ := newTestRepo(t)
	mustCreate(t, repo, "Alice", "a@b.com", "secret-pw", "")
	bob := mustCreate(t, repo, "Bob", "b@b.com", "secret-pw", "")

	taken := "a@b.com"
	if _, err := repo.Update(context.Background(), bob.ID, UpdateInput{Email: &taken}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	repo, _ := newTestRepo(t)
	created := mustCreate(t, repo, "Alice", "a@b.com", "old-password", "")

	err := repo.ChangePassword(context.Background(), created.ID, "wrong-guess", "new-password")
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}

	if err := repo.ChangePassword(context.Background(), created.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	stored, err := repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if err := VerifyPassword(stored.PasswordHash, "old-password"); err == nil {
		t.Fatal("old password still verifies")
	}
	if err := VerifyPassword(stored.PasswordHash, "new-password"); err != nil {
		t.Fatalf("new password does not verify: %v", err)
	}
}

func TestRemove(t *testing.T) {
	repo, _ := newTestRepo(t)
	created := mustCreate(t, repo, "Alice", "a@b.com", "secret-pw", "")

	if err := repo.Remove(context.Background(), created.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := repo.FindByID(context.Background(), created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after removal, got %v", err)
	}
	if err := repo.Remove(context.Background(), created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double removal, got %v", err)
	}
}

func TestCollectionSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	repo, err := NewFileRepository(path, false)
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}
	created := mustCreate(t, repo, "Alice", "a@b.com", "secret-pw", rbac.RolePatient)

	reopened, err := NewFileRepository(path, true)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("FindByID after reopen: %v", err)
	}
	if got.Role != rbac.RolePatient || got.Email != "a@b.com" {
		t.Fatalf("record did not survive restart: %+v", got)
	}
}

func TestMalformedFilePolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed malformed file: %v", err)
	}

	if _, err := NewFileRepository(path, true); err == nil {
		t.Fatal("strict mode must refuse a malformed file")
	}

	repo, err := NewFileRepository(path, false)
	if err != nil {
		t.Fatalf("lenient mode should degrade, got %v", err)
	}
	all, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected degraded-to-empty collection, got %d", len(all))
	}
}

func TestNewValidation(t *testing.T) {
	cases := []CreateInput{
		{Name: "", Email: "a@b.com", Password: "pw"},
		{Name: "Alice", Email: "not-an-email", Password: "pw"},
		{Name: "Alice", Email: "a@b.com", Password: ""},
		{Name: "Alice", Email: "a@b.com", Password: "pw", Role: "warlord"},
	}
	for _, input := range cases {
		if _, err := New(input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", input, err)
		}
	}
}
