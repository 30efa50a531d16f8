package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/pkg/models"
)

func openTestDB(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "esql.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func repositories(t *testing.T) map[string]ProfileRepository {
	return map[string]ProfileRepository{
		"sqlite": openTestDB(t),
		"mock":   NewMockRepository(),
	}
}

var ignoreTimes = cmpopts.IgnoreFields(models.ConnectionProfile{}, "CreatedAt", "UpdatedAt")

// TestRepository_CRUD verifies both repositories behave the same.
func TestRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			p := &models.ConnectionProfile{
				Name:     "local",
				Endpoint: "http://localhost:9200",
				AuthMode: models.AuthBasic,
				Username: "elastic",
				Password: "changeme",
			}
			if err := repo.Create(ctx, p); err != nil {
				t.Fatalf("Create: %v", err)
			}
			if err := repo.Create(ctx, p); !cerrors.IsValidation(err) {
				t.Errorf("expected duplicate to be a validation error, got %v", err)
			}

			got, err := repo.Get(ctx, "local")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			want := *p
			want.Password = ""
			if diff := cmp.Diff(&want, got, ignoreTimes); diff != "" {
				t.Errorf("profile mismatch (-want +got):\n%s", diff)
			}
			if got.CreatedAt.IsZero() {
				t.Error("expected CreatedAt to be set")
			}

			got.Version = "7.10.2"
			if err := repo.Update(ctx, got); err != nil {
				t.Fatalf("Update: %v", err)
			}
			again, _ := repo.Get(ctx, "local")
			if again.Version != "7.10.2" {
				t.Errorf("expected updated version, got %q", again.Version)
			}

			if err := repo.Create(ctx, &models.ConnectionProfile{Name: "a", Endpoint: "http://a:9200"}); err != nil {
				t.Fatalf("Create: %v", err)
			}
			list, err := repo.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != 2 || list[0].Name != "a" || list[1].Name != "local" {
				t.Errorf("expected [a local], got %d profiles", len(list))
			}
			if list[0].AuthMode != models.AuthNone {
				t.Errorf("expected empty auth mode to be stored as none, got %q", list[0].AuthMode)
			}

			if err := repo.Delete(ctx, "local"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if ok, _ := repo.Exists(ctx, "local"); ok {
				t.Error("expected profile to be gone")
			}
			if _, err := repo.Get(ctx, "local"); !errors.Is(err, ErrProfileNotFound) {
				t.Errorf("expected ErrProfileNotFound, got %v", err)
			}
			if err := repo.Delete(ctx, "local"); !errors.Is(err, ErrProfileNotFound) {
				t.Errorf("expected ErrProfileNotFound on second delete, got %v", err)
			}
			if err := repo.Update(ctx, &models.ConnectionProfile{Name: "nope", Endpoint: "http://x"}); !errors.Is(err, ErrProfileNotFound) {
				t.Errorf("expected ErrProfileNotFound on update, got %v", err)
			}
		})
	}
}

// TestRepository_RejectsInvalid verifies invalid profiles are not stored.
func TestRepository_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			bad := []*models.ConnectionProfile{
				{Endpoint: "http://x"},
				{Name: "x"},
				{Name: "x", Endpoint: "http://x", AuthMode: models.AuthHeader},
			}
			for _, p := range bad {
				if err := repo.Create(ctx, p); !cerrors.IsValidation(err) {
					t.Errorf("%+v: expected validation error, got %v", p, err)
				}
			}
		})
	}
}

// TestOpenSQLite_MigrationsAreIdempotent verifies reopening does not reapply migrations.
func TestOpenSQLite_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "esql.db")

	first, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := first.Create(ctx, &models.ConnectionProfile{Name: "a", Endpoint: "http://a"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	first.Close()

	second, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if ok, _ := second.Exists(ctx, "a"); !ok {
		t.Error("expected profile to survive reopening")
	}
	applied, err := NewMigrationRunner(second.db).Applied(ctx)
	if err != nil {
		t.Fatalf("Applied: %v", err)
	}
	if diff := cmp.Diff([]string{"000001"}, applied); diff != "" {
		t.Errorf("applied mismatch (-want +got):\n%s", diff)
	}
}

// TestMockRepository_Failures verifies the simulated failures.
func TestMockRepository_Failures(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	repo.SetConnectivityFailure(true)
	if err := repo.CheckConnectivity(ctx); err == nil || !repo.ConnectivityCheckCalled() {
		t.Error("expected simulated connectivity failure")
	}
	repo.SetPersistenceFailure(true)
	if err := repo.Create(ctx, &models.ConnectionProfile{Name: "a", Endpoint: "http://a"}); err == nil {
		t.Error("expected simulated persistence failure")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := repo.List(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestProfileStore_Secrets verifies passwords go to the secret store only.
func TestProfileStore_Secrets(t *testing.T) {
	ctx := context.Background()
	repo := openTestDB(t)
	secrets := NewMemorySecrets()
	store := NewProfileStore(repo, secrets)

	p := &models.ConnectionProfile{
		Name:       "cloud",
		Endpoint:   "https://es.example.com",
		AuthMode:   models.AuthHeader,
		HeaderName: "Authorization",
		Password:   "ApiKey abc",
	}
	if err := store.Add(ctx, p); err != nil {
		t.Fatalf("Add: %v", err)
	}

	stored, _ := repo.Get(ctx, "cloud")
	if stored.Password != "" {
		t.Error("password must not be persisted in the database")
	}

	loaded, err := store.Load(ctx, "cloud")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Password != "ApiKey abc" {
		t.Errorf("expected secret to be restored, got %q", loaded.Password)
	}

	if err := store.SetVersion(ctx, "cloud", "8.11.0"); err != nil {
		t.Fatalf("SetVersion: %v", err)
	}
	loaded, _ = store.Load(ctx, "cloud")
	if loaded.Version != "8.11.0" || loaded.Password != "ApiKey abc" {
		t.Errorf("unexpected profile after SetVersion: %+v", loaded)
	}

	if err := store.Remove(ctx, "cloud"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s, _ := secrets.Secret("cloud"); s != "" {
		t.Errorf("expected secret to be removed, got %q", s)
	}
}

// TestKeyringSecrets_EmptyRemoves verifies an empty secret clears the entry.
func TestKeyringSecrets_EmptyRemoves(t *testing.T) {
	s := NewMemorySecrets()
	if err := s.SetSecret("a", "pw"); err != nil {
		t.Fatalf("SetSecret: %v", err)
	}
	if err := s.SetSecret("a", ""); err != nil {
		t.Fatalf("SetSecret empty: %v", err)
	}
	if got, err := s.Secret("a"); err != nil || got != "" {
		t.Errorf("expected no secret, got %q, %v", got, err)
	}
	if err := s.DeleteSecret("missing"); err != nil {
		t.Errorf("deleting a missing secret must not fail: %v", err)
	}
}
