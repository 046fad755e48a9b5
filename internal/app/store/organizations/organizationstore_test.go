package organizationstore_test

import (
	"testing"

	organizationstore "github.com/paddockops/equihub/internal/app/store/organizations"
	"github.com/paddockops/equihub/internal/domain/models"
	"github.com/paddockops/equihub/internal/testutil"
)

func TestCreate_SetsDefaultsAndFoldsName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := organizationstore.New(db)

	org, err := store.Create(ctx, models.Organization{Name: "Äppelgården Ridklubb"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if org.ID.IsZero() {
		t.Error("expected an assigned ID")
	}
	if org.Status != "active" {
		t.Errorf("expected active status, got %q", org.Status)
	}
	if org.NameCI == "" || org.NameCI == org.Name {
		t.Errorf("expected folded name_ci, got %q", org.NameCI)
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := testutil.EnsureOrganizationNameIndex(ctx, db); err != nil {
		t.Fatalf("ensure index: %v", err)
	}
	store := organizationstore.New(db)

	if _, err := store.Create(ctx, models.Organization{Name: "Birchwood Riding Club"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := store.Create(ctx, models.Organization{Name: "birchwood riding club"})
	if err != organizationstore.ErrDuplicateOrganization {
		t.Fatalf("expected ErrDuplicateOrganization, got %v", err)
	}
}

func TestSetModules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := organizationstore.New(db)

	org, err := store.Create(ctx, models.Organization{Name: "Birchwood Riding Club", Modules: []string{"selection_processes"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.SetModules(ctx, org.ID, []string{"selection_processes", "lessons"}); err != nil {
		t.Fatalf("set modules: %v", err)
	}
	got, err := store.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Modules) != 2 || !got.HasModule("lessons") {
		t.Errorf("unexpected modules: %v", got.Modules)
	}
	if got.UpdatedAt.Before(org.UpdatedAt) {
		t.Error("expected updated_at not to move backwards")
	}
}
