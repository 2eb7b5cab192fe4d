package royalty

import (
	"errors"
	"strings"
	"testing"
)

func newTestRegistry(t *testing.T) (*Registry, *stubContext) {
	t.Helper()

	ctx := &stubContext{value: 7}

	return NewRegistry(newTestStorage(t), ctx), ctx
}

func TestCreateAndGet(t *testing.T) {
	registry, _ := newTestRegistry(t)

	list := contributors(60, 40)

	id, err := registry.Create(list)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	record, ok := registry.Get(id)
	if !ok {
		t.Fatal("record not found after create")
	}

	if record.ArtifactID != id {
		t.Error("stored id mismatch")
	}

	if record.RegisteredAt != 7 {
		t.Errorf("RegisteredAt = %d, want 7", record.RegisteredAt)
	}

	if len(record.Contributors) != 2 {
		t.Fatalf("contributor count = %d, want 2", len(record.Contributors))
	}

	if record.Contributors[0].Share != 60 || record.Contributors[1].Share != 40 {
		t.Error("stored shares mismatch")
	}

	if registry.Count() != 1 {
		t.Errorf("Count = %d, want 1", registry.Count())
	}
}

func TestCreateDuplicate(t *testing.T) {
	registry, _ := newTestRegistry(t)

	list := contributors(60, 40)

	if _, err := registry.Create(list); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	_, err := registry.Create(list)
	if !errors.Is(err, ErrDuplicateArtifact) {
		t.Errorf("duplicate Create error = %v, want ErrDuplicateArtifact", err)
	}

	if registry.Count() != 1 {
		t.Errorf("Count = %d after rejected duplicate, want 1", registry.Count())
	}
}

func TestCreateSameListNewContext(t *testing.T) {
	registry, ctx := newTestRegistry(t)

	list := contributors(60, 40)

	first, err := registry.Create(list)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}

	ctx.value++

	second, err := registry.Create(list)
	if err != nil {
		t.Fatalf("second Create under new context: %v", err)
	}

	if first == second {
		t.Error("same id under different contexts")
	}
}

func TestCreateInvalidShareSum(t *testing.T) {
	registry, _ := newTestRegistry(t)

	for _, shares := range [][]uint64{{60, 39}, {60, 41}, {99}, {50, 50, 1}} {
		_, err := registry.Create(contributors(shares...))
		if !errors.Is(err, ErrInvalidShareSum) {
			t.Errorf("shares %v: error = %v, want ErrInvalidShareSum", shares, err)
		}
	}

	if registry.Count() != 0 {
		t.Errorf("Count = %d after rejected creates, want 0", registry.Count())
	}
}

func TestCreateInvalidContributorCount(t *testing.T) {
	registry, _ := newTestRegistry(t)

	if _, err := registry.Create(nil); !errors.Is(err, ErrInvalidContributorCount) {
		t.Errorf("empty list error = %v, want ErrInvalidContributorCount", err)
	}

	six := contributors(20, 20, 20, 20, 10, 10)
	if _, err := registry.Create(six); !errors.Is(err, ErrInvalidContributorCount) {
		t.Errorf("six contributors error = %v, want ErrInvalidContributorCount", err)
	}
}

func TestCreateShareOutOfRange(t *testing.T) {
	registry, _ := newTestRegistry(t)

	// A single 101 share fails the per-share bound before the sum check.
	_, err := registry.Create(contributors(101))
	if !errors.Is(err, ErrInvalidShare) {
		t.Errorf("error = %v, want ErrInvalidShare", err)
	}
}

func TestCreateNoteTooLong(t *testing.T) {
	registry, _ := newTestRegistry(t)

	list := []Contributor{{
		Address: addr(1),
		Share:   100,
		Note:    strings.Repeat("x", MaxNoteLen+1),
	}}

	if _, err := registry.Create(list); !errors.Is(err, ErrNoteTooLong) {
		t.Errorf("error = %v, want ErrNoteTooLong", err)
	}
}

func TestGetMissing(t *testing.T) {
	registry, _ := newTestRegistry(t)

	if _, ok := registry.Get(ArtifactID{1, 2, 3}); ok {
		t.Error("Get returned a record for an unknown id")
	}
}

func TestMaxContributorsAccepted(t *testing.T) {
	registry, _ := newTestRegistry(t)

	five := contributors(20, 20, 20, 20, 20)

	if _, err := registry.Create(five); err != nil {
		t.Errorf("five contributors rejected: %v", err)
	}
}
