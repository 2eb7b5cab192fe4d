package royalty

import "testing"

func TestDeriveArtifactIDDeterministic(t *testing.T) {
	list := contributors(60, 40)

	a, err := DeriveArtifactID(list, 42)
	if err != nil {
		t.Fatal(err)
	}

	b, err := DeriveArtifactID(contributors(60, 40), 42)
	if err != nil {
		t.Fatal(err)
	}

	if a != b {
		t.Errorf("identical inputs produced different ids: %x vs %x", a[:8], b[:8])
	}
}

func TestDeriveArtifactIDContextSensitive(t *testing.T) {
	list := contributors(60, 40)

	a, _ := DeriveArtifactID(list, 1)
	b, _ := DeriveArtifactID(list, 2)

	if a == b {
		t.Error("different contexts produced the same id")
	}
}

func TestDeriveArtifactIDOrderSensitive(t *testing.T) {
	list := contributors(60, 40)

	reversed := []Contributor{list[1], list[0]}

	a, _ := DeriveArtifactID(list, 1)
	b, _ := DeriveArtifactID(reversed, 1)

	if a == b {
		t.Error("reordered contributors produced the same id")
	}
}

func TestDeriveArtifactIDNoteSensitive(t *testing.T) {
	list := contributors(100)

	annotated := []Contributor{{Address: list[0].Address, Share: 100, Note: "lead"}}

	a, _ := DeriveArtifactID(list, 1)
	b, _ := DeriveArtifactID(annotated, 1)

	if a == b {
		t.Error("different notes produced the same id")
	}
}
