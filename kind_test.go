package lexgraph

import "testing"

func TestNodeKind_IsValid(t *testing.T) {
	valid := []NodeKind{KindWord, KindSense, KindDomain, KindLanguage, KindConcept}
	for _, k := range valid {
		if !k.IsValid() {
			t.Errorf("expected %q to be valid", k)
		}
	}

	invalid := []NodeKind{"", "word", "WORD", "Lemma", "Sense "}
	for _, k := range invalid {
		if k.IsValid() {
			t.Errorf("expected %q to be invalid", k)
		}
	}
}

func TestParseNodeKind(t *testing.T) {
	kind, err := ParseNodeKind("Concept")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != KindConcept {
		t.Errorf("expected KindConcept, got %q", kind)
	}

	if _, err := ParseNodeKind("concept"); err == nil {
		t.Error("expected error for lowercase kind")
	}
}

func TestRelationKind_IsValid(t *testing.T) {
	valid := []RelationKind{
		RelHasSense, RelSubSenseOf, RelInDomain, RelDerivedFrom,
		RelSee, RelRelatedTo, RelCompare, RelBelongsTo,
	}
	for _, r := range valid {
		if !r.IsValid() {
			t.Errorf("expected %q to be valid", r)
		}
	}

	if RelationKind("LINKS_TO").IsValid() {
		t.Error("expected LINKS_TO to be invalid")
	}
	if RelationKind("").IsValid() {
		t.Error("expected empty relation to be invalid")
	}
}

func TestRelationKind_IsCrossReference(t *testing.T) {
	for _, r := range []RelationKind{RelSee, RelRelatedTo, RelCompare} {
		if !r.IsCrossReference() {
			t.Errorf("expected %q to be a cross-reference relation", r)
		}
	}
	for _, r := range []RelationKind{RelHasSense, RelSubSenseOf, RelInDomain, RelDerivedFrom, RelBelongsTo} {
		if r.IsCrossReference() {
			t.Errorf("expected %q not to be a cross-reference relation", r)
		}
	}
}

func TestParseRelationKind(t *testing.T) {
	rel, err := ParseRelationKind("SUB_SENSE_OF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rel != RelSubSenseOf {
		t.Errorf("expected RelSubSenseOf, got %q", rel)
	}

	if _, err := ParseRelationKind("sub_sense_of"); err == nil {
		t.Error("expected error for lowercase relation")
	}
}
