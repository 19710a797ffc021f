package media

import (
	"bytes"
	"testing"

	"github.com/recipedesk/RecipeDesk/internal/models"
)

func TestStoreSaveResolveRemove(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	data := []byte("fake jpeg bytes")
	ref, err := s.Save(models.MediaPhoto, data)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if ref == "" {
		t.Fatal("expected non-empty ref")
	}

	got, err := s.Resolve(models.MediaPhoto, ref)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("resolved data differs from saved data")
	}

	// The same ref under a different kind is a different item.
	if _, err := s.Resolve(models.MediaVoice, ref); err != models.ErrMediaUnavailable {
		t.Errorf("expected ErrMediaUnavailable for wrong kind, got %v", err)
	}

	if err := s.Remove(models.MediaPhoto, ref); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := s.Resolve(models.MediaPhoto, ref); err != models.ErrMediaUnavailable {
		t.Errorf("expected ErrMediaUnavailable after remove, got %v", err)
	}
	if err := s.Remove(models.MediaPhoto, ref); err != models.ErrMediaUnavailable {
		t.Errorf("expected ErrMediaUnavailable for repeated remove, got %v", err)
	}
}

func TestStoreRejectsBadRefs(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	for _, ref := range []string{"", "../escape", "a/b", `a\b`} {
		if _, err := s.Resolve(models.MediaPhoto, ref); err == nil {
			t.Errorf("expected error for ref %q", ref)
		}
	}
	if _, err := s.Save("document", []byte("x")); err == nil {
		t.Error("expected error for unknown media kind")
	}
}
