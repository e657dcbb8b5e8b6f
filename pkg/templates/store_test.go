package templates

import (
	"path/filepath"
	"testing"

	"gcode-toolpath/pkg/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "templates.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSeedsBuiltins(t *testing.T) {
	s := openTestStore(t)
	list, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != len(Builtins()) {
		t.Fatalf("expected %d built-ins, got %d", len(Builtins()), len(list))
	}
	for _, tpl := range list {
		if !tpl.IsBuiltIn {
			t.Errorf("template %s should be built in", tpl.ID)
		}
	}
	if n, err := s.Count(); err != nil || n != len(Builtins()) {
		t.Errorf("Count = %d, %v", n, err)
	}
}

func TestReopenDoesNotDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.Put(Template{Name: "Mine", Code: "M117 hi"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if n, _ := s.Count(); n != len(Builtins())+1 {
		t.Errorf("expected %d templates after reopen, got %d", len(Builtins())+1, n)
	}
}

func TestPutGetDelete(t *testing.T) {
	s := openTestStore(t)

	stored, err := s.Put(Template{Name: "  Beep ", PurposeTag: PurposeCustom, Code: "M300 S440 P200\n", IsBuiltIn: true})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("Put should assign an ID")
	}
	if stored.IsBuiltIn {
		t.Error("user templates are never built in")
	}
	if stored.Name != "Beep" {
		t.Errorf("name should be trimmed, got %q", stored.Name)
	}

	got, err := s.Get(stored.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Code != "M300 S440 P200\n" || got.PurposeTag != PurposeCustom {
		t.Errorf("unexpected template %+v", got)
	}

	got.Notes = "updated"
	if _, err := s.Put(got); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if again, _ := s.Get(stored.ID); again.Notes != "updated" {
		t.Errorf("update not persisted: %+v", again)
	}

	if err := s.Delete(stored.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(stored.ID); !errors.Is(err, errors.ErrTemplateNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := s.Delete(stored.ID); !errors.Is(err, errors.ErrTemplateNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestBuiltinsAreProtected(t *testing.T) {
	s := openTestStore(t)
	id := Builtins()[0].ID

	if err := s.Delete(id); !errors.Is(err, errors.ErrTemplateBuiltIn) {
		t.Errorf("expected built-in refusal on delete, got %v", err)
	}
	if _, err := s.Put(Template{ID: id, Name: "hijack", Code: "M0"}); !errors.Is(err, errors.ErrTemplateBuiltIn) {
		t.Errorf("expected built-in refusal on put, got %v", err)
	}
	if got, err := s.Get(id); err != nil || got.Name != Builtins()[0].Name {
		t.Errorf("built-in changed: %+v %v", got, err)
	}
}

func TestPutValidation(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Put(Template{Name: "", Code: "M0"}); !errors.Is(err, errors.ErrTemplateInvalid) {
		t.Errorf("expected error for empty name, got %v", err)
	}
	if _, err := s.Put(Template{Name: "x", Code: " \n"}); !errors.Is(err, errors.ErrTemplateInvalid) {
		t.Errorf("expected error for empty code, got %v", err)
	}
}

func TestListOrder(t *testing.T) {
	s := openTestStore(t)
	for _, name := range []string{"zeta", "Alpha"} {
		if _, err := s.Put(Template{Name: name, Code: "M0"}); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	n := len(list)
	if list[n-2].Name != "Alpha" || list[n-1].Name != "zeta" {
		t.Errorf("user templates should follow built-ins by name, got %q %q", list[n-2].Name, list[n-1].Name)
	}
}
