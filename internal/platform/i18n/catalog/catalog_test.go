package catalog

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	if !bundle.HasLocale(BaseLocale) {
		t.Fatalf("expected base locale %s", BaseLocale)
	}
	if !bundle.HasLocale("pt-BR") {
		t.Fatalf("expected locale pt-BR")
	}
	for _, namespace := range []string{"admin", "actions", "errors"} {
		if got := len(bundle.Namespace("en-US", namespace)); got == 0 {
			t.Fatalf("expected en-US %s namespace messages", namespace)
		}
	}
}

func TestEmbeddedLocalesShareKeys(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	for _, locale := range bundle.Locales() {
		if missing := bundle.Missing(locale); len(missing) > 0 {
			t.Errorf("locale %s missing keys %v", locale, missing)
		}
	}
}

func TestMissingReportsUntranslatedKeys(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/admin.yaml"), `locale: "en-US"
namespace: "admin"
messages:
  "admin.one": "one"
  "admin.two": "two"
`)
	mustWriteFile(t, filepath.Join(tempDir, "locales/pt-BR/admin.yaml"), `locale: "pt-BR"
namespace: "admin"
messages:
  "admin.one": "um"
`)

	bundle, err := LoadFromFS(os.DirFS(tempDir))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"admin.two"}, bundle.Missing("pt-BR")); diff != "" {
		t.Fatalf("Missing(pt-BR) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"admin.one", "admin.two"}, bundle.Missing("de-DE")); diff != "" {
		t.Fatalf("Missing(de-DE) mismatch (-want +got):\n%s", diff)
	}
	if got := bundle.Tags(); len(got) != 2 || got[0].String() != "en-US" || got[1].String() != "pt-BR" {
		t.Fatalf("Tags() = %v", got)
	}
}

func TestDefaultRegistersPrinterMessages(t *testing.T) {
	_ = Default()
	printer := message.NewPrinter(language.MustParse("pt-BR"))
	if got := printer.Sprintf("actions.ran_successfully"); got != "Ação executada com sucesso!" {
		t.Fatalf("pt-BR ran_successfully = %q", got)
	}
	english := message.NewPrinter(language.English)
	if got := english.Sprintf("actions.toggle_active.done", 3); got != "Toggled 3 user(s)." {
		t.Fatalf("en toggle done = %q", got)
	}
}

func TestLoadFromFSRejectsKeyOutsideNamespace(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/admin.yaml"), `locale: "en-US"
namespace: "admin"
messages:
  "actions.bad": "nope"
`)

	_, err := LoadFromFS(os.DirFS(tempDir))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadFromFSRejectsUnknownFields(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/admin.yaml"), `locale: "en-US"
namespace: "admin"
extra: true
messages:
  "admin.ok": "ok"
`)

	_, err := LoadFromFS(os.DirFS(tempDir))
	if err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestLoadFromFSRejectsMismatchedLocale(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/admin.yaml"), `locale: "pt-BR"
namespace: "admin"
messages:
  "admin.ok": "ok"
`)

	_, err := LoadFromFS(os.DirFS(tempDir))
	if err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func TestLoadFromFSRequiresBaseLocale(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/pt-BR/admin.yaml"), `locale: "pt-BR"
namespace: "admin"
messages:
  "admin.ok": "ok"
`)

	_, err := LoadFromFS(os.DirFS(tempDir))
	if err == nil {
		t.Fatal("expected missing base locale error")
	}
}

func TestMessageFallsBackToBaseLocale(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	value, ok := bundle.Message("fr-FR", "errors.ACTION_NOT_FOUND")
	if !ok || value != "This action does not exist." {
		t.Fatalf("Message() = %q, %v", value, ok)
	}
	if _, ok := bundle.Message("en-US", " "); ok {
		t.Fatal("expected blank key lookup to fail")
	}
}

func TestKeysAreSortedAndScopedToLocale(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	keys := bundle.Keys("pt-BR")
	if len(keys) == 0 {
		t.Fatal("expected pt-BR keys")
	}
	if !slices.IsSorted(keys) {
		t.Fatalf("keys not sorted: %v", keys)
	}
	if got := bundle.Keys("fr-FR"); got != nil {
		t.Fatalf("Keys(fr-FR) = %v, want nil", got)
	}
}

func mustWriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
