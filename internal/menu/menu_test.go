package menu

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const mainsYAML = `
sections:
  - name: Pasta
    notes: Served with house bread
    items:
      - slug: shrimp-scampi
        name: Shrimp Scampi
        description: Garlic butter shrimp over linguine.
        ingredients: [Shrimp, Butter, " Linguine "]
      - slug: penne-vodka
`

const dessertsYAML = `
course: dolci
sections:
  - items:
      - slug: tiramisu
        name: Tiramisu
`

func writeMenu(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write menu: %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeMenu(t, dir, "mains.yaml", mainsYAML)
	writeMenu(t, dir, "desserts.yaml", dessertsYAML)
	writeMenu(t, dir, "README.md", "ignored")

	catalog, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := catalog.Slugs(), []string{"tiramisu", "shrimp-scampi", "penne-vodka"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Slugs = %v, want %v", got, want)
	}

	scampi, ok := catalog.Lookup("shrimp-scampi")
	if !ok {
		t.Fatal("expected shrimp-scampi")
	}
	if scampi.Course != "mains" || scampi.Section != "Pasta" || scampi.SectionNotes != "Served with house bread" {
		t.Fatalf("unexpected classification %+v", scampi)
	}
	if !reflect.DeepEqual(scampi.Ingredients, []string{"Shrimp", "Butter", "Linguine"}) {
		t.Fatalf("unexpected ingredients %v", scampi.Ingredients)
	}

	penne, _ := catalog.Lookup("penne-vodka")
	if penne.Name != "penne vodka" || penne.Description != DefaultDescription {
		t.Fatalf("unexpected defaults %+v", penne)
	}
	tiramisu, _ := catalog.Lookup("tiramisu")
	if tiramisu.Course != "dolci" || tiramisu.Section != "Unknown Section" {
		t.Fatalf("unexpected course %+v", tiramisu)
	}
}

func TestLoadRejectsDuplicateSlugs(t *testing.T) {
	dir := t.TempDir()
	writeMenu(t, dir, "a.yaml", "sections:\n  - items:\n      - slug: tiramisu\n")
	writeMenu(t, dir, "b.yaml", "sections:\n  - items:\n      - slug: tiramisu\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected duplicate slug error")
	}
}

func TestLoadMissingDirIsEmpty(t *testing.T) {
	catalog, err := Load(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if catalog.Len() != 0 {
		t.Fatalf("expected empty catalog")
	}
}

func TestParseRejectsInvalidSlug(t *testing.T) {
	if _, err := Parse([]byte("sections:\n  - items:\n      - slug: Shrimp Scampi\n"), "mains", "mains.yaml"); err == nil {
		t.Fatal("expected invalid slug error")
	}
}

func TestParseDerivesSlugFromName(t *testing.T) {
	items, err := Parse([]byte("sections:\n  - items:\n      - name: Chicken Marsala (GF)\n"), "mains", "mains.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items) != 1 || items[0].Slug != "chicken-marsala-gf" {
		t.Fatalf("unexpected items %+v", items)
	}
	if _, err := Parse([]byte("sections:\n  - items:\n      - description: nameless\n"), "mains", "mains.yaml"); err == nil {
		t.Fatal("expected error for item without slug or name")
	}
}

func TestResolveFallsBackToSlug(t *testing.T) {
	catalog, _ := NewCatalog()
	item := catalog.Resolve("chicken-parm")
	if item.Name != "chicken parm" || item.Description != DefaultDescription {
		t.Fatalf("unexpected placeholder %+v", item)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindImagesAndAudit(t *testing.T) {
	data := t.TempDir()
	touch(t, filepath.Join(data, "shrimp-scampi.jpg"))
	touch(t, filepath.Join(data, "shrimp-scampi-2.png"))
	touch(t, filepath.Join(data, "shrimp-scampi-plated.webp"))
	touch(t, filepath.Join(data, "mystery.jpeg"))
	touch(t, filepath.Join(data, "notes.txt"))

	images, err := FindImages(data, "shrimp-scampi")
	if err != nil {
		t.Fatalf("FindImages: %v", err)
	}
	want := []string{
		filepath.Join(data, "shrimp-scampi-2.png"),
		filepath.Join(data, "shrimp-scampi-plated.webp"),
		filepath.Join(data, "shrimp-scampi.jpg"),
	}
	if !reflect.DeepEqual(images, want) {
		t.Fatalf("FindImages = %v, want %v", images, want)
	}

	catalog, _ := NewCatalog(Item{Slug: "shrimp-scampi"}, Item{Slug: "tiramisu"})
	report, err := Audit(catalog, data)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if !reflect.DeepEqual(report.MissingImages, []string{"tiramisu"}) {
		t.Fatalf("missing = %v", report.MissingImages)
	}
	if !reflect.DeepEqual(report.OrphanImages, []string{"mystery.jpeg"}) {
		t.Fatalf("orphans = %v", report.OrphanImages)
	}
	if report.Clean() {
		t.Fatal("expected unclean report")
	}
}
