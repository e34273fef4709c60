package menu

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"menucast/internal/textutil"
)

// DefaultDescription is used for items without a description.
const DefaultDescription = "Description forthcoming."

// Item is one dish from the menu definition.
type Item struct {
	Slug         string   `json:"slug"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Course       string   `json:"course"`
	Section      string   `json:"section,omitempty"`
	SectionNotes string   `json:"section_notes,omitempty"`
	Ingredients  []string `json:"ingredients,omitempty"`
	Options      []string `json:"options,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	SourceFile   string   `json:"source_file,omitempty"`
}

type document struct {
	Course   string           `yaml:"course"`
	Sections []sectionPayload `yaml:"sections"`
}

type sectionPayload struct {
	Name  string        `yaml:"name"`
	Notes string        `yaml:"notes"`
	Items []itemPayload `yaml:"items"`
}

type itemPayload struct {
	Slug        string   `yaml:"slug"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Ingredients []string `yaml:"ingredients"`
	Options     []string `yaml:"options"`
	Notes       string   `yaml:"notes"`
}

// Catalog is the loaded menu, ordered by file name then document order.
type Catalog struct {
	items []Item
	index map[string]int
}

// Parse decodes one menu document. course is used when the document does not
// name its own course.
func Parse(data []byte, course, source string) ([]Item, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("menu: decode %s: %w", source, err)
	}
	if strings.TrimSpace(doc.Course) != "" {
		course = strings.TrimSpace(doc.Course)
	}
	var items []Item
	for _, section := range doc.Sections {
		for _, raw := range section.Items {
			slug := strings.TrimSpace(raw.Slug)
			if slug == "" {
				slug = textutil.Slugify(raw.Name)
			}
			if slug == "" {
				return nil, fmt.Errorf("menu: %s: item %q in section %q has no slug", source, raw.Name, section.Name)
			}
			if !ValidSlug(slug) {
				return nil, fmt.Errorf("menu: %s: invalid slug %q", source, slug)
			}
			items = append(items, Item{
				Slug:         slug,
				Name:         defaultString(raw.Name, NameFromSlug(slug)),
				Description:  defaultString(raw.Description, DefaultDescription),
				Course:       course,
				Section:      defaultString(section.Name, "Unknown Section"),
				SectionNotes: strings.TrimSpace(section.Notes),
				Ingredients:  trimList(raw.Ingredients),
				Options:      trimList(raw.Options),
				Notes:        strings.TrimSpace(raw.Notes),
				SourceFile:   source,
			})
		}
	}
	return items, nil
}

// Load reads every *.yaml and *.yml document in dir. A missing directory
// yields an empty catalog. Duplicate slugs are rejected.
func Load(dir string) (*Catalog, error) {
	catalog := &Catalog{index: map[string]int{}}
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return catalog, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return catalog, nil
		}
		return nil, fmt.Errorf("menu: read %s: %w", trimmed, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(trimmed, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("menu: read %s: %w", path, err)
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		items, err := Parse(data, stem, name)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if err := catalog.add(item); err != nil {
				return nil, err
			}
		}
	}
	return catalog, nil
}

// NewCatalog builds a catalog from items already in memory.
func NewCatalog(items ...Item) (*Catalog, error) {
	catalog := &Catalog{index: map[string]int{}}
	for _, item := range items {
		if err := catalog.add(item); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func (c *Catalog) add(item Item) error {
	if prev, ok := c.index[item.Slug]; ok {
		return fmt.Errorf("menu: duplicate slug %q in %s (first defined in %s)", item.Slug, item.SourceFile, c.items[prev].SourceFile)
	}
	c.index[item.Slug] = len(c.items)
	c.items = append(c.items, item)
	return nil
}

// Items returns the catalog entries in load order.
func (c *Catalog) Items() []Item {
	if c == nil {
		return nil
	}
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Lookup returns the item for slug.
func (c *Catalog) Lookup(slug string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	idx, ok := c.index[slug]
	if !ok {
		return Item{}, false
	}
	return c.items[idx], true
}

// Resolve returns the catalog item for slug, or a placeholder built from the
// slug when the menu does not define it.
func (c *Catalog) Resolve(slug string) Item {
	if item, ok := c.Lookup(slug); ok {
		return item
	}
	return Item{Slug: slug, Name: NameFromSlug(slug), Description: DefaultDescription}
}

// Slugs returns every slug in load order.
func (c *Catalog) Slugs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.items))
	for i, item := range c.items {
		out[i] = item.Slug
	}
	return out
}

// NameFromSlug derives a display name ("shrimp-scampi" -> "shrimp scampi").
func NameFromSlug(slug string) string {
	return strings.ReplaceAll(strings.TrimSpace(slug), "-", " ")
}

// ValidSlug reports whether slug is a lowercase hyphenated token.
func ValidSlug(slug string) bool {
	return textutil.IsSlug(slug)
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
