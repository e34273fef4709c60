package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
)

// Document is a content document: narration script, per-platform copy,
// allergen warnings, and metadata. Unknown keys are preserved across writes.
type Document map[string]any

// Platforms returns the per-platform mapping, if present.
func (d Document) Platforms() map[string]any {
	platforms, _ := d["platforms"].(map[string]any)
	return platforms
}

// ReadContent loads the content document for slug. A missing document is
// returned as an empty Document.
func (s *Store) ReadContent(slug string) (Document, error) {
	doc := Document{}
	if err := ReadJSON(s.ContentPath(slug), &doc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, nil
		}
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// UpdateContent performs a read-modify-write of the content document while
// holding the slug's file lock, so concurrent writers cannot interleave.
func (s *Store) UpdateContent(slug string, update func(Document) error) (Document, error) {
	var doc Document
	err := s.WithLock("content-"+slug, func() error {
		current, err := s.ReadContent(slug)
		if err != nil {
			return err
		}
		if err := update(current); err != nil {
			return err
		}
		if err := WriteJSON(s.ContentPath(slug), current); err != nil {
			return err
		}
		doc = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// MergeContent merges fields into the content document. Top-level keys are
// replaced, except "platforms", whose entries are merged per platform.
func (s *Store) MergeContent(slug string, fields Document) (Document, error) {
	return s.UpdateContent(slug, func(doc Document) error {
		for key, value := range fields {
			if key == "platforms" {
				incoming, err := asObject(value)
				if err != nil {
					return fmt.Errorf("merge content %s: platforms: %w", slug, err)
				}
				merged := doc.Platforms()
				if merged == nil {
					merged = map[string]any{}
				}
				for platform, entry := range incoming {
					merged[platform] = entry
				}
				doc["platforms"] = merged
				continue
			}
			doc[key] = value
		}
		return nil
	})
}

// asObject converts typed values (structs, typed maps) into a generic JSON object.
func asObject(value any) (map[string]any, error) {
	if m, ok := value.(map[string]any); ok {
		return m, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.New("value is not an object")
	}
	return out, nil
}
