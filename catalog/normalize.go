package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"mod-catalog-mirror/db"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const noDescription = "<No description available>"

// ErrMalformedSnapshot means the snapshot is not a JSON array at all.
var ErrMalformedSnapshot = errors.New("snapshot is not a JSON array")

// RecordError describes one catalog entry that could not be imported.
type RecordError struct {
	Index int
	ID    string // uuid4 as published, may be empty
	Name  string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (name=%q, id=%q): %v", e.Index, e.Name, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// rawMod is one package as published by the registry.
type rawMod struct {
	Name           string       `json:"name"`
	FullName       string       `json:"full_name"`
	Owner          string       `json:"owner"`
	PackageURL     string       `json:"package_url"`
	DateUpdated    string       `json:"date_updated"`
	UUID4          string       `json:"uuid4"`
	RatingScore    int64        `json:"rating_score"`
	IsDeprecated   bool         `json:"is_deprecated"`
	HasNSFWContent bool         `json:"has_nsfw_content"`
	Categories     []string     `json:"categories"`
	Versions       []rawVersion `json:"versions"`
}

type rawVersion struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Entry is one valid mod with its category names in first-seen order.
type Entry struct {
	Mod        db.Mod
	Categories []string
}

// Normalized is the Normalizer's hand-off to the importer.
type Normalized struct {
	Entries       []Entry
	NewCategories []string // names not yet in the store, sorted
	Skipped       int
	Errors        []*RecordError
}

// CategoryNames returns every distinct category name referenced by Entries.
func (n Normalized) CategoryNames() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, e := range n.Entries {
		for _, c := range e.Categories {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Normalize turns a raw snapshot into importable entries. existing holds the
// category names already stored; matching is exact and case-sensitive.
// Malformed records are skipped and reported in Errors; only an unreadable
// envelope fails the whole snapshot.
func Normalize(payload []byte, existing []string, log *zap.SugaredLogger) (Normalized, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return Normalized{}, ErrMalformedSnapshot
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return Normalized{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	known := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		known[name] = struct{}{}
	}

	out := Normalized{Entries: make([]Entry, 0, len(elements))}
	seenIDs := make(map[uuid.UUID]int, len(elements))
	pending := map[string]struct{}{}

	for i, element := range elements {
		var raw rawMod
		if err := json.Unmarshal(element, &raw); err != nil {
			out.skip(log, &RecordError{Index: i, Err: fmt.Errorf("decode: %w", err)})
			continue
		}

		mod, err := raw.toMod()
		if err != nil {
			out.skip(log, &RecordError{Index: i, ID: raw.UUID4, Name: raw.Name, Err: err})
			continue
		}
		if first, dup := seenIDs[mod.ID]; dup {
			out.skip(log, &RecordError{Index: i, ID: raw.UUID4, Name: raw.Name, Err: fmt.Errorf("duplicate of record %d", first)})
			continue
		}
		seenIDs[mod.ID] = i

		if len(raw.Versions) == 0 {
			log.Warnw("Mod has no versions, using placeholder description",
				zap.String("mod", raw.Name),
				zap.String("id", raw.UUID4),
			)
		}

		categories := dedupeCategories(raw.Categories)
		for _, c := range categories {
			if _, ok := known[c]; !ok {
				pending[c] = struct{}{}
			}
		}
		out.Entries = append(out.Entries, Entry{Mod: mod, Categories: categories})
	}

	out.NewCategories = make([]string, 0, len(pending))
	for name := range pending {
		out.NewCategories = append(out.NewCategories, name)
	}
	sort.Strings(out.NewCategories)

	return out, nil
}

func (n *Normalized) skip(log *zap.SugaredLogger, recErr *RecordError) {
	n.Skipped++
	n.Errors = append(n.Errors, recErr)
	log.Warnw("Skipping malformed catalog record", zap.Error(recErr))
}

func (r rawMod) toMod() (db.Mod, error) {
	var missing []string
	for field, value := range map[string]string{
		"uuid4":        r.UUID4,
		"name":         r.Name,
		"full_name":    r.FullName,
		"owner":        r.Owner,
		"date_updated": r.DateUpdated,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return db.Mod{}, fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
	}

	id, err := uuid.Parse(r.UUID4)
	if err != nil {
		return db.Mod{}, fmt.Errorf("invalid uuid4: %w", err)
	}
	updated, err := time.Parse(time.RFC3339Nano, r.DateUpdated)
	if err != nil {
		return db.Mod{}, fmt.Errorf("invalid date_updated: %w", err)
	}

	// The registry lists the most recent version first.
	description, icon := noDescription, ""
	if len(r.Versions) > 0 {
		description, icon = r.Versions[0].Description, r.Versions[0].Icon
	}

	return db.Mod{
		ID:          id,
		Name:        r.Name,
		Description: description,
		IconURL:     icon,
		FullName:    r.FullName,
		Owner:       r.Owner,
		PackageURL:  r.PackageURL,
		UpdatedDate: updated.UTC(),
		Rating:      r.RatingScore,
		Deprecated:  r.IsDeprecated,
		NSFW:        r.HasNSFWContent,
	}, nil
}

func dedupeCategories(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
