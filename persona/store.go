package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Store holds the loaded persona profiles in a stable order. Profiles are
// read-only after load; the store owns them and hands out shared references.
type Store struct {
	profiles []*Profile
	byID     map[string]*Profile
}

// Load reads a persona JSON document: a mapping from persona id to profile.
// Malformed JSON or a profile missing its name or prompt fails immediately,
// before any simulation work starts.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read personas file: %w", err)
	}

	var raw map[string]*Profile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse personas file %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("personas file %s defines no personas", path)
	}

	profiles := make([]*Profile, 0, len(raw))
	for id, p := range raw {
		p.ID = id
		profiles = append(profiles, p)
	}
	store := FromProfiles(profiles)

	for _, p := range store.profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("persona %q: missing name", p.ID)
		}
		if p.SystemPrompt == "" {
			return nil, fmt.Errorf("persona %q: missing prompt", p.ID)
		}
	}
	return store, nil
}

// FromProfiles builds a store over an in-memory profile list, sorted into the
// stable iteration order used everywhere else.
func FromProfiles(profiles []*Profile) *Store {
	sorted := make([]*Profile, len(profiles))
	copy(sorted, profiles)
	sort.Slice(sorted, func(i, j int) bool { return lessID(sorted[i].ID, sorted[j].ID) })

	byID := make(map[string]*Profile, len(sorted))
	for _, p := range sorted {
		byID[p.ID] = p
	}
	return &Store{profiles: sorted, byID: byID}
}

// lessID orders ids numerically when both parse as integers (cluster exports
// use "0".."6"), lexicographically otherwise.
func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

// Profiles returns all profiles in stable order. Callers must not mutate them.
func (s *Store) Profiles() []*Profile {
	return s.profiles
}

// Get looks up a profile by id.
func (s *Store) Get(id string) (*Profile, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Len reports the number of loaded personas.
func (s *Store) Len() int {
	return len(s.profiles)
}

// SummaryRow is one line of the persona overview table.
type SummaryRow struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Size  int     `json:"size"`
	Share float64 `json:"share"`
}

// Summary returns the per-persona cluster sizes and shares in stable order.
func (s *Store) Summary() []SummaryRow {
	rows := make([]SummaryRow, 0, len(s.profiles))
	for _, p := range s.profiles {
		rows = append(rows, SummaryRow{ID: p.ID, Name: p.Name, Size: p.Size, Share: p.Share})
	}
	return rows
}

// WriteFile writes the store's profiles back out as a persona JSON document,
// overwriting path. Used to scaffold a starter personas file.
func (s *Store) WriteFile(path string) error {
	doc := make(map[string]*Profile, len(s.profiles))
	for _, p := range s.profiles {
		doc[p.ID] = p
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal personas: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write personas file: %w", err)
	}
	return nil
}
