package patient

import (
	"context"
	"strings"
	"sync"
)

// Directory is an in-memory snapshot of the patient list used by the intake
// workflow for search-based selection. It loads at most once: concurrent
// callers of EnsureLoaded share a single in-flight repository fetch instead of
// each triggering their own.
type Directory struct {
	repo Repository

	mu       sync.Mutex
	loaded   bool
	loading  chan struct{}
	loadErr  error
	patients []*Patient
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// EnsureLoaded populates the snapshot from the repository if it has not been
// loaded yet. When a load is already in flight the caller waits for it rather
// than starting another. A failed load leaves the directory unloaded so the
// next call retries.
func (d *Directory) EnsureLoaded(ctx context.Context) error {
	d.mu.Lock()
	if d.loaded {
		d.mu.Unlock()
		return nil
	}
	if d.loading != nil {
		ch := d.loading
		d.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		d.mu.Lock()
		err := d.loadErr
		d.mu.Unlock()
		return err
	}

	ch := make(chan struct{})
	d.loading = ch
	d.mu.Unlock()

	patients, err := d.repo.All(ctx)

	d.mu.Lock()
	d.loadErr = err
	if err == nil {
		d.patients = patients
		d.loaded = true
	}
	d.loading = nil
	close(ch)
	d.mu.Unlock()

	return err
}

// Search returns patients whose display name, first name, last name, or ID
// contains term case-insensitively. An empty term returns the full snapshot
// in load order.
func (d *Directory) Search(term string) []*Patient {
	d.mu.Lock()
	snapshot := d.patients
	d.mu.Unlock()

	if term == "" {
		out := make([]*Patient, len(snapshot))
		copy(out, snapshot)
		return out
	}

	t := strings.ToLower(term)
	var out []*Patient
	for _, p := range snapshot {
		if matchesTerm(p, t) {
			out = append(out, p)
		}
	}
	return out
}

func matchesTerm(p *Patient, lowered string) bool {
	if p.DisplayName != nil && strings.Contains(strings.ToLower(*p.DisplayName), lowered) {
		return true
	}
	return strings.Contains(strings.ToLower(p.FirstName), lowered) ||
		strings.Contains(strings.ToLower(p.LastName), lowered) ||
		strings.Contains(strings.ToLower(p.ID.String()), lowered)
}

// Add appends a freshly created patient to the snapshot so the directory
// reflects it in-session without a reload.
func (d *Directory) Add(p *Patient) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.patients = append(d.patients, p)
}

// Invalidate discards the snapshot; the next EnsureLoaded refetches.
func (d *Directory) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = false
	d.patients = nil
}

// Len returns the number of patients currently in the snapshot.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.patients)
}

// Get returns the patient with the given ID from the snapshot, or nil.
func (d *Directory) Get(id string) *Patient {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.patients {
		if p.ID.String() == id {
			return p
		}
	}
	return nil
}
