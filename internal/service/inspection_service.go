package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/vbonduro/vistoria/internal/blobstore"
	"github.com/vbonduro/vistoria/internal/domain"
	"github.com/vbonduro/vistoria/internal/report"
	"github.com/vbonduro/vistoria/internal/templates"
	"github.com/vbonduro/vistoria/internal/vision"
)

// InspectionRepository is the subset of store.InspectionStore that
// InspectionService requires. The Postgres store satisfies it as well.
type InspectionRepository interface {
	Save(ctx context.Context, ins *domain.Inspection) error
	Get(ctx context.Context, id string) (*domain.Inspection, error)
	List(ctx context.Context) ([]*domain.Inspection, error)
	Delete(ctx context.Context, id string) error
}

// InspectionService owns the application state: an in-memory copy of every
// inspection, kept in step with the repository.
//
// Mutations are two-phase. The change is applied to a clone, the clone
// replaces the cached entry, and only then is it written to the repository.
// When that write fails the cache is rebuilt from the repository so it never
// holds state the repository rejected.
type InspectionService struct {
	repo      InspectionRepository
	blobs     blobstore.BlobStore
	analyzer  vision.Analyzer
	renderer  *report.Renderer
	templates *templates.Set
	reportDir string
	logger    *slog.Logger
	now       func() time.Time

	// writeMu serialises mutations end to end, including the repository
	// write. mu only guards the cache so reads never wait on I/O.
	writeMu sync.Mutex
	mu      sync.RWMutex
	cache   map[string]*domain.Inspection
	loaded  bool
}

// NewInspectionService wires the service. blobs and analyzer may be nil:
// without blobs reports are only written locally, without analyzer photos
// get the fallback description.
func NewInspectionService(
	repo InspectionRepository,
	blobs blobstore.BlobStore,
	analyzer vision.Analyzer,
	renderer *report.Renderer,
	tmpl *templates.Set,
	reportDir string,
	logger *slog.Logger,
) *InspectionService {
	if tmpl == nil {
		tmpl = templates.Default()
	}
	return &InspectionService{
		repo:      repo,
		blobs:     blobs,
		analyzer:  analyzer,
		renderer:  renderer,
		templates: tmpl,
		reportDir: reportDir,
		logger:    logger,
		now:       time.Now,
		cache:     make(map[string]*domain.Inspection),
	}
}

// Refresh replaces the cache with the repository contents.
func (s *InspectionService) Refresh(ctx context.Context) error {
	all, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load inspections: %w", err)
	}
	fresh := make(map[string]*domain.Inspection, len(all))
	for _, ins := range all {
		fresh[ins.ID] = ins
	}

	s.mu.Lock()
	s.cache = fresh
	s.loaded = true
	s.mu.Unlock()

	s.logger.Debug("inspections loaded", "count", len(fresh))
	return nil
}

func (s *InspectionService) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Refresh(ctx)
}

func (s *InspectionService) cached(id string) (*domain.Inspection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ins, ok := s.cache[id]
	return ins, ok
}

func (s *InspectionService) put(ins *domain.Inspection) {
	s.mu.Lock()
	s.cache[ins.ID] = ins
	s.mu.Unlock()
}

func (s *InspectionService) drop(id string) {
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()
}

// snapshot returns a private copy of the cached inspection.
func (s *InspectionService) snapshot(ctx context.Context, id string) (*domain.Inspection, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	ins, ok := s.cached(id)
	if !ok {
		return nil, fmt.Errorf("inspection %q: %w", id, domain.ErrNotFound)
	}
	return ins.Clone(), nil
}

// reconcile runs after a failed repository write. The previous cache entry
// is put back first so a failed re-fetch still leaves the last confirmed
// state in place.
func (s *InspectionService) reconcile(ctx context.Context, id string, previous *domain.Inspection, cause error) {
	if previous != nil {
		s.put(previous)
	} else {
		s.drop(id)
	}
	s.logger.Warn("repository write failed, reloading inspections", "inspection_id", id, "error", cause)
	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("failed to reload inspections", "inspection_id", id, "error", err)
	}
}

// mutation applies fn to a clone of the inspection. It is the single path
// through which stored inspections change.
type mutation struct {
	op string
	// allowCompleted lets the operation touch a completed inspection.
	allowCompleted bool
	// start moves a scheduled inspection into progress.
	start bool
	fn    func(ins *domain.Inspection) error
}

func (s *InspectionService) commit(ctx context.Context, id string, m mutation) (*domain.Inspection, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.commitLocked(ctx, id, m)
}

// commitLocked is commit for callers that already hold writeMu.
func (s *InspectionService) commitLocked(ctx context.Context, id string, m mutation) (*domain.Inspection, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	current, ok := s.cached(id)
	if !ok {
		return nil, fmt.Errorf("inspection %q: %w", id, domain.ErrNotFound)
	}
	if !m.allowCompleted && !current.Status.IsEditable() {
		return nil, domain.ErrNotEditable
	}

	next := current.Clone()
	if err := m.fn(next); err != nil {
		return nil, err
	}
	if m.start {
		next.MarkStarted()
	}
	next.UpdatedAt = s.now()

	s.put(next)
	if err := s.repo.Save(ctx, next); err != nil {
		s.reconcile(ctx, id, current, err)
		return nil, fmt.Errorf("failed to save inspection: %w", err)
	}
	s.logger.Debug("inspection updated", "inspection_id", id, "op", m.op, "status", next.Status)
	return next.Clone(), nil
}

// Schedule creates a new inspection in the scheduled state.
func (s *InspectionService) Schedule(ctx context.Context, p domain.NewInspectionParams) (*domain.Inspection, error) {
	ins, err := domain.NewInspection(p, s.now())
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.put(ins)
	if err := s.repo.Save(ctx, ins); err != nil {
		s.reconcile(ctx, ins.ID, nil, err)
		return nil, fmt.Errorf("failed to save inspection: %w", err)
	}
	s.logger.Info("inspection scheduled", "inspection_id", ins.ID, "type", ins.Type, "scheduled_at", ins.ScheduledAt)
	return ins.Clone(), nil
}

// List returns every inspection ordered by scheduled time.
func (s *InspectionService) List(ctx context.Context) ([]*domain.Inspection, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]*domain.Inspection, 0, len(s.cache))
	for _, ins := range s.cache {
		out = append(out, ins.Clone())
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *domain.Inspection) int {
		if c := a.ScheduledAt.Compare(b.ScheduledAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *InspectionService) Get(ctx context.Context, id string) (*domain.Inspection, error) {
	return s.snapshot(ctx, id)
}

// Update edits the header fields. Completed inspections are read-only.
func (s *InspectionService) Update(ctx context.Context, id string, u domain.InspectionUpdate) (*domain.Inspection, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return s.commit(ctx, id, mutation{op: "update", fn: func(ins *domain.Inspection) error {
		u.Apply(ins)
		return nil
	}})
}

// Delete removes an inspection in any state.
func (s *InspectionService) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	current, ok := s.cached(id)
	if !ok {
		return fmt.Errorf("inspection %q: %w", id, domain.ErrNotFound)
	}

	s.drop(id)
	if err := s.repo.Delete(ctx, id); err != nil {
		s.reconcile(ctx, id, current, err)
		return fmt.Errorf("failed to delete inspection: %w", err)
	}
	s.logger.Info("inspection deleted", "inspection_id", id)
	s.deletePublished(ctx, current)
	return nil
}

// deletePublished removes the uploaded report of a deleted inspection. A
// failure only leaves an orphaned blob behind, so it is logged.
func (s *InspectionService) deletePublished(ctx context.Context, ins *domain.Inspection) {
	if s.blobs == nil || ins.ReportURL == "" {
		return
	}
	key := ReportKey(ins.ID, report.Filename(ins))
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		s.logger.Warn("failed to delete published report", "inspection_id", ins.ID, "key", key, "error", err)
	}
}

// Templates lists the room presets offered by AddRoom.
func (s *InspectionService) Templates() []templates.Room {
	return s.templates.All()
}
