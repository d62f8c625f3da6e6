// Package queue implements the offline report queue and synchronization
// engine. The Manager durably buffers locally created reports, projects
// them for the presentation layer, and drains pending records against the
// remote gateway whenever connectivity allows.
//
// Sync is opportunistic, never scheduled on a timer. A drain pass is
// triggered by a reachable edge from the connectivity monitor, by a
// successful enqueue while already reachable, or by an explicit command.
package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ibalodis/fieldsignal/internal/client/gateway"
	"github.com/ibalodis/fieldsignal/internal/client/models"
	"github.com/ibalodis/fieldsignal/internal/client/store"
	"github.com/ibalodis/fieldsignal/internal/common"
	"github.com/ibalodis/fieldsignal/internal/logging"
)

// readFile is a test seam for reading attachment bytes.
var readFile = os.ReadFile

// Reachability is the slice of the connectivity monitor the queue needs.
type Reachability interface {
	Reachable() bool
	Subscribe() <-chan bool
}

// Identity supplies the current user id, read at drain time.
type Identity interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// Snapshot is the read-only surface exposed to the presentation layer.
type Snapshot struct {
	// Reports is the projected list, newest-first by CreatedAt.
	Reports []models.QueuedReport

	PendingCount int
	SyncedCount  int

	Reachable bool
	Syncing   bool
}

// Manager owns the in-memory projection of the durable local store and the
// drain machinery. The projection and the in-progress guard are the only
// shared mutable state; both are mutated exclusively by the Manager's own
// operations.
type Manager struct {
	store    store.Repository
	gw       gateway.Gateway
	reach    Reachability
	identity Identity
	log      logging.Logger

	mu       sync.Mutex
	reports  []models.QueuedReport // newest-first
	draining bool

	triggers chan struct{}
}

func NewManager(repo store.Repository, gw gateway.Gateway, reach Reachability, identity Identity, log logging.Logger) *Manager {
	return &Manager{
		store:    repo,
		gw:       gw,
		reach:    reach,
		identity: identity,
		log:      log,
		triggers: make(chan struct{}, 1),
	}
}

// Enqueue persists a new report and returns once local persistence
// succeeded; remote sync happens asynchronously. The draft is assumed
// validated by the caller.
func (m *Manager) Enqueue(ctx context.Context, draft models.Draft) (*models.QueuedReport, error) {
	report := &models.QueuedReport{
		ID:        uuid.NewString(),
		Payload:   draft.Payload,
		MediaRefs: append([]models.MediaRef(nil), draft.MediaRefs...),
		CreatedAt: time.Now().UTC(),
		SyncState: models.SyncStatePending,
	}

	if err := m.store.Save(ctx, report); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.reports = append([]models.QueuedReport{*report}, m.reports...)
	m.mu.Unlock()

	m.log.Info(ctx, "report queued", "report_id", report.ID, "hazard_type", report.Payload.HazardType)

	if m.reach.Reachable() {
		m.scheduleDrain()
	}
	return report, nil
}

// scheduleDrain requests a drain without blocking the caller. A request
// arriving while one is already queued collapses into it.
func (m *Manager) scheduleDrain() {
	select {
	case m.triggers <- struct{}{}:
	default:
	}
}

// Run consumes drain triggers until ctx is cancelled: reachable edges from
// the monitor and post-enqueue requests.
func (m *Manager) Run(ctx context.Context) {
	events := m.reach.Subscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case up := <-events:
			if up {
				if err := m.Drain(ctx); err != nil {
					m.log.Error(ctx, "drain after reconnect failed", "error", err)
				}
			}
		case <-m.triggers:
			if err := m.Drain(ctx); err != nil {
				m.log.Error(ctx, "drain failed", "error", err)
			}
		}
	}
}

// Drain attempts to sync every pending record, isolating failures per
// record: a failed upload or insert leaves that record pending and the
// pass continues. At most one drain runs at a time; a request arriving
// while one is active is a no-op. Storage failures are the only errors
// surfaced to the caller, after the pass completes and the projection has
// been reloaded from the store.
func (m *Manager) Drain(ctx context.Context) error {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return nil
	}
	m.draining = true

	var pending []models.QueuedReport
	for _, r := range m.reports {
		if r.Pending() {
			pending = append(pending, r)
		}
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.draining = false
		m.mu.Unlock()
	}()

	if !m.reach.Reachable() || len(pending) == 0 {
		return nil
	}

	userID, err := m.identity.CurrentUserID(ctx)
	if err != nil {
		// No identity means every insert would be rejected; leave the
		// whole batch pending and wait for a login.
		m.log.Warn(ctx, "drain skipped: no user identity", "error", err)
		return nil
	}

	m.log.Debug(ctx, "drain started", "pending", len(pending))

	var storageErr error
	for _, report := range pending {
		if err := m.syncOne(ctx, &report, userID); err != nil {
			if errors.Is(err, common.ErrStorage) && storageErr == nil {
				storageErr = err
			}
			m.log.Error(ctx, "report sync failed", "report_id", report.ID, "error", err)
			continue
		}
		m.log.Info(ctx, "report synced", "report_id", report.ID)
	}

	// Read-through reload so the projection reflects the authoritative
	// state, whatever mix of successes and failures the pass produced.
	if err := m.LoadPendingReports(ctx); err != nil && storageErr == nil {
		storageErr = err
	}
	return storageErr
}

// syncOne uploads every attachment, inserts the record, and flips the
// stored sync state. The record insert is never attempted unless all
// uploads succeeded.
func (m *Manager) syncOne(ctx context.Context, report *models.QueuedReport, userID string) error {
	locators := make([]string, 0, len(report.MediaRefs))
	for _, ref := range report.MediaRefs {
		data, err := readFile(ref.LocalPath)
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", common.ErrUpload, ref.LocalPath, err)
		}
		locator, err := m.gw.UploadBlob(ctx, data, ref.ContentType)
		if err != nil {
			return err
		}
		locators = append(locators, locator)
	}

	if _, err := m.gw.InsertRecord(ctx, report.Payload, locators, userID); err != nil {
		return err
	}

	return m.store.MarkSynced(ctx, report.ID)
}

// LoadPendingReports re-derives the projection from the durable local
// store, newest-first. Called at startup and after every drain pass;
// idempotent.
func (m *Manager) LoadPendingReports(ctx context.Context) error {
	reports, err := m.store.GetAll(ctx)
	if err != nil {
		return err
	}

	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].CreatedAt.After(reports[j].CreatedAt)
		}
		return reports[i].ID < reports[j].ID
	})

	m.mu.Lock()
	m.reports = reports
	m.mu.Unlock()
	return nil
}

// ClearSyncedReports removes every synced record from the store and
// reloads the projection. Pending records are never removed, however old.
func (m *Manager) ClearSyncedReports(ctx context.Context) error {
	reports, err := m.store.GetAll(ctx)
	if err != nil {
		return err
	}

	for _, report := range reports {
		if report.Pending() {
			continue
		}
		if err := m.store.Remove(ctx, report.ID); err != nil {
			return err
		}
	}

	return m.LoadPendingReports(ctx)
}

// Snapshot returns a copy of the presentation-facing state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Reports:   append([]models.QueuedReport(nil), m.reports...),
		Reachable: m.reach.Reachable(),
		Syncing:   m.draining,
	}
	for _, r := range m.reports {
		if r.Pending() {
			s.PendingCount++
		} else {
			s.SyncedCount++
		}
	}
	return s
}
