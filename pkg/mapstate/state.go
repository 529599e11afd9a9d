// Package mapstate owns the client-side state for the interactive map:
// the canonical report and hub collections, the derived filtered view,
// the single active selection, and the map-click report creation workflow.
//
// All mutation goes through the operations on State; renderers observe
// via Subscribe and read through the snapshot accessors. The filtered
// view is recomputed synchronously after every canonical update or filter
// change, so observers never see an intermediate inconsistent pair.
package mapstate

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinmov/atlas-server/internal/models"
)

// State is the report/hub state container behind the map view.
// The zero filter keeps everything (severity "all", empty search).
type State struct {
	mu sync.Mutex
	gw Gateway

	reports  []models.Report
	filtered []models.Report
	hubs     []models.Hub
	filter   Filter

	selectedReport *models.Report
	selectedHub    *models.Hub

	pending    *Coordinate
	createOpen bool

	loadingReports bool
	loadingHubs    bool

	// Fetch generations: a completed fetch only installs its result if no
	// newer fetch for the same collection started meanwhile.
	reportGen uint64
	hubGen    uint64

	reportsErr   error
	hubsErr      error
	createErr    error
	authRequired bool

	subscribers []func()
}

// New creates a state container backed by the given gateway.
func New(gw Gateway) *State {
	return &State{
		gw:     gw,
		filter: Filter{Severity: SeverityAll},
	}
}

// Subscribe registers fn to run after every state change. Callbacks run
// outside the container's lock, so they may call accessors freely.
func (s *State) Subscribe(fn func()) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

func (s *State) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// FetchReports replaces the canonical report collection from the gateway
// and re-derives the filtered view. An empty result is a valid state, not
// an error. Overlapping fetches resolve to "newest request wins": a
// response whose request was superseded is discarded.
func (s *State) FetchReports(ctx context.Context) error {
	s.mu.Lock()
	s.reportGen++
	gen := s.reportGen
	s.loadingReports = true
	s.mu.Unlock()
	s.notify()

	reports, err := s.gw.ListReports(ctx)

	s.mu.Lock()
	if gen != s.reportGen {
		// A newer fetch owns the collection now.
		s.mu.Unlock()
		return nil
	}
	s.loadingReports = false
	if err != nil {
		ferr := fmt.Errorf("fetch reports: %w", err)
		s.reportsErr = ferr
		s.mu.Unlock()
		s.notify()
		return ferr
	}
	s.reportsErr = nil
	s.reports = reports
	s.filtered = filterReports(s.reports, s.filter)
	s.reconcileReportSelection()
	s.mu.Unlock()
	s.notify()
	return nil
}

// FetchHubs replaces the canonical hub collection. Independent of report
// fetches: neither blocks the other.
func (s *State) FetchHubs(ctx context.Context) error {
	s.mu.Lock()
	s.hubGen++
	gen := s.hubGen
	s.loadingHubs = true
	s.mu.Unlock()
	s.notify()

	hubs, err := s.gw.ListHubs(ctx)

	s.mu.Lock()
	if gen != s.hubGen {
		s.mu.Unlock()
		return nil
	}
	s.loadingHubs = false
	if err != nil {
		ferr := fmt.Errorf("fetch hubs: %w", err)
		s.hubsErr = ferr
		s.mu.Unlock()
		s.notify()
		return ferr
	}
	s.hubsErr = nil
	s.hubs = hubs
	s.reconcileHubSelection()
	s.mu.Unlock()
	s.notify()
	return nil
}

// ApplyFilters installs the predicate set and recomputes the filtered
// view from the canonical collection. Pure and idempotent: the canonical
// collection is never touched, and reapplying the same filter yields the
// same result.
func (s *State) ApplyFilters(f Filter) {
	s.mu.Lock()
	if f.Severity == "" {
		f.Severity = SeverityAll
	}
	s.filter = f
	s.filtered = filterReports(s.reports, s.filter)
	s.mu.Unlock()
	s.notify()
}

// SelectReport makes r the active report and clears any hub selection.
func (s *State) SelectReport(r models.Report) {
	s.mu.Lock()
	s.selectedReport = &r
	s.selectedHub = nil
	s.mu.Unlock()
	s.notify()
}

// SelectHub makes h the active hub and clears any report selection.
func (s *State) SelectHub(h models.Hub) {
	s.mu.Lock()
	s.selectedHub = &h
	s.selectedReport = nil
	s.mu.Unlock()
	s.notify()
}

// ClearSelection deselects both.
func (s *State) ClearSelection() {
	s.mu.Lock()
	s.selectedReport = nil
	s.selectedHub = nil
	s.mu.Unlock()
	s.notify()
}

// HandleMapClick is the Map Interaction Surface adapter: a map click at
// coord opens the creation workflow there.
func (s *State) HandleMapClick(coord Coordinate) {
	s.BeginCreateAt(coord)
}

// BeginCreateAt records the pending coordinate and opens the creation
// workflow. Exactly one coordinate is pending at a time; a second call
// replaces the first.
func (s *State) BeginCreateAt(coord Coordinate) {
	s.mu.Lock()
	s.pending = &coord
	s.createOpen = true
	s.createErr = nil
	s.authRequired = false
	s.mu.Unlock()
	s.notify()
}

// CancelCreate abandons the creation workflow and its pending coordinate.
func (s *State) CancelCreate() {
	s.mu.Lock()
	s.pending = nil
	s.createOpen = false
	s.createErr = nil
	s.authRequired = false
	s.mu.Unlock()
	s.notify()
}

// SubmitCreate persists a new report at the pending coordinate. With no
// pending coordinate it is a no-op returning models.ErrInvalidInput, and
// with no authenticated session it surfaces auth-required state; neither
// case reaches the network. On success the workflow closes and the
// canonical collection is re-fetched — the server response is the source
// of truth, nothing is synthesized locally. On failure the workflow stays
// open so entered values survive a retry.
func (s *State) SubmitCreate(ctx context.Context, title, description string, severity models.Severity) error {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return fmt.Errorf("no pending location: %w", models.ErrInvalidInput)
	}
	if !s.gw.Authenticated() {
		s.authRequired = true
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("sign-in required: %w", models.ErrUnauthorized)
	}
	coord := *s.pending
	s.mu.Unlock()

	if severity == "" {
		severity = models.SeverityMedium
	}

	req := &models.CreateReportRequest{
		Title:       title,
		Description: description,
		Lat:         &coord.Lat,
		Lng:         &coord.Lng,
		Priority:    severity,
	}

	if _, err := s.gw.CreateReport(ctx, req); err != nil {
		s.mu.Lock()
		s.createErr = err
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.mu.Lock()
	s.pending = nil
	s.createOpen = false
	s.createErr = nil
	s.mu.Unlock()
	s.notify()

	// Re-fetch is the consistency mechanism; its failure is already
	// observable through the reports error state.
	_ = s.FetchReports(ctx)
	return nil
}

// A selection that no longer matches any canonical record is cleared;
// one that survived the refresh is updated to the fresh record.
func (s *State) reconcileReportSelection() {
	if s.selectedReport == nil {
		return
	}
	for i := range s.reports {
		if s.reports[i].ID == s.selectedReport.ID {
			fresh := s.reports[i]
			s.selectedReport = &fresh
			return
		}
	}
	s.selectedReport = nil
}

func (s *State) reconcileHubSelection() {
	if s.selectedHub == nil {
		return
	}
	for i := range s.hubs {
		if s.hubs[i].ID == s.selectedHub.ID {
			fresh := s.hubs[i]
			s.selectedHub = &fresh
			return
		}
	}
	s.selectedHub = nil
}

// Reports returns a copy of the canonical report collection.
func (s *State) Reports() []models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyReports(s.reports)
}

// FilteredReports returns a copy of the derived filtered view.
func (s *State) FilteredReports() []models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyReports(s.filtered)
}

// Hubs returns a copy of the canonical hub collection.
func (s *State) Hubs() []models.Hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	hubs := make([]models.Hub, len(s.hubs))
	copy(hubs, s.hubs)
	return hubs
}

// SelectedReport returns the active report, or nil.
func (s *State) SelectedReport() *models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedReport == nil {
		return nil
	}
	r := *s.selectedReport
	return &r
}

// SelectedHub returns the active hub, or nil.
func (s *State) SelectedHub() *models.Hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedHub == nil {
		return nil
	}
	h := *s.selectedHub
	return &h
}

// PendingCreateLocation returns the coordinate bound to the open creation
// workflow, if any.
func (s *State) PendingCreateLocation() (Coordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Coordinate{}, false
	}
	return *s.pending, true
}

// CreateOpen reports whether the creation workflow is showing.
func (s *State) CreateOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createOpen
}

// IsLoadingReports reports whether a report fetch is in flight.
func (s *State) IsLoadingReports() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingReports
}

// IsLoadingHubs reports whether a hub fetch is in flight.
func (s *State) IsLoadingHubs() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingHubs
}

// Filter returns the active predicate set.
func (s *State) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// ReportsError returns the last report fetch failure, cleared by the next
// successful fetch.
func (s *State) ReportsError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reportsErr
}

// HubsError returns the last hub fetch failure.
func (s *State) HubsError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hubsErr
}

// CreateError returns the failure of the last submit attempt while the
// workflow is still open.
func (s *State) CreateError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createErr
}

// AuthRequired reports whether the last submit was refused for lack of a
// session; the UI should prompt sign-in.
func (s *State) AuthRequired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authRequired
}

func copyReports(src []models.Report) []models.Report {
	dst := make([]models.Report, len(src))
	copy(dst, src)
	return dst
}
