package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"healthsurveys/internal/cache"
	"healthsurveys/internal/form"
	"healthsurveys/internal/model"
	"healthsurveys/internal/repository"
)

var (
	ErrPickerDisabled   = errors.New("facility picker is not active")
	ErrLocationNotFound = errors.New("location not found")
)

// PickerState describes whether the facility picker participates in the
// form at all
type PickerState string

const (
	// PickerNotConfigured: survey settings lack an instance key or
	// hierarchy level. Deliberate degrade-to-optional, not an error.
	PickerNotConfigured PickerState = "not_configured"
	// PickerReady: candidates loaded, search and select available.
	PickerReady PickerState = "ready"
	// PickerLoadFailed: candidate fetch failed; the widget disables
	// itself and is exempt from required validation (fail-open).
	PickerLoadFailed PickerState = "load_failed"
)

// Picker is the facility selector state for one form session
type Picker struct {
	State          PickerState
	Required       bool
	SelectedID     string
	SelectedPath   string
	ShowingResults bool

	candidates []model.Location
}

// SearchResult is the outcome of filtering the candidate list. NoMatches
// distinguishes "nothing matched the term" from the picker being
// unconfigured.
type SearchResult struct {
	Matches   []model.Location
	NoMatches bool
}

// Active reports whether the picker participates in validation.
func (p *Picker) Active() bool {
	return p.State == PickerReady
}

// FacilityState converts the picker into what the paginator checks at
// submit time.
func (p *Picker) FacilityState() *form.FacilityState {
	return &form.FacilityState{
		Configured: p.Active(),
		Required:   p.Required,
		SelectedID: p.SelectedID,
	}
}

// LocationService resolves hierarchical facility locations for survey
// takers: candidate loading (cached), type-ahead search and ancestry
// path resolution.
type LocationService struct {
	repo      repository.LocationRepo
	cache     cache.LocationCache
	client    *DHIS2Client
	instances repository.InstanceRepo
}

// NewLocationService creates a new location service
func NewLocationService(
	repo repository.LocationRepo,
	locCache cache.LocationCache,
	client *DHIS2Client,
	instances repository.InstanceRepo,
) *LocationService {
	return &LocationService{
		repo:      repo,
		cache:     locCache,
		client:    client,
		instances: instances,
	}
}

// Refresh pulls the organisation units of one hierarchy level from the
// remote instance, upserts them locally and invalidates the candidate
// cache. Returns the number of locations stored.
func (s *LocationService) Refresh(ctx context.Context, instanceKey string, hierarchyLevel int) (int, error) {
	inst, err := s.instances.GetByKey(ctx, instanceKey)
	if err != nil {
		return 0, err
	}
	if inst == nil {
		return 0, ErrInstanceNotFound
	}

	orgUnits, err := s.client.ListOrgUnits(ctx, inst, hierarchyLevel)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch org units: %w", err)
	}

	locations := make([]model.Location, 0, len(orgUnits))
	for _, ou := range orgUnits {
		loc := model.Location{
			ID:             ou.ID,
			Name:           ou.Name,
			HierarchyLevel: ou.Level,
			InstanceKey:    instanceKey,
		}
		if ou.Parent != nil {
			loc.ParentID = ou.Parent.ID
		}
		locations = append(locations, loc)
	}

	if err := s.repo.UpsertMany(ctx, locations); err != nil {
		return 0, fmt.Errorf("failed to store locations: %w", err)
	}
	if err := s.cache.Invalidate(ctx, instanceKey, hierarchyLevel); err != nil {
		log.Printf("[Location] Warning: cache invalidate failed: %v", err)
	}

	log.Printf("[Location] Refreshed %d locations for %s level %d", len(locations), instanceKey, hierarchyLevel)
	return len(locations), nil
}

// NewPicker builds the facility picker for a survey. Unconfigured
// settings yield a disabled picker; a failed candidate load yields a
// fail-open one. Both are logged, neither blocks the form.
func (s *LocationService) NewPicker(ctx context.Context, settings model.SurveyLocationSettings) *Picker {
	picker := &Picker{Required: settings.Required}

	if !settings.Configured() {
		picker.State = PickerNotConfigured
		return picker
	}

	candidates, err := s.LoadCandidates(ctx, settings.InstanceKey, settings.HierarchyLevel)
	if err != nil {
		log.Printf("[Location] Warning: candidate load failed for %s level %d, picker degrades to optional: %v",
			settings.InstanceKey, settings.HierarchyLevel, err)
		picker.State = PickerLoadFailed
		return picker
	}

	picker.State = PickerReady
	picker.candidates = candidates
	return picker
}

// LoadCandidates fetches all locations matching the instance and
// hierarchy level, reading through the cache.
func (s *LocationService) LoadCandidates(ctx context.Context, instanceKey string, hierarchyLevel int) ([]model.Location, error) {
	if cached, err := s.cache.Get(ctx, instanceKey, hierarchyLevel); err != nil {
		log.Printf("[Location] Warning: cache read failed: %v", err)
	} else if cached != nil {
		return cached, nil
	}

	locations, err := s.repo.ListByInstanceLevel(ctx, instanceKey, hierarchyLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to load locations: %w", err)
	}

	if err := s.cache.Set(ctx, instanceKey, hierarchyLevel, locations); err != nil {
		log.Printf("[Location] Warning: cache write failed: %v", err)
	}
	return locations, nil
}

// Search filters the picker's candidates by case-insensitive substring
// match on the name. An empty term returns the full candidate list.
// Searching a disabled picker is an error; callers must not offer it.
func (s *LocationService) Search(picker *Picker, term string) (*SearchResult, error) {
	if !picker.Active() {
		return nil, ErrPickerDisabled
	}
	picker.ShowingResults = true

	term = strings.TrimSpace(term)
	if term == "" {
		return &SearchResult{Matches: picker.candidates}, nil
	}

	lower := strings.ToLower(term)
	var matches []model.Location
	for _, loc := range picker.candidates {
		if strings.Contains(strings.ToLower(loc.Name), lower) {
			matches = append(matches, loc)
		}
	}
	if len(matches) == 0 {
		return &SearchResult{NoMatches: true}, nil
	}
	return &SearchResult{Matches: matches}, nil
}

// Select commits a candidate into the picker: the id fills the hidden
// required field and the resolved root-to-leaf path is displayed. This
// is the only way the required field is populated.
func (s *LocationService) Select(ctx context.Context, picker *Picker, locationID string) error {
	if !picker.Active() {
		return ErrPickerDisabled
	}

	found := false
	for _, loc := range picker.candidates {
		if loc.ID == locationID {
			found = true
			break
		}
	}
	if !found {
		return ErrLocationNotFound
	}

	path, err := s.repo.Path(ctx, locationID)
	if err != nil {
		return fmt.Errorf("failed to resolve location path: %w", err)
	}

	picker.SelectedID = locationID
	picker.SelectedPath = path
	picker.ShowingResults = false
	return nil
}

// Dismiss hides the suggestion list without clearing the current
// selection (click-outside behavior).
func (s *LocationService) Dismiss(picker *Picker) {
	picker.ShowingResults = false
}

// Path resolves the full ancestry path for a location.
func (s *LocationService) Path(ctx context.Context, locationID string) (string, error) {
	return s.repo.Path(ctx, locationID)
}
