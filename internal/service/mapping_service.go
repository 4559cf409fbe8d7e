package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"healthsurveys/internal/cache"
	"healthsurveys/internal/model"
	"healthsurveys/internal/repository"
)

var (
	ErrInstanceNotFound = errors.New("DHIS2 instance not found")
	ErrUnknownDomain    = errors.New("domain must be tracker or aggregate")
)

// MappingService keeps local question definitions aligned with a remote
// DHIS2 program or dataset schema: it enumerates remote elements,
// cross-references existing bindings, and saves single or bulk
// question-to-element mappings.
type MappingService struct {
	client    *DHIS2Client
	instances repository.InstanceRepo
	mappings  repository.MappingRepo
	questions repository.QuestionRepo
	surveys   repository.SurveyRepo
	metadata  cache.MetadataCache
}

// NewMappingService creates a new mapping reconciler service
func NewMappingService(
	client *DHIS2Client,
	instances repository.InstanceRepo,
	mappings repository.MappingRepo,
	questions repository.QuestionRepo,
	surveys repository.SurveyRepo,
	metadata cache.MetadataCache,
) *MappingService {
	return &MappingService{
		client:    client,
		instances: instances,
		mappings:  mappings,
		questions: questions,
		surveys:   surveys,
		metadata:  metadata,
	}
}

func (s *MappingService) instance(ctx context.Context, instanceKey string) (*model.DHIS2Instance, error) {
	inst, err := s.instances.GetByKey(ctx, instanceKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load instance %s: %w", instanceKey, err)
	}
	if inst == nil {
		return nil, ErrInstanceNotFound
	}
	return inst, nil
}

// ListRemoteElements enumerates the data elements of a program (tracker
// domain) or dataset (aggregate domain). For tracker programs the same
// element can appear in several stages; when the duplicates carry
// differing metadata the listing reports a conflict instead of letting
// the last-iterated stage win. Results are cached briefly so the admin
// page can re-render without refetching.
func (s *MappingService) ListRemoteElements(ctx context.Context, instanceKey string, domain model.SyncDomain, targetID string) (*model.ElementListing, error) {
	if cached, err := s.metadata.GetListing(ctx, instanceKey, domain, targetID); err != nil {
		log.Printf("[Mapping] Warning: metadata cache read failed: %v", err)
	} else if cached != nil {
		return cached, nil
	}

	inst, err := s.instance(ctx, instanceKey)
	if err != nil {
		return nil, err
	}

	var listing *model.ElementListing
	switch domain {
	case model.SyncDomainTracker:
		listing, err = s.listTrackerElements(ctx, inst, targetID)
	case model.SyncDomainAggregate:
		listing, err = s.listAggregateElements(ctx, inst, targetID)
	default:
		return nil, ErrUnknownDomain
	}
	if err != nil {
		return nil, err
	}

	if err := s.metadata.SetListing(ctx, instanceKey, domain, targetID, listing); err != nil {
		log.Printf("[Mapping] Warning: metadata cache write failed: %v", err)
	}
	return listing, nil
}

func (s *MappingService) listTrackerElements(ctx context.Context, inst *model.DHIS2Instance, programID string) (*model.ElementListing, error) {
	program, err := s.client.GetProgram(ctx, inst, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch program %s: %w", programID, err)
	}

	listing := &model.ElementListing{}
	seen := make(map[string]*model.RemoteElement)
	conflicts := make(map[string]*model.ElementConflict)

	for _, stage := range program.ProgramStages {
		for _, psde := range stage.ProgramStageDataElements {
			de := psde.DataElement
			element := remoteElement(de, stage.ID, false)

			prev, ok := seen[de.ID]
			if !ok {
				seen[de.ID] = &element
				listing.Elements = append(listing.Elements, element)
				continue
			}
			if sameElementMeta(prev, &element) {
				continue // identical duplicate across stages, keep the first
			}
			c, ok := conflicts[de.ID]
			if !ok {
				c = &model.ElementConflict{
					ElementID: de.ID,
					StageIDs:  []string{prev.StageID},
					Names:     []string{prev.Name},
				}
				conflicts[de.ID] = c
			}
			c.StageIDs = append(c.StageIDs, element.StageID)
			c.Names = append(c.Names, element.Name)
		}
	}

	for _, ptea := range program.ProgramTrackedEntityAttributes {
		attr := ptea.TrackedEntityAttribute
		if _, ok := seen[attr.ID]; ok {
			continue
		}
		element := remoteElement(attr, "", true)
		seen[attr.ID] = &element
		listing.Elements = append(listing.Elements, element)
	}

	for _, c := range conflicts {
		listing.Conflicts = append(listing.Conflicts, *c)
	}
	sort.Slice(listing.Conflicts, func(i, j int) bool {
		return listing.Conflicts[i].ElementID < listing.Conflicts[j].ElementID
	})
	if len(listing.Conflicts) > 0 {
		log.Printf("[Mapping] Program %s: %d data element(s) appear in multiple stages with differing metadata",
			programID, len(listing.Conflicts))
	}
	return listing, nil
}

func (s *MappingService) listAggregateElements(ctx context.Context, inst *model.DHIS2Instance, dataSetID string) (*model.ElementListing, error) {
	dataSet, err := s.client.GetDataSet(ctx, inst, dataSetID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset %s: %w", dataSetID, err)
	}

	listing := &model.ElementListing{}
	seen := make(map[string]bool)
	for _, dse := range dataSet.DataSetElements {
		de := dse.DataElement
		if seen[de.ID] {
			continue
		}
		seen[de.ID] = true
		listing.Elements = append(listing.Elements, remoteElement(de, "", false))
	}
	return listing, nil
}

func remoteElement(de DHIS2DataElement, stageID string, isAttribute bool) model.RemoteElement {
	element := model.RemoteElement{
		ID:          de.ID,
		Name:        de.Name,
		ValueType:   de.ValueType,
		StageID:     stageID,
		IsAttribute: isAttribute,
	}
	if de.OptionSet != nil {
		element.OptionSet = &model.RemoteOptionSet{
			ID:   de.OptionSet.ID,
			Name: de.OptionSet.Name,
		}
	}
	return element
}

func sameElementMeta(a, b *model.RemoteElement) bool {
	if a.Name != b.Name || a.ValueType != b.ValueType {
		return false
	}
	aSet, bSet := "", ""
	if a.OptionSet != nil {
		aSet = a.OptionSet.ID
	}
	if b.OptionSet != nil {
		bSet = b.OptionSet.ID
	}
	return aSet == bSet
}

// FindExistingMappings reverse-looks-up which of the given remote
// elements are already bound to some local question, across all
// surveys. The view warns operators about duplicate bindings; it does
// not prevent them.
func (s *MappingService) FindExistingMappings(ctx context.Context, elements []model.RemoteElement) ([]model.ExistingMapping, error) {
	elementIDs := make([]string, 0, len(elements))
	elementNames := make(map[string]string, len(elements))
	for _, e := range elements {
		elementIDs = append(elementIDs, e.ID)
		elementNames[e.ID] = e.Name
	}

	mappings, err := s.mappings.GetByElementIDs(ctx, elementIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to look up mappings: %w", err)
	}
	if len(mappings) == 0 {
		return nil, nil
	}

	questionIDs := make([]string, 0, len(mappings))
	for _, m := range mappings {
		questionIDs = append(questionIDs, m.QuestionID)
	}
	questions, err := s.questions.GetByIDs(ctx, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapped questions: %w", err)
	}

	var result []model.ExistingMapping
	for _, m := range mappings {
		row := model.ExistingMapping{
			DataElementID:    m.DataElementID,
			DataElementLabel: elementNames[m.DataElementID],
			QuestionID:       m.QuestionID,
		}
		if q, ok := questions[m.QuestionID]; ok {
			row.QuestionLabel = q.Label
		}

		links, err := s.surveys.FindByQuestionID(ctx, m.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("failed to find surveys for question %s: %w", m.QuestionID, err)
		}
		if len(links) > 0 {
			row.SurveyID = links[0].SurveyID
			if survey, err := s.surveys.GetByID(ctx, links[0].SurveyID); err == nil && survey != nil {
				row.SurveyName = survey.Name
			}
		}
		result = append(result, row)
	}
	return result, nil
}

// SaveSingleMapping binds a question to a data element, or unmaps it
// when elementID is empty. Saving is an explicit upsert keyed by
// question ID, so repeating a save changes nothing.
func (s *MappingService) SaveSingleMapping(ctx context.Context, questionID, elementID, optionSetID string) error {
	if elementID == "" {
		if err := s.mappings.Delete(ctx, questionID); err != nil {
			return fmt.Errorf("failed to unmap question %s: %w", questionID, err)
		}
		return nil
	}
	m := &model.QuestionMapping{
		QuestionID:    questionID,
		DataElementID: elementID,
		OptionSetID:   optionSetID,
	}
	if err := s.mappings.Upsert(ctx, m); err != nil {
		return fmt.Errorf("failed to save mapping for question %s: %w", questionID, err)
	}
	return nil
}

// SaveBulkMapping applies a batch of bindings as one all-or-nothing
// transaction. Entries with an empty element ID unmap their question.
func (s *MappingService) SaveBulkMapping(ctx context.Context, bindings map[string]model.MappingBinding) error {
	if err := s.mappings.SaveBulk(ctx, bindings); err != nil {
		return fmt.Errorf("bulk mapping save failed: %w", err)
	}
	return nil
}

// SaveOptionSetTranslations replaces the code translation table for a
// remote option set.
func (s *MappingService) SaveOptionSetTranslations(ctx context.Context, optionSetID string, pairs []model.OptionSetMapping) error {
	return s.mappings.ReplaceOptionSetMappings(ctx, optionSetID, pairs)
}

// ListPrograms and ListDataSets back the admin's dependent dropdowns.
// Each call fails independently so one selector degrading does not take
// the others down with it.
func (s *MappingService) ListPrograms(ctx context.Context, instanceKey string) ([]DHIS2Ref, error) {
	inst, err := s.instance(ctx, instanceKey)
	if err != nil {
		return nil, err
	}
	return s.client.ListPrograms(ctx, inst)
}

func (s *MappingService) ListDataSets(ctx context.Context, instanceKey string) ([]DHIS2Ref, error) {
	inst, err := s.instance(ctx, instanceKey)
	if err != nil {
		return nil, err
	}
	return s.client.ListDataSets(ctx, inst)
}
