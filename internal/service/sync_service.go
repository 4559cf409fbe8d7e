package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"healthsurveys/internal/model"
	"healthsurveys/internal/repository"

	"github.com/google/uuid"
)

// SyncService runs DHIS2 metadata imports as persisted jobs: remote
// data elements become local questions and option sets. Progress lives
// in a job record any client can poll; the processed counter is
// monotonic and terminal states are absorbing.
type SyncService struct {
	jobs        repository.SyncJobRepo
	client      *DHIS2Client
	instances   repository.InstanceRepo
	questions   repository.QuestionRepo
	optionSets  repository.OptionSetRepo
	mappings    repository.MappingRepo
	broadcaster Broadcaster
}

// NewSyncService creates a new sync service
func NewSyncService(
	jobs repository.SyncJobRepo,
	client *DHIS2Client,
	instances repository.InstanceRepo,
	questions repository.QuestionRepo,
	optionSets repository.OptionSetRepo,
	mappings repository.MappingRepo,
) *SyncService {
	return &SyncService{
		jobs:       jobs,
		client:     client,
		instances:  instances,
		questions:  questions,
		optionSets: optionSets,
		mappings:   mappings,
	}
}

// SetBroadcaster sets the progress broadcaster
func (s *SyncService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// StartImport creates a job record and runs the import in the
// background. The returned job is in the ready state; callers poll
// Status or subscribe over WebSocket for progress.
func (s *SyncService) StartImport(ctx context.Context, instanceKey string, domain model.SyncDomain, targetID string) (*model.SyncJob, error) {
	if domain != model.SyncDomainTracker && domain != model.SyncDomainAggregate {
		return nil, ErrUnknownDomain
	}
	inst, err := s.instances.GetByKey(ctx, instanceKey)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrInstanceNotFound
	}

	job := &model.SyncJob{
		ID:          uuid.New().String(),
		InstanceKey: instanceKey,
		Domain:      domain,
		TargetID:    targetID,
		Status:      model.SyncStatusReady,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create sync job: %w", err)
	}

	go s.run(job, inst)
	return job, nil
}

// Status returns the current job record.
func (s *SyncService) Status(ctx context.Context, jobID string) (*model.SyncJob, error) {
	return s.jobs.GetByID(ctx, jobID)
}

func (s *SyncService) run(job *model.SyncJob, inst *model.DHIS2Instance) {
	// Detached from the request context; the job outlives it.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	log.Printf("[Sync] Job %s: importing %s %s from instance %s", job.ID, job.Domain, job.TargetID, job.InstanceKey)
	s.transition(ctx, job, model.SyncStatusProcessing, "")

	elements, err := s.fetchElements(ctx, inst, job)
	if err != nil {
		log.Printf("[Sync] Job %s: fetch failed: %v", job.ID, err)
		s.transition(ctx, job, model.SyncStatusError, err.Error())
		return
	}

	s.transition(ctx, job, model.SyncStatusImporting, "")
	job.Total = len(elements)

	for i, element := range elements {
		if err := s.importElement(ctx, inst, element); err != nil {
			log.Printf("[Sync] Job %s: import of element %s failed: %v", job.ID, element.ID, err)
			s.transition(ctx, job, model.SyncStatusError, err.Error())
			return
		}
		job.Processed = i + 1
		if err := s.jobs.SetProgress(ctx, job.ID, job.Processed, job.Total); err != nil {
			log.Printf("[Sync] Job %s: warning: progress update failed: %v", job.ID, err)
		}
		s.notify(job)
	}

	s.transition(ctx, job, model.SyncStatusComplete, fmt.Sprintf("%d elements imported", job.Total))
	log.Printf("[Sync] Job %s: complete, %d elements", job.ID, job.Total)
}

func (s *SyncService) fetchElements(ctx context.Context, inst *model.DHIS2Instance, job *model.SyncJob) ([]DHIS2DataElement, error) {
	var elements []DHIS2DataElement
	seen := make(map[string]bool)

	switch job.Domain {
	case model.SyncDomainTracker:
		program, err := s.client.GetProgram(ctx, inst, job.TargetID)
		if err != nil {
			return nil, err
		}
		for _, stage := range program.ProgramStages {
			for _, psde := range stage.ProgramStageDataElements {
				if !seen[psde.DataElement.ID] {
					seen[psde.DataElement.ID] = true
					elements = append(elements, psde.DataElement)
				}
			}
		}
		for _, ptea := range program.ProgramTrackedEntityAttributes {
			if !seen[ptea.TrackedEntityAttribute.ID] {
				seen[ptea.TrackedEntityAttribute.ID] = true
				elements = append(elements, ptea.TrackedEntityAttribute)
			}
		}
	case model.SyncDomainAggregate:
		dataSet, err := s.client.GetDataSet(ctx, inst, job.TargetID)
		if err != nil {
			return nil, err
		}
		for _, dse := range dataSet.DataSetElements {
			if !seen[dse.DataElement.ID] {
				seen[dse.DataElement.ID] = true
				elements = append(elements, dse.DataElement)
			}
		}
	}
	return elements, nil
}

// importElement upserts a local question (and option set, if linked)
// for a remote data element, then records the mapping.
func (s *SyncService) importElement(ctx context.Context, inst *model.DHIS2Instance, element DHIS2DataElement) error {
	optionSetID := ""
	if element.OptionSet != nil {
		remote, err := s.client.GetOptionSet(ctx, inst, element.OptionSet.ID)
		if err != nil {
			return fmt.Errorf("option set %s: %w", element.OptionSet.ID, err)
		}
		values := make([]model.OptionValue, 0, len(remote.Options))
		for _, opt := range remote.Options {
			values = append(values, model.OptionValue{
				ID:    opt.ID,
				Value: opt.Name,
			})
		}
		set := &model.OptionSet{
			ID:     remote.ID,
			Name:   remote.Name,
			Values: values,
		}
		if err := s.optionSets.Upsert(ctx, set); err != nil {
			return fmt.Errorf("option set %s: %w", remote.ID, err)
		}
		optionSetID = set.ID
	}

	question := &model.Question{
		ID:          element.ID,
		Label:       element.Name,
		Type:        questionTypeFor(element.ValueType, optionSetID),
		OptionSetID: optionSetID,
	}
	if err := s.questions.Upsert(ctx, question); err != nil {
		return fmt.Errorf("question %s: %w", element.ID, err)
	}

	mapping := &model.QuestionMapping{
		QuestionID:    question.ID,
		DataElementID: element.ID,
		OptionSetID:   optionSetID,
	}
	return s.mappings.Upsert(ctx, mapping)
}

// questionTypeFor maps a DHIS2 value type to the local widget type.
// Elements with an option set always render as a dropdown.
func questionTypeFor(valueType, optionSetID string) model.QuestionType {
	if optionSetID != "" {
		return model.QuestionTypeSelect
	}
	switch valueType {
	case "LONG_TEXT":
		return model.QuestionTypeTextarea
	case "BOOLEAN", "TRUE_ONLY":
		return model.QuestionTypeRadio
	default:
		return model.QuestionTypeText
	}
}

func (s *SyncService) transition(ctx context.Context, job *model.SyncJob, status model.SyncJobStatus, message string) {
	if job.Status.Terminal() {
		return
	}
	job.Status = status
	job.Message = message
	if err := s.jobs.SetStatus(ctx, job.ID, status, message); err != nil {
		log.Printf("[Sync] Job %s: warning: status update failed: %v", job.ID, err)
	}
	s.notify(job)
}

func (s *SyncService) notify(job *model.SyncJob) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastSyncProgress(job)
	}
}
