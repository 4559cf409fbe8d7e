package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"healthsurveys/internal/model"
)

type syncFixture struct {
	svc         *SyncService
	jobs        *mockSyncJobRepo
	questions   *mockQuestionRepo
	optionSets  *mockOptionSetRepo
	mappings    *mockMappingRepo
	broadcaster *recordingBroadcaster
	instance    *model.DHIS2Instance
}

func newSyncFixture(ts *httptest.Server) *syncFixture {
	f := &syncFixture{
		jobs:        newMockSyncJobRepo(),
		questions:   newMockQuestionRepo(),
		optionSets:  newMockOptionSetRepo(),
		mappings:    newMockMappingRepo(),
		broadcaster: &recordingBroadcaster{},
		instance:    testInstance(ts.URL),
	}
	f.svc = NewSyncService(
		f.jobs,
		testClient(),
		newMockInstanceRepo(f.instance),
		f.questions,
		f.optionSets,
		f.mappings,
	)
	f.svc.SetBroadcaster(f.broadcaster)
	return f
}

// newJob creates a persisted job the way StartImport would, so run can
// be driven synchronously.
func (f *syncFixture) newJob(t *testing.T, domain model.SyncDomain, targetID string) *model.SyncJob {
	t.Helper()
	job := &model.SyncJob{
		ID:          "job1",
		InstanceKey: f.instance.Key,
		Domain:      domain,
		TargetID:    targetID,
		Status:      model.SyncStatusReady,
	}
	if err := f.jobs.Create(context.Background(), job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}

func TestStartImportValidation(t *testing.T) {
	ts := dhis2Stub(t, nil)
	defer ts.Close()

	f := newSyncFixture(ts)
	ctx := context.Background()

	if _, err := f.svc.StartImport(ctx, "test", "event", "x"); !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("bad domain: got %v, want ErrUnknownDomain", err)
	}
	if _, err := f.svc.StartImport(ctx, "missing", model.SyncDomainTracker, "x"); !errors.Is(err, ErrInstanceNotFound) {
		t.Errorf("missing instance: got %v, want ErrInstanceNotFound", err)
	}
}

func TestSyncRunImportsTrackerProgram(t *testing.T) {
	ts := dhis2Stub(t, map[string]string{
		"/api/programs/prog1": `{
			"id": "prog1", "name": "Immunization",
			"programStages": [
				{"id": "stage1", "programStageDataElements": [
					{"dataElement": {"id": "de1", "name": "Notes", "valueType": "LONG_TEXT"}},
					{"dataElement": {"id": "de2", "name": "Vaccine", "valueType": "TEXT", "optionSet": {"id": "os1", "name": "Vaccines"}}}
				]}
			],
			"programTrackedEntityAttributes": [
				{"trackedEntityAttribute": {"id": "attr1", "name": "Consent", "valueType": "BOOLEAN"}}
			]
		}`,
		"/api/optionSets/os1": `{
			"id": "os1", "name": "Vaccines",
			"options": [
				{"id": "o1", "code": "BCG", "name": "BCG"},
				{"id": "o2", "code": "MMR", "name": "MMR"}
			]
		}`,
	})
	defer ts.Close()

	f := newSyncFixture(ts)
	job := f.newJob(t, model.SyncDomainTracker, "prog1")

	f.svc.run(job, f.instance)

	stored, _ := f.jobs.GetByID(context.Background(), job.ID)
	if stored.Status != model.SyncStatusComplete {
		t.Fatalf("status = %s (%s), want complete", stored.Status, stored.Message)
	}
	if stored.Processed != 3 || stored.Total != 3 {
		t.Errorf("progress = %d/%d, want 3/3", stored.Processed, stored.Total)
	}

	// The remote schema landed as local questions with mapped types.
	if q := f.questions.questions["de1"]; q == nil || q.Type != model.QuestionTypeTextarea {
		t.Errorf("de1 question = %+v, want textarea", q)
	}
	if q := f.questions.questions["de2"]; q == nil || q.Type != model.QuestionTypeSelect || q.OptionSetID != "os1" {
		t.Errorf("de2 question = %+v, want select with os1", q)
	}
	if q := f.questions.questions["attr1"]; q == nil || q.Type != model.QuestionTypeRadio {
		t.Errorf("attr1 question = %+v, want radio", q)
	}

	set := f.optionSets.sets["os1"]
	if set == nil || len(set.Values) != 2 || set.Values[0].Value != "BCG" {
		t.Errorf("option set = %+v", set)
	}

	if m := f.mappings.rows["de2"]; m == nil || m.DataElementID != "de2" || m.OptionSetID != "os1" {
		t.Errorf("de2 mapping = %+v", m)
	}

	// Lifecycle broadcast: processing first, complete last, progress in between.
	states := f.broadcaster.jobs
	if len(states) < 4 {
		t.Fatalf("broadcasts = %d, want at least 4", len(states))
	}
	if states[0].Status != model.SyncStatusProcessing {
		t.Errorf("first broadcast = %s, want processing", states[0].Status)
	}
	if last := states[len(states)-1]; last.Status != model.SyncStatusComplete {
		t.Errorf("last broadcast = %s, want complete", last.Status)
	}
}

func TestSyncRunErrorState(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "boom"}`, http.StatusInternalServerError)
	}))
	defer ts.Close()

	f := newSyncFixture(ts)
	job := f.newJob(t, model.SyncDomainAggregate, "ds1")

	f.svc.run(job, f.instance)

	stored, _ := f.jobs.GetByID(context.Background(), job.ID)
	if stored.Status != model.SyncStatusError {
		t.Fatalf("status = %s, want error", stored.Status)
	}
	if stored.Message == "" {
		t.Error("error state should carry a message")
	}
	if len(f.questions.questions) != 0 {
		t.Errorf("failed fetch must not import questions, got %d", len(f.questions.questions))
	}
}

func TestSyncTransitionTerminalIsAbsorbing(t *testing.T) {
	ts := dhis2Stub(t, nil)
	defer ts.Close()

	f := newSyncFixture(ts)
	job := f.newJob(t, model.SyncDomainTracker, "prog1")
	ctx := context.Background()

	f.svc.transition(ctx, job, model.SyncStatusError, "fetch failed")
	f.svc.transition(ctx, job, model.SyncStatusComplete, "")

	if job.Status != model.SyncStatusError {
		t.Errorf("status = %s, terminal error must absorb later transitions", job.Status)
	}
	stored, _ := f.jobs.GetByID(ctx, job.ID)
	if stored.Status != model.SyncStatusError || stored.Message != "fetch failed" {
		t.Errorf("stored = %s %q", stored.Status, stored.Message)
	}
}

func TestSyncProgressMonotonic(t *testing.T) {
	jobs := newMockSyncJobRepo()
	ctx := context.Background()
	jobs.Create(ctx, &model.SyncJob{ID: "j", Status: model.SyncStatusImporting})

	jobs.SetProgress(ctx, "j", 5, 10)
	jobs.SetProgress(ctx, "j", 3, 10) // stale update from a lagging writer
	jobs.SetProgress(ctx, "j", 7, 10)

	job, _ := jobs.GetByID(ctx, "j")
	if job.Processed != 7 {
		t.Errorf("processed = %d, want 7 (counter never regresses)", job.Processed)
	}
}

func TestQuestionTypeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		valueType   string
		optionSetID string
		want        model.QuestionType
	}{
		{"TEXT", "os1", model.QuestionTypeSelect},
		{"LONG_TEXT", "", model.QuestionTypeTextarea},
		{"BOOLEAN", "", model.QuestionTypeRadio},
		{"TRUE_ONLY", "", model.QuestionTypeRadio},
		{"NUMBER", "", model.QuestionTypeText},
		{"TEXT", "", model.QuestionTypeText},
	}
	for _, tt := range tests {
		if got := questionTypeFor(tt.valueType, tt.optionSetID); got != tt.want {
			t.Errorf("questionTypeFor(%s, %q) = %s, want %s", tt.valueType, tt.optionSetID, got, tt.want)
		}
	}
}
