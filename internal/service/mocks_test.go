package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"healthsurveys/internal/model"
)

// In-memory test doubles for the repository and cache interfaces.

type mockInstanceRepo struct {
	instances map[string]*model.DHIS2Instance
}

func newMockInstanceRepo(instances ...*model.DHIS2Instance) *mockInstanceRepo {
	r := &mockInstanceRepo{instances: map[string]*model.DHIS2Instance{}}
	for _, inst := range instances {
		r.instances[inst.Key] = inst
	}
	return r
}

func (r *mockInstanceRepo) Create(ctx context.Context, inst *model.DHIS2Instance) error {
	r.instances[inst.Key] = inst
	return nil
}

func (r *mockInstanceRepo) GetByKey(ctx context.Context, key string) (*model.DHIS2Instance, error) {
	return r.instances[key], nil
}

func (r *mockInstanceRepo) List(ctx context.Context) ([]*model.DHIS2Instance, error) {
	var out []*model.DHIS2Instance
	for _, inst := range r.instances {
		out = append(out, inst)
	}
	return out, nil
}

func (r *mockInstanceRepo) Update(ctx context.Context, inst *model.DHIS2Instance) error {
	r.instances[inst.Key] = inst
	return nil
}

func (r *mockInstanceRepo) Delete(ctx context.Context, key string) error {
	delete(r.instances, key)
	return nil
}

type mockQuestionRepo struct {
	questions map[string]*model.Question
}

func newMockQuestionRepo(questions ...*model.Question) *mockQuestionRepo {
	r := &mockQuestionRepo{questions: map[string]*model.Question{}}
	for _, q := range questions {
		r.questions[q.ID] = q
	}
	return r
}

func (r *mockQuestionRepo) Create(ctx context.Context, q *model.Question) error {
	r.questions[q.ID] = q
	return nil
}

func (r *mockQuestionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	return r.questions[id], nil
}

func (r *mockQuestionRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.Question, error) {
	out := map[string]*model.Question{}
	for _, id := range ids {
		if q, ok := r.questions[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (r *mockQuestionRepo) List(ctx context.Context) ([]*model.Question, error) {
	var out []*model.Question
	for _, q := range r.questions {
		out = append(out, q)
	}
	return out, nil
}

func (r *mockQuestionRepo) Update(ctx context.Context, q *model.Question) error {
	r.questions[q.ID] = q
	return nil
}

func (r *mockQuestionRepo) Delete(ctx context.Context, id string) error {
	delete(r.questions, id)
	return nil
}

func (r *mockQuestionRepo) Upsert(ctx context.Context, q *model.Question) error {
	r.questions[q.ID] = q
	return nil
}

type mockOptionSetRepo struct {
	sets map[string]*model.OptionSet
}

func newMockOptionSetRepo(sets ...*model.OptionSet) *mockOptionSetRepo {
	r := &mockOptionSetRepo{sets: map[string]*model.OptionSet{}}
	for _, set := range sets {
		r.sets[set.ID] = set
	}
	return r
}

func (r *mockOptionSetRepo) Create(ctx context.Context, set *model.OptionSet) error {
	r.sets[set.ID] = set
	return nil
}

func (r *mockOptionSetRepo) GetByID(ctx context.Context, id string) (*model.OptionSet, error) {
	return r.sets[id], nil
}

func (r *mockOptionSetRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.OptionSet, error) {
	out := map[string]*model.OptionSet{}
	for _, id := range ids {
		if set, ok := r.sets[id]; ok {
			out[id] = set
		}
	}
	return out, nil
}

func (r *mockOptionSetRepo) List(ctx context.Context) ([]*model.OptionSet, error) {
	var out []*model.OptionSet
	for _, set := range r.sets {
		out = append(out, set)
	}
	return out, nil
}

func (r *mockOptionSetRepo) Update(ctx context.Context, set *model.OptionSet) error {
	r.sets[set.ID] = set
	return nil
}

func (r *mockOptionSetRepo) Delete(ctx context.Context, id string) error {
	delete(r.sets, id)
	return nil
}

func (r *mockOptionSetRepo) Upsert(ctx context.Context, set *model.OptionSet) error {
	r.sets[set.ID] = set
	return nil
}

type mockMappingRepo struct {
	rows       map[string]*model.QuestionMapping
	optionMaps map[string][]model.OptionSetMapping

	// bulkErr makes SaveBulk fail without touching rows, mirroring the
	// rollback behavior of the real transaction.
	bulkErr error
}

func newMockMappingRepo() *mockMappingRepo {
	return &mockMappingRepo{
		rows:       map[string]*model.QuestionMapping{},
		optionMaps: map[string][]model.OptionSetMapping{},
	}
}

func (r *mockMappingRepo) GetByQuestionID(ctx context.Context, questionID string) (*model.QuestionMapping, error) {
	return r.rows[questionID], nil
}

func (r *mockMappingRepo) GetByElementIDs(ctx context.Context, elementIDs []string) ([]*model.QuestionMapping, error) {
	wanted := map[string]bool{}
	for _, id := range elementIDs {
		wanted[id] = true
	}
	var out []*model.QuestionMapping
	for _, m := range r.rows {
		if wanted[m.DataElementID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *mockMappingRepo) Upsert(ctx context.Context, m *model.QuestionMapping) error {
	m.UpdatedAt = time.Now()
	r.rows[m.QuestionID] = m
	return nil
}

func (r *mockMappingRepo) Delete(ctx context.Context, questionID string) error {
	delete(r.rows, questionID)
	return nil
}

func (r *mockMappingRepo) SaveBulk(ctx context.Context, bindings map[string]model.MappingBinding) error {
	if r.bulkErr != nil {
		return r.bulkErr
	}
	for questionID, binding := range bindings {
		delete(r.rows, questionID)
		if binding.DataElementID != "" {
			r.rows[questionID] = &model.QuestionMapping{
				QuestionID:    questionID,
				DataElementID: binding.DataElementID,
				OptionSetID:   binding.OptionSetID,
			}
		}
	}
	return nil
}

func (r *mockMappingRepo) ReplaceOptionSetMappings(ctx context.Context, optionSetID string, pairs []model.OptionSetMapping) error {
	r.optionMaps[optionSetID] = pairs
	return nil
}

func (r *mockMappingRepo) GetOptionSetMappings(ctx context.Context, optionSetID string) ([]model.OptionSetMapping, error) {
	return r.optionMaps[optionSetID], nil
}

type mockSurveyRepo struct {
	surveys map[string]*model.Survey
	links   []model.SurveyQuestion
}

func newMockSurveyRepo(surveys ...*model.Survey) *mockSurveyRepo {
	r := &mockSurveyRepo{surveys: map[string]*model.Survey{}}
	for _, s := range surveys {
		r.surveys[s.ID] = s
	}
	return r
}

func (r *mockSurveyRepo) Create(ctx context.Context, survey *model.Survey) error {
	r.surveys[survey.ID] = survey
	return nil
}

func (r *mockSurveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	return r.surveys[id], nil
}

func (r *mockSurveyRepo) List(ctx context.Context) ([]*model.Survey, error) {
	var out []*model.Survey
	for _, s := range r.surveys {
		out = append(out, s)
	}
	return out, nil
}

func (r *mockSurveyRepo) Update(ctx context.Context, survey *model.Survey) error {
	r.surveys[survey.ID] = survey
	return nil
}

func (r *mockSurveyRepo) Delete(ctx context.Context, id string) error {
	delete(r.surveys, id)
	return nil
}

func (r *mockSurveyRepo) SetQuestions(ctx context.Context, surveyID string, questionIDs []string) error {
	kept := r.links[:0]
	for _, link := range r.links {
		if link.SurveyID != surveyID {
			kept = append(kept, link)
		}
	}
	r.links = kept
	for i, qid := range questionIDs {
		r.links = append(r.links, model.SurveyQuestion{
			SurveyID:   surveyID,
			QuestionID: qid,
			Position:   i + 1,
		})
	}
	return nil
}

func (r *mockSurveyRepo) GetQuestions(ctx context.Context, surveyID string) ([]model.SurveyQuestion, error) {
	var out []model.SurveyQuestion
	for _, link := range r.links {
		if link.SurveyID == surveyID {
			out = append(out, link)
		}
	}
	return out, nil
}

func (r *mockSurveyRepo) FindByQuestionID(ctx context.Context, questionID string) ([]model.SurveyQuestion, error) {
	var out []model.SurveyQuestion
	for _, link := range r.links {
		if link.QuestionID == questionID {
			out = append(out, link)
		}
	}
	return out, nil
}

type mockSubmissionRepo struct {
	submissions map[string]*model.Submission
	tracker     []*model.TrackerSubmission
	answered    map[string]bool // questionID -> has submissions
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{
		submissions: map[string]*model.Submission{},
		answered:    map[string]bool{},
	}
}

func (r *mockSubmissionRepo) Create(ctx context.Context, s *model.Submission) error {
	if _, ok := r.submissions[s.UID]; ok {
		return errors.New("duplicate uid")
	}
	r.submissions[s.UID] = s
	for _, resp := range s.Responses {
		r.answered[resp.QuestionID] = true
	}
	return nil
}

func (r *mockSubmissionRepo) GetByUID(ctx context.Context, uid string) (*model.Submission, error) {
	return r.submissions[uid], nil
}

func (r *mockSubmissionRepo) ListBySurvey(ctx context.Context, surveyID string) ([]*model.Submission, error) {
	var out []*model.Submission
	for _, s := range r.submissions {
		if s.SurveyID == surveyID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *mockSubmissionRepo) Delete(ctx context.Context, uid string) error {
	delete(r.submissions, uid)
	return nil
}

func (r *mockSubmissionRepo) CountBySurvey(ctx context.Context, surveyID string) (int64, error) {
	var n int64
	for _, s := range r.submissions {
		if s.SurveyID == surveyID {
			n++
		}
	}
	return n, nil
}

func (r *mockSubmissionRepo) ExistsForQuestion(ctx context.Context, questionID string) (bool, error) {
	return r.answered[questionID], nil
}

func (r *mockSubmissionRepo) CreateTracker(ctx context.Context, s *model.TrackerSubmission) error {
	r.tracker = append(r.tracker, s)
	return nil
}

func (r *mockSubmissionRepo) ListTrackerBySurvey(ctx context.Context, surveyID string) ([]*model.TrackerSubmission, error) {
	var out []*model.TrackerSubmission
	for _, s := range r.tracker {
		if s.SurveyID == surveyID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *mockSubmissionRepo) DeleteTracker(ctx context.Context, uid string) error {
	for i, s := range r.tracker {
		if s.UID == uid {
			r.tracker = append(r.tracker[:i], r.tracker[i+1:]...)
			return nil
		}
	}
	return nil
}

type mockSyncJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.SyncJob
}

func newMockSyncJobRepo() *mockSyncJobRepo {
	return &mockSyncJobRepo{jobs: map[string]*model.SyncJob{}}
}

func (r *mockSyncJobRepo) Create(ctx context.Context, job *model.SyncJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *job
	r.jobs[job.ID] = &stored
	return nil
}

func (r *mockSyncJobRepo) GetByID(ctx context.Context, id string) (*model.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	out := *job
	return &out, nil
}

func (r *mockSyncJobRepo) SetStatus(ctx context.Context, id string, status model.SyncJobStatus, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	job.Status = status
	job.Message = message
	return nil
}

func (r *mockSyncJobRepo) SetProgress(ctx context.Context, id string, processed, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	if processed > job.Processed {
		job.Processed = processed
	}
	job.Total = total
	return nil
}

type mockLocationRepo struct {
	locations []model.Location
	paths     map[string]string
	listErr   error
}

func (r *mockLocationRepo) GetByID(ctx context.Context, id string) (*model.Location, error) {
	for i := range r.locations {
		if r.locations[i].ID == id {
			return &r.locations[i], nil
		}
	}
	return nil, nil
}

func (r *mockLocationRepo) ListByInstanceLevel(ctx context.Context, instanceKey string, hierarchyLevel int) ([]model.Location, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []model.Location
	for _, loc := range r.locations {
		if loc.InstanceKey == instanceKey && loc.HierarchyLevel == hierarchyLevel {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (r *mockLocationRepo) Path(ctx context.Context, id string) (string, error) {
	if p, ok := r.paths[id]; ok {
		return p, nil
	}
	return "", fmt.Errorf("no path for %s", id)
}

func (r *mockLocationRepo) UpsertMany(ctx context.Context, locations []model.Location) error {
	for _, loc := range locations {
		replaced := false
		for i := range r.locations {
			if r.locations[i].ID == loc.ID {
				r.locations[i] = loc
				replaced = true
				break
			}
		}
		if !replaced {
			r.locations = append(r.locations, loc)
		}
	}
	return nil
}

type mockLocationCache struct {
	entries map[string][]model.Location
}

func newMockLocationCache() *mockLocationCache {
	return &mockLocationCache{entries: map[string][]model.Location{}}
}

func (c *mockLocationCache) cacheKey(instanceKey string, level int) string {
	return fmt.Sprintf("%s:%d", instanceKey, level)
}

func (c *mockLocationCache) Get(ctx context.Context, instanceKey string, hierarchyLevel int) ([]model.Location, error) {
	return c.entries[c.cacheKey(instanceKey, hierarchyLevel)], nil
}

func (c *mockLocationCache) Set(ctx context.Context, instanceKey string, hierarchyLevel int, locations []model.Location) error {
	c.entries[c.cacheKey(instanceKey, hierarchyLevel)] = locations
	return nil
}

func (c *mockLocationCache) Invalidate(ctx context.Context, instanceKey string, hierarchyLevel int) error {
	delete(c.entries, c.cacheKey(instanceKey, hierarchyLevel))
	return nil
}

type mockMetadataCache struct {
	listings map[string]*model.ElementListing
}

func newMockMetadataCache() *mockMetadataCache {
	return &mockMetadataCache{listings: map[string]*model.ElementListing{}}
}

func (c *mockMetadataCache) cacheKey(instanceKey string, domain model.SyncDomain, targetID string) string {
	return fmt.Sprintf("%s:%s:%s", instanceKey, domain, targetID)
}

func (c *mockMetadataCache) GetListing(ctx context.Context, instanceKey string, domain model.SyncDomain, targetID string) (*model.ElementListing, error) {
	return c.listings[c.cacheKey(instanceKey, domain, targetID)], nil
}

func (c *mockMetadataCache) SetListing(ctx context.Context, instanceKey string, domain model.SyncDomain, targetID string, listing *model.ElementListing) error {
	c.listings[c.cacheKey(instanceKey, domain, targetID)] = listing
	return nil
}

func (c *mockMetadataCache) Invalidate(ctx context.Context, instanceKey string, domain model.SyncDomain, targetID string) error {
	delete(c.listings, c.cacheKey(instanceKey, domain, targetID))
	return nil
}

type mockSessionCache struct {
	sessions map[string]*model.FormSession
}

func newMockSessionCache() *mockSessionCache {
	return &mockSessionCache{sessions: map[string]*model.FormSession{}}
}

func (c *mockSessionCache) Get(ctx context.Context, sessionID string) (*model.FormSession, error) {
	return c.sessions[sessionID], nil
}

func (c *mockSessionCache) Set(ctx context.Context, session *model.FormSession) error {
	c.sessions[session.ID] = session
	return nil
}

func (c *mockSessionCache) Delete(ctx context.Context, sessionID string) error {
	delete(c.sessions, sessionID)
	return nil
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	jobs []model.SyncJob
}

func (b *recordingBroadcaster) BroadcastSyncProgress(job *model.SyncJob) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = append(b.jobs, *job)
}

// testInstance builds an instance record pointing at a test server.
func testInstance(baseURL string) *model.DHIS2Instance {
	inst := &model.DHIS2Instance{
		Key:      "test",
		Name:     "Test Instance",
		BaseURL:  baseURL,
		Username: "admin",
	}
	inst.SetPassword("district")
	return inst
}

// testClient builds a DHIS2 client without retry sleeps dominating
// failure-path tests.
func testClient() *DHIS2Client {
	return &DHIS2Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		maxRetries: 2,
	}
}
