package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"healthsurveys/internal/model"
)

// dhis2Stub serves canned DHIS2 API responses keyed by path prefix.
func dhis2Stub(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		for prefix, body := range responses {
			if strings.HasPrefix(r.URL.Path, prefix) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(body))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func newTestMappingService(ts *httptest.Server) (*MappingService, *mockMappingRepo) {
	mappings := newMockMappingRepo()
	svc := NewMappingService(
		testClient(),
		newMockInstanceRepo(testInstance(ts.URL)),
		mappings,
		newMockQuestionRepo(),
		newMockSurveyRepo(),
		newMockMetadataCache(),
	)
	return svc, mappings
}

const trackerProgramJSON = `{
	"id": "prog1", "name": "Immunization",
	"programStages": [
		{"id": "stage1", "name": "Visit 1", "programStageDataElements": [
			{"dataElement": {"id": "de1", "name": "Weight", "valueType": "NUMBER"}},
			{"dataElement": {"id": "de2", "name": "Vaccine", "valueType": "TEXT", "optionSet": {"id": "os1", "name": "Vaccines"}}}
		]},
		{"id": "stage2", "name": "Visit 2", "programStageDataElements": [
			{"dataElement": {"id": "de1", "name": "Weight", "valueType": "NUMBER"}},
			{"dataElement": {"id": "de2", "name": "Vaccine given", "valueType": "TEXT", "optionSet": {"id": "os1", "name": "Vaccines"}}}
		]}
	],
	"programTrackedEntityAttributes": [
		{"trackedEntityAttribute": {"id": "attr1", "name": "First name", "valueType": "TEXT"}}
	]
}`

func TestListRemoteElementsTracker(t *testing.T) {
	ts := dhis2Stub(t, map[string]string{"/api/programs/prog1": trackerProgramJSON})
	defer ts.Close()

	svc, _ := newTestMappingService(ts)

	listing, err := svc.ListRemoteElements(context.Background(), "test", model.SyncDomainTracker, "prog1")
	if err != nil {
		t.Fatalf("ListRemoteElements: %v", err)
	}

	// de1 appears in both stages with identical metadata: deduplicated,
	// first occurrence kept. de2 differs by name: surfaced as a conflict.
	if len(listing.Elements) != 3 {
		t.Fatalf("elements = %d, want 3 (de1, de2, attr1)", len(listing.Elements))
	}
	if listing.Elements[0].ID != "de1" || listing.Elements[0].StageID != "stage1" {
		t.Errorf("first element = %+v, want de1 from stage1", listing.Elements[0])
	}
	if listing.Elements[2].ID != "attr1" || !listing.Elements[2].IsAttribute {
		t.Errorf("attribute not listed: %+v", listing.Elements[2])
	}

	if len(listing.Conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(listing.Conflicts))
	}
	c := listing.Conflicts[0]
	if c.ElementID != "de2" {
		t.Errorf("conflict element = %s, want de2", c.ElementID)
	}
	if len(c.StageIDs) != 2 || c.StageIDs[0] != "stage1" || c.StageIDs[1] != "stage2" {
		t.Errorf("conflict stages = %v", c.StageIDs)
	}
	if c.Names[0] != "Vaccine" || c.Names[1] != "Vaccine given" {
		t.Errorf("conflict names = %v", c.Names)
	}
}

func TestListRemoteElementsAggregate(t *testing.T) {
	ts := dhis2Stub(t, map[string]string{"/api/dataSets/ds1": `{
		"id": "ds1", "name": "Monthly report",
		"dataSetElements": [
			{"dataElement": {"id": "de1", "name": "Cases", "valueType": "NUMBER"}},
			{"dataElement": {"id": "de2", "name": "Deaths", "valueType": "NUMBER"}},
			{"dataElement": {"id": "de1", "name": "Cases", "valueType": "NUMBER"}}
		]
	}`})
	defer ts.Close()

	svc, _ := newTestMappingService(ts)

	listing, err := svc.ListRemoteElements(context.Background(), "test", model.SyncDomainAggregate, "ds1")
	if err != nil {
		t.Fatalf("ListRemoteElements: %v", err)
	}
	if len(listing.Elements) != 2 {
		t.Errorf("elements = %d, want 2 after dedup", len(listing.Elements))
	}
	if len(listing.Conflicts) != 0 {
		t.Errorf("aggregate listing should not report conflicts, got %d", len(listing.Conflicts))
	}
}

func TestListRemoteElementsErrors(t *testing.T) {
	ts := dhis2Stub(t, nil)
	defer ts.Close()

	svc, _ := newTestMappingService(ts)
	ctx := context.Background()

	if _, err := svc.ListRemoteElements(ctx, "missing", model.SyncDomainTracker, "prog1"); !errors.Is(err, ErrInstanceNotFound) {
		t.Errorf("unknown instance: got %v, want ErrInstanceNotFound", err)
	}
	if _, err := svc.ListRemoteElements(ctx, "test", "event", "prog1"); !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("bad domain: got %v, want ErrUnknownDomain", err)
	}
}

func TestFindExistingMappings(t *testing.T) {
	ts := dhis2Stub(t, nil)
	defer ts.Close()

	mappings := newMockMappingRepo()
	mappings.rows["q1"] = &model.QuestionMapping{QuestionID: "q1", DataElementID: "de1"}

	surveys := newMockSurveyRepo(&model.Survey{ID: "s1", Name: "Household survey"})
	surveys.SetQuestions(context.Background(), "s1", []string{"q1"})

	svc := NewMappingService(
		testClient(),
		newMockInstanceRepo(testInstance(ts.URL)),
		mappings,
		newMockQuestionRepo(&model.Question{ID: "q1", Label: "How many children?"}),
		surveys,
		newMockMetadataCache(),
	)

	elements := []model.RemoteElement{
		{ID: "de1", Name: "Child count"},
		{ID: "de2", Name: "Unmapped element"},
	}
	existing, err := svc.FindExistingMappings(context.Background(), elements)
	if err != nil {
		t.Fatalf("FindExistingMappings: %v", err)
	}
	if len(existing) != 1 {
		t.Fatalf("existing = %d, want 1", len(existing))
	}
	row := existing[0]
	if row.DataElementID != "de1" || row.DataElementLabel != "Child count" {
		t.Errorf("element fields wrong: %+v", row)
	}
	if row.QuestionID != "q1" || row.QuestionLabel != "How many children?" {
		t.Errorf("question fields wrong: %+v", row)
	}
	if row.SurveyID != "s1" || row.SurveyName != "Household survey" {
		t.Errorf("survey fields wrong: %+v", row)
	}
}

func TestSaveSingleMapping(t *testing.T) {
	ts := dhis2Stub(t, nil)
	defer ts.Close()

	svc, mappings := newTestMappingService(ts)
	ctx := context.Background()

	// Map, then remap: still exactly one row, pointing at the new element.
	if err := svc.SaveSingleMapping(ctx, "q1", "DE123", ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.SaveSingleMapping(ctx, "q1", "DE123", ""); err != nil {
		t.Fatalf("repeat save: %v", err)
	}
	if len(mappings.rows) != 1 || mappings.rows["q1"].DataElementID != "DE123" {
		t.Fatalf("after repeated save: %v", mappings.rows)
	}

	// Unmap, remap to a different element.
	if err := svc.SaveSingleMapping(ctx, "q1", "", ""); err != nil {
		t.Fatalf("unmap: %v", err)
	}
	if len(mappings.rows) != 0 {
		t.Fatalf("unmap left %d rows", len(mappings.rows))
	}
	if err := svc.SaveSingleMapping(ctx, "q1", "", ""); err != nil {
		t.Fatalf("repeat unmap: %v", err)
	}
	if err := svc.SaveSingleMapping(ctx, "q1", "DE456", "os9"); err != nil {
		t.Fatalf("remap: %v", err)
	}
	row := mappings.rows["q1"]
	if row == nil || row.DataElementID != "DE456" || row.OptionSetID != "os9" {
		t.Errorf("after remap: %+v", row)
	}
}

func TestSaveBulkMapping(t *testing.T) {
	ts := dhis2Stub(t, nil)
	defer ts.Close()

	svc, mappings := newTestMappingService(ts)
	ctx := context.Background()

	bindings := map[string]model.MappingBinding{
		"q1": {DataElementID: "de1"},
		"q2": {DataElementID: "de2", OptionSetID: "os1"},
		"q3": {}, // explicit unmap
	}
	if err := svc.SaveBulkMapping(ctx, bindings); err != nil {
		t.Fatalf("bulk save: %v", err)
	}
	if len(mappings.rows) != 2 {
		t.Errorf("rows = %d, want 2 (q3 unmapped)", len(mappings.rows))
	}

	t.Run("failure leaves state untouched", func(t *testing.T) {
		mappings.bulkErr = errors.New("write conflict")
		err := svc.SaveBulkMapping(ctx, map[string]model.MappingBinding{
			"q1": {DataElementID: "changed"},
		})
		if err == nil || !strings.Contains(err.Error(), "write conflict") {
			t.Fatalf("expected the storage error surfaced, got %v", err)
		}
		if mappings.rows["q1"].DataElementID != "de1" {
			t.Errorf("failed bulk save mutated rows: %+v", mappings.rows["q1"])
		}
	})
}

func TestSaveOptionSetTranslations(t *testing.T) {
	ts := dhis2Stub(t, nil)
	defer ts.Close()

	svc, mappings := newTestMappingService(ts)

	pairs := []model.OptionSetMapping{
		{OptionSetID: "os1", OptionCode: "YES", LocalValue: "Oui"},
		{OptionSetID: "os1", OptionCode: "NO", LocalValue: "Non"},
	}
	if err := svc.SaveOptionSetTranslations(context.Background(), "os1", pairs); err != nil {
		t.Fatalf("save translations: %v", err)
	}
	stored, _ := mappings.GetOptionSetMappings(context.Background(), "os1")
	if len(stored) != 2 || stored[0].OptionCode != "YES" {
		t.Errorf("stored translations = %+v", stored)
	}
}

func TestListElementsUsesCache(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "ds1", "dataSetElements": [{"dataElement": {"id": "de1", "name": "Cases"}}]}`))
	}))
	defer ts.Close()

	svc, _ := newTestMappingService(ts)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.ListRemoteElements(ctx, "test", model.SyncDomainAggregate, "ds1"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if hits != 1 {
		t.Errorf("remote hit %d times, want 1 (listing cached)", hits)
	}
}
