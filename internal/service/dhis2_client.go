package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"healthsurveys/internal/model"
)

// DHIS2Client wraps the DHIS2 Web API calls the reconciler and sync
// importer need. Credentials come from the instance record per call;
// they are stored base64-encoded and decoded just before use.
type DHIS2Client struct {
	httpClient *http.Client
	maxRetries int
}

// NewDHIS2Client creates a new DHIS2 API client
func NewDHIS2Client() *DHIS2Client {
	return &DHIS2Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 5,
	}
}

// DHIS2Ref is the minimal id/name pair DHIS2 returns for linked objects
type DHIS2Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DHIS2DataElement is a data element with its optional linked option set
type DHIS2DataElement struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ValueType string    `json:"valueType"`
	OptionSet *DHIS2Ref `json:"optionSet,omitempty"`
}

// DHIS2ProgramStage is one stage of a tracker program
type DHIS2ProgramStage struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	ProgramStageDataElements []struct {
		DataElement DHIS2DataElement `json:"dataElement"`
	} `json:"programStageDataElements"`
}

// DHIS2Program is a tracker program with its stages and entity attributes
type DHIS2Program struct {
	ID                             string              `json:"id"`
	Name                           string              `json:"name"`
	ProgramStages                  []DHIS2ProgramStage `json:"programStages"`
	ProgramTrackedEntityAttributes []struct {
		TrackedEntityAttribute DHIS2DataElement `json:"trackedEntityAttribute"`
	} `json:"programTrackedEntityAttributes"`
}

// DHIS2DataSet is an aggregate dataset with its data elements
type DHIS2DataSet struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DataSetElements []struct {
		DataElement DHIS2DataElement `json:"dataElement"`
	} `json:"dataSetElements"`
}

// DHIS2Option is one coded value of a remote option set
type DHIS2Option struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// DHIS2OptionSet is a remote option set with its ordered options
type DHIS2OptionSet struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Options []DHIS2Option `json:"options"`
}

// DHIS2OrgUnit is an organisation unit node
type DHIS2OrgUnit struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Level  int       `json:"level"`
	Path   string    `json:"path"`
	Parent *DHIS2Ref `json:"parent,omitempty"`
}

// doRequest performs an authenticated GET with retry/backoff on rate
// limiting. Basic auth credentials are decoded from the instance record.
func (c *DHIS2Client) doRequest(ctx context.Context, inst *model.DHIS2Instance, path string) ([]byte, error) {
	password, err := inst.Password()
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(inst.BaseURL, "/") + path

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[DHIS2 Client] Retry attempt %d/%d for GET %s", attempt, c.maxRetries, path)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.SetBasicAuth(inst.Username, password)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Printf("[DHIS2 Client] ERROR: HTTP request failed (attempt %d): %v", attempt+1, err)
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Printf("[DHIS2 Client] ERROR: Failed to read response body: %v", err)
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			log.Printf("[DHIS2 Client] Rate limited, retry %d/%d in %v", attempt+1, c.maxRetries, backoff)
			time.Sleep(backoff)
			lastErr = fmt.Errorf("rate limited")
			continue
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("DHIS2 auth failed for instance %s: status %d", inst.Key, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("DHIS2 API error %d: %s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// ListPrograms fetches the tracker programs of an instance.
func (c *DHIS2Client) ListPrograms(ctx context.Context, inst *model.DHIS2Instance) ([]DHIS2Ref, error) {
	body, err := c.doRequest(ctx, inst, "/api/programs?fields=id,name&paging=false")
	if err != nil {
		return nil, err
	}
	var result struct {
		Programs []DHIS2Ref `json:"programs"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse programs response: %w", err)
	}
	return result.Programs, nil
}

// GetProgram fetches one program with its stages, stage data elements
// and tracked entity attributes.
func (c *DHIS2Client) GetProgram(ctx context.Context, inst *model.DHIS2Instance, programID string) (*DHIS2Program, error) {
	path := fmt.Sprintf("/api/programs/%s?fields=id,name,"+
		"programStages[id,name,programStageDataElements[dataElement[id,name,valueType,optionSet[id,name]]]],"+
		"programTrackedEntityAttributes[trackedEntityAttribute[id,name,valueType,optionSet[id,name]]]", programID)
	body, err := c.doRequest(ctx, inst, path)
	if err != nil {
		return nil, err
	}
	var program DHIS2Program
	if err := json.Unmarshal(body, &program); err != nil {
		return nil, fmt.Errorf("failed to parse program response: %w", err)
	}
	return &program, nil
}

// ListDataSets fetches the aggregate datasets of an instance.
func (c *DHIS2Client) ListDataSets(ctx context.Context, inst *model.DHIS2Instance) ([]DHIS2Ref, error) {
	body, err := c.doRequest(ctx, inst, "/api/dataSets?fields=id,name&paging=false")
	if err != nil {
		return nil, err
	}
	var result struct {
		DataSets []DHIS2Ref `json:"dataSets"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse datasets response: %w", err)
	}
	return result.DataSets, nil
}

// GetDataSet fetches one dataset with its data elements.
func (c *DHIS2Client) GetDataSet(ctx context.Context, inst *model.DHIS2Instance, dataSetID string) (*DHIS2DataSet, error) {
	path := fmt.Sprintf("/api/dataSets/%s?fields=id,name,"+
		"dataSetElements[dataElement[id,name,valueType,optionSet[id,name]]]", dataSetID)
	body, err := c.doRequest(ctx, inst, path)
	if err != nil {
		return nil, err
	}
	var dataSet DHIS2DataSet
	if err := json.Unmarshal(body, &dataSet); err != nil {
		return nil, fmt.Errorf("failed to parse dataset response: %w", err)
	}
	return &dataSet, nil
}

// GetOptionSet fetches a remote option set with its ordered options.
func (c *DHIS2Client) GetOptionSet(ctx context.Context, inst *model.DHIS2Instance, optionSetID string) (*DHIS2OptionSet, error) {
	path := fmt.Sprintf("/api/optionSets/%s?fields=id,name,options[id,code,name]", optionSetID)
	body, err := c.doRequest(ctx, inst, path)
	if err != nil {
		return nil, err
	}
	var set DHIS2OptionSet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("failed to parse option set response: %w", err)
	}
	return &set, nil
}

// ListOrgUnits fetches the organisation units of an instance at one
// hierarchy level.
func (c *DHIS2Client) ListOrgUnits(ctx context.Context, inst *model.DHIS2Instance, level int) ([]DHIS2OrgUnit, error) {
	path := fmt.Sprintf("/api/organisationUnits?fields=id,name,level,path,parent[id,name]&filter=level:eq:%d&paging=false", level)
	body, err := c.doRequest(ctx, inst, path)
	if err != nil {
		return nil, err
	}
	var result struct {
		OrganisationUnits []DHIS2OrgUnit `json:"organisationUnits"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse org units response: %w", err)
	}
	return result.OrganisationUnits, nil
}
