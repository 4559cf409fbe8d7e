package model

import "time"

// SyncJobStatus is the lifecycle state of a metadata import job
type SyncJobStatus string

const (
	SyncStatusReady      SyncJobStatus = "ready"
	SyncStatusProcessing SyncJobStatus = "processing"
	SyncStatusImporting  SyncJobStatus = "importing"
	SyncStatusComplete   SyncJobStatus = "complete"
	SyncStatusError      SyncJobStatus = "error"
)

// Terminal reports whether the status is absorbing.
func (s SyncJobStatus) Terminal() bool {
	return s == SyncStatusComplete || s == SyncStatusError
}

// SyncDomain selects which half of the DHIS2 metadata model a job or
// reconciler call targets.
type SyncDomain string

const (
	SyncDomainTracker   SyncDomain = "tracker"
	SyncDomainAggregate SyncDomain = "aggregate"
)

// SyncJob is a persisted metadata import job. Any process can report
// progress against it and any client can poll it; the processed counter
// only ever increases.
type SyncJob struct {
	ID          string        `json:"id" bson:"_id"`
	InstanceKey string        `json:"instanceKey" bson:"instanceKey"`
	Domain      SyncDomain    `json:"domain" bson:"domain"`
	TargetID    string        `json:"targetId" bson:"targetId"` // program or dataset uid
	Status      SyncJobStatus `json:"status" bson:"status"`
	Processed   int           `json:"processed" bson:"processed"`
	Total       int           `json:"total" bson:"total"`
	Message     string        `json:"message,omitempty" bson:"message,omitempty"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updatedAt"`
}
