package service

import "healthsurveys/internal/model"

// Broadcaster pushes sync-job progress to connected admin clients.
// Implemented by the WebSocket hub; a nil broadcaster is a no-op.
type Broadcaster interface {
	BroadcastSyncProgress(job *model.SyncJob)
}
