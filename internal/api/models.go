package api

// Request and response bodies for the queue trigger endpoints. All requests
// tolerate an empty body; missing optional fields fall back to configured
// defaults.

// ProcessRequest is the body for POST /queue/process.
type ProcessRequest struct {
	Limit int `json:"limit" validate:"omitempty,gt=0,lte=1000"`
}

// ProcessResponse reports how many tasks one trigger invocation processed.
type ProcessResponse struct {
	Processed int `json:"processed"`
}

// EnqueueRequest is the body for POST /queue/enqueue.
type EnqueueRequest struct {
	UserID    string   `json:"userId"    validate:"required,uuid"`
	Platforms []string `json:"platforms" validate:"required,min=1,dive,oneof=github twitter instagram youtube"`
	Date      string   `json:"date"      validate:"omitempty,datetime=2006-01-02"`
	Priority  *int     `json:"priority"  validate:"omitempty,gte=0"`
}

// EnqueueResponse reports how many task rows were actually inserted.
type EnqueueResponse struct {
	Enqueued int `json:"enqueued"`
}

// EnqueueAllRequest is the body for POST /queue/enqueue-all.
type EnqueueAllRequest struct {
	Platforms []string `json:"platforms" validate:"required,min=1,dive,oneof=github twitter instagram youtube"`
	Date      string   `json:"date"      validate:"omitempty,datetime=2006-01-02"`
	Priority  *int     `json:"priority"  validate:"omitempty,gte=0"`
}

// EnqueueAllResponse reports how many users the sync was fanned out to.
type EnqueueAllResponse struct {
	Users int `json:"users"`
}

// CleanupRequest is the body for POST /queue/cleanup.
type CleanupRequest struct {
	OlderThanDays int `json:"olderThanDays" validate:"omitempty,gt=0"`
}

// CleanupResponse reports how many terminal rows were deleted.
type CleanupResponse struct {
	Deleted int `json:"deleted"`
}

// ReclaimRequest is the body for POST /queue/reclaim.
type ReclaimRequest struct {
	OlderThanMinutes int `json:"olderThanMinutes" validate:"omitempty,gt=0"`
}

// ReclaimResponse reports how many stuck tasks were requeued or failed.
type ReclaimResponse struct {
	Reclaimed int `json:"reclaimed"`
}
