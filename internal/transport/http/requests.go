package http

type triggerSyncRequest struct {
	// Empty source triggers every known source.
	Source string `json:"source" validate:"omitempty,sync_source"`
}
