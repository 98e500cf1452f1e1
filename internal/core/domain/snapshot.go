package domain

// Snapshot is the externally consumable state summary republished
// after every successful ingestion, so collaborating processes can
// inspect the store without opening it.
type Snapshot struct {
	System          string            `json:"system"`
	LastUpdated     string            `json:"last_updated"`
	Stats           Stats             `json:"stats"`
	Usage           map[string]string `json:"usage"`
	RecentDocuments []DocumentSummary `json:"recent_documents"`
}
