package models

// Ingestion source kinds.
const (
	IngestKindPDF  = "pdf"
	IngestKindURL  = "url"
	IngestKindText = "text"
)

// IngestResult is the ephemeral outcome of one ingestion call, used purely
// for operator feedback.
type IngestResult struct {
	Kind          string `json:"kind"`
	OK            bool   `json:"ok"`
	ChunksCreated int    `json:"chunks_created"`
	Message       string `json:"message"`
	Err           error  `json:"-"`
}
