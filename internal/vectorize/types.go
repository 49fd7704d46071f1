package vectorize

// RetrievalRequest is the payload for the pipeline retrieval endpoint
type RetrievalRequest struct {
	Question   string `json:"question"`
	NumResults int    `json:"numResults"`
}

// RetrievalResponse is the pipeline retrieval response
type RetrievalResponse struct {
	Question  string     `json:"question,omitempty"`
	Documents []Document `json:"documents"`
}

// Document is one chunk returned by the retrieval endpoint
type Document struct {
	ID                string            `json:"id,omitempty"`
	Text              string            `json:"text"`
	Relevancy         *float64          `json:"relevancy,omitempty"`
	Similarity        *float64          `json:"similarity,omitempty"`
	Source            string            `json:"source,omitempty"`
	SourceDisplayName string            `json:"source_display_name,omitempty"`
	UniqueSource      string            `json:"unique_source,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// BestScore returns relevancy when present, otherwise similarity
func (d Document) BestScore() *float64 {
	if d.Relevancy != nil {
		return d.Relevancy
	}
	return d.Similarity
}

// StartFileUploadRequest asks for a pre-signed upload URL
type StartFileUploadRequest struct {
	ContentType string `json:"contentType"`
	Name        string `json:"name"`
}

// StartFileUploadResponse carries the URL the file bytes must be PUT to
type StartFileUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileID    string `json:"fileId,omitempty"`
}
