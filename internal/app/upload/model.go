package upload

type UploadedFileResponse struct {
	FileID      string `json:"file_id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
