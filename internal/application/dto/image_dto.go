package dto

// ImageImportRequest pide importar la imagen de un producto desde una URL remota (asíncrono).
type ImageImportRequest struct {
	ProductID string `json:"product_id"`
	SourceURL string `json:"source_url"`
}

// ImageImportResponse trabajo encolado.
type ImageImportResponse struct {
	JobID     string `json:"job_id"`
	Queue     string `json:"queue"`
	ProductID string `json:"product_id"`
}

// ImageImportPayload carga útil del trabajo image.import en la cola.
type ImageImportPayload struct {
	ProductID string `json:"product_id"`
	SourceURL string `json:"source_url"`
}
