package model

import "time"

// Course material types.
const (
	MaterialPDF          = "PDF"
	MaterialVideo        = "VIDEO"
	MaterialDocument     = "DOCUMENT"
	MaterialPresentation = "PRESENTATION"
	MaterialImage        = "IMAGE"
	MaterialOther        = "OTHER"
)

// Material is one course material: metadata in the database, the file
// itself in object storage under S3Key.
type Material struct {
	ID         int64     `json:"id"`
	CourseID   int64     `json:"course_id"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	S3Key      string    `json:"-"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
}
