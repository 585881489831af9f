package store

import (
	"database/sql"
	"fmt"

	"github.com/classecho/classecho/internal/model"
)

type MaterialStore struct {
	db *sql.DB
}

func NewMaterialStore(db *sql.DB) *MaterialStore {
	return &MaterialStore{db: db}
}

func scanMaterial(scanner interface{ Scan(...any) error }) (*model.Material, error) {
	var m model.Material
	err := scanner.Scan(
		&m.ID, &m.CourseID, &m.Title, &m.Type,
		&m.S3Key, &m.FileName, &m.FileSize, &m.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const materialCols = `id, course_id, title, type, s3_key, file_name, file_size, uploaded_at`

func (s *MaterialStore) Create(courseID int64, title, matType, s3Key, fileName string, fileSize int64) (*model.Material, error) {
	result, err := s.db.Exec(
		`INSERT INTO course_materials (course_id, title, type, s3_key, file_name, file_size)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		courseID, title, matType, s3Key, fileName, fileSize,
	)
	if err != nil {
		return nil, fmt.Errorf("insert material: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MaterialStore) GetByID(id int64) (*model.Material, error) {
	row := s.db.QueryRow(`SELECT `+materialCols+` FROM course_materials WHERE id = ?`, id)
	m, err := scanMaterial(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get material: %w", err)
	}
	return m, nil
}

// ListByCourse returns a course's materials, newest upload first. A
// non-empty matType narrows the list to that type.
func (s *MaterialStore) ListByCourse(courseID int64, matType string) ([]model.Material, error) {
	query := `SELECT ` + materialCols + ` FROM course_materials WHERE course_id = ?`
	args := []any{courseID}
	if matType != "" {
		query += ` AND type = ?`
		args = append(args, matType)
	}
	query += ` ORDER BY uploaded_at DESC, id DESC`
	return s.list(query, args...)
}

func (s *MaterialStore) List() ([]model.Material, error) {
	return s.list(`SELECT ` + materialCols + ` FROM course_materials ORDER BY uploaded_at DESC, id DESC`)
}

func (s *MaterialStore) list(query string, args ...any) ([]model.Material, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	var materials []model.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, *m)
	}
	return materials, rows.Err()
}

// Update rewrites the material's metadata. Empty title or type keeps
// the current value.
func (s *MaterialStore) Update(id int64, title, matType string) (*model.Material, error) {
	_, err := s.db.Exec(
		`UPDATE course_materials SET
		   title = CASE WHEN ? = '' THEN title ELSE ? END,
		   type = CASE WHEN ? = '' THEN type ELSE ? END
		 WHERE id = ?`,
		title, title, matType, matType, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update material: %w", err)
	}
	return s.GetByID(id)
}

func (s *MaterialStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM course_materials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}

func (s *MaterialStore) CountByCourse(courseID int64) (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM course_materials WHERE course_id = ?`, courseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count materials: %w", err)
	}
	return n, nil
}
