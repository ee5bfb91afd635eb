package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrProjectNotFound = errors.New("project not found")

const projectColumns = `p.id, p.user_id, p.title, p.description, p.type, p.data, p.thumbnail,
	p.is_public, p.share_id, p.created_at, p.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner, extra ...any) (Project, error) {
	var p Project
	var data string
	dest := []any{
		&p.ID, &p.UserID, &p.Title, &p.Description, &p.Type, &data, &p.Thumbnail,
		&p.IsPublic, &p.ShareID, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Project{}, err
	}
	p.Data = []byte(data)
	return p, nil
}

func projectData(p *Project) string {
	if len(p.Data) == 0 {
		return "null"
	}
	return string(p.Data)
}

// ListProjects returns the user's projects, most recently updated first.
// An empty projectType matches every type.
func (s *SQLiteStorage) ListProjects(userID string, projectType ProjectType) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.user_id = ?`
	args := []any{userID}
	if projectType != "" {
		query += ` AND p.type = ?`
		args = append(args, projectType)
	}
	query += ` ORDER BY p.updated_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

func (s *SQLiteStorage) GetProject(id string) (*Project, error) {
	p, err := scanProject(s.db.QueryRow(`SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProjectByShareID returns the shared project with its owner's public
// profile.
func (s *SQLiteStorage) GetProjectByShareID(shareID string) (*Project, error) {
	var owner ProjectOwner
	p, err := scanProject(s.db.QueryRow(`
		SELECT `+projectColumns+`, u.name, u.image
		FROM projects p JOIN users u ON u.id = p.user_id
		WHERE p.share_id = ?
	`, shareID), &owner.Name, &owner.Image)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Owner = &owner
	return &p, nil
}

func (s *SQLiteStorage) CreateProject(p *Project) error {
	_, err := s.db.Exec(`
		INSERT INTO projects (
			id, user_id, title, description, type, data, thumbnail,
			is_public, share_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.UserID, p.Title, p.Description, p.Type, projectData(p), p.Thumbnail,
		p.IsPublic, p.ShareID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// UpdateProject writes the descriptive fields and bumps updated_at. The
// editor payload is only written by SaveProjectData.
func (s *SQLiteStorage) UpdateProject(p *Project) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := s.db.Exec(`
		UPDATE projects SET
			title = ?,
			description = ?,
			thumbnail = ?,
			is_public = ?,
			updated_at = ?
		WHERE id = ?
	`, p.Title, p.Description, p.Thumbnail, p.IsPublic, p.UpdatedAt, p.ID)
	return err
}

// SaveProjectData replaces only the editor payload. It fails with
// ErrProjectNotFound when the project no longer exists.
func (s *SQLiteStorage) SaveProjectData(id string, data []byte) error {
	if len(data) == 0 {
		data = []byte("null")
	}
	res, err := s.db.Exec(`UPDATE projects SET data = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return nil
}

func (s *SQLiteStorage) DeleteProject(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM shares WHERE project_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM projects WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// Shares

// ShareProject publishes the project under shareID and makes sure a view
// counter exists.
func (s *SQLiteStorage) ShareProject(projectID, shareID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE projects SET share_id = ?, is_public = TRUE, updated_at = ? WHERE id = ?
	`, shareID, time.Now().UTC(), projectID); err != nil {
		return fmt.Errorf("set share id: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO shares (project_id, views) VALUES (?, 0)
		ON CONFLICT(project_id) DO NOTHING
	`, projectID); err != nil {
		return fmt.Errorf("create share: %w", err)
	}
	return tx.Commit()
}

// IncrementShareViews counts one view. Projects without a share row are
// left alone.
func (s *SQLiteStorage) IncrementShareViews(projectID string) error {
	_, err := s.db.Exec("UPDATE shares SET views = views + 1 WHERE project_id = ?", projectID)
	return err
}

func (s *SQLiteStorage) GetShare(projectID string) (*Share, error) {
	var sh Share
	err := s.db.QueryRow("SELECT project_id, views FROM shares WHERE project_id = ?", projectID).
		Scan(&sh.ProjectID, &sh.Views)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}
