package storage

import "database/sql"

const assetColumns = `id, user_id, name, kind, path, content_type, size, duration, width, height, created_at`

func scanAsset(row scanner) (MediaAsset, error) {
	var a MediaAsset
	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Kind, &a.Path, &a.ContentType,
		&a.Size, &a.Duration, &a.Width, &a.Height, &a.CreatedAt,
	)
	return a, err
}

func (s *SQLiteStorage) CreateAsset(a *MediaAsset) error {
	_, err := s.db.Exec(`
		INSERT INTO media_assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.UserID, a.Name, a.Kind, a.Path, a.ContentType,
		a.Size, a.Duration, a.Width, a.Height, a.CreatedAt,
	)
	return err
}

func (s *SQLiteStorage) GetAsset(id string) (*MediaAsset, error) {
	a, err := scanAsset(s.db.QueryRow(`SELECT `+assetColumns+` FROM media_assets WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStorage) ListAssets(userID string) ([]MediaAsset, error) {
	rows, err := s.db.Query(`
		SELECT `+assetColumns+` FROM media_assets
		WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := []MediaAsset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}

	return assets, rows.Err()
}

// GetAllAssetPaths returns id -> path for cleanup
func (s *SQLiteStorage) GetAllAssetPaths() (map[string]string, error) {
	rows, err := s.db.Query("SELECT id, path FROM media_assets")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make(map[string]string)
	for rows.Next() {
		var id, path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, err
		}
		paths[id] = path
	}
	return paths, rows.Err()
}

func (s *SQLiteStorage) DeleteAsset(id string) error {
	_, err := s.db.Exec("DELETE FROM media_assets WHERE id = ?", id)
	return err
}
