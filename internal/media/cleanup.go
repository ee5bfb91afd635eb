package media

import "os"

// CleanupMissingAssets removes asset rows whose files no longer exist and
// returns how many were removed.
func (s *Service) CleanupMissingAssets() (int, error) {
	paths, err := s.store.GetAllAssetPaths()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for id, path := range paths {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			continue
		}
		if err := s.store.DeleteAsset(id); err != nil {
			s.logger.Error().Err(err).Str("path", path).Msg("failed to delete asset")
			continue
		}
		s.cache.Delete(id)
		if s.generator != nil {
			s.generator.Delete(id)
		}
		deleted++
		s.logger.Debug().Str("path", path).Msg("deleted missing asset")
	}

	if deleted > 0 {
		s.logger.Info().Int("assets", deleted).Msg("cleanup completed")
	}
	return deleted, nil
}
