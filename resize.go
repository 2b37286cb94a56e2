package lmdbstore

// growLocked enlarges the map after a full-map failure. The new size is
// the larger of double the current size or the current size plus 64MiB,
// clamped to the configured maximum. Fails with ErrMapFull when the
// current size has already reached the maximum.
//
// Callers wrap growLocked in a retry loop: the whole failed write
// transaction is retried from scratch after each successful growth, and
// one flush may need several grow-and-retry cycles.
func (s *Store) growLocked() error {
	info, err := s.env.info()
	if err != nil {
		return wrapEngine("info", err)
	}
	current := info.MapSize

	if s.maxMapSize > 0 && current >= s.maxMapSize {
		s.log.Error("cannot grow map size",
			"map_size", current, "max_map_size", s.maxMapSize)
		return ErrMapFull
	}

	next := current * 2
	if withStep := current + growthStep; withStep > next {
		next = withStep
	}
	if s.maxMapSize > 0 && next > s.maxMapSize {
		next = s.maxMapSize
	}

	s.log.Warn("map full, growing map size", "from", current, "to", next)
	if err := s.env.setMapSize(next); err != nil {
		return wrapEngine("set map size", err)
	}
	return nil
}
