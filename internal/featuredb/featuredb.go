// Package featuredb reads summary statistics from the COLMAP feature
// database, which is a plain SQLite file. Access is read-only; the engine
// owns the schema.
package featuredb

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// Stats summarizes the feature database after extraction and matching.
type Stats struct {
	Images       int
	Keypoints    int
	MatchedPairs int
}

// ReadStats opens the database at path and returns its counts. It returns an
// error if the file is missing or does not have the expected schema.
func ReadStats(path string) (*Stats, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("feature database: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open feature database: %w", err)
	}
	defer db.Close()

	s := &Stats{}
	if err := db.QueryRow(`SELECT COUNT(*) FROM images`).Scan(&s.Images); err != nil {
		return nil, fmt.Errorf("count images: %w", err)
	}
	if err := db.QueryRow(`SELECT COALESCE(SUM(rows), 0) FROM keypoints`).Scan(&s.Keypoints); err != nil {
		return nil, fmt.Errorf("count keypoints: %w", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM matches WHERE rows > 0`).Scan(&s.MatchedPairs); err != nil {
		return nil, fmt.Errorf("count matches: %w", err)
	}
	return s, nil
}

// String renders the stats the way the run log reports them.
func (s *Stats) String() string {
	return fmt.Sprintf("%d images, %d keypoints, %d matched pairs",
		s.Images, s.Keypoints, s.MatchedPairs)
}
