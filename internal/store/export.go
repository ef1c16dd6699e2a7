package store

import (
	"fmt"
	"time"

	"github.com/onevent/flowscore/internal/model"
)

// ExportAllResults builds the export bundle with every stored result.
func (s *Store) ExportAllResults() (*model.ResultExport, error) {
	results, err := s.ListResults()
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return &model.ResultExport{
		ExportedAt: time.Now(),
		Count:      len(results),
		Results:    results,
	}, nil
}
