package cache

import (
	"encoding/json"
	"fmt"

	"github.com/ppiankov/overlap/internal/model"
)

// ReportCache stores analyzed reports as JSON in any Cache
type ReportCache struct {
	backend Cache
}

// NewReportCache wraps backend
func NewReportCache(backend Cache) *ReportCache {
	return &ReportCache{backend: backend}
}

// Get returns a cached report; corrupt entries are dropped and reported as a miss
func (c *ReportCache) Get(key string) (*model.Report, bool) {
	data, ok := c.backend.Get(key)
	if !ok {
		return nil, false
	}

	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		_ = c.backend.Delete(key)
		return nil, false
	}
	return &report, true
}

// Put stores a report with the backend's default TTL
func (c *ReportCache) Put(key string, report *model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := c.backend.Set(key, data, 0); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}
