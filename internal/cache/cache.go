package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/briefdhq/briefd/models"
)

// BriefCache is the short-TTL cache in front of brief generation. Staleness
// beyond TTL is the only invalidation mechanism.
type BriefCache interface {
	Get(ctx context.Context, key string) (*models.GeneratedBrief, bool, error)
	Set(ctx context.Context, key string, brief *models.GeneratedBrief, ttl time.Duration) error
}

// Key derives the cache key for a generation request.
func Key(userID, orgID, briefType string, timeRangeHours int) string {
	return fmt.Sprintf("brief:%s:%s:%s:%d", userID, orgID, briefType, timeRangeHours)
}
