package pipeline

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/briefdhq/briefd/models"
)

// similarityThreshold is the fuzzy-match cutoff: at or above it, an item is
// treated as a duplicate with the similarity as its confidence.
const similarityThreshold = 0.85

// Deduplicator finds exact and near duplicates across a batch. The first-seen
// item of a cluster is canonical; evaluation follows batch order, so the
// result is deterministic for a fixed input order.
type Deduplicator struct{}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// ContentHash derives the identity hash from title, content and author.
func ContentHash(item *models.UnifiedDataItem) string {
	sum := sha256.Sum256([]byte(item.Title + item.Content + item.Author))
	return hex.EncodeToString(sum[:])
}

// Deduplicate marks suppressed duplicates in place and returns a map from
// canonical item id to the ids suppressed under it. Exact hash collisions get
// confidence 1.0; fuzzy matches carry their similarity as confidence.
func (d *Deduplicator) Deduplicate(items []*models.UnifiedDataItem) map[string][]string {
	clusters := make(map[string][]string)
	seen := make([]struct {
		hash string
		id   string
	}, 0, len(items))

	byHash := make(map[string]string, len(items))
	for _, item := range items {
		h := ContentHash(item)

		if canonicalID, ok := byHash[h]; ok {
			item.DuplicateOf = canonicalID
			item.DuplicateConfidence = 1.0
			clusters[canonicalID] = append(clusters[canonicalID], item.ID)
			continue
		}

		matched := false
		for _, prev := range seen {
			sim := hashSimilarity(h, prev.hash)
			if sim >= similarityThreshold {
				item.DuplicateOf = prev.id
				item.DuplicateConfidence = sim
				clusters[prev.id] = append(clusters[prev.id], item.ID)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		byHash[h] = item.ID
		seen = append(seen, struct {
			hash string
			id   string
		}{hash: h, id: item.ID})
		item.DuplicateOf = ""
		item.DuplicateConfidence = 0
	}
	return clusters
}

// hashSimilarity is the character-position agreement ratio between two hash
// strings, normalized by the longer length. A deliberately light fuzzy check;
// the threshold semantics are what downstream relies on.
func hashSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(longer) == 0 {
		return 0
	}
	agree := 0
	for i := 0; i < len(shorter); i++ {
		if shorter[i] == longer[i] {
			agree++
		}
	}
	return float64(agree) / float64(len(longer))
}

// Canonical filters a batch down to its canonical items, preserving order.
func Canonical(items []*models.UnifiedDataItem) []*models.UnifiedDataItem {
	out := make([]*models.UnifiedDataItem, 0, len(items))
	for _, item := range items {
		if !item.IsDuplicate() {
			out = append(out, item)
		}
	}
	return out
}
