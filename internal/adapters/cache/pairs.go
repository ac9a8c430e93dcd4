package cache

import (
	"courier-dispatch-service/internal/ports"
	"strings"
)

// uniquePairs drops blank and repeated pairs, keeping first-seen order.
func uniquePairs(pairs []ports.PointPair) []ports.PointPair {
	seen := make(map[ports.PointPair]struct{}, len(pairs))
	uniq := make([]ports.PointPair, 0, len(pairs))
	for _, p := range pairs {
		p.Origin = strings.TrimSpace(p.Origin)
		p.Destination = strings.TrimSpace(p.Destination)
		if p.Origin == "" || p.Destination == "" {
			continue
		}

		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}
	return uniq
}
