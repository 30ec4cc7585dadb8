package core

import "fmt"

// DomainStats is the live-visitor count of one domain, derived purely from
// in-memory presence. Resets on restart.
type DomainStats struct {
	DomainID string `json:"domain_id"`
	Visitors int    `json:"visitors"`
}

func (c *Core) GetDomainStats(domainID string) (DomainStats, error) {
	if c.presence == nil {
		return DomainStats{}, fmt.Errorf("presence tracking not available")
	}
	return DomainStats{
		DomainID: domainID,
		Visitors: c.presence.Count(domainID),
	}, nil
}

func (c *Core) GetAllDomainStats() ([]DomainStats, error) {
	if c.presence == nil {
		return nil, fmt.Errorf("presence tracking not available")
	}

	counts := c.presence.Counts()
	stats := make([]DomainStats, 0, len(counts))
	for domainID, visitors := range counts {
		stats = append(stats, DomainStats{DomainID: domainID, Visitors: visitors})
	}
	return stats, nil
}
