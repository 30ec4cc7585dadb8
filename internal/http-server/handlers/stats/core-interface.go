package stats

import "LiveCS/impl/core"

type Core interface {
	GetDomainStats(domainID string) (core.DomainStats, error)
	GetAllDomainStats() ([]core.DomainStats, error)
}
