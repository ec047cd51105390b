package logic

import "scrollwatch/internal/domain"

// ChainStore holds the carried state of every observed surface
type ChainStore interface {
	GetChain(surface string) *domain.Chain
	PutChain(chain *domain.Chain)
	RemoveChain(surface string)
	Surfaces() []string
}
