// Package domain re-exports the persisted row types so data and service
// layers can import a single package as `types`.
package domain

import (
	"github.com/tollgrid/pathways-backend/internal/domain/transit"
)

type City = transit.City
type TransitNode = transit.TransitNode
type Pathway = transit.Pathway
type PathwayOption = transit.PathwayOption
type PathwayOptionToll = transit.PathwayOptionToll

const (
	NodeKindTerminal  = transit.NodeKindTerminal
	NodeKindJunction  = transit.NodeKindJunction
	NodeKindTollbooth = transit.NodeKindTollbooth
)
