// Package stage implements the twelve pipeline stage functions as
// graph.Node[domain.State] adapters. Each stage calls the Ability Router
// and/or Tool Selector as needed and returns a delta carrying only the
// output group it owns.
package stage

import (
	"go.uber.org/zap"

	"github.com/lumenpay/invoiceflow/ability"
	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/toolkit"
)

// Deps are the collaborators shared by every stage node.
type Deps struct {
	Router   *ability.Router
	Selector *toolkit.Selector
	Settings domain.Settings
	Log      *zap.Logger
}

func (d *Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}
