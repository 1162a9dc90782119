// Package catalog ships the compiled-in growth plan.
package catalog

import (
	_ "embed"
	"sync"

	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/domain"
)

//go:embed growth_plan.yaml
var growthPlan []byte

var (
	once    sync.Once
	plan    *domain.Catalog
	loadErr error
)

// Default returns the shared, read-only growth plan. It panics if the embedded
// document is invalid, which only a broken build can cause.
func Default() *domain.Catalog {
	once.Do(func() {
		plan, loadErr = domain.LoadCatalog(growthPlan)
	})
	if loadErr != nil {
		panic("catalog: embedded growth plan is invalid: " + loadErr.Error())
	}
	return plan
}
