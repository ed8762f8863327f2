package courseprice

import (
	"github.com/xraph/courseprice/cache"
	"github.com/xraph/courseprice/pricing"
	"github.com/xraph/courseprice/types"
)

// Re-export common types so callers rarely need the leaf packages.

// Money is re-exported from types package.
type Money = types.Money

// Date is re-exported from types package.
type Date = types.Date

// Guard is re-exported from pricing package.
type Guard = pricing.Guard

// Method is re-exported from pricing package.
type Method = pricing.Method

// Stats is a snapshot of the engine counters.
type Stats = cache.Snapshot

// Guard values.
const (
	GuardNone                 = pricing.GuardNone
	GuardMissingTotalSessions = pricing.GuardMissingTotalSessions
	GuardFutureStart          = pricing.GuardFutureStart
)

// Re-export constructors.
var (
	USD           = types.USD
	EUR           = types.EUR
	GBP           = types.GBP
	Zero          = types.Zero
	ParseMoney    = types.ParseMoney
	ParseDate     = types.ParseDate
	MustParseDate = types.MustParseDate
	NewDate       = types.NewDate
)
