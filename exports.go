package feeledger

import (
	"github.com/xraph/feeledger/aggregate"
	"github.com/xraph/feeledger/reconcile"
	"github.com/xraph/feeledger/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Date is re-exported from types package.
type Date = types.Date

// Entity is re-exported from types package.
type Entity = types.Entity

// Statement is re-exported from reconcile package.
type Statement = reconcile.Statement

// Anomaly is re-exported from reconcile package.
type Anomaly = reconcile.Anomaly

// DayTotal and MonthTotal are re-exported from aggregate package.
type (
	DayTotal   = aggregate.DayTotal
	MonthTotal = aggregate.MonthTotal
)

// Re-export Money constructors
var (
	INR        = types.INR
	USD        = types.USD
	EUR        = types.EUR
	GBP        = types.GBP
	Major      = types.Major
	Zero       = types.Zero
	Sum        = types.Sum
	ParseMoney = types.ParseMoney
)

// Re-export Date constructors
var (
	NewDate   = types.NewDate
	ParseDate = types.ParseDate
)
