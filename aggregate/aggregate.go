// Package aggregate computes collection figures over a snapshot of payments.
package aggregate

import (
	"sort"
	"time"

	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/types"
)

// DefaultTrendMonths is the number of months MonthlyTrend returns when asked
// for zero or fewer.
const DefaultTrendMonths = 6

// DayTotal is the collection of one calendar day.
type DayTotal struct {
	Day      types.Date         `json:"day"`
	Total    types.Money        `json:"total"`
	Count    int                `json:"count"`
	Payments []*payment.Payment `json:"payments,omitempty"`
}

// MonthTotal is the collection of one calendar month.
type MonthTotal struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Total types.Money `json:"total"`
	Count int         `json:"count"`
}

// Label returns the month as "Jan 2025".
func (m MonthTotal) Label() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

func (m MonthTotal) before(other MonthTotal) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// DailyTotal sums the payments whose payment date falls on day in loc.
// Days are calendar days, so a payment at 23:59 and one at 00:01 the next
// morning land on different days. Payments in other currencies than
// currency are skipped.
func DailyTotal(payments []*payment.Payment, day types.Date, loc *time.Location, currency string) DayTotal {
	if loc == nil {
		loc = time.Local
	}

	out := DayTotal{Day: day, Total: types.Zero(currency)}
	for _, p := range payments {
		if p == nil || p.Amount.Currency != out.Total.Currency {
			continue
		}
		if types.DateOf(p.PaymentDate.In(loc)) != day {
			continue
		}
		out.Total = out.Total.Add(p.Amount)
		out.Count++
		out.Payments = append(out.Payments, p)
	}
	payment.SortNewestFirst(out.Payments)
	return out
}

// MonthlyTrend groups payments by the calendar month of their payment date
// in loc and returns the most recent n months in ascending order. Months
// without payments are absent; use FillGaps for a dense series. n <= 0 means
// DefaultTrendMonths.
func MonthlyTrend(payments []*payment.Payment, n int, loc *time.Location, currency string) []MonthTotal {
	if n <= 0 {
		n = DefaultTrendMonths
	}
	if loc == nil {
		loc = time.Local
	}

	type key struct {
		year  int
		month time.Month
	}
	groups := make(map[key]*MonthTotal)
	zero := types.Zero(currency)
	for _, p := range payments {
		if p == nil || p.Amount.Currency != zero.Currency {
			continue
		}
		y, m, _ := p.PaymentDate.In(loc).Date()
		k := key{y, m}
		g, ok := groups[k]
		if !ok {
			g = &MonthTotal{Year: y, Month: m, Total: zero}
			groups[k] = g
		}
		g.Total = g.Total.Add(p.Amount)
		g.Count++
	}

	series := make([]MonthTotal, 0, len(groups))
	for _, g := range groups {
		series = append(series, *g)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].before(series[j]) })

	if len(series) > n {
		series = series[len(series)-n:]
	}
	return series
}

// FillGaps returns series with a zero entry for every month missing between
// its first and last month. The input must be sorted ascending.
func FillGaps(series []MonthTotal) []MonthTotal {
	if len(series) < 2 {
		return series
	}

	currency := series[0].Total.Currency
	out := make([]MonthTotal, 0, len(series))
	for i, mt := range series {
		if i > 0 {
			prev := out[len(out)-1]
			next := time.Date(prev.Year, prev.Month+1, 1, 0, 0, 0, 0, time.UTC)
			for next.Year() < mt.Year || (next.Year() == mt.Year && next.Month() < mt.Month) {
				out = append(out, MonthTotal{Year: next.Year(), Month: next.Month(), Total: types.Zero(currency)})
				next = next.AddDate(0, 1, 0)
			}
		}
		out = append(out, mt)
	}
	return out
}
