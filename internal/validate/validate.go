// Package validate checks that each account's category percentages add up
// to roughly 100. It never changes the records; violations are data in the
// returned Report.
package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"productmix/internal/mix"
)

// Tolerance is the closed interval a percentage sum must fall in.
type Tolerance struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// DefaultTolerance is [99, 101].
func DefaultTolerance() Tolerance {
	return Tolerance{Min: decimal.NewFromInt(99), Max: decimal.NewFromInt(101)}
}

// NewTolerance builds a Tolerance from float bounds as read from flags or
// config.
func NewTolerance(min, max float64) (Tolerance, error) {
	if min > max {
		return Tolerance{}, fmt.Errorf("tolerance: min %.2f > max %.2f", min, max)
	}
	return Tolerance{Min: decimal.NewFromFloat(min), Max: decimal.NewFromFloat(max)}, nil
}

// Contains reports whether v lies within [Min, Max].
func (t Tolerance) Contains(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(t.Min) && v.LessThanOrEqual(t.Max)
}

func (t Tolerance) String() string {
	return fmt.Sprintf("[%s, %s]", t.Min.String(), t.Max.String())
}

// Deviation is one checked record with its recomputed percentage sum.
type Deviation struct {
	AccountNumber string
	DealerName    *string
	TotalPct      decimal.Decimal
}

// Report is the outcome of Check.
type Report struct {
	Tolerance Tolerance

	Within         []Deviation
	OutOfTolerance []Deviation

	// ZeroSales lists accounts whose Total_Sales is zero. Their percentages
	// are all zero by definition, so they take no part in the partition or
	// in the statistics below.
	ZeroSales []string

	// Mean, Min and Max of Total_Pct over Within and OutOfTolerance. All
	// zero when nothing was checked.
	Mean decimal.Decimal
	Min  decimal.Decimal
	Max  decimal.Decimal
}

// Checked returns the number of records in the partition.
func (r Report) Checked() int { return len(r.Within) + len(r.OutOfTolerance) }

// OK reports whether every checked record is within tolerance.
func (r Report) OK() bool { return len(r.OutOfTolerance) == 0 }

// Check recomputes Total_Pct from the five percentage fields of each record
// and partitions the records by tol.
func Check(recs []mix.Record, tol Tolerance) Report {
	rep := Report{Tolerance: tol, Mean: decimal.Zero, Min: decimal.Zero, Max: decimal.Zero}

	sum := decimal.Zero
	for _, r := range recs {
		if r.TotalSales.IsZero() {
			rep.ZeroSales = append(rep.ZeroSales, r.AccountNumber)
			continue
		}
		d := Deviation{AccountNumber: r.AccountNumber, DealerName: r.DealerName, TotalPct: r.Pct.Sum()}
		if tol.Contains(d.TotalPct) {
			rep.Within = append(rep.Within, d)
		} else {
			rep.OutOfTolerance = append(rep.OutOfTolerance, d)
		}

		sum = sum.Add(d.TotalPct)
		if rep.Checked() == 1 {
			rep.Min, rep.Max = d.TotalPct, d.TotalPct
			continue
		}
		rep.Min = decimal.Min(rep.Min, d.TotalPct)
		rep.Max = decimal.Max(rep.Max, d.TotalPct)
	}

	if n := rep.Checked(); n > 0 {
		rep.Mean = sum.Div(decimal.NewFromInt(int64(n)))
	}
	return rep
}
