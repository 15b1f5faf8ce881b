package payslip

import (
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/payslip-vault/pkg/money"
)

// changeThreshold is the minimum absolute percentage movement worth reporting.
// Sub-half-percent wobble is rounding noise in the source payslips.
var changeThreshold = decimal.RequireFromString("0.5")

var hundred = decimal.NewFromInt(100)

// scalarFields lists the ten tracked scalar fields in presentation order.
var scalarFields = []struct {
	label string
	get   func(*Record) decimal.Decimal
}{
	{"Gross Pay", func(r *Record) decimal.Decimal { return r.GrossPay }},
	{"Basic Salary", func(r *Record) decimal.Decimal { return r.BasicSalary }},
	{"Net Pay", func(r *Record) decimal.Decimal { return r.NetPay }},
	{"PAYE", func(r *Record) decimal.Decimal { return r.PAYE }},
	{"UIF", func(r *Record) decimal.Decimal { return r.UIF }},
	{"Pension", func(r *Record) decimal.Decimal { return r.Pension }},
	{"Medical Aid", func(r *Record) decimal.Decimal { return r.MedicalAid }},
	{"Total Deductions", func(r *Record) decimal.Decimal { return r.TotalDeductions }},
	{"Bonus", func(r *Record) decimal.Decimal { return r.Bonus }},
	{"Overtime", func(r *Record) decimal.Decimal { return r.Overtime }},
}

// DetectChanges compares two pay periods and returns the economically
// meaningful deltas: threshold-filtered movements on the ten scalar fields in
// their fixed order, then other-deduction items that appeared (current order),
// then items that disappeared (previous order). A field appearing from zero is
// reported as "new" at +100%; vanishing to zero as "removed" at -100%.
func DetectChanges(current, previous *Record) []Change {
	var changes []Change

	for _, f := range scalarFields {
		curr, prev := f.get(current), f.get(previous)

		if curr.IsZero() && prev.IsZero() {
			continue
		}
		if prev.IsZero() {
			changes = append(changes, Change{
				Field:         f.label,
				CurrentAmount: curr,
				PercentChange: hundred,
				Type:          ChangeNew,
			})
			continue
		}
		if curr.IsZero() {
			changes = append(changes, Change{
				Field:          f.label,
				PreviousAmount: prev,
				PercentChange:  hundred.Neg(),
				Type:           ChangeRemoved,
			})
			continue
		}

		pct := curr.Sub(prev).Div(prev).Mul(hundred)
		if pct.Abs().LessThan(changeThreshold) {
			continue
		}
		typ := ChangeIncreased
		if pct.IsNegative() {
			typ = ChangeDecreased
		}
		changes = append(changes, Change{
			Field:          f.label,
			PreviousAmount: prev,
			CurrentAmount:  curr,
			PercentChange:  money.RoundPercent(pct),
			Type:           typ,
		})
	}

	prevNames := itemNames(previous.OtherDeductions)
	currNames := itemNames(current.OtherDeductions)

	for _, d := range current.OtherDeductions {
		if !prevNames[d.Name] {
			changes = append(changes, Change{
				Field:         d.Name,
				CurrentAmount: d.Amount,
				PercentChange: hundred,
				Type:          ChangeNew,
			})
		}
	}
	for _, d := range previous.OtherDeductions {
		if !currNames[d.Name] {
			changes = append(changes, Change{
				Field:          d.Name,
				PreviousAmount: d.Amount,
				PercentChange:  hundred.Neg(),
				Type:           ChangeRemoved,
			})
		}
	}

	return changes
}

func itemNames(items []LineItem) map[string]bool {
	names := make(map[string]bool, len(items))
	for _, it := range items {
		names[it.Name] = true
	}
	return names
}
