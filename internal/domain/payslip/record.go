// Package payslip defines the structured payslip record and the
// month-over-month change model.
package payslip

import "github.com/shopspring/decimal"

// LineItem is a single named figure within a payslip section, e.g. a loan
// repayment under deductions or a travel allowance.
type LineItem struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Record is the canonical structured extraction of one pay period. All scalar
// amounts are non-negative currency values with cent precision. Bonus and
// Overtime are zero when the source payslip carries no such line.
type Record struct {
	GrossPay        decimal.Decimal `json:"grossPay"`
	BasicSalary     decimal.Decimal `json:"basicSalary"`
	NetPay          decimal.Decimal `json:"netPay"`
	PAYE            decimal.Decimal `json:"paye"`
	UIF             decimal.Decimal `json:"uif"`
	Pension         decimal.Decimal `json:"pension"`
	MedicalAid      decimal.Decimal `json:"medicalAid"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	OtherDeductions []LineItem      `json:"otherDeductions"`
	Allowances      []LineItem      `json:"allowances"`
	Benefits        []LineItem      `json:"benefits"`
	Bonus           decimal.Decimal `json:"bonus,omitzero"`
	Overtime        decimal.Decimal `json:"overtime,omitzero"`
}

// ChangeType categorizes a detected delta between two pay periods.
type ChangeType string

const (
	ChangeIncreased ChangeType = "increased"
	ChangeDecreased ChangeType = "decreased"
	ChangeNew       ChangeType = "new"
	ChangeRemoved   ChangeType = "removed"
)

// Change is one economically meaningful delta between two records for a named
// field. Changes are transient: they feed the notification sink and are never
// persisted.
type Change struct {
	Field          string          `json:"field"`
	PreviousAmount decimal.Decimal `json:"previousAmount"`
	CurrentAmount  decimal.Decimal `json:"currentAmount"`
	PercentChange  decimal.Decimal `json:"percentChange"`
	Type           ChangeType      `json:"type"`
}
