package parser

import (
	"github.com/FACorreiaa/payslip-vault/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-vault/pkg/money"
)

// Merge combines the records of a multi-payslip document into one canonical
// record. Scalar fields are summed; named items are unioned by name with
// matching names summed into one entry, input order preserved. All sums are
// rounded to cent precision to suppress accumulation drift. A single record
// passes through unchanged.
func Merge(records []payslip.Record) payslip.Record {
	if len(records) == 0 {
		return payslip.Record{}
	}
	if len(records) == 1 {
		return records[0]
	}

	var merged payslip.Record
	for _, r := range records {
		merged.GrossPay = merged.GrossPay.Add(r.GrossPay)
		merged.BasicSalary = merged.BasicSalary.Add(r.BasicSalary)
		merged.NetPay = merged.NetPay.Add(r.NetPay)
		merged.PAYE = merged.PAYE.Add(r.PAYE)
		merged.UIF = merged.UIF.Add(r.UIF)
		merged.Pension = merged.Pension.Add(r.Pension)
		merged.MedicalAid = merged.MedicalAid.Add(r.MedicalAid)
		merged.TotalDeductions = merged.TotalDeductions.Add(r.TotalDeductions)
		merged.Bonus = merged.Bonus.Add(r.Bonus)
		merged.Overtime = merged.Overtime.Add(r.Overtime)

		merged.OtherDeductions = mergeItems(merged.OtherDeductions, r.OtherDeductions)
		merged.Allowances = mergeItems(merged.Allowances, r.Allowances)
		merged.Benefits = mergeItems(merged.Benefits, r.Benefits)
	}

	merged.GrossPay = money.Round2(merged.GrossPay)
	merged.BasicSalary = money.Round2(merged.BasicSalary)
	merged.NetPay = money.Round2(merged.NetPay)
	merged.PAYE = money.Round2(merged.PAYE)
	merged.UIF = money.Round2(merged.UIF)
	merged.Pension = money.Round2(merged.Pension)
	merged.MedicalAid = money.Round2(merged.MedicalAid)
	merged.TotalDeductions = money.Round2(merged.TotalDeductions)
	merged.Bonus = money.Round2(merged.Bonus)
	merged.Overtime = money.Round2(merged.Overtime)
	for _, items := range [][]payslip.LineItem{merged.OtherDeductions, merged.Allowances, merged.Benefits} {
		for i := range items {
			items[i].Amount = money.Round2(items[i].Amount)
		}
	}

	return merged
}

// mergeItems unions src into dst by name, summing amounts for matching names
// and appending new names in input order.
func mergeItems(dst, src []payslip.LineItem) []payslip.LineItem {
	for _, item := range src {
		found := false
		for i := range dst {
			if dst[i].Name == item.Name {
				dst[i].Amount = dst[i].Amount.Add(item.Amount)
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, item)
		}
	}
	return dst
}
