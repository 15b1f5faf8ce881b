package parser

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/payslip-vault/internal/domain/payslip"
)

// ParseText parses structured payslip data from raw extracted PDF text.
// Merged PDFs containing several payslip blocks are split on NETT PAY
// boundaries and the per-block records are combined by Merge.
func ParseText(text string) payslip.Record {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	records := make([]payslip.Record, 0, 1)
	for _, block := range splitBlocks(lines) {
		records = append(records, parseBlock(block))
	}
	return Merge(records)
}

// splitBlocks segments the line sequence into payslip blocks, each ending at
// its NETT PAY line (inclusive). With no NETT PAY line anywhere, the whole
// sequence is one best-effort block rather than a rejection.
func splitBlocks(lines []string) [][]string {
	var blocks [][]string
	var current []string

	for _, line := range lines {
		current = append(current, line)
		if netPayRe.MatchString(line) {
			blocks = append(blocks, current)
			current = nil
		}
	}
	if len(blocks) == 0 && len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// parseBlock folds the section state machine over one payslip block.
func parseBlock(lines []string) payslip.Record {
	var rec payslip.Record
	section := SectionNone

scan:
	for _, raw := range lines {
		line := ClassifyLine(raw)

		switch line.Kind {
		case KindNetPay:
			rec.NetPay = line.Amount
			// Anything after this line belongs to the next block.
			break scan

		case KindSectionHeader:
			switch line.Section {
			case SectionIncome:
				rec.GrossPay = line.Amount
			case SectionDeduction:
				rec.TotalDeductions = line.Amount
			}
			section = line.Section

		case KindDataRow:
			routeDataRow(&rec, section, line.Label, line.Amount)

		case KindColumnDivider, KindUnrecognized:
			// skipped
		}
	}

	if rec.TotalDeductions.IsZero() {
		rec.TotalDeductions = fallbackTotalDeductions(&rec)
	}
	return rec
}

// routeDataRow attributes one labelled amount to a record field based on the
// active section. Income rows that are neither basic salary, bonus nor
// overtime are sub-totals and are ignored, as are all rows under employer
// contributions or outside any section.
func routeDataRow(rec *payslip.Record, section Section, label string, amount decimal.Decimal) {
	lower := strings.ToLower(label)

	switch section {
	case SectionIncome:
		switch {
		case basicSalaryRe.MatchString(lower):
			rec.BasicSalary = amount
		case strings.Contains(lower, "bonus"):
			rec.Bonus = amount
		case strings.Contains(lower, "overtime"):
			rec.Overtime = amount
		}

	case SectionAllowance:
		rec.Allowances = append(rec.Allowances, payslip.LineItem{Name: label, Amount: amount})

	case SectionDeduction:
		switch {
		case strings.Contains(lower, "uif"):
			rec.UIF = amount
		case strings.Contains(lower, "paye") || taxTokenRe.MatchString(lower):
			rec.PAYE = amount
		case strings.Contains(lower, "pension"),
			strings.Contains(lower, "provident"),
			strings.Contains(lower, "retirement"):
			rec.Pension = amount
		case strings.Contains(lower, "medical"):
			rec.MedicalAid = amount
		default:
			rec.OtherDeductions = append(rec.OtherDeductions, payslip.LineItem{Name: label, Amount: amount})
		}

	case SectionBenefit:
		rec.Benefits = append(rec.Benefits, payslip.LineItem{Name: label, Amount: amount})
	}
}

// fallbackTotalDeductions reconstitutes the deduction total when the section
// header did not declare one.
func fallbackTotalDeductions(rec *payslip.Record) decimal.Decimal {
	total := rec.PAYE.Add(rec.UIF).Add(rec.Pension).Add(rec.MedicalAid)
	for _, d := range rec.OtherDeductions {
		total = total.Add(d.Amount)
	}
	return total
}
