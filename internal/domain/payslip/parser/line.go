// Package parser extracts structured payslip records from raw PDF text.
//
// The source layout (SimplePay, South Africa) is semi-fixed but inconsistently
// spaced: depending on the text extractor, a label and its two amount columns
// may arrive with or without separating whitespace, e.g.
//
//	Basic Salary28,636.3628,636.36
//	Basic Salary 28,636.36 28,636.36
//	NETT PAY R 23,112.81
//
// Lines with two amounts carry [Current] [YTD]; only the first (Current)
// amount is authoritative.
package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/payslip-vault/pkg/money"
)

// LineKind tags the classification of one trimmed text line.
type LineKind int

const (
	// KindUnrecognized contributes no data; the line is skipped.
	KindUnrecognized LineKind = iota
	// KindSectionHeader opens a payslip section; Income and Deduction
	// headers also declare that section's total on the same line.
	KindSectionHeader
	// KindNetPay is the terminal line of a payslip block.
	KindNetPay
	// KindDataRow carries a labelled Current amount within a section.
	KindDataRow
	// KindColumnDivider is a bare "Current / YTD" column header.
	KindColumnDivider
)

// Section identifies which payslip section a header opens.
type Section int

const (
	SectionNone Section = iota
	SectionIncome
	SectionAllowance
	SectionDeduction
	SectionEmployer
	SectionBenefit
)

// Line is the classification of a single line of extracted text.
type Line struct {
	Kind    LineKind
	Section Section // set for KindSectionHeader
	Label   string  // set for KindDataRow
	Amount  decimal.Decimal
}

var (
	netPayRe       = regexp.MustCompile(`(?i)NETT\s*PAY`)
	netPayAmountRe = regexp.MustCompile(`(?i)NETT\s*PAY\s*R\s*([\d,]+\.\d{2})`)

	incomeHeaderRe    = regexp.MustCompile(`(?i)^Income[\s\d]`)
	allowanceHeaderRe = regexp.MustCompile(`(?i)^Allowance[\s\d]`)
	deductionHeaderRe = regexp.MustCompile(`(?i)^Deduction[\s\d]`)
	employerHeaderRe  = regexp.MustCompile(`(?i)^Employer\s*Contribution`)
	benefitHeaderRe   = regexp.MustCompile(`(?i)^Benefit[\s\d]`)

	columnDividerRe = regexp.MustCompile(`(?i)^Current\s*YTD$`)

	hasDigitRe = regexp.MustCompile(`\d`)

	// Two trailing amounts are [Current] [YTD], possibly jammed together.
	twoAmountsRe = regexp.MustCompile(`([\d,]+\.\d{2})\s*([\d,]+\.\d{2})\s*$`)
	oneAmountRe  = regexp.MustCompile(`([\d,]+\.\d{2})\s*$`)

	// Everything from the first trailing amount onward is column noise.
	labelStripRe = regexp.MustCompile(`\s*-?[\d,]+\.\d{2}.*$`)

	basicSalaryRe = regexp.MustCompile(`basic\s*salary`)
	// A standalone "tax" token also means PAYE ("Tax (PAYE)", "Income Tax"),
	// but "taxable" does not.
	taxTokenRe = regexp.MustCompile(`\btax\b`)
)

// currentAmount extracts the Current-column amount from a line. The NETT PAY
// rand-prefixed form is special-cased; otherwise the leftmost of the trailing
// amount tokens wins and the YTD figure is discarded.
func currentAmount(line string) decimal.Decimal {
	if m := netPayAmountRe.FindStringSubmatch(line); m != nil {
		return money.ParseAmount(m[1])
	}
	if m := twoAmountsRe.FindStringSubmatch(line); m != nil {
		return money.ParseAmount(m[1])
	}
	if m := oneAmountRe.FindStringSubmatch(line); m != nil {
		return money.ParseAmount(m[1])
	}
	return decimal.Zero
}

// ClassifyLine categorizes one trimmed line of extracted text.
//
// The NETT PAY check runs before everything else: it terminates a payslip
// block regardless of the current section. Section headers must contain a
// digit so that stray prose starting with a keyword is not mistaken for a
// header. The Employer Contribution header is the exception and carries no
// total.
func ClassifyLine(line string) Line {
	if netPayRe.MatchString(line) {
		return Line{Kind: KindNetPay, Amount: currentAmount(line)}
	}

	if hasDigitRe.MatchString(line) {
		switch {
		case incomeHeaderRe.MatchString(line):
			return Line{Kind: KindSectionHeader, Section: SectionIncome, Amount: currentAmount(line)}
		case allowanceHeaderRe.MatchString(line):
			return Line{Kind: KindSectionHeader, Section: SectionAllowance}
		case deductionHeaderRe.MatchString(line):
			return Line{Kind: KindSectionHeader, Section: SectionDeduction, Amount: currentAmount(line)}
		case benefitHeaderRe.MatchString(line):
			return Line{Kind: KindSectionHeader, Section: SectionBenefit}
		}
	}
	if employerHeaderRe.MatchString(line) {
		return Line{Kind: KindSectionHeader, Section: SectionEmployer}
	}

	if columnDividerRe.MatchString(line) {
		return Line{Kind: KindColumnDivider}
	}

	amount := currentAmount(line)
	if amount.IsZero() {
		// Zero-value placeholder rows and amount-less lines carry no data.
		return Line{Kind: KindUnrecognized}
	}

	label := trimLabel(line)
	if label == "" {
		return Line{Kind: KindUnrecognized}
	}
	return Line{Kind: KindDataRow, Label: label, Amount: amount}
}

func trimLabel(line string) string {
	return strings.TrimSpace(labelStripRe.ReplaceAllString(line, ""))
}
