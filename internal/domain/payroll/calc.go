package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Derive computes the gross amount, total deductions, and net amount from a
// base amount and the three line-item collections:
//
//	gross = base + sum(allowances) + sum(bonuses)
//	net   = gross - sum(deductions)
//
// Line-item amounts may be negative (clawbacks); the base amount must not be.
// Derive has no side effects and must run on every create and on every update
// that touches the base amount or a line-item collection.
func Derive(base decimal.Decimal, allowances, deductions, bonuses []LineItem) (gross, totalDeductions, net decimal.Decimal, err error) {
	if base.IsNegative() {
		return decimal.Zero, decimal.Zero, decimal.Zero,
			fmt.Errorf("base amount %s: %w", base.String(), ErrInvalidAmount)
	}

	gross = base.Add(sumLineItems(allowances)).Add(sumLineItems(bonuses))
	totalDeductions = sumLineItems(deductions)
	net = gross.Sub(totalDeductions)
	return gross, totalDeductions, net, nil
}

func sumLineItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

// Recalculate applies Derive to the record's own inputs and stores the
// derived amounts on the record.
func Recalculate(r *CompensationRecord) error {
	gross, totalDeductions, net, err := Derive(r.BaseAmount, r.Allowances, r.Deductions, r.Bonuses)
	if err != nil {
		return err
	}
	r.GrossAmount = gross
	r.TotalDeductions = totalDeductions
	r.NetAmount = net
	return nil
}
