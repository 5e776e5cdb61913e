package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// DefaultLoanPeriodDays is how long a loan may run before late fees accrue.
	DefaultLoanPeriodDays = 15

	// DefaultLateFeePerDay is charged for each day beyond the loan period.
	DefaultLateFeePerDay = 1.00

	dateLayout    = "2/1/2006"
	secondsPerDay = 24 * 60 * 60
)

// FeePolicy holds the late fee rule.
type FeePolicy struct {
	LoanPeriodDays int
	LateFeePerDay  float64
}

// DefaultFeePolicy is 15 days free, then 1.00 per day.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		LoanPeriodDays: DefaultLoanPeriodDays,
		LateFeePerDay:  DefaultLateFeePerDay,
	}
}

// ComputeFee computes the amount due with the default policy.
func ComputeFee(loanDate string, returnDate string, baseFee float64) (float64, error) {
	return DefaultFeePolicy().ComputeFee(loanDate, returnDate, baseFee)
}

// ComputeFee returns baseFee plus LateFeePerDay for every whole day beyond LoanPeriodDays
// between the two D/M/YYYY dates.
//
// If either date does not parse, it returns baseFee together with ErrInvalidDateFormat.
// The caller is expected to report the error and may still charge the returned amount.
func (p FeePolicy) ComputeFee(loanDate string, returnDate string, baseFee float64) (float64, error) {
	loanedAt, err := ParseDate(loanDate)
	if err != nil {
		return baseFee, err
	}

	returnedAt, err := ParseDate(returnDate)
	if err != nil {
		return baseFee, err
	}

	days := DaysBetween(loanedAt, returnedAt)
	if days > p.LoanPeriodDays {
		return baseFee + float64(days-p.LoanPeriodDays)*p.LateFeePerDay, nil
	}

	return baseFee, nil
}

// ParseDate parses a D/M/YYYY date. One- and two-digit days and months are accepted.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidDateFormat, err)
	}

	return t, nil
}

// DaysBetween is the whole number of days from a to b, negative if b is before a.
// It counts in Unix seconds, so it holds for any pair of years 1 to 9999.
func DaysBetween(a time.Time, b time.Time) int {
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}
