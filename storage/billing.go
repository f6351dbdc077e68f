package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hourbook/billing"

	"github.com/shopspring/decimal"
)

// GetOrCreateBillingPeriod returns the persisted billing period for the
// date's (year, month), creating it on first use. INSERT OR IGNORE against
// the unique (year, month) index keeps concurrent creation idempotent.
func (s *Store) GetOrCreateBillingPeriod(date time.Time) (billing.Period, error) {
	period := billing.FromDate(date)

	if _, err := s.db.Exec(`INSERT OR IGNORE INTO billing_periods (year, month) VALUES (?, ?);`,
		period.Year, period.Month); err != nil {
		return billing.Period{}, fmt.Errorf("insert billing period %s: %w", period, err)
	}
	if err := s.db.QueryRow(`SELECT id FROM billing_periods WHERE year = ? AND month = ?;`,
		period.Year, period.Month).Scan(&period.ID); err != nil {
		return billing.Period{}, fmt.Errorf("fetch billing period %s: %w", period, err)
	}
	return period, nil
}

// GetBillingPeriod returns the persisted period for (year, month) if it
// exists; the boolean reports existence.
func (s *Store) GetBillingPeriod(year, month int) (billing.Period, bool, error) {
	period := billing.Period{Year: year, Month: month}
	err := s.db.QueryRow(`SELECT id FROM billing_periods WHERE year = ? AND month = ?;`,
		year, month).Scan(&period.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return billing.Period{}, false, nil
		}
		return billing.Period{}, false, fmt.Errorf("fetch billing period %d-%02d: %w", year, month, err)
	}
	return period, true, nil
}

// TotalCoderHoursForPeriod sums the amounts of all entries billed to the
// period on the coder side.
func (s *Store) TotalCoderHoursForPeriod(periodID int64) (decimal.Decimal, error) {
	return s.sumByPeriod(`coder_billing_period_id`, periodID)
}

// TotalProjectHoursForPeriod sums the amounts of all entries billed to the
// period on the project side.
func (s *Store) TotalProjectHoursForPeriod(periodID int64) (decimal.Decimal, error) {
	return s.sumByPeriod(`project_billing_period_id`, periodID)
}

func (s *Store) sumByPeriod(column string, periodID int64) (decimal.Decimal, error) {
	rows, err := s.db.Query(`SELECT amount FROM hours WHERE `+column+` = ?;`, periodID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query billed hours: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan billed amount: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse billed amount %q: %w", raw, err)
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}
