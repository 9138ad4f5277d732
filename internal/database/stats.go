package database

import (
	"context"
	"fmt"
)

type VendorStats struct {
	VendorName  string  `json:"vendor_name"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

type CurrencyStats struct {
	Currency    string  `json:"currency"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

type MonthlyStats struct {
	Month       string  `json:"month" example:"2024-01"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

type ReceiptStats struct {
	TotalReceipts int64           `json:"total_receipts"`
	TotalSpent    float64         `json:"total_spent"`
	AverageAmount float64         `json:"average_amount"`
	MaxAmount     float64         `json:"max_amount"`
	MinAmount     float64         `json:"min_amount"`
	ByVendor      []VendorStats   `json:"by_vendor"`
	ByCurrency    []CurrencyStats `json:"by_currency"`
	ByMonth       []MonthlyStats  `json:"by_month"`
}

// GetReceiptStats aggregates the owner's receipts four ways off a single
// filter: one ungrouped row, top vendors, currencies, and recent months.
// Every query shares the same WHERE clause and bind values; sort and
// pagination fields of the filter are ignored.
func (q *Queries) GetReceiptStats(ctx context.Context, filter ReceiptFilter) (*ReceiptStats, error) {
	whereClause, args := filter.WhereClause()

	stats := &ReceiptStats{
		ByVendor:   []VendorStats{},
		ByCurrency: []CurrencyStats{},
		ByMonth:    []MonthlyStats{},
	}

	overallQuery := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COALESCE(SUM(total_amount), 0),
			COALESCE(AVG(total_amount), 0),
			COALESCE(MAX(total_amount), 0),
			COALESCE(MIN(total_amount), 0)
		FROM receipts %s`, whereClause)

	err := q.db.QueryRow(ctx, overallQuery, args...).Scan(
		&stats.TotalReceipts,
		&stats.TotalSpent,
		&stats.AverageAmount,
		&stats.MaxAmount,
		&stats.MinAmount,
	)
	if err != nil {
		return nil, err
	}

	vendorQuery := fmt.Sprintf(`
		SELECT vendor_name, COUNT(*), SUM(total_amount)
		FROM receipts %s
		GROUP BY vendor_name
		ORDER BY SUM(total_amount) DESC
		LIMIT 10`, whereClause)

	rows, err := q.db.Query(ctx, vendorQuery, args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var v VendorStats
		if err := rows.Scan(&v.VendorName, &v.Count, &v.TotalAmount); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByVendor = append(stats.ByVendor, v)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	currencyQuery := fmt.Sprintf(`
		SELECT currency, COUNT(*), SUM(total_amount)
		FROM receipts %s
		GROUP BY currency
		ORDER BY COUNT(*) DESC`, whereClause)

	rows, err = q.db.Query(ctx, currencyQuery, args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c CurrencyStats
		if err := rows.Scan(&c.Currency, &c.Count, &c.TotalAmount); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByCurrency = append(stats.ByCurrency, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	monthlyQuery := fmt.Sprintf(`
		SELECT TO_CHAR(purchase_date, 'YYYY-MM') AS month, COUNT(*), SUM(total_amount)
		FROM receipts %s
		GROUP BY TO_CHAR(purchase_date, 'YYYY-MM')
		ORDER BY month DESC
		LIMIT 12`, whereClause)

	rows, err = q.db.Query(ctx, monthlyQuery, args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var m MonthlyStats
		if err := rows.Scan(&m.Month, &m.Count, &m.TotalAmount); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByMonth = append(stats.ByMonth, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	return stats, nil
}
