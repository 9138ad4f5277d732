package database

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// sortColumns is the only source of ORDER BY column tokens. A requested sort
// field outside this set falls back to created_at DESC, never an error.
var sortColumns = map[string]string{
	"vendor_name":   "vendor_name",
	"total_amount":  "total_amount",
	"purchase_date": "purchase_date",
	"created_at":    "created_at",
}

// ReceiptFilter is the validated representation of list/search/stats query
// parameters, decoupled from its SQL rendering. The owner id is mandatory;
// every other field is optional. Listing uses the vendor/date subset, search
// uses the full set, stats ignores sort and pagination.
type ReceiptFilter struct {
	OwnerID   uuid.UUID
	Search    *string
	Vendor    *string
	StartDate *time.Time
	EndDate   *time.Time
	MinAmount *float64
	MaxAmount *float64
	Currency  *string
	SortBy    string
	Order     string
	Page      int64
	Limit     int64
}

// Normalize clamps pagination: page >= 1 (default 1), limit within [1,100]
// (default 20 when unset).
func (f *ReceiptFilter) Normalize() {
	if f.Page < 1 {
		f.Page = defaultPage
	}
	if f.Limit == 0 {
		f.Limit = defaultLimit
	}
	if f.Limit < 1 {
		f.Limit = 1
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
}

func (f *ReceiptFilter) Offset() int64 {
	return (f.Page - 1) * f.Limit
}

func (f *ReceiptFilter) TotalPages(total int64) int64 {
	return int64(math.Ceil(float64(total) / float64(f.Limit)))
}

// WhereClause renders the filter as a parameterized WHERE clause plus the
// bind values in matching order. Conditions are appended in one fixed
// enumeration order and bind positions follow the append order, so the count
// query, the data query and the stats queries all share identical binds as
// long as they all use the same (clause, args) pair. Only tokens from this
// function and sortColumns ever enter the SQL text; user values travel as
// binds.
func (f *ReceiptFilter) WhereClause() (string, []interface{}) {
	conditions := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)

	args = append(args, f.OwnerID)
	conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))

	if f.Search != nil {
		args = append(args, "%"+*f.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(vendor_name ILIKE $%d OR id IN (SELECT DISTINCT receipt_id FROM receipt_items WHERE name ILIKE $%d))", n, n))
	}

	if f.Vendor != nil {
		args = append(args, "%"+*f.Vendor+"%")
		conditions = append(conditions, fmt.Sprintf("vendor_name ILIKE $%d", len(args)))
	}

	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		conditions = append(conditions, fmt.Sprintf("purchase_date >= $%d", len(args)))
	}

	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		conditions = append(conditions, fmt.Sprintf("purchase_date <= $%d", len(args)))
	}

	if f.MinAmount != nil {
		args = append(args, *f.MinAmount)
		conditions = append(conditions, fmt.Sprintf("total_amount >= $%d", len(args)))
	}

	if f.MaxAmount != nil {
		args = append(args, *f.MaxAmount)
		conditions = append(conditions, fmt.Sprintf("total_amount <= $%d", len(args)))
	}

	if f.Currency != nil {
		args = append(args, *f.Currency)
		conditions = append(conditions, fmt.Sprintf("currency = $%d", len(args)))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (f *ReceiptFilter) OrderClause() string {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		return "ORDER BY created_at DESC"
	}

	dir := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		dir = "ASC"
	}

	return fmt.Sprintf("ORDER BY %s %s", col, dir)
}
