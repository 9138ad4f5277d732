package database

import (
	"context"
	"errors"
	"fmt"
	"receipt-server/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var errReceiptNotFound = errors.New("receipt not found or user is not the owner")

type ReceiptItemParams struct {
	Name      string
	Quantity  int32
	UnitPrice float64
}

type CreateReceiptParams struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	VendorName      string
	TotalAmount     float64
	Currency        string
	PurchaseDate    time.Time
	ReceiptImageURL *string
	Items           []ReceiptItemParams
}

func (q *Queries) insertReceipt(ctx context.Context, arg CreateReceiptParams, now time.Time) error {
	query := `
		INSERT INTO receipts (id, user_id, vendor_name, total_amount, currency, purchase_date, receipt_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.db.Exec(ctx, query,
		arg.ID,
		arg.OwnerID,
		arg.VendorName,
		arg.TotalAmount,
		arg.Currency,
		arg.PurchaseDate,
		arg.ReceiptImageURL,
		now,
		now,
	)
	return err
}

func (q *Queries) insertReceiptItem(ctx context.Context, receiptID uuid.UUID, arg ReceiptItemParams) (*models.ReceiptItem, error) {
	item := models.ReceiptItem{
		ID:         uuid.New(),
		Name:       arg.Name,
		Quantity:   arg.Quantity,
		UnitPrice:  arg.UnitPrice,
		TotalPrice: float64(arg.Quantity) * arg.UnitPrice,
	}

	query := `
		INSERT INTO receipt_items (id, receipt_id, name, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.db.Exec(ctx, query,
		item.ID,
		receiptID,
		item.Name,
		item.Quantity,
		item.UnitPrice,
		item.TotalPrice,
	)
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// CreateReceiptWithItems inserts the receipt row and all item rows in one
// transaction; either everything commits or nothing does.
func (s *Store) CreateReceiptWithItems(ctx context.Context, arg CreateReceiptParams) (*models.Receipt, error) {
	now := time.Now()

	receipt := &models.Receipt{
		ID:              arg.ID,
		VendorName:      arg.VendorName,
		TotalAmount:     arg.TotalAmount,
		Currency:        arg.Currency,
		PurchaseDate:    arg.PurchaseDate,
		Items:           []models.ReceiptItem{},
		ReceiptImageURL: arg.ReceiptImageURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.ExecTx(ctx, func(q *Queries) error {
		if err := q.insertReceipt(ctx, arg, now); err != nil {
			return err
		}
		for _, itemArg := range arg.Items {
			item, err := q.insertReceiptItem(ctx, arg.ID, itemArg)
			if err != nil {
				return err
			}
			receipt.Items = append(receipt.Items, *item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

func (q *Queries) getReceiptItems(ctx context.Context, receiptID uuid.UUID) ([]models.ReceiptItem, error) {
	query := `
		SELECT id, name, quantity, unit_price, total_price
		FROM receipt_items
		WHERE receipt_id = $1
	`
	rows, err := q.db.Query(ctx, query, receiptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ReceiptItem
	for rows.Next() {
		var item models.ReceiptItem
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if items == nil {
		return []models.ReceiptItem{}, nil
	}

	return items, nil
}

// GetReceiptWithItems returns nil when the receipt is absent or owned by a
// different user.
func (q *Queries) GetReceiptWithItems(ctx context.Context, ownerID, id uuid.UUID) (*models.Receipt, error) {
	query := `
		SELECT id, vendor_name, total_amount, currency, purchase_date, receipt_image_url, created_at, updated_at
		FROM receipts
		WHERE id = $1 AND user_id = $2
	`
	var receipt models.Receipt

	err := q.db.QueryRow(ctx, query, id, ownerID).Scan(
		&receipt.ID,
		&receipt.VendorName,
		&receipt.TotalAmount,
		&receipt.Currency,
		&receipt.PurchaseDate,
		&receipt.ReceiptImageURL,
		&receipt.CreatedAt,
		&receipt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	items, err := q.getReceiptItems(ctx, id)
	if err != nil {
		return nil, err
	}
	receipt.Items = items

	return &receipt, nil
}

type ReplaceReceiptParams struct {
	VendorName      string
	TotalAmount     float64
	Currency        string
	PurchaseDate    time.Time
	ReceiptImageURL *string
	Items           []ReceiptItemParams
}

// ReplaceReceiptWithItems updates the receipt row and swaps out the full item
// set inside one transaction. Returns nil when the receipt is absent or owned
// by a different user.
func (s *Store) ReplaceReceiptWithItems(ctx context.Context, ownerID, id uuid.UUID, arg ReplaceReceiptParams) (*models.Receipt, error) {
	now := time.Now()

	receipt := &models.Receipt{
		ID:              id,
		VendorName:      arg.VendorName,
		TotalAmount:     arg.TotalAmount,
		Currency:        arg.Currency,
		PurchaseDate:    arg.PurchaseDate,
		Items:           []models.ReceiptItem{},
		ReceiptImageURL: arg.ReceiptImageURL,
		UpdatedAt:       now,
	}

	err := s.ExecTx(ctx, func(q *Queries) error {
		query := `
			UPDATE receipts
			SET vendor_name = $1, total_amount = $2, currency = $3, purchase_date = $4, receipt_image_url = $5, updated_at = $6
			WHERE id = $7 AND user_id = $8
			RETURNING created_at
		`
		err := q.db.QueryRow(ctx, query,
			arg.VendorName,
			arg.TotalAmount,
			arg.Currency,
			arg.PurchaseDate,
			arg.ReceiptImageURL,
			now,
			id,
			ownerID,
		).Scan(&receipt.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errReceiptNotFound
			}
			return err
		}

		if _, err := q.db.Exec(ctx, `DELETE FROM receipt_items WHERE receipt_id = $1`, id); err != nil {
			return err
		}

		for _, itemArg := range arg.Items {
			item, err := q.insertReceiptItem(ctx, id, itemArg)
			if err != nil {
				return err
			}
			receipt.Items = append(receipt.Items, *item)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errReceiptNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return receipt, nil
}

func (q *Queries) DeleteReceipt(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	query := `DELETE FROM receipts WHERE id = $1 AND user_id = $2`
	res, err := q.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// ListReceipts runs the count query and the page fetch off one filter. Both
// use the exact same WHERE clause and bind values; the data query only
// appends LIMIT/OFFSET after them.
func (q *Queries) ListReceipts(ctx context.Context, filter ReceiptFilter) ([]models.Receipt, int64, error) {
	filter.Normalize()

	whereClause, args := filter.WhereClause()

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM receipts %s", whereClause)
	var total int64
	if err := q.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	fetchQuery := fmt.Sprintf(
		`SELECT id, vendor_name, total_amount, currency, purchase_date, receipt_image_url, created_at, updated_at
		 FROM receipts %s %s LIMIT $%d OFFSET $%d`,
		whereClause, filter.OrderClause(), len(args)+1, len(args)+2,
	)
	fetchArgs := append(args, filter.Limit, filter.Offset())

	rows, err := q.db.Query(ctx, fetchQuery, fetchArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		var receipt models.Receipt
		err := rows.Scan(
			&receipt.ID,
			&receipt.VendorName,
			&receipt.TotalAmount,
			&receipt.Currency,
			&receipt.PurchaseDate,
			&receipt.ReceiptImageURL,
			&receipt.CreatedAt,
			&receipt.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		receipts = append(receipts, receipt)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	for i := range receipts {
		items, err := q.getReceiptItems(ctx, receipts[i].ID)
		if err != nil {
			return nil, 0, err
		}
		receipts[i].Items = items
	}

	if receipts == nil {
		receipts = []models.Receipt{}
	}

	return receipts, total, nil
}
