package database

import (
	"context"
	"receipt-server/internal/models"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func createTestReceipt(t *testing.T, ownerID uuid.UUID, vendor string, total float64, purchaseDate time.Time, items []ReceiptItemParams) *models.Receipt {
	t.Helper()

	receipt, err := testStore.CreateReceiptWithItems(context.Background(), CreateReceiptParams{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		VendorName:   vendor,
		TotalAmount:  total,
		Currency:     "USD",
		PurchaseDate: purchaseDate,
		Items:        items,
	})
	require.NoError(t, err)
	require.NotNil(t, receipt)
	return receipt
}

func TestCreateReceiptWithItems(t *testing.T) {
	user := createTestUser(t)

	receipt := createTestReceipt(t, user.ID, "Target", 45.67, time.Now(), []ReceiptItemParams{
		{Name: "Milk", Quantity: 2, UnitPrice: 4.99},
		{Name: "Bread", Quantity: 1, UnitPrice: 3.50},
	})

	require.Len(t, receipt.Items, 2)
	require.Equal(t, 9.98, receipt.Items[0].TotalPrice)
	require.Equal(t, 3.50, receipt.Items[1].TotalPrice)
	require.Equal(t, 45.67, receipt.TotalAmount)

	// Stored values must round-trip, with total_amount trusted verbatim
	// rather than recomputed from the items.
	fetched, err := testStore.GetReceiptWithItems(context.Background(), user.ID, receipt.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, 45.67, fetched.TotalAmount)
	require.Len(t, fetched.Items, 2)

	byName := make(map[string]models.ReceiptItem)
	for _, item := range fetched.Items {
		byName[item.Name] = item
	}
	require.Equal(t, int32(2), byName["Milk"].Quantity)
	require.Equal(t, 4.99, byName["Milk"].UnitPrice)
	require.Equal(t, 9.98, byName["Milk"].TotalPrice)
}

func TestGetReceiptWithItems_TenantIsolation(t *testing.T) {
	owner := createTestUser(t)
	stranger := createTestUser(t)

	receipt := createTestReceipt(t, owner.ID, "Target", 10, time.Now(), nil)

	fetched, err := testStore.GetReceiptWithItems(context.Background(), stranger.ID, receipt.ID)
	require.NoError(t, err)
	require.Nil(t, fetched)

	fetched, err = testStore.GetReceiptWithItems(context.Background(), owner.ID, uuid.New())
	require.NoError(t, err)
	require.Nil(t, fetched)
}

func TestReplaceReceiptWithItems(t *testing.T) {
	user := createTestUser(t)

	original := createTestReceipt(t, user.ID, "Target", 20, time.Now(), []ReceiptItemParams{
		{Name: "Milk", Quantity: 2, UnitPrice: 4.99},
	})

	newDate := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	updated, err := testStore.ReplaceReceiptWithItems(context.Background(), user.ID, original.ID, ReplaceReceiptParams{
		VendorName:   "Walmart",
		TotalAmount:  30,
		Currency:     "EUR",
		PurchaseDate: newDate,
		Items: []ReceiptItemParams{
			{Name: "Eggs", Quantity: 3, UnitPrice: 2.00},
			{Name: "Butter", Quantity: 1, UnitPrice: 5.25},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, "Walmart", updated.VendorName)
	require.Equal(t, original.CreatedAt.Unix(), updated.CreatedAt.Unix())

	fetched, err := testStore.GetReceiptWithItems(context.Background(), user.ID, original.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, "EUR", fetched.Currency)
	require.Len(t, fetched.Items, 2)
	for _, item := range fetched.Items {
		require.NotEqual(t, "Milk", item.Name)
	}
}

func TestReplaceReceiptWithItems_NotFound(t *testing.T) {
	owner := createTestUser(t)
	stranger := createTestUser(t)

	receipt := createTestReceipt(t, owner.ID, "Target", 20, time.Now(), []ReceiptItemParams{
		{Name: "Milk", Quantity: 1, UnitPrice: 4.99},
	})

	updated, err := testStore.ReplaceReceiptWithItems(context.Background(), stranger.ID, receipt.ID, ReplaceReceiptParams{
		VendorName:   "Hijack",
		TotalAmount:  1,
		Currency:     "USD",
		PurchaseDate: time.Now(),
	})
	require.NoError(t, err)
	require.Nil(t, updated)

	// The failed update must not have touched the owner's receipt.
	fetched, err := testStore.GetReceiptWithItems(context.Background(), owner.ID, receipt.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, "Target", fetched.VendorName)
	require.Len(t, fetched.Items, 1)
}

func TestDeleteReceipt(t *testing.T) {
	owner := createTestUser(t)
	stranger := createTestUser(t)

	receipt := createTestReceipt(t, owner.ID, "Target", 20, time.Now(), []ReceiptItemParams{
		{Name: "Milk", Quantity: 1, UnitPrice: 4.99},
	})

	deleted, err := testStore.DeleteReceipt(context.Background(), stranger.ID, receipt.ID)
	require.NoError(t, err)
	require.False(t, deleted)

	deleted, err = testStore.DeleteReceipt(context.Background(), owner.ID, receipt.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	// Items must die with their receipt.
	var itemCount int
	err = testStore.GetPool().QueryRow(context.Background(),
		"SELECT count(*) FROM receipt_items WHERE receipt_id = $1", receipt.ID).Scan(&itemCount)
	require.NoError(t, err)
	require.Equal(t, 0, itemCount)

	deleted, err = testStore.DeleteReceipt(context.Background(), owner.ID, receipt.ID)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestListReceipts_FilterAndPaginate(t *testing.T) {
	user := createTestUser(t)

	jan := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	createTestReceipt(t, user.ID, "Target", 10, jan, nil)
	createTestReceipt(t, user.ID, "Walmart", 20, feb, nil)
	createTestReceipt(t, user.ID, "Target Express", 30, mar, nil)

	// Vendor substring filter, case-insensitive.
	receipts, total, err := testStore.ListReceipts(context.Background(), ReceiptFilter{
		OwnerID: user.ID,
		Vendor:  strPtr("target"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, receipts, 2)

	// Date range, inclusive both ends.
	receipts, total, err = testStore.ListReceipts(context.Background(), ReceiptFilter{
		OwnerID:   user.ID,
		StartDate: timePtr(feb),
		EndDate:   timePtr(mar),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, receipts, 2)

	// Pagination: total counts all matches, the page holds at most limit.
	receipts, total, err = testStore.ListReceipts(context.Background(), ReceiptFilter{
		OwnerID: user.ID,
		Page:    2,
		Limit:   2,
		SortBy:  "purchase_date",
		Order:   "asc",
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, receipts, 1)
	require.Equal(t, "Target Express", receipts[0].VendorName)
}

func TestListReceipts_SearchMatchesItemNames(t *testing.T) {
	user := createTestUser(t)

	createTestReceipt(t, user.ID, "Corner Shop", 10, time.Now(), []ReceiptItemParams{
		{Name: "Oat Milk", Quantity: 1, UnitPrice: 3.99},
	})
	createTestReceipt(t, user.ID, "Milk Bar", 15, time.Now(), nil)
	createTestReceipt(t, user.ID, "Hardware Store", 50, time.Now(), []ReceiptItemParams{
		{Name: "Hammer", Quantity: 1, UnitPrice: 25},
	})

	receipts, total, err := testStore.ListReceipts(context.Background(), ReceiptFilter{
		OwnerID: user.ID,
		Search:  strPtr("milk"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, receipts, 2)
}

func TestListReceipts_AmountAndCurrency(t *testing.T) {
	user := createTestUser(t)

	createTestReceipt(t, user.ID, "A", 5, time.Now(), nil)
	createTestReceipt(t, user.ID, "B", 50, time.Now(), nil)
	createTestReceipt(t, user.ID, "C", 500, time.Now(), nil)

	receipts, total, err := testStore.ListReceipts(context.Background(), ReceiptFilter{
		OwnerID:   user.ID,
		MinAmount: f64Ptr(10),
		MaxAmount: f64Ptr(100),
		Currency:  strPtr("USD"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, receipts, 1)
	require.Equal(t, "B", receipts[0].VendorName)
}

func TestListReceipts_TenantIsolation(t *testing.T) {
	owner := createTestUser(t)
	stranger := createTestUser(t)

	createTestReceipt(t, owner.ID, "Target", 10, time.Now(), nil)

	receipts, total, err := testStore.ListReceipts(context.Background(), ReceiptFilter{OwnerID: stranger.ID})
	require.NoError(t, err)
	require.Equal(t, int64(0), total)
	require.Empty(t, receipts)
}

func TestGetReceiptStats(t *testing.T) {
	user := createTestUser(t)

	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	createTestReceipt(t, user.ID, "Target", 10, jan, nil)
	createTestReceipt(t, user.ID, "Target", 30, feb, nil)
	createTestReceipt(t, user.ID, "Walmart", 20, feb, nil)

	stats, err := testStore.GetReceiptStats(context.Background(), ReceiptFilter{OwnerID: user.ID})
	require.NoError(t, err)
	require.NotNil(t, stats)

	require.Equal(t, int64(3), stats.TotalReceipts)
	require.Equal(t, 60.0, stats.TotalSpent)
	require.Equal(t, 20.0, stats.AverageAmount)
	require.Equal(t, 30.0, stats.MaxAmount)
	require.Equal(t, 10.0, stats.MinAmount)

	require.Len(t, stats.ByVendor, 2)
	require.Equal(t, "Target", stats.ByVendor[0].VendorName)
	require.Equal(t, 40.0, stats.ByVendor[0].TotalAmount)

	require.Len(t, stats.ByCurrency, 1)
	require.Equal(t, "USD", stats.ByCurrency[0].Currency)
	require.Equal(t, int64(3), stats.ByCurrency[0].Count)

	require.Len(t, stats.ByMonth, 2)
	require.Equal(t, "2024-02", stats.ByMonth[0].Month)
	require.Equal(t, int64(2), stats.ByMonth[0].Count)
	require.Equal(t, "2024-01", stats.ByMonth[1].Month)
}

func TestGetReceiptStats_Empty(t *testing.T) {
	user := createTestUser(t)

	stats, err := testStore.GetReceiptStats(context.Background(), ReceiptFilter{OwnerID: user.ID})
	require.NoError(t, err)

	require.Equal(t, int64(0), stats.TotalReceipts)
	require.Equal(t, 0.0, stats.TotalSpent)
	require.Empty(t, stats.ByVendor)
	require.Empty(t, stats.ByCurrency)
	require.Empty(t, stats.ByMonth)
}
