package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"receipt-server/internal/database"
	"receipt-server/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ReceiptItemRequest struct {
	Name      string  `json:"name" example:"Milk"`
	Quantity  int32   `json:"quantity" example:"2"`
	UnitPrice float64 `json:"unit_price" example:"4.99"`
}

type CreateReceiptRequest struct {
	VendorName      string               `json:"vendor_name" example:"Target"`
	TotalAmount     float64              `json:"total_amount" example:"45.67"`
	Currency        string               `json:"currency" example:"USD"`
	PurchaseDate    string               `json:"purchase_date" example:"2024-01-15T10:30:00Z"`
	Items           []ReceiptItemRequest `json:"items"`
	ReceiptImageURL *string              `json:"receipt_image_url,omitempty" example:"https://example.com/receipt.jpg"`
}

type ReceiptsListResponse struct {
	Receipts   []models.Receipt `json:"receipts"`
	Total      int64            `json:"total"`
	Page       int64            `json:"page"`
	Limit      int64            `json:"limit"`
	TotalPages int64            `json:"total_pages"`
}

func itemParams(items []ReceiptItemRequest) []database.ReceiptItemParams {
	params := make([]database.ReceiptItemParams, 0, len(items))
	for _, item := range items {
		params = append(params, database.ReceiptItemParams{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return params
}

// parseReceiptFilter validates the shared query parameters into a filter for
// the requesting user. Malformed values are rejected with the returned
// message; only an unknown sort field passes through, falling back to
// created_at DESC inside the builder.
func parseReceiptFilter(r *http.Request, ownerID uuid.UUID, withSearch bool) (database.ReceiptFilter, string) {
	q := r.URL.Query()

	filter := database.ReceiptFilter{
		OwnerID: ownerID,
		SortBy:  q.Get("sort_by"),
		Order:   q.Get("order"),
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, "Invalid page, expected an integer"
		}
		filter.Page = page
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, "Invalid limit, expected an integer"
		}
		filter.Limit = limit
	}

	if v := q.Get("vendor"); v != "" {
		filter.Vendor = &v
	}

	if v := q.Get("start_date"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, "Invalid start_date, expected RFC3339 timestamp"
		}
		filter.StartDate = &parsed
	}

	if v := q.Get("end_date"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, "Invalid end_date, expected RFC3339 timestamp"
		}
		filter.EndDate = &parsed
	}

	if !withSearch {
		return filter, ""
	}

	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}

	if v := q.Get("min_amount"); v != "" {
		min, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, "Invalid min_amount, expected a number"
		}
		filter.MinAmount = &min
	}

	if v := q.Get("max_amount"); v != "" {
		max, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, "Invalid max_amount, expected a number"
		}
		filter.MaxAmount = &max
	}

	if v := q.Get("currency"); v != "" {
		filter.Currency = &v
	}

	return filter, ""
}

func (s *Server) receiptIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "receiptId"))
	if err != nil {
		http.Error(w, "Invalid receipt ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// @Summary      Creates a receipt
// @Description  Stores a receipt and its items atomically. Item total prices are computed as quantity times unit price; the receipt total is stored as supplied.
// @Tags         receipts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        createReceiptRequest   body      CreateReceiptRequest  true  "Receipt data"
// @Success      201                    {object}  models.Receipt
// @Failure      400                    {string}  string "Invalid request body"
// @Failure      401                    {string}  string "Unauthorized"
// @Failure      500                    {string}  string "Internal Server Error"
// @Router       /receipts [post]
func (s *Server) CreateReceiptHandler(w http.ResponseWriter, r *http.Request) {
	principal := GetUserFromContext(r.Context())

	var req CreateReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.VendorName) == "" {
		http.Error(w, "Vendor name cannot be empty", http.StatusBadRequest)
		return
	}

	purchaseDate, err := time.Parse(time.RFC3339, req.PurchaseDate)
	if err != nil {
		http.Error(w, "Invalid purchase_date, expected RFC3339 timestamp", http.StatusBadRequest)
		return
	}

	receipt, err := s.store.CreateReceiptWithItems(r.Context(), database.CreateReceiptParams{
		ID:              uuid.New(),
		OwnerID:         principal.ID,
		VendorName:      req.VendorName,
		TotalAmount:     req.TotalAmount,
		Currency:        req.Currency,
		PurchaseDate:    purchaseDate,
		ReceiptImageURL: req.ReceiptImageURL,
		Items:           itemParams(req.Items),
	})
	if err != nil {
		log.Printf("ERROR: Failed to create receipt for user %s: %v", principal.ID, err)
		http.Error(w, "Failed to create receipt", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

// @Summary      Gets a receipt by ID
// @Tags         receipts
// @Security     BearerAuth
// @Produce      json
// @Param        receiptId   path      string  true  "Receipt UUID"
// @Success      200         {object}  models.Receipt
// @Failure      400         {string}  string "Invalid receipt ID"
// @Failure      401         {string}  string "Unauthorized"
// @Failure      404         {string}  string "Receipt not found"
// @Failure      500         {string}  string "Internal Server Error"
// @Router       /receipts/{receiptId} [get]
func (s *Server) GetReceiptHandler(w http.ResponseWriter, r *http.Request) {
	principal := GetUserFromContext(r.Context())

	id, ok := s.receiptIDFromURL(w, r)
	if !ok {
		return
	}

	receipt, err := s.store.GetReceiptWithItems(r.Context(), principal.ID, id)
	if err != nil {
		log.Printf("ERROR: Failed to get receipt %s: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if receipt == nil {
		http.Error(w, "Receipt not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

// @Summary      Updates a receipt
// @Description  Replaces the receipt fields and its entire item set atomically.
// @Tags         receipts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        receiptId              path      string                true  "Receipt UUID"
// @Param        updateReceiptRequest   body      CreateReceiptRequest  true  "Replacement receipt data"
// @Success      200                    {object}  models.Receipt
// @Failure      400                    {string}  string "Invalid request body"
// @Failure      401                    {string}  string "Unauthorized"
// @Failure      404                    {string}  string "Receipt not found"
// @Failure      500                    {string}  string "Internal Server Error"
// @Router       /receipts/{receiptId} [put]
func (s *Server) UpdateReceiptHandler(w http.ResponseWriter, r *http.Request) {
	principal := GetUserFromContext(r.Context())

	id, ok := s.receiptIDFromURL(w, r)
	if !ok {
		return
	}

	var req CreateReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.VendorName) == "" {
		http.Error(w, "Vendor name cannot be empty", http.StatusBadRequest)
		return
	}

	purchaseDate, err := time.Parse(time.RFC3339, req.PurchaseDate)
	if err != nil {
		http.Error(w, "Invalid purchase_date, expected RFC3339 timestamp", http.StatusBadRequest)
		return
	}

	receipt, err := s.store.ReplaceReceiptWithItems(r.Context(), principal.ID, id, database.ReplaceReceiptParams{
		VendorName:      req.VendorName,
		TotalAmount:     req.TotalAmount,
		Currency:        req.Currency,
		PurchaseDate:    purchaseDate,
		ReceiptImageURL: req.ReceiptImageURL,
		Items:           itemParams(req.Items),
	})
	if err != nil {
		log.Printf("ERROR: Failed to update receipt %s: %v", id, err)
		http.Error(w, "Failed to update receipt", http.StatusInternalServerError)
		return
	}
	if receipt == nil {
		http.Error(w, "Receipt not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

// @Summary      Deletes a receipt
// @Tags         receipts
// @Security     BearerAuth
// @Param        receiptId   path      string  true  "Receipt UUID"
// @Success      204         {string}  string "No Content"
// @Failure      400         {string}  string "Invalid receipt ID"
// @Failure      401         {string}  string "Unauthorized"
// @Failure      404         {string}  string "Receipt not found"
// @Failure      500         {string}  string "Internal Server Error"
// @Router       /receipts/{receiptId} [delete]
func (s *Server) DeleteReceiptHandler(w http.ResponseWriter, r *http.Request) {
	principal := GetUserFromContext(r.Context())

	id, ok := s.receiptIDFromURL(w, r)
	if !ok {
		return
	}

	deleted, err := s.store.DeleteReceipt(r.Context(), principal.ID, id)
	if err != nil {
		log.Printf("ERROR: Failed to delete receipt %s: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Receipt not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Lists receipts
// @Description  Pages through the user's receipts with optional vendor and purchase-date filters.
// @Tags         receipts
// @Security     BearerAuth
// @Produce      json
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Page size, 1-100 (default 20)"
// @Param        vendor      query     string  false  "Vendor substring, case-insensitive"
// @Param        start_date  query     string  false  "RFC3339 lower bound, inclusive"
// @Param        end_date    query     string  false  "RFC3339 upper bound, inclusive"
// @Param        sort_by     query     string  false  "vendor_name | total_amount | purchase_date | created_at"
// @Param        order       query     string  false  "asc | desc"
// @Success      200         {object}  ReceiptsListResponse
// @Failure      400         {string}  string "Invalid query parameter"
// @Failure      401         {string}  string "Unauthorized"
// @Failure      500         {string}  string "Internal Server Error"
// @Router       /receipts [get]
func (s *Server) ListReceiptsHandler(w http.ResponseWriter, r *http.Request) {
	principal := GetUserFromContext(r.Context())

	filter, errMsg := parseReceiptFilter(r, principal.ID, false)
	if errMsg != "" {
		http.Error(w, errMsg, http.StatusBadRequest)
		return
	}

	s.respondReceiptPage(w, r, filter)
}

// @Summary      Searches receipts
// @Description  Full search across vendor names and item names, with amount, currency, vendor and date filters.
// @Tags         receipts
// @Security     BearerAuth
// @Produce      json
// @Param        search      query     string  false  "Matches vendor name or any item name"
// @Param        vendor      query     string  false  "Vendor substring, case-insensitive"
// @Param        start_date  query     string  false  "RFC3339 lower bound, inclusive"
// @Param        end_date    query     string  false  "RFC3339 upper bound, inclusive"
// @Param        min_amount  query     number  false  "Minimum total amount, inclusive"
// @Param        max_amount  query     number  false  "Maximum total amount, inclusive"
// @Param        currency    query     string  false  "Exact currency code"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Page size, 1-100 (default 20)"
// @Param        sort_by     query     string  false  "vendor_name | total_amount | purchase_date | created_at"
// @Param        order       query     string  false  "asc | desc"
// @Success      200         {object}  ReceiptsListResponse
// @Failure      400         {string}  string "Invalid query parameter"
// @Failure      401         {string}  string "Unauthorized"
// @Failure      500         {string}  string "Internal Server Error"
// @Router       /receipts/search [get]
func (s *Server) SearchReceiptsHandler(w http.ResponseWriter, r *http.Request) {
	principal := GetUserFromContext(r.Context())

	filter, errMsg := parseReceiptFilter(r, principal.ID, true)
	if errMsg != "" {
		http.Error(w, errMsg, http.StatusBadRequest)
		return
	}

	s.respondReceiptPage(w, r, filter)
}

func (s *Server) respondReceiptPage(w http.ResponseWriter, r *http.Request, filter database.ReceiptFilter) {
	receipts, total, err := s.store.ListReceipts(r.Context(), filter)
	if err != nil {
		log.Printf("ERROR: Failed to list receipts: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	filter.Normalize()
	writeJSON(w, http.StatusOK, ReceiptsListResponse{
		Receipts:   receipts,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: filter.TotalPages(total),
	})
}

// @Summary      Receipt statistics
// @Description  Aggregates the user's receipts overall, by vendor, by currency and by month, with optional vendor and date filters.
// @Tags         receipts
// @Security     BearerAuth
// @Produce      json
// @Param        vendor      query     string  false  "Vendor substring, case-insensitive"
// @Param        start_date  query     string  false  "RFC3339 lower bound, inclusive"
// @Param        end_date    query     string  false  "RFC3339 upper bound, inclusive"
// @Success      200         {object}  database.ReceiptStats
// @Failure      400         {string}  string "Invalid query parameter"
// @Failure      401         {string}  string "Unauthorized"
// @Failure      500         {string}  string "Internal Server Error"
// @Router       /receipts/stats [get]
func (s *Server) GetReceiptStatsHandler(w http.ResponseWriter, r *http.Request) {
	principal := GetUserFromContext(r.Context())

	filter, errMsg := parseReceiptFilter(r, principal.ID, false)
	if errMsg != "" {
		http.Error(w, errMsg, http.StatusBadRequest)
		return
	}

	stats, err := s.store.GetReceiptStats(r.Context(), filter)
	if err != nil {
		log.Printf("ERROR: Failed to compute receipt stats: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
