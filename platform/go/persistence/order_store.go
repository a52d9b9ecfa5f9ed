package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	OrdersTable     = "orders"
	OrderItemsTable = "order_items"
)

// Order statuses accepted by the orders table's CHECK constraint.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus reports whether status is one of the accepted values.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCancelled:
		return true
	}
	return false
}

// Order represents a row in the orders table plus its line items.
type Order struct {
	OrderID    uuid.UUID   `db:"order_id" json:"orderId"`
	OrgID      uuid.UUID   `db:"organization_id" json:"organizationId"`
	PersonID   *uuid.UUID  `db:"person_id" json:"personId,omitempty"`
	Status     string      `db:"status" json:"status"`
	TotalCents int64       `db:"total_cents" json:"totalCents"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updatedAt"`
	Items      []OrderItem `json:"items,omitempty"`
}

// OrderItem represents a row in the order_items table. Unit price is
// captured at order time so later product edits do not rewrite history.
type OrderItem struct {
	OrderItemID    uuid.UUID `db:"order_item_id" json:"orderItemId"`
	OrderID        uuid.UUID `db:"order_id" json:"orderId"`
	ProductID      uuid.UUID `db:"product_id" json:"productId"`
	Qty            int       `db:"qty" json:"qty"`
	UnitPriceCents int64     `db:"unit_price_cents" json:"unitPriceCents"`
}

// OrderStore exposes org-scoped persistence helpers for orders.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns a store instance.
func NewOrderStore(pool *pgxpool.Pool) (*OrderStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &OrderStore{pool: pool}, nil
}

const orderColumns = "order_id, organization_id, person_id, status, total_cents, created_at, updated_at"

// CreateOrderItemParams is one requested line item.
type CreateOrderItemParams struct {
	ProductID uuid.UUID
	Qty       int
}

// CreateOrderParams captures the fields required to create an order.
type CreateOrderParams struct {
	OrderID     uuid.UUID
	PersonID    *uuid.UUID
	ActorUserID *uuid.UUID
	Items       []CreateOrderItemParams
}

// Create inserts an order with its items inside a single transaction.
// Every referenced product is locked, verified to belong to the
// organization, and has its stock deducted; a stock adjustment row
// records each deduction. A product from another organization surfaces
// as ErrNotFound, short stock as ErrInsufficientStock, and either rolls
// the whole order back.
func (s *OrderStore) Create(ctx context.Context, orgID uuid.UUID, params CreateOrderParams) (Order, error) {
	if params.OrderID == uuid.Nil {
		return Order{}, errors.New("order id is required")
	}
	if len(params.Items) == 0 {
		return Order{}, errors.New("at least one item is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if params.PersonID != nil {
		var exists bool
		err = tx.QueryRow(ctx, fmt.Sprintf(
			"SELECT EXISTS(SELECT 1 FROM %s WHERE organization_id = $1 AND person_id = $2)", PeopleTable),
			orgID, *params.PersonID).Scan(&exists)
		if err != nil {
			return Order{}, fmt.Errorf("check order person: %w", err)
		}
		if !exists {
			return Order{}, ErrNotFound
		}
	}

	_, err = tx.Exec(ctx, fmt.Sprintf(
		"INSERT INTO %s (order_id, organization_id, person_id, status, total_cents) VALUES ($1, $2, $3, $4, 0)", OrdersTable),
		params.OrderID, orgID, params.PersonID, OrderStatusPending)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", mapError(err))
	}

	items := make([]OrderItem, 0, len(params.Items))
	var total int64
	for _, item := range params.Items {
		if item.Qty <= 0 {
			return Order{}, fmt.Errorf("item qty must be positive: %w", ErrInsufficientStock)
		}

		// Lock the product row so concurrent orders serialize on stock.
		var priceCents int64
		var stockQty int
		err = tx.QueryRow(ctx, fmt.Sprintf(
			"SELECT price_cents, stock_qty FROM %s WHERE organization_id = $1 AND product_id = $2 FOR UPDATE", ProductsTable),
			orgID, item.ProductID).Scan(&priceCents, &stockQty)
		if err != nil {
			return Order{}, fmt.Errorf("lock product %s: %w", item.ProductID, mapError(err))
		}
		if stockQty < item.Qty {
			return Order{}, ErrInsufficientStock
		}

		_, err = tx.Exec(ctx, fmt.Sprintf(
			"UPDATE %s SET stock_qty = stock_qty - $1, updated_at = NOW() WHERE product_id = $2", ProductsTable),
			item.Qty, item.ProductID)
		if err != nil {
			return Order{}, fmt.Errorf("deduct stock: %w", mapError(err))
		}

		rowID := uuid.New()
		_, err = tx.Exec(ctx, fmt.Sprintf(
			"INSERT INTO %s (order_item_id, order_id, product_id, qty, unit_price_cents) VALUES ($1, $2, $3, $4, $5)", OrderItemsTable),
			rowID, params.OrderID, item.ProductID, item.Qty, priceCents)
		if err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", mapError(err))
		}

		_, err = tx.Exec(ctx, fmt.Sprintf(
			"INSERT INTO %s (adjustment_id, organization_id, product_id, delta, reason, actor_user_id) VALUES ($1, $2, $3, $4, 'order', $5)", StockAdjustmentsTable),
			uuid.New(), orgID, item.ProductID, -item.Qty, params.ActorUserID)
		if err != nil {
			return Order{}, fmt.Errorf("record stock adjustment: %w", mapError(err))
		}

		total += priceCents * int64(item.Qty)
		items = append(items, OrderItem{
			OrderItemID:    rowID,
			OrderID:        params.OrderID,
			ProductID:      item.ProductID,
			Qty:            item.Qty,
			UnitPriceCents: priceCents,
		})
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(
		"UPDATE %s SET total_cents = $1, updated_at = NOW() WHERE order_id = $2 RETURNING %s", OrdersTable, orderColumns),
		total, params.OrderID)
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit order tx: %w", err)
	}

	order.Items = items
	return order, nil
}

// ListOrdersParams captures filters and pagination for List.
type ListOrdersParams struct {
	Page     int
	PageSize int
	Status   *string
	PersonID *uuid.UUID
}

// ListOrdersResult includes the rows and the total count for pagination metadata.
type ListOrdersResult struct {
	Orders     []Order
	TotalItems int
}

// List returns the organization's orders matching the filters, newest first.
// Items are not loaded here; Get returns the full order.
func (s *OrderStore) List(ctx context.Context, orgID uuid.UUID, params ListOrdersParams) (ListOrdersResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	whereParts := []string{"organization_id = $1"}
	args := []any{orgID}
	if params.Status != nil {
		args = append(args, *params.Status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.PersonID != nil {
		args = append(args, *params.PersonID)
		whereParts = append(whereParts, fmt.Sprintf("person_id = $%d", len(args)))
	}
	whereSQL := strings.Join(whereParts, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE %s", OrdersTable, whereSQL), args...).Scan(&total); err != nil {
		return ListOrdersResult{}, fmt.Errorf("count orders: %w", err)
	}

	result := ListOrdersResult{Orders: []Order{}, TotalItems: total}
	if total == 0 {
		return result, nil
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE %s
        ORDER BY created_at DESC
        LIMIT $%d OFFSET $%d
    `, orderColumns, OrdersTable, whereSQL, len(args)-1, len(args)), args...)
	if err != nil {
		return ListOrdersResult{}, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return ListOrdersResult{}, fmt.Errorf("scan order: %w", scanErr)
		}
		result.Orders = append(result.Orders, order)
	}
	if err = rows.Err(); err != nil {
		return ListOrdersResult{}, fmt.Errorf("iterate orders: %w", err)
	}

	return result, nil
}

// Get returns a single order owned by the organization, items included.
func (s *OrderStore) Get(ctx context.Context, orgID, id uuid.UUID) (Order, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 AND order_id = $2", orderColumns, OrdersTable), orgID, id)
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT order_item_id, order_id, product_id, qty, unit_price_cents FROM %s WHERE order_id = $1 ORDER BY order_item_id", OrderItemsTable), id)
	if err != nil {
		return Order{}, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	order.Items = []OrderItem{}
	for rows.Next() {
		var item OrderItem
		if err = rows.Scan(&item.OrderItemID, &item.OrderID, &item.ProductID, &item.Qty, &item.UnitPriceCents); err != nil {
			return Order{}, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err = rows.Err(); err != nil {
		return Order{}, fmt.Errorf("iterate order items: %w", err)
	}

	return order, nil
}

// UpdateStatus moves an order owned by the organization to a new status.
// Cancelling restocks every line item and records the restock in the
// stock adjustment log, all in one transaction.
func (s *OrderStore) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status string, actorUserID *uuid.UUID) (Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin status tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, fmt.Sprintf(
		"SELECT status FROM %s WHERE organization_id = $1 AND order_id = $2 FOR UPDATE", OrdersTable),
		orgID, id).Scan(&current)
	if err != nil {
		return Order{}, mapError(err)
	}

	if status == OrderStatusCancelled && current != OrderStatusCancelled {
		rows, itemsErr := tx.Query(ctx, fmt.Sprintf(
			"SELECT product_id, qty FROM %s WHERE order_id = $1", OrderItemsTable), id)
		if itemsErr != nil {
			return Order{}, fmt.Errorf("list items for restock: %w", itemsErr)
		}
		type restock struct {
			productID uuid.UUID
			qty       int
		}
		restocks := []restock{}
		for rows.Next() {
			var r restock
			if err = rows.Scan(&r.productID, &r.qty); err != nil {
				rows.Close()
				return Order{}, fmt.Errorf("scan restock item: %w", err)
			}
			restocks = append(restocks, r)
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return Order{}, fmt.Errorf("iterate restock items: %w", err)
		}

		for _, r := range restocks {
			_, err = tx.Exec(ctx, fmt.Sprintf(
				"UPDATE %s SET stock_qty = stock_qty + $1, updated_at = NOW() WHERE product_id = $2", ProductsTable),
				r.qty, r.productID)
			if err != nil {
				return Order{}, fmt.Errorf("restock product: %w", mapError(err))
			}
			_, err = tx.Exec(ctx, fmt.Sprintf(
				"INSERT INTO %s (adjustment_id, organization_id, product_id, delta, reason, actor_user_id) VALUES ($1, $2, $3, $4, 'order-cancelled', $5)", StockAdjustmentsTable),
				uuid.New(), orgID, r.productID, r.qty, actorUserID)
			if err != nil {
				return Order{}, fmt.Errorf("record restock: %w", mapError(err))
			}
		}
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(
		"UPDATE %s SET status = $1, updated_at = NOW() WHERE organization_id = $2 AND order_id = $3 RETURNING %s", OrdersTable, orderColumns),
		status, orgID, id)
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit status tx: %w", err)
	}
	return order, nil
}

// Delete removes an order owned by the organization. Items go with it
// via the FK cascade; stock is not restored, cancellation handles that.
func (s *OrderStore) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE organization_id = $1 AND order_id = $2", OrdersTable), orgID, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var order Order
	if err := row.Scan(&order.OrderID, &order.OrgID, &order.PersonID, &order.Status, &order.TotalCents, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return Order{}, mapError(err)
	}
	return order, nil
}
