package quotation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sourcedesk/sourcedesk/internal/platform/db"
	"github.com/sourcedesk/sourcedesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence for quotations and their
// line items. Mutations that recompute totals run inside WithTx with the
// quotation row locked, so concurrent read-modify-write cycles serialize per
// quotation and surface as ErrConflict rather than lost updates.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	Get(ctx context.Context, id int64) (*Quotation, error)
	// GetForUpdate locks the quotation row for the remainder of the
	// enclosing transaction. Only meaningful inside WithTx.
	GetForUpdate(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]QuotationWithClient, int, error)
	Create(ctx context.Context, q Quotation) (int64, error)
	UpdateHeader(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateTotals(ctx context.Context, id int64, subtotal, total, discountAmount, grandTotal float64) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error

	GetItem(ctx context.Context, itemID int64) (*Item, error)
	ListItems(ctx context.Context, quotationID int64) ([]Item, error)
	InsertItem(ctx context.Context, item Item) (int64, error)
	UpdateItem(ctx context.Context, item Item) error
	DeleteItem(ctx context.Context, itemID int64) (bool, error)

	ListExpirable(ctx context.Context, asOf time.Time) ([]int64, error)
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
	return mapError(err)
}

// mapError translates persistence-level failures into domain sentinels.
// Serialization failures and deadlocks become ErrConflict so callers can
// retry; uniqueness violations become ErrDuplicate.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", shared.ErrConflict, pgErr.Message)
		case "23505":
			return fmt.Errorf("%w: %s", shared.ErrDuplicate, pgErr.ConstraintName)
		}
	}
	return err
}

const quotationColumns = `
	id, number, public_id, client_id, status, incoterm, currency,
	freight_cost, insurance_cost, other_costs, discount_percent,
	subtotal, total, discount_amount, grand_total,
	valid_from, valid_until, notes, terms,
	created_by, created_at, updated_at`

func (r *repository) scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	err := row.Scan(
		&q.ID, &q.Number, &q.PublicID, &q.ClientID, &q.Status, &q.Incoterm, &q.Currency,
		&q.FreightCost, &q.InsuranceCost, &q.OtherCosts, &q.DiscountPercent,
		&q.Subtotal, &q.Total, &q.DiscountAmount, &q.GrandTotal,
		&q.ValidFrom, &q.ValidUntil, &q.Notes, &q.Terms,
		&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, mapError(err)
	}
	return &q, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, err := r.scanQuotation(r.db.QueryRow(ctx,
		`SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	q.Items, err = r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repository) GetForUpdate(ctx context.Context, id int64) (*Quotation, error) {
	q, err := r.scanQuotation(r.db.QueryRow(ctx,
		`SELECT `+quotationColumns+` FROM quotations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	q.Items, err = r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]QuotationWithClient, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argPos := 1

	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("q.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("q.status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("q.created_at >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("q.created_at <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM quotations q %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	query := fmt.Sprintf(`
		SELECT q.id, q.number, q.public_id, q.client_id, q.status, q.incoterm, q.currency,
		       q.freight_cost, q.insurance_cost, q.other_costs, q.discount_percent,
		       q.subtotal, q.total, q.discount_amount, q.grand_total,
		       q.valid_from, q.valid_until, q.notes, q.terms,
		       q.created_by, q.created_at, q.updated_at,
		       c.name AS client_name,
		       COALESCE(u.full_name, '') AS created_by_name
		FROM quotations q
		JOIN clients c ON q.client_id = c.id
		LEFT JOIN users u ON q.created_by = u.id
		%s
		ORDER BY q.created_at DESC, q.id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var quotations []QuotationWithClient
	for rows.Next() {
		var q QuotationWithClient
		err := rows.Scan(
			&q.ID, &q.Number, &q.PublicID, &q.ClientID, &q.Status, &q.Incoterm, &q.Currency,
			&q.FreightCost, &q.InsuranceCost, &q.OtherCosts, &q.DiscountPercent,
			&q.Subtotal, &q.Total, &q.DiscountAmount, &q.GrandTotal,
			&q.ValidFrom, &q.ValidUntil, &q.Notes, &q.Terms,
			&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
			&q.ClientName, &q.CreatedByName,
		)
		if err != nil {
			return nil, 0, mapError(err)
		}
		quotations = append(quotations, q)
	}
	return quotations, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quotation) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotations (
			number, public_id, client_id, status, incoterm, currency,
			freight_cost, insurance_cost, other_costs, discount_percent,
			subtotal, total, discount_amount, grand_total,
			valid_from, valid_until, notes, terms, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17, $18, $19
		) RETURNING id
	`,
		q.Number, q.PublicID, q.ClientID, q.Status, q.Incoterm, q.Currency,
		q.FreightCost, q.InsuranceCost, q.OtherCosts, q.DiscountPercent,
		q.Subtotal, q.Total, q.DiscountAmount, q.GrandTotal,
		q.ValidFrom, q.ValidUntil, q.Notes, q.Terms, q.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE quotations SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{
		"freight_cost", "insurance_cost", "other_costs", "discount_percent",
		"valid_from", "valid_until", "notes", "terms",
	} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateTotals(ctx context.Context, id int64, subtotal, total, discountAmount, grandTotal float64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations
		SET subtotal = $1, total = $2, discount_amount = $3, grand_total = $4, updated_at = NOW()
		WHERE id = $5
	`, subtotal, total, discountAmount, grandTotal, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const itemColumns = `
	id, quotation_id, product_id, product_name, sku, description,
	quantity, unit_of_measure, unit_cost, unit_price,
	markup_percent, tariff_percent, tariff_amount, freight_amount,
	line_total, sort_order, notes, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	err := row.Scan(
		&item.ID, &item.QuotationID, &item.ProductID, &item.ProductName, &item.SKU, &item.Description,
		&item.Quantity, &item.UnitOfMeasure, &item.UnitCost, &item.UnitPrice,
		&item.MarkupPercent, &item.TariffPercent, &item.TariffAmount, &item.FreightAmount,
		&item.LineTotal, &item.SortOrder, &item.Notes, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, mapError(err)
	}
	return &item, nil
}

func (r *repository) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	return scanItem(r.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM quotation_items WHERE id = $1`, itemID))
}

func (r *repository) ListItems(ctx context.Context, quotationID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM quotation_items WHERE quotation_id = $1 ORDER BY sort_order, id`,
		quotationID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *repository) InsertItem(ctx context.Context, item Item) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotation_items (
			quotation_id, product_id, product_name, sku, description,
			quantity, unit_of_measure, unit_cost, unit_price,
			markup_percent, tariff_percent, tariff_amount, freight_amount,
			line_total, sort_order, notes
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16
		) RETURNING id
	`,
		item.QuotationID, item.ProductID, item.ProductName, item.SKU, item.Description,
		item.Quantity, item.UnitOfMeasure, item.UnitCost, item.UnitPrice,
		item.MarkupPercent, item.TariffPercent, item.TariffAmount, item.FreightAmount,
		item.LineTotal, item.SortOrder, item.Notes,
	).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (r *repository) UpdateItem(ctx context.Context, item Item) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotation_items SET
			product_id = $1, product_name = $2, sku = $3, description = $4,
			quantity = $5, unit_of_measure = $6, unit_cost = $7, unit_price = $8,
			markup_percent = $9, tariff_percent = $10, tariff_amount = $11, freight_amount = $12,
			line_total = $13, sort_order = $14, notes = $15, updated_at = NOW()
		WHERE id = $16
	`,
		item.ProductID, item.ProductName, item.SKU, item.Description,
		item.Quantity, item.UnitOfMeasure, item.UnitCost, item.UnitPrice,
		item.MarkupPercent, item.TariffPercent, item.TariffAmount, item.FreightAmount,
		item.LineTotal, item.SortOrder, item.Notes, item.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, itemID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotation_items WHERE id = $1`, itemID)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListExpirable returns ids of quotations whose validity window has passed
// and whose status still allows a transition to expired.
func (r *repository) ListExpirable(ctx context.Context, asOf time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM quotations
		WHERE valid_until IS NOT NULL
		  AND valid_until < $1
		  AND status IN ('sent', 'viewed', 'negotiating', 'accepted', 'rejected')
		ORDER BY id
	`, asOf)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GenerateNumber allocates the next sequential quotation number,
// COT-{YYMM}-{SEQ}, via an atomic upsert on document_sequences.
func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	var seq int64
	period := date.Format("200601")
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "COT", period).Scan(&seq)
	if err != nil {
		return "", mapError(err)
	}
	return fmt.Sprintf("COT-%s-%04d", date.Format("0601"), seq), nil
}
