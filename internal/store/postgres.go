package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
)

// Postgres implements Store on database/sql with the pgx driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const orderColumns = `id, order_number, customer_id, customer, items, payment, pricing,
	status, status_history, assigned_tailor, estimated_completion, actual_completion,
	version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) CreateOrder(ctx context.Context, o *model.Order, evt *model.DomainEvent) error {
	customer, items, payment, pricing, history, err := marshalOrderBlobs(o)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, customer_id, customer, items, payment, pricing,
			status, status_history, assigned_tailor, estimated_completion, actual_completion,
			version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, o.ID, o.OrderNumber, o.CustomerID, customer, items, payment, pricing,
		o.Status, history, o.AssignedTailor, o.EstimatedCompletion, o.ActualCompletion,
		o.Version, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if err := insertEvent(ctx, tx, evt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Postgres) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrOrderNotFound
	}
	return o, err
}

func (s *Postgres) GetOrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, number)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrOrderNotFound
	}
	return o, err
}

func (s *Postgres) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*model.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return collectOrders(rows)
}

func (s *Postgres) ListOrdersByStatus(ctx context.Context, st model.Status) ([]*model.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at ASC`, st)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return collectOrders(rows)
}

const queueColumns = `id, order_id, order_number, item_index, description, status,
	assignment, notes, archived, archived_at, version, created_at, updated_at`

func (s *Postgres) GetQueueItem(ctx context.Context, id string) (*model.QueueItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM production_queue WHERE id = $1`, id)
	q, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrQueueItemNotFound
	}
	return q, err
}

func (s *Postgres) ListQueueItems(ctx context.Context, f QueueFilter) ([]*model.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM production_queue WHERE 1=1`
	var args []any
	if !f.IncludeArchived {
		query += ` AND archived = FALSE`
	}
	if f.TailorID != "" {
		args = append(args, f.TailorID)
		query += fmt.Sprintf(` AND assignment->>'tailor_id' = $%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query queue: %w", err)
	}
	return collectQueueItems(rows)
}

func (s *Postgres) ListQueueItemsByOrder(ctx context.Context, orderID string) ([]*model.QueueItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+queueColumns+` FROM production_queue WHERE order_id = $1 ORDER BY item_index ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query queue: %w", err)
	}
	return collectQueueItems(rows)
}

func (s *Postgres) CreateTailor(ctx context.Context, t *model.Tailor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tailors (id, name, phone, specialty, active_assignments, capacity_limit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, t.Name, t.Phone, t.Specialty, t.ActiveAssignments, t.CapacityLimit, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tailor: %w", err)
	}
	return nil
}

func (s *Postgres) GetTailor(ctx context.Context, id string) (*model.Tailor, error) {
	var t model.Tailor
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, specialty, active_assignments, capacity_limit, created_at
		FROM tailors WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.Phone, &t.Specialty, &t.ActiveAssignments, &t.CapacityLimit, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrTailorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tailor: %w", err)
	}
	return &t, nil
}

func (s *Postgres) ListTailors(ctx context.Context) ([]*model.Tailor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, specialty, active_assignments, capacity_limit, created_at
		FROM tailors ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tailors: %w", err)
	}
	defer rows.Close()

	var tailors []*model.Tailor
	for rows.Next() {
		var t model.Tailor
		if err := rows.Scan(&t.ID, &t.Name, &t.Phone, &t.Specialty, &t.ActiveAssignments, &t.CapacityLimit, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tailor: %w", err)
		}
		tailors = append(tailors, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return tailors, nil
}

func (s *Postgres) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, login, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Login, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return model.ErrLoginTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, login, password_hash, role, created_at FROM users WHERE login = $1
	`, login).Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *Postgres) AppendEvent(ctx context.Context, evt *model.DomainEvent) error {
	return insertEvent(ctx, s.db, evt)
}

func (s *Postgres) PendingEvents(ctx context.Context, limit int) ([]OutboxRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, event_type, payload, created_at
		FROM outbox WHERE sent_at IS NULL ORDER BY id ASC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var recs []OutboxRecord
	for rows.Next() {
		var r OutboxRecord
		if err := rows.Scan(&r.ID, &r.EventID, &r.Type, &r.Payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return recs, nil
}

func (s *Postgres) MarkEventSent(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE outbox SET sent_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}

func (s *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) UpdateOrder(ctx context.Context, o *model.Order, expectedVersion int64) error {
	payment, err := json.Marshal(o.Payment)
	if err != nil {
		return fmt.Errorf("marshal payment: %w", err)
	}
	history, err := json.Marshal(o.StatusHistory)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	res, err := t.tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, status_history = $2, payment = $3,
			assigned_tailor = $4, actual_completion = $5, version = $6, updated_at = $7
		WHERE id = $8 AND version = $9
	`, o.Status, history, payment, o.AssignedTailor, o.ActualCompletion,
		o.Version, o.UpdatedAt, o.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return requireOneRow(res, model.ErrConcurrentModification)
}

func (t *pgTx) CreateQueueItems(ctx context.Context, items []*model.QueueItem) error {
	for _, q := range items {
		assignment, notes, err := marshalQueueBlobs(q)
		if err != nil {
			return err
		}
		_, err = t.tx.ExecContext(ctx, `
			INSERT INTO production_queue (id, order_id, order_number, item_index, description,
				status, assignment, notes, archived, archived_at, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, q.ID, q.OrderID, q.OrderNumber, q.ItemIndex, q.Description,
			q.Status, assignment, notes, q.Archived, q.ArchivedAt, q.Version, q.CreatedAt, q.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert queue item: %w", err)
		}
	}
	return nil
}

func (t *pgTx) UpdateQueueItem(ctx context.Context, q *model.QueueItem, expectedVersion int64) error {
	assignment, notes, err := marshalQueueBlobs(q)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE production_queue SET status = $1, assignment = $2, notes = $3,
			archived = $4, archived_at = $5, version = $6, updated_at = $7
		WHERE id = $8 AND version = $9
	`, q.Status, assignment, notes, q.Archived, q.ArchivedAt, q.Version, q.UpdatedAt, q.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update queue item: %w", err)
	}
	return requireOneRow(res, model.ErrConcurrentModification)
}

func (t *pgTx) ClaimTailor(ctx context.Context, tailorID string) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE tailors SET active_assignments = active_assignments + 1
		WHERE id = $1 AND active_assignments < capacity_limit
	`, tailorID)
	if err != nil {
		return fmt.Errorf("claim tailor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim tailor: %w", err)
	}
	if n == 1 {
		return nil
	}

	var one int
	err = t.tx.QueryRowContext(ctx, `SELECT 1 FROM tailors WHERE id = $1`, tailorID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrTailorNotFound
	}
	if err != nil {
		return fmt.Errorf("claim tailor: %w", err)
	}
	return model.ErrCapacityExceeded
}

func (t *pgTx) ReleaseTailor(ctx context.Context, tailorID string) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE tailors SET active_assignments = GREATEST(active_assignments - 1, 0)
		WHERE id = $1
	`, tailorID)
	if err != nil {
		return fmt.Errorf("release tailor: %w", err)
	}
	return requireOneRow(res, model.ErrTailorNotFound)
}

func (t *pgTx) AppendEvent(ctx context.Context, evt *model.DomainEvent) error {
	return insertEvent(ctx, t.tx, evt)
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (t *pgTx) Rollback() error {
	return t.tx.Rollback()
}

func insertEvent(ctx context.Context, ex execer, evt *model.DomainEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO outbox (event_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, evt.ID, evt.Type, payload, evt.At)
	if err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}

func requireOneRow(res sql.Result, miss error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return miss
	}
	return nil
}

func marshalOrderBlobs(o *model.Order) (customer, items, payment, pricing, history []byte, err error) {
	if customer, err = json.Marshal(o.Customer); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal customer: %w", err)
	}
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal items: %w", err)
	}
	if payment, err = json.Marshal(o.Payment); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal payment: %w", err)
	}
	if pricing, err = json.Marshal(o.Pricing); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal pricing: %w", err)
	}
	if history, err = json.Marshal(o.StatusHistory); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal history: %w", err)
	}
	return customer, items, payment, pricing, history, nil
}

func marshalQueueBlobs(q *model.QueueItem) (assignment, notes []byte, err error) {
	if q.Assignment != nil {
		if assignment, err = json.Marshal(q.Assignment); err != nil {
			return nil, nil, fmt.Errorf("marshal assignment: %w", err)
		}
	}
	if notes, err = json.Marshal(q.Notes); err != nil {
		return nil, nil, fmt.Errorf("marshal notes: %w", err)
	}
	return assignment, notes, nil
}

func scanOrder(r rowScanner) (*model.Order, error) {
	var o model.Order
	var customer, items, payment, pricing, history []byte
	var tailor sql.NullString
	var actual sql.NullTime
	err := r.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &customer, &items, &payment, &pricing,
		&o.Status, &history, &tailor, &o.EstimatedCompletion, &actual,
		&o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("unmarshal customer: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal(payment, &o.Payment); err != nil {
		return nil, fmt.Errorf("unmarshal payment: %w", err)
	}
	if err := json.Unmarshal(pricing, &o.Pricing); err != nil {
		return nil, fmt.Errorf("unmarshal pricing: %w", err)
	}
	if err := json.Unmarshal(history, &o.StatusHistory); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	if tailor.Valid {
		o.AssignedTailor = &tailor.String
	}
	if actual.Valid {
		t := actual.Time
		o.ActualCompletion = &t
	}
	return &o, nil
}

func collectOrders(rows *sql.Rows) ([]*model.Order, error) {
	defer rows.Close()
	var orders []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return orders, nil
}

func scanQueueItem(r rowScanner) (*model.QueueItem, error) {
	var q model.QueueItem
	var assignment, notes []byte
	var archivedAt sql.NullTime
	err := r.Scan(&q.ID, &q.OrderID, &q.OrderNumber, &q.ItemIndex, &q.Description, &q.Status,
		&assignment, &notes, &q.Archived, &archivedAt, &q.Version, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan queue item: %w", err)
	}
	if len(assignment) > 0 {
		q.Assignment = &model.TailorAssignment{}
		if err := json.Unmarshal(assignment, q.Assignment); err != nil {
			return nil, fmt.Errorf("unmarshal assignment: %w", err)
		}
	}
	if err := json.Unmarshal(notes, &q.Notes); err != nil {
		return nil, fmt.Errorf("unmarshal notes: %w", err)
	}
	if archivedAt.Valid {
		t := archivedAt.Time
		q.ArchivedAt = &t
	}
	return &q, nil
}

func collectQueueItems(rows *sql.Rows) ([]*model.QueueItem, error) {
	defer rows.Close()
	var items []*model.QueueItem
	for rows.Next() {
		q, err := scanQueueItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return items, nil
}
