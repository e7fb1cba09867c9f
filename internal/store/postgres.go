package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the billtracker tables and indexes when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// IsUniqueViolation reports a duplicate-key failure from Postgres.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

// ------------------- BILLS -------------------

type PgBillStore struct {
	pool *pgxpool.Pool
}

func NewPgBillStore(pool *pgxpool.Pool) *PgBillStore {
	return &PgBillStore{pool: pool}
}

func scanBill(row pgx.Row) (*Bill, error) {
	var (
		id  string
		raw []byte
	)
	if err := row.Scan(&id, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	doc := Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode bill %s: %w", id, err)
	}
	return &Bill{ID: id, SrNo: doc.String("srNo"), Doc: doc}, nil
}

func (s *PgBillStore) FindBySerial(ctx context.Context, srNo string) (*Bill, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id::text, doc FROM billtracker.bills
		WHERE sr_no = $1 OR doc->>'excelSrNo' = $1
		LIMIT 1`, srNo)
	return scanBill(row)
}

func (s *PgBillStore) GetBySrNo(ctx context.Context, srNo string) (*Bill, error) {
	row := s.pool.QueryRow(ctx, `SELECT id::text, doc FROM billtracker.bills WHERE sr_no = $1`, srNo)
	return scanBill(row)
}

// compositeQuery builds the lookup for FindByComposite; callers ensure at least two components.
func compositeQuery(key CompositeKey) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(field, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("doc->>'%s' = $%d", field, len(args)))
	}
	add("vendorNo", key.VendorNo)
	add("taxInvNo", key.TaxInvNo)
	add("region", key.Region)
	if key.HasDate() {
		args = append(args, key.From, key.To)
		conds = append(conds, fmt.Sprintf(
			`(CASE WHEN doc->>'taxInvDate' ~ '^\d{4}-\d{2}-\d{2}T' THEN (doc->>'taxInvDate')::timestamptz END) BETWEEN $%d AND $%d`,
			len(args)-1, len(args)))
	}
	q := "SELECT id::text, doc FROM billtracker.bills WHERE " + strings.Join(conds, " AND ") + " ORDER BY created_at LIMIT 1"
	return q, args
}

func (s *PgBillStore) FindByComposite(ctx context.Context, key CompositeKey) (*Bill, error) {
	if key.Components() == 0 && !key.HasDate() {
		return nil, ErrNotFound
	}
	q, args := compositeQuery(key)
	return scanBill(s.pool.QueryRow(ctx, q, args...))
}

func (s *PgBillStore) MaxSerial(ctx context.Context, prefix string) (string, error) {
	var srNo string
	err := s.pool.QueryRow(ctx, `
		SELECT sr_no FROM billtracker.bills
		WHERE sr_no ~ $1
		ORDER BY length(sr_no) DESC, sr_no DESC
		LIMIT 1`, "^"+prefix+`\d{5,}$`).Scan(&srNo)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return srNo, err
}

func (s *PgBillStore) Insert(ctx context.Context, doc Document) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode bill: %w", err)
	}
	id := uuid.NewString()
	if _, err := s.pool.Exec(ctx, `INSERT INTO billtracker.bills (id, doc) VALUES ($1, $2)`, id, raw); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PgBillStore) SetFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return setDocFields(ctx, s.pool, "billtracker.bills", id, fields)
}

func (s *PgBillStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM billtracker.bills`).Scan(&n)
	return n, err
}

// setDocFields applies dotted-path assignments to a JSONB document under a row lock.
func setDocFields(ctx context.Context, pool *pgxpool.Pool, table, id string, fields map[string]interface{}) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	if err := tx.QueryRow(ctx, "SELECT doc FROM "+table+" WHERE id = $1 FOR UPDATE", id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	doc := Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", id, err)
	}
	for path, v := range fields {
		doc.Set(path, v)
	}
	updated, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	if _, err := tx.Exec(ctx, "UPDATE "+table+" SET doc = $2, updated_at = $3 WHERE id = $1", id, updated, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ------------------- VENDORS -------------------

type PgVendorStore struct {
	pool *pgxpool.Pool
}

func NewPgVendorStore(pool *pgxpool.Pool) *PgVendorStore {
	return &PgVendorStore{pool: pool}
}

func decodeVendor(id string, raw []byte) (*Vendor, error) {
	var v Vendor
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode vendor %s: %w", id, err)
	}
	v.ID = id
	return &v, nil
}

func (s *PgVendorStore) FindByNumber(ctx context.Context, vendorNo int64) (*Vendor, error) {
	var (
		id  string
		raw []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT id::text, doc FROM billtracker.vendors WHERE vendor_no = $1`, vendorNo).Scan(&id, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeVendor(id, raw)
}

func (s *PgVendorStore) List(ctx context.Context) ([]Vendor, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, doc FROM billtracker.vendors ORDER BY vendor_no`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Vendor
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		v, err := decodeVendor(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (s *PgVendorStore) Insert(ctx context.Context, v *Vendor) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode vendor: %w", err)
	}
	id := uuid.NewString()
	_, err = s.pool.Exec(ctx, `INSERT INTO billtracker.vendors (id, vendor_no, doc) VALUES ($1, $2, $3)`, id, v.VendorNo, raw)
	if err != nil {
		return "", err
	}
	v.ID = id
	return id, nil
}

func (s *PgVendorStore) SetFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return setDocFields(ctx, s.pool, "billtracker.vendors", id, fields)
}

func (s *PgVendorStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM billtracker.vendors`).Scan(&n)
	return n, err
}

// ------------------- MASTER VALUES -------------------

type PgMasterStore struct {
	pool *pgxpool.Pool
}

func NewPgMasterStore(pool *pgxpool.Pool) *PgMasterStore {
	return &PgMasterStore{pool: pool}
}

func (s *PgMasterStore) List(ctx context.Context, kind MasterKind) ([]MasterValue, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, name FROM billtracker.master_values WHERE kind = $1 ORDER BY position`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MasterValue
	for rows.Next() {
		mv := MasterValue{Kind: kind}
		if err := rows.Scan(&mv.ID, &mv.Name); err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	return out, rows.Err()
}

// Insert adds a value unless one with the same name (case-insensitive) exists; the id of the stored row is returned.
func (s *PgMasterStore) Insert(ctx context.Context, kind MasterKind, name string) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO billtracker.master_values (id, kind, name) VALUES ($1, $2, $3)
		ON CONFLICT (kind, lower(name)) DO NOTHING
		RETURNING id::text`, uuid.NewString(), string(kind), name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = s.pool.QueryRow(ctx, `SELECT id::text FROM billtracker.master_values WHERE kind = $1 AND lower(name) = lower($2)`,
			string(kind), name).Scan(&id)
	}
	return id, err
}
