package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/BharathKumarMurugan/cloud-drive/internal/common"
	"github.com/BharathKumarMurugan/cloud-drive/internal/dbx"
)

const fileColumns = "id, name, extension, type, size, url, bucket_file_id, owner_id, shared_with, created_at, updated_at"

// PostgresRepository implements the catalog over a dbx.DBTX (*sql.DB or
// *sql.Tx). The shared_with email list is kept as a jsonb array so the
// visibility predicate can use containment.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, record *FileRecord) (*FileRecord, error) {

	shared, err := marshalSharedWith(record.SharedWith)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO files (name, extension, type, size, url, bucket_file_id, owner_id, shared_with)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		record.Name, record.Extension, string(record.Type), record.Size,
		record.URL, record.BucketFileID, record.OwnerID, shared).
		Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return record, nil
}

func (r *PostgresRepository) Get(ctx context.Context, fileID string) (*FileRecord, error) {

	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, fileID)
	record, err := scanFileRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return record, nil
}

// List translates the composed query into SQL. Search is matched with ILIKE,
// so the substring test is case-insensitive.
func (r *PostgresRepository) List(ctx context.Context, q Query) ([]*FileRecord, error) {

	var sb strings.Builder
	args := []any{q.OwnerID, q.OwnerEmail}

	sb.WriteString(`SELECT ` + fileColumns + ` FROM files`)
	sb.WriteString(` WHERE (owner_id = $1 OR shared_with @> jsonb_build_array($2::text))`)

	if len(q.Types) > 0 {
		placeholders := make([]string, len(q.Types))
		for i, t := range q.Types {
			args = append(args, string(t))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		sb.WriteString(` AND type IN (` + strings.Join(placeholders, ", ") + `)`)
	}

	if q.Search != "" {
		args = append(args, q.Search)
		sb.WriteString(fmt.Sprintf(` AND name ILIKE '%%' || $%d || '%%'`, len(args)))
	}

	sb.WriteString(` ORDER BY ` + sortColumn(q.Sort.Field))
	if q.Sort.Desc {
		sb.WriteString(` DESC`)
	} else {
		sb.WriteString(` ASC`)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(fmt.Sprintf(` LIMIT $%d`, len(args)))
	}

	return r.queryMany(ctx, sb.String(), args...)
}

func (r *PostgresRepository) ListOwned(ctx context.Context, ownerID string) ([]*FileRecord, error) {

	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id = $1`

	return r.queryMany(ctx, query, ownerID)
}

func (r *PostgresRepository) Rename(ctx context.Context, fileID string, name string) error {

	query := `UPDATE files SET name = $2, updated_at = now() WHERE id = $1`

	return r.execOne(ctx, query, fileID, name)
}

func (r *PostgresRepository) UpdateSharedWith(ctx context.Context, fileID string, emails []string) error {

	shared, err := marshalSharedWith(emails)
	if err != nil {
		return err
	}

	query := `UPDATE files SET shared_with = $2, updated_at = now() WHERE id = $1`

	return r.execOne(ctx, query, fileID, shared)
}

func (r *PostgresRepository) Delete(ctx context.Context, fileID string) error {

	query := `DELETE FROM files WHERE id = $1`

	return r.execOne(ctx, query, fileID)
}

func (r *PostgresRepository) queryMany(ctx context.Context, query string, args ...any) ([]*FileRecord, error) {

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var records []*FileRecord
	for rows.Next() {
		record, err := scanFileRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %v", err)
	}

	return records, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking affected rows: %v", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func sortColumn(f SortField) string {
	switch f {
	case SortByName:
		return "name"
	case SortBySize:
		return "size"
	case SortByCreatedAt:
		return "created_at"
	default:
		return "updated_at"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFileRecord(row rowScanner) (*FileRecord, error) {
	record := &FileRecord{}
	var category string
	var shared []byte

	err := row.Scan(&record.ID, &record.Name, &record.Extension, &category,
		&record.Size, &record.URL, &record.BucketFileID, &record.OwnerID,
		&shared, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}

	record.Type = Category(category)

	if len(shared) > 0 {
		if err := json.Unmarshal(shared, &record.SharedWith); err != nil {
			return nil, fmt.Errorf("error decoding shared_with: %v", err)
		}
	}
	if record.SharedWith == nil {
		record.SharedWith = []string{}
	}

	return record, nil
}

func marshalSharedWith(emails []string) ([]byte, error) {
	if emails == nil {
		emails = []string{}
	}
	b, err := json.Marshal(emails)
	if err != nil {
		return nil, fmt.Errorf("error encoding shared_with: %v", err)
	}
	return b, nil
}
