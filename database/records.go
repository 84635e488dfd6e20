package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pc-inventory/query"
	"pc-inventory/types"
)

const recordColumns = `id, asset_code, sn_code, model, device_type, cpu_model, memory_size,
	os_version, os_internal_version, user_name, computer_name, execution_log, log_size,
	error_log, has_errors, uploader, upload_time, last_update`

// RecordRepo is the append-only Postgres store for inventory history.
type RecordRepo struct {
	db *sql.DB
}

func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{db: db} }

// Append persists a validated record draft as a new row. The server
// assigns identity and timestamps. Duplicate asset codes are expected:
// each accepted submission is its own history row.
func (repo *RecordRepo) Append(ctx context.Context, draft *types.InventoryRecord) (*types.InventoryRecord, error) {
	sqlCode := `
	INSERT INTO computers (asset_code, sn_code, model, device_type, cpu_model, memory_size,
		os_version, os_internal_version, user_name, computer_name, execution_log, log_size,
		error_log, has_errors, uploader)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	RETURNING id, upload_time, last_update`

	rec := *draft
	err := repo.db.QueryRowContext(ctx, sqlCode,
		rec.AssetCode, rec.SerialCode, rec.Model, rec.DeviceType, rec.CPUModel, rec.MemorySizeGB,
		rec.OSVersion, rec.OSInternalVersion, rec.UserName, rec.ComputerName, rec.ExecutionLog,
		rec.LogSizeBytes, rec.ErrorLog, rec.HasErrors, rec.Uploader,
	).Scan(&rec.ID, &rec.UploadTime, &rec.LastUpdate)
	if err != nil {
		return nil, &types.StorageError{Op: "append record", Err: err}
	}
	return &rec, nil
}

// Get returns one record by identity, or ErrNotFound.
func (repo *RecordRepo) Get(ctx context.Context, id int64) (*types.InventoryRecord, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM computers WHERE id = $1`, id)
	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, &types.StorageError{Op: "get record", Err: err}
	}
	return rec, nil
}

// List returns one page of records matching the filter, newest first
// with identity as the tie-breaker. Out-of-range page numbers clamp to
// the nearest valid page.
func (repo *RecordRepo) List(ctx context.Context, f query.Filter, page int) (*types.Page, error) {
	where, args := buildWhere(f)

	var total int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM computers`+where, args...).Scan(&total); err != nil {
		return nil, &types.StorageError{Op: "count records", Err: err}
	}

	page, totalPages := query.ClampPage(page, total)
	offset := (page - 1) * query.PageSize

	sqlCode := fmt.Sprintf(`SELECT %s FROM computers%s ORDER BY upload_time DESC, id DESC LIMIT %d OFFSET %d`,
		recordColumns, where, query.PageSize, offset)
	rows, err := repo.db.QueryContext(ctx, sqlCode, args...)
	if err != nil {
		return nil, &types.StorageError{Op: "list records", Err: err}
	}
	defer rows.Close()

	results := make([]types.InventoryRecord, 0, query.PageSize)
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, &types.StorageError{Op: "scan record", Err: err}
		}
		results = append(results, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "list records", Err: err}
	}

	return &types.Page{Results: results, Page: page, TotalPages: totalPages, TotalCount: total}, nil
}

// DeviceTypes returns the distinct device types for filter choices. The
// dedupe is finished case-insensitively in Go because DISTINCT on text
// columns follows the collation of the storage engine, not ours.
func (repo *RecordRepo) DeviceTypes(ctx context.Context) ([]string, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT DISTINCT device_type FROM computers ORDER BY device_type`)
	if err != nil {
		return nil, &types.StorageError{Op: "list device types", Err: err}
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, &types.StorageError{Op: "scan device type", Err: err}
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "list device types", Err: err}
	}
	return dedupeFold(values), nil
}

// buildWhere translates a filter into a WHERE clause. The search term
// reuses one placeholder across the five OR'd columns.
func buildWhere(f query.Filter) (string, []any) {
	var clauses []string
	var args []any

	if term := strings.TrimSpace(f.Search); term != "" {
		args = append(args, "%"+escapeLike(term)+"%")
		p := len(args)
		clauses = append(clauses, fmt.Sprintf(
			`(asset_code ILIKE $%d OR user_name ILIKE $%d OR computer_name ILIKE $%d OR model ILIKE $%d OR sn_code ILIKE $%d)`,
			p, p, p, p, p))
	}
	if f.DeviceType != "" {
		args = append(args, f.DeviceType)
		clauses = append(clauses, fmt.Sprintf(`device_type = $%d`, len(args)))
	}
	if f.HasErrors != nil {
		args = append(args, *f.HasErrors)
		clauses = append(clauses, fmt.Sprintf(`has_errors = $%d`, len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func scanRecord(scan func(dest ...any) error) (*types.InventoryRecord, error) {
	var rec types.InventoryRecord
	var executionLog sql.NullString
	err := scan(
		&rec.ID, &rec.AssetCode, &rec.SerialCode, &rec.Model, &rec.DeviceType, &rec.CPUModel,
		&rec.MemorySizeGB, &rec.OSVersion, &rec.OSInternalVersion, &rec.UserName, &rec.ComputerName,
		&executionLog, &rec.LogSizeBytes, &rec.ErrorLog, &rec.HasErrors, &rec.Uploader,
		&rec.UploadTime, &rec.LastUpdate,
	)
	if err != nil {
		return nil, err
	}
	rec.ExecutionLog = executionLog.String
	return &rec, nil
}

func dedupeFold(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
