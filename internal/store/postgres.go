package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-cli/internal/db"
	"github.com/sells-group/directory-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const pgProviderColumns = `id, npi, name, specialty, organization, phone, email, website,
	address, city, state, zip, license_number, license_state, source, batch_id,
	status, confidence_score, validation_results, suggestions, original_data,
	review_note, last_validated, created_at, updated_at`

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_provider": `INSERT INTO providers (` + pgProviderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
	"get_provider":        `SELECT ` + pgProviderColumns + ` FROM providers WHERE id = $1`,
	"get_provider_status": `SELECT status FROM providers WHERE id = $1`,
	"update_validation": `UPDATE providers SET status = $1, confidence_score = $2, validation_results = $3,
		suggestions = $4, last_validated = $5, updated_at = $6 WHERE id = $7`,
	"update_provider_status": `UPDATE providers SET status = $1, review_note = $2, updated_at = $3 WHERE id = $4`,
	"insert_audit_entry": `INSERT INTO audit_log (id, action, description, batch_id, record_id, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS providers (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	npi                TEXT NOT NULL DEFAULT '',
	name               TEXT NOT NULL,
	specialty          TEXT NOT NULL DEFAULT '',
	organization       TEXT NOT NULL DEFAULT '',
	phone              TEXT NOT NULL DEFAULT '',
	email              TEXT NOT NULL DEFAULT '',
	website            TEXT NOT NULL DEFAULT '',
	address            TEXT NOT NULL DEFAULT '',
	city               TEXT NOT NULL DEFAULT '',
	state              TEXT NOT NULL DEFAULT '',
	zip                TEXT NOT NULL DEFAULT '',
	license_number     TEXT NOT NULL DEFAULT '',
	license_state      TEXT NOT NULL DEFAULT '',
	source             TEXT NOT NULL,
	batch_id           TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'pending',
	confidence_score   INTEGER NOT NULL DEFAULT 0,
	validation_results JSONB,
	suggestions        JSONB,
	original_data      JSONB,
	review_note        TEXT NOT NULL DEFAULT '',
	last_validated     TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS validation_batches (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name            TEXT NOT NULL,
	file_name       TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'validating',
	total_records   INTEGER NOT NULL DEFAULT 0,
	validated_count INTEGER NOT NULL DEFAULT 0,
	flagged_count   INTEGER NOT NULL DEFAULT 0,
	approved_count  INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS audit_log (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	action      TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	batch_id    TEXT NOT NULL DEFAULT '',
	record_id   TEXT NOT NULL DEFAULT '',
	actor       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_providers_status ON providers(status);
CREATE INDEX IF NOT EXISTS idx_providers_source ON providers(source);
CREATE INDEX IF NOT EXISTS idx_providers_batch_id ON providers(batch_id);
CREATE INDEX IF NOT EXISTS idx_providers_npi ON providers(npi);
CREATE INDEX IF NOT EXISTS idx_batches_status ON validation_batches(status);
CREATE INDEX IF NOT EXISTS idx_audit_log_batch_id ON audit_log(batch_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_record_id ON audit_log(record_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateProvider(ctx context.Context, p *model.Provider) error {
	if err := prepareInsert(p); err != nil {
		return err
	}

	resultsJSON, suggestionsJSON, originalJSON, err := marshalProviderJSON(p)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, preparedStatements["insert_provider"],
		p.ID, p.NPI, p.Name, p.Specialty, p.Organization, p.Phone, p.Email, p.Website,
		p.Address, p.City, p.State, p.Zip, p.LicenseNumber, p.LicenseState,
		string(p.Source), p.BatchID, string(p.Status), p.ConfidenceScore,
		resultsJSON, suggestionsJSON, originalJSON, p.ReviewNote,
		p.LastValidated, p.CreatedAt, p.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert provider")
}

// providerCopyColumns orders columns for the COPY bulk insert path.
var providerCopyColumns = []string{
	"id", "npi", "name", "specialty", "organization", "phone", "email", "website",
	"address", "city", "state", "zip", "license_number", "license_state", "source", "batch_id",
	"status", "confidence_score", "validation_results", "suggestions", "original_data",
	"review_note", "last_validated", "created_at", "updated_at",
}

func (s *PostgresStore) BulkCreateProviders(ctx context.Context, ps []*model.Provider) (int64, error) {
	rows := make([][]any, 0, len(ps))
	for _, p := range ps {
		if err := prepareInsert(p); err != nil {
			return 0, err
		}
		resultsJSON, suggestionsJSON, originalJSON, err := marshalProviderJSON(p)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{
			p.ID, p.NPI, p.Name, p.Specialty, p.Organization, p.Phone, p.Email, p.Website,
			p.Address, p.City, p.State, p.Zip, p.LicenseNumber, p.LicenseState,
			string(p.Source), p.BatchID, string(p.Status), p.ConfidenceScore,
			resultsJSON, suggestionsJSON, originalJSON, p.ReviewNote,
			p.LastValidated, p.CreatedAt, p.UpdatedAt,
		})
	}
	return db.CopyFrom(ctx, s.pool, "providers", providerCopyColumns, rows)
}

func (s *PostgresStore) GetProvider(ctx context.Context, id string) (*model.Provider, error) {
	row := s.pool.QueryRow(ctx, preparedStatements["get_provider"], id)
	p, err := scanPGProvider(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get provider %s", id)
	}
	return p, nil
}

func (s *PostgresStore) ListProviders(ctx context.Context, filter ProviderFilter) ([]model.Provider, error) {
	query := `SELECT ` + pgProviderColumns + ` FROM providers WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, string(filter.Source))
		argIdx++
	}
	if filter.BatchID != "" {
		query += fmt.Sprintf(` AND batch_id = $%d`, argIdx)
		args = append(args, filter.BatchID)
		argIdx++
	}
	query += ` ORDER BY created_at DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list providers")
	}
	defer rows.Close()

	var out []model.Provider
	for rows.Next() {
		p, err := scanPGProvider(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan provider")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list providers iterate")
}

func (s *PostgresStore) UpdateValidation(ctx context.Context, p *model.Provider) error {
	if err := s.checkTransition(ctx, p.ID, p.Status); err != nil {
		return err
	}

	resultsJSON, suggestionsJSON, _, err := marshalProviderJSON(p)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, preparedStatements["update_validation"],
		string(p.Status), p.ConfidenceScore, resultsJSON, suggestionsJSON,
		p.LastValidated, time.Now().UTC(), p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update validation %s", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("provider not found: %s", p.ID)
	}
	return nil
}

func (s *PostgresStore) UpdateProviderStatus(ctx context.Context, id string, status model.RecordStatus, note string) error {
	if err := s.checkTransition(ctx, id, status); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, preparedStatements["update_provider_status"],
		string(status), note, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update provider status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("provider not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) UpdateProviderFields(ctx context.Context, p *model.Provider) error {
	_, suggestionsJSON, _, err := marshalProviderJSON(p)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE providers SET phone = $1, email = $2, website = $3, address = $4, city = $5,
		 state = $6, zip = $7, suggestions = $8, updated_at = $9 WHERE id = $10`,
		p.Phone, p.Email, p.Website, p.Address, p.City, p.State, p.Zip,
		suggestionsJSON, time.Now().UTC(), p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update provider fields %s", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("provider not found: %s", p.ID)
	}
	return nil
}

func (s *PostgresStore) checkTransition(ctx context.Context, id string, next model.RecordStatus) error {
	var current string
	err := s.pool.QueryRow(ctx, preparedStatements["get_provider_status"], id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return eris.Errorf("provider not found: %s", id)
		}
		return eris.Wrapf(err, "postgres: load status %s", id)
	}
	if !model.RecordStatus(current).CanTransition(next) {
		return eris.Errorf("illegal status transition %s -> %s for provider %s", current, next, id)
	}
	return nil
}

func (s *PostgresStore) CreateBatch(ctx context.Context, b *model.ValidationBatch) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.Status == "" {
		b.Status = model.BatchValidating
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO validation_batches
		 (id, name, file_name, source, status, total_records, validated_count, flagged_count, approved_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.Name, b.FileName, string(b.Source), string(b.Status),
		b.TotalRecords, b.ValidatedCount, b.FlaggedCount, b.ApprovedCount, now, now,
	)
	return eris.Wrap(err, "postgres: insert batch")
}

func (s *PostgresStore) GetBatch(ctx context.Context, id string) (*model.ValidationBatch, error) {
	var b model.ValidationBatch
	var source, status string

	err := s.pool.QueryRow(ctx,
		`SELECT id, name, file_name, source, status, total_records, validated_count,
		 flagged_count, approved_count, created_at, updated_at
		 FROM validation_batches WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.FileName, &source, &status,
		&b.TotalRecords, &b.ValidatedCount, &b.FlaggedCount, &b.ApprovedCount,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("batch not found: %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get batch %s", id)
	}

	b.Source = model.Source(source)
	b.Status = model.BatchStatus(status)
	return &b, nil
}

func (s *PostgresStore) CompleteBatch(ctx context.Context, id string, validated, flagged int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE validation_batches SET status = $1, validated_count = $2, flagged_count = $3, updated_at = $4
		 WHERE id = $5`,
		string(model.BatchCompleted), validated, flagged, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete batch %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("batch not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) IncrementBatchApproved(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE validation_batches SET approved_count = approved_count + 1, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: increment batch approved %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("batch not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ListBatches(ctx context.Context, limit int) ([]model.ValidationBatch, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, file_name, source, status, total_records, validated_count,
		 flagged_count, approved_count, created_at, updated_at
		 FROM validation_batches ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list batches")
	}
	defer rows.Close()

	var out []model.ValidationBatch
	for rows.Next() {
		var b model.ValidationBatch
		var source, status string
		if err := rows.Scan(&b.ID, &b.Name, &b.FileName, &source, &status,
			&b.TotalRecords, &b.ValidatedCount, &b.FlaggedCount, &b.ApprovedCount,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan batch")
		}
		b.Source = model.Source(source)
		b.Status = model.BatchStatus(status)
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list batches iterate")
}

func (s *PostgresStore) CreateAuditEntry(ctx context.Context, e *model.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, preparedStatements["insert_audit_entry"],
		e.ID, string(e.Action), e.Description, e.BatchID, e.RecordID, e.Actor, e.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert audit entry")
}

func (s *PostgresStore) ListAuditEntries(ctx context.Context, filter AuditFilter) ([]model.AuditEntry, error) {
	query := `SELECT id, action, description, batch_id, record_id, actor, created_at
	          FROM audit_log WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Action != "" {
		query += fmt.Sprintf(` AND action = $%d`, argIdx)
		args = append(args, string(filter.Action))
		argIdx++
	}
	if filter.BatchID != "" {
		query += fmt.Sprintf(` AND batch_id = $%d`, argIdx)
		args = append(args, filter.BatchID)
		argIdx++
	}
	if filter.RecordID != "" {
		query += fmt.Sprintf(` AND record_id = $%d`, argIdx)
		args = append(args, filter.RecordID)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list audit entries")
	}
	defer rows.Close()

	var out []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var action string
		if err := rows.Scan(&e.ID, &action, &e.Description, &e.BatchID, &e.RecordID, &e.Actor, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan audit entry")
		}
		e.Action = model.AuditAction(action)
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list audit entries iterate")
}

func scanPGProvider(row scannable) (*model.Provider, error) {
	var p model.Provider
	var source, status string
	var resultsJSON, suggestionsJSON, originalJSON []byte

	err := row.Scan(
		&p.ID, &p.NPI, &p.Name, &p.Specialty, &p.Organization, &p.Phone, &p.Email, &p.Website,
		&p.Address, &p.City, &p.State, &p.Zip, &p.LicenseNumber, &p.LicenseState,
		&source, &p.BatchID, &status, &p.ConfidenceScore,
		&resultsJSON, &suggestionsJSON, &originalJSON, &p.ReviewNote,
		&p.LastValidated, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Source = model.Source(source)
	p.Status = model.RecordStatus(status)
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &p.ValidationResults); err != nil {
			return nil, eris.Wrap(err, "unmarshal validation results")
		}
	}
	if len(suggestionsJSON) > 0 {
		if err := json.Unmarshal(suggestionsJSON, &p.Suggestions); err != nil {
			return nil, eris.Wrap(err, "unmarshal suggestions")
		}
	}
	if len(originalJSON) > 0 {
		if err := json.Unmarshal(originalJSON, &p.OriginalData); err != nil {
			return nil, eris.Wrap(err, "unmarshal original data")
		}
	}
	return &p, nil
}
