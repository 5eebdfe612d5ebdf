package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/directory-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS providers (
	id                 TEXT PRIMARY KEY,
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
	validation_results TEXT,
	suggestions        TEXT,
	original_data      TEXT,
	review_note        TEXT NOT NULL DEFAULT '',
	last_validated     DATETIME,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS validation_batches (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	file_name       TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'validating',
	total_records   INTEGER NOT NULL DEFAULT 0,
	validated_count INTEGER NOT NULL DEFAULT 0,
	flagged_count   INTEGER NOT NULL DEFAULT 0,
	approved_count  INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS audit_log (
	id          TEXT PRIMARY KEY,
	action      TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	batch_id    TEXT NOT NULL DEFAULT '',
	record_id   TEXT NOT NULL DEFAULT '',
	actor       TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_providers_status ON providers(status);
CREATE INDEX IF NOT EXISTS idx_providers_source ON providers(source);
CREATE INDEX IF NOT EXISTS idx_providers_batch_id ON providers(batch_id);
CREATE INDEX IF NOT EXISTS idx_providers_npi ON providers(npi);
CREATE INDEX IF NOT EXISTS idx_batches_status ON validation_batches(status);
CREATE INDEX IF NOT EXISTS idx_audit_log_batch_id ON audit_log(batch_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_record_id ON audit_log(record_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const providerColumns = `id, npi, name, specialty, organization, phone, email, website,
	address, city, state, zip, license_number, license_state, source, batch_id,
	status, confidence_score, validation_results, suggestions, original_data,
	review_note, last_validated, created_at, updated_at`

const sqliteInsertProvider = `INSERT INTO providers (` + providerColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *SQLiteStore) CreateProvider(ctx context.Context, p *model.Provider) error {
	if err := prepareInsert(p); err != nil {
		return err
	}

	resultsJSON, suggestionsJSON, originalJSON, err := marshalProviderJSON(p)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, sqliteInsertProvider,
		p.ID, p.NPI, p.Name, p.Specialty, p.Organization, p.Phone, p.Email, p.Website,
		p.Address, p.City, p.State, p.Zip, p.LicenseNumber, p.LicenseState,
		string(p.Source), p.BatchID, string(p.Status), p.ConfidenceScore,
		resultsJSON, suggestionsJSON, originalJSON, p.ReviewNote,
		nullableTime(p.LastValidated), p.CreatedAt, p.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert provider")
}

func (s *SQLiteStore) BulkCreateProviders(ctx context.Context, ps []*model.Provider) (int64, error) {
	if len(ps) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin bulk insert")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqliteInsertProvider)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare bulk insert")
	}
	defer stmt.Close()

	for _, p := range ps {
		if err := prepareInsert(p); err != nil {
			return 0, err
		}
		resultsJSON, suggestionsJSON, originalJSON, err := marshalProviderJSON(p)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.NPI, p.Name, p.Specialty, p.Organization, p.Phone, p.Email, p.Website,
			p.Address, p.City, p.State, p.Zip, p.LicenseNumber, p.LicenseState,
			string(p.Source), p.BatchID, string(p.Status), p.ConfidenceScore,
			resultsJSON, suggestionsJSON, originalJSON, p.ReviewNote,
			nullableTime(p.LastValidated), p.CreatedAt, p.UpdatedAt,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: bulk insert provider %s", p.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit bulk insert")
	}
	return int64(len(ps)), nil
}

func (s *SQLiteStore) GetProvider(ctx context.Context, id string) (*model.Provider, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE id = ?`, id)
	return scanProvider(row)
}

func (s *SQLiteStore) ListProviders(ctx context.Context, filter ProviderFilter) ([]model.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(filter.Source))
	}
	if filter.BatchID != "" {
		query += ` AND batch_id = ?`
		args = append(args, filter.BatchID)
	}
	query += ` ORDER BY created_at DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list providers")
	}
	defer rows.Close()

	var out []model.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list providers iterate")
}

func (s *SQLiteStore) UpdateValidation(ctx context.Context, p *model.Provider) error {
	if err := s.checkTransition(ctx, p.ID, p.Status); err != nil {
		return err
	}

	resultsJSON, suggestionsJSON, _, err := marshalProviderJSON(p)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE providers SET status = ?, confidence_score = ?, validation_results = ?,
		 suggestions = ?, last_validated = ?, updated_at = ? WHERE id = ?`,
		string(p.Status), p.ConfidenceScore, resultsJSON, suggestionsJSON,
		nullableTime(p.LastValidated), time.Now().UTC(), p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update validation %s", p.ID)
	}
	return checkRowsAffected(res, "provider", p.ID)
}

func (s *SQLiteStore) UpdateProviderStatus(ctx context.Context, id string, status model.RecordStatus, note string) error {
	if err := s.checkTransition(ctx, id, status); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE providers SET status = ?, review_note = ?, updated_at = ? WHERE id = ?`,
		string(status), note, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update provider status %s", id)
	}
	return checkRowsAffected(res, "provider", id)
}

func (s *SQLiteStore) UpdateProviderFields(ctx context.Context, p *model.Provider) error {
	_, suggestionsJSON, _, err := marshalProviderJSON(p)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE providers SET phone = ?, email = ?, website = ?, address = ?, city = ?,
		 state = ?, zip = ?, suggestions = ?, updated_at = ? WHERE id = ?`,
		p.Phone, p.Email, p.Website, p.Address, p.City, p.State, p.Zip,
		suggestionsJSON, time.Now().UTC(), p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update provider fields %s", p.ID)
	}
	return checkRowsAffected(res, "provider", p.ID)
}

// checkTransition loads the stored status and rejects illegal moves
// before any write happens.
func (s *SQLiteStore) checkTransition(ctx context.Context, id string, next model.RecordStatus) error {
	var current string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM providers WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return eris.Errorf("provider not found: %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: load status %s", id)
	}
	if !model.RecordStatus(current).CanTransition(next) {
		return eris.Errorf("illegal status transition %s -> %s for provider %s", current, next, id)
	}
	return nil
}

func (s *SQLiteStore) CreateBatch(ctx context.Context, b *model.ValidationBatch) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.Status == "" {
		b.Status = model.BatchValidating
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO validation_batches
		 (id, name, file_name, source, status, total_records, validated_count, flagged_count, approved_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.FileName, string(b.Source), string(b.Status),
		b.TotalRecords, b.ValidatedCount, b.FlaggedCount, b.ApprovedCount, now, now,
	)
	return eris.Wrap(err, "sqlite: insert batch")
}

func (s *SQLiteStore) GetBatch(ctx context.Context, id string) (*model.ValidationBatch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, file_name, source, status, total_records, validated_count,
		 flagged_count, approved_count, created_at, updated_at
		 FROM validation_batches WHERE id = ?`, id)
	return scanBatch(row)
}

func (s *SQLiteStore) CompleteBatch(ctx context.Context, id string, validated, flagged int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE validation_batches SET status = ?, validated_count = ?, flagged_count = ?, updated_at = ?
		 WHERE id = ?`,
		string(model.BatchCompleted), validated, flagged, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete batch %s", id)
	}
	return checkRowsAffected(res, "batch", id)
}

func (s *SQLiteStore) IncrementBatchApproved(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE validation_batches SET approved_count = approved_count + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: increment batch approved %s", id)
	}
	return checkRowsAffected(res, "batch", id)
}

func (s *SQLiteStore) ListBatches(ctx context.Context, limit int) ([]model.ValidationBatch, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, file_name, source, status, total_records, validated_count,
		 flagged_count, approved_count, created_at, updated_at
		 FROM validation_batches ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list batches")
	}
	defer rows.Close()

	var out []model.ValidationBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list batches iterate")
}

func (s *SQLiteStore) CreateAuditEntry(ctx context.Context, e *model.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, action, description, batch_id, record_id, actor, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Action), e.Description, e.BatchID, e.RecordID, e.Actor, e.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert audit entry")
}

func (s *SQLiteStore) ListAuditEntries(ctx context.Context, filter AuditFilter) ([]model.AuditEntry, error) {
	query := `SELECT id, action, description, batch_id, record_id, actor, created_at
	          FROM audit_log WHERE 1=1`
	var args []any

	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, string(filter.Action))
	}
	if filter.BatchID != "" {
		query += ` AND batch_id = ?`
		args = append(args, filter.BatchID)
	}
	if filter.RecordID != "" {
		query += ` AND record_id = ?`
		args = append(args, filter.RecordID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list audit entries")
	}
	defer rows.Close()

	var out []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Description, &e.BatchID, &e.RecordID, &e.Actor, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan audit entry")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list audit entries iterate")
}

// helpers

// prepareInsert fills server-assigned fields on a new record.
func prepareInsert(p *model.Provider) error {
	if p.Name == "" {
		return eris.New("provider name is required")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = model.StatusPending
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.OriginalData == nil {
		p.OriginalData = p.Snapshot()
	}
	return nil
}

func marshalProviderJSON(p *model.Provider) (results, suggestions, original []byte, err error) {
	if results, err = json.Marshal(p.ValidationResults); err != nil {
		return nil, nil, nil, eris.Wrap(err, "marshal validation results")
	}
	if suggestions, err = json.Marshal(p.Suggestions); err != nil {
		return nil, nil, nil, eris.Wrap(err, "marshal suggestions")
	}
	if original, err = json.Marshal(p.OriginalData); err != nil {
		return nil, nil, nil, eris.Wrap(err, "marshal original data")
	}
	return results, suggestions, original, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProvider(row scannable) (*model.Provider, error) {
	var p model.Provider
	var source, status string
	var resultsJSON, suggestionsJSON, originalJSON sql.NullString
	var lastValidated sql.NullTime

	err := row.Scan(
		&p.ID, &p.NPI, &p.Name, &p.Specialty, &p.Organization, &p.Phone, &p.Email, &p.Website,
		&p.Address, &p.City, &p.State, &p.Zip, &p.LicenseNumber, &p.LicenseState,
		&source, &p.BatchID, &status, &p.ConfidenceScore,
		&resultsJSON, &suggestionsJSON, &originalJSON, &p.ReviewNote,
		&lastValidated, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, eris.New("provider not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan provider")
	}

	p.Source = model.Source(source)
	p.Status = model.RecordStatus(status)
	if resultsJSON.Valid && resultsJSON.String != "" {
		if err := json.Unmarshal([]byte(resultsJSON.String), &p.ValidationResults); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal validation results")
		}
	}
	if suggestionsJSON.Valid && suggestionsJSON.String != "" && suggestionsJSON.String != "null" {
		if err := json.Unmarshal([]byte(suggestionsJSON.String), &p.Suggestions); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal suggestions")
		}
	}
	if originalJSON.Valid && originalJSON.String != "" && originalJSON.String != "null" {
		if err := json.Unmarshal([]byte(originalJSON.String), &p.OriginalData); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal original data")
		}
	}
	if lastValidated.Valid {
		t := lastValidated.Time
		p.LastValidated = &t
	}
	return &p, nil
}

func scanBatch(row scannable) (*model.ValidationBatch, error) {
	var b model.ValidationBatch
	var source, status string

	err := row.Scan(&b.ID, &b.Name, &b.FileName, &source, &status,
		&b.TotalRecords, &b.ValidatedCount, &b.FlaggedCount, &b.ApprovedCount,
		&b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("batch not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan batch")
	}

	b.Source = model.Source(source)
	b.Status = model.BatchStatus(status)
	return &b, nil
}
