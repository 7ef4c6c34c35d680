package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/turtacn/rostertag/internal/domain/run"
	"github.com/turtacn/rostertag/internal/infrastructure/database/postgres"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/pkg/errors"
)

const runColumns = `id, source, job_id, fingerprint, status, records, distinct_texts, cache_hits, cache_misses,
		failed_columns, column_errors, error, started_at, finished_at`

type postgresRunRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

func NewPostgresRunRepo(conn *postgres.Connection, log logging.Logger) run.RunRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresRunRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

func (r *postgresRunRepo) Create(ctx context.Context, rn *run.Run) error {
	if err := rn.Validate(); err != nil {
		return err
	}
	failedJSON, errsJSON, err := encodeColumns(rn)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO extraction_runs (
			id, source, job_id, fingerprint, status, records, distinct_texts, cache_hits, cache_misses,
			failed_columns, column_errors, error, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.executor.ExecContext(ctx, query,
		rn.ID, string(rn.Source), nullString(rn.JobID), rn.Fingerprint, string(rn.Status),
		rn.Records, rn.DistinctTexts, rn.CacheHits, rn.CacheMisses,
		failedJSON, errsJSON, rn.Error, rn.StartedAt,
	)
	if err != nil {
		return classifyWriteError(err, "run already exists", "failed to create run")
	}
	return nil
}

func (r *postgresRunRepo) Finish(ctx context.Context, rn *run.Run) error {
	failedJSON, errsJSON, err := encodeColumns(rn)
	if err != nil {
		return err
	}
	query := `
		UPDATE extraction_runs SET
			fingerprint = $2, status = $3, records = $4, distinct_texts = $5, cache_hits = $6, cache_misses = $7,
			failed_columns = $8, column_errors = $9, error = $10, finished_at = $11
		WHERE id = $1
	`
	res, err := r.executor.ExecContext(ctx, query,
		rn.ID, rn.Fingerprint, string(rn.Status), rn.Records, rn.DistinctTexts, rn.CacheHits, rn.CacheMisses,
		failedJSON, errsJSON, rn.Error, rn.FinishedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to finish run")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read affected rows")
	}
	if n == 0 {
		return errors.New(errors.ErrCodeRunNotFound, "run not found").WithDetail("id=" + rn.ID.String())
	}
	return nil
}

func (r *postgresRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	query := `SELECT ` + runColumns + ` FROM extraction_runs WHERE id = $1`
	rn, err := scanRun(r.executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeRunNotFound, "run not found").WithDetail("id=" + id.String())
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get run")
	}
	return rn, nil
}

func (r *postgresRunRepo) ListRecent(ctx context.Context, limit int) ([]*run.Run, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query := `SELECT ` + runColumns + ` FROM extraction_runs ORDER BY started_at DESC LIMIT $1`
	rows, err := r.executor.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list runs")
	}
	defer rows.Close()

	var out []*run.Run
	for rows.Next() {
		rn, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan run")
		}
		out = append(out, rn)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate runs")
	}
	return out, nil
}

func scanRun(s scanner) (*run.Run, error) {
	var (
		rn         run.Run
		id         string
		source     string
		status     string
		jobID      sql.NullString
		failedJSON []byte
		errsJSON   []byte
		finishedAt sql.NullTime
	)
	err := s.Scan(
		&id, &source, &jobID, &rn.Fingerprint, &status, &rn.Records, &rn.DistinctTexts, &rn.CacheHits, &rn.CacheMisses,
		&failedJSON, &errsJSON, &rn.Error, &rn.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	if rn.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	rn.Source = run.Source(source)
	rn.Status = run.Status(status)
	rn.JobID = jobID.String
	if finishedAt.Valid {
		t := finishedAt.Time
		rn.FinishedAt = &t
	}
	rn.FailedColumns = []string{}
	if len(failedJSON) > 0 {
		if err := json.Unmarshal(failedJSON, &rn.FailedColumns); err != nil {
			return nil, err
		}
	}
	if len(errsJSON) > 0 {
		if err := json.Unmarshal(errsJSON, &rn.ColumnErrors); err != nil {
			return nil, err
		}
	}
	return &rn, nil
}

func encodeColumns(rn *run.Run) ([]byte, []byte, error) {
	failed := rn.FailedColumns
	if failed == nil {
		failed = []string{}
	}
	failedJSON, err := json.Marshal(failed)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode failed columns")
	}
	colErrs := rn.ColumnErrors
	if colErrs == nil {
		colErrs = map[string]string{}
	}
	errsJSON, err := json.Marshal(colErrs)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode column errors")
	}
	return failedJSON, errsJSON, nil
}

//Personal.AI order the ending
