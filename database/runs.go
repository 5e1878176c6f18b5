package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/describer/helper"
	"github.com/siherrmann/describer/model"
	loadSql "github.com/siherrmann/describer/sql"
)

// RunsDBHandlerFunctions defines the interface for Runs database operations.
type RunsDBHandlerFunctions interface {
	InsertRun(report *model.RunReport) error
	SelectRun(runID uuid.UUID) (*model.RunReport, error)
	SelectAllRuns(limit int) ([]*model.RunReport, error)
}

// RunsDBHandler handles run-report-related database operations
type RunsDBHandler struct {
	db *helper.Database
}

// NewRunsDBHandler creates a new runs database handler.
// It initializes the database connection and loads run-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRunsDBHandler(db *helper.Database, force bool) (*RunsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	runsDbHandler := &RunsDBHandler{
		db: db,
	}

	err := loadSql.LoadRunsSql(runsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load runs sql", err)
	}

	err = runsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RunsDBHandler")

	return runsDbHandler, nil
}

// CreateTable creates the 'runs' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *RunsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_runs();`)
	if err != nil {
		log.Panicf("error initializing runs table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table runs")

	return nil
}

// InsertRun inserts a new run report
func (h *RunsDBHandler) InsertRun(report *model.RunReport) error {
	failuresJSON, err := json.Marshal(report.Failures)
	if err != nil {
		return helper.NewError("marshal failures", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_run($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		report.RunID,
		report.Generated,
		report.Seeded,
		report.Skipped,
		report.Failed,
		failuresJSON,
		report.Persisted,
		report.StartedAt,
		report.FinishedAt,
	)

	var id int64
	err = row.Scan(
		&id,
		&report.RunID,
		&report.Generated,
		&report.Seeded,
		&report.Skipped,
		&report.Failed,
		&failuresJSON,
		&report.Persisted,
		&report.StartedAt,
		&report.FinishedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRun retrieves a run report by run ID
func (h *RunsDBHandler) SelectRun(runID uuid.UUID) (*model.RunReport, error) {
	report := &model.RunReport{}
	var id int64
	var failuresJSON []byte
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_run($1)`,
		runID,
	)

	err := row.Scan(
		&id,
		&report.RunID,
		&report.Generated,
		&report.Seeded,
		&report.Skipped,
		&report.Failed,
		&failuresJSON,
		&report.Persisted,
		&report.StartedAt,
		&report.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}

	err = json.Unmarshal(failuresJSON, &report.Failures)
	if err != nil {
		return nil, helper.NewError("unmarshal failures", err)
	}

	return report, nil
}

// SelectAllRuns retrieves the most recent run reports
func (h *RunsDBHandler) SelectAllRuns(limit int) ([]*model.RunReport, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_runs($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var reports []*model.RunReport
	for rows.Next() {
		report := &model.RunReport{}
		var id int64
		var failuresJSON []byte
		err := rows.Scan(
			&id,
			&report.RunID,
			&report.Generated,
			&report.Seeded,
			&report.Skipped,
			&report.Failed,
			&failuresJSON,
			&report.Persisted,
			&report.StartedAt,
			&report.FinishedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		err = json.Unmarshal(failuresJSON, &report.Failures)
		if err != nil {
			return nil, helper.NewError("unmarshal failures", err)
		}

		reports = append(reports, report)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return reports, nil
}
