package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// MigrationReport describes what EnsureSchema changed
type MigrationReport struct {
	AddedColumns   []string
	SkippedIndexes []string
}

func (r MigrationReport) added(column string) bool {
	for _, c := range r.AddedColumns {
		if c == column {
			return true
		}
	}
	return false
}

// EnsureSchema creates missing tables, adds columns that older databases
// lack and creates indexes. Existing rows are never dropped; the only
// rewrite is the viewed_count backfill when that cache column is new.
// It is safe to run on every start.
func (s *Store) EnsureSchema(ctx context.Context) (MigrationReport, error) {
	var report MigrationReport

	db, err := s.conn()
	if err != nil {
		return report, err
	}

	for _, t := range schemaTables {
		if _, err := db.ExecContext(ctx, t.createStatement(s.driver)); err != nil {
			return report, fmt.Errorf("%w: failed to create table %s: %w", ErrPrecondition, t.name, err)
		}

		existing, err := s.tableColumns(ctx, db, t.name)
		if err != nil {
			return report, fmt.Errorf("%w: failed to inspect table %s: %w", ErrPrecondition, t.name, err)
		}

		for _, c := range t.columns {
			if existing[c.name] {
				continue
			}
			if c.primaryKey {
				return report, fmt.Errorf("%w: table %s has no %s column", ErrPrecondition, t.name, c.name)
			}

			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", t.name, c.name, c.addDefinition())
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return report, fmt.Errorf("%w: failed to add column %s.%s: %w", ErrPrecondition, t.name, c.name, err)
			}
			s.log.Info("added missing column", zap.String("table", t.name), zap.String("column", c.name))
			report.AddedColumns = append(report.AddedColumns, t.name+"."+c.name)
		}
	}

	if report.added("users.viewed_count") || report.added("user_progress.viewed") {
		res, err := db.ExecContext(ctx, db.Rebind(`
			UPDATE users SET viewed_count = (
				SELECT COUNT(DISTINCT p.character_id) FROM user_progress p
				WHERE p.user_id = users.id AND p.viewed = ?
			)`), true)
		if err != nil {
			return report, fmt.Errorf("%w: failed to backfill viewed counts: %w", ErrPrecondition, err)
		}
		n, _ := res.RowsAffected()
		s.log.Info("backfilled viewed counts", zap.Int64("users", n))
	}

	for _, idx := range schemaIndexes {
		if _, err := db.ExecContext(ctx, idx.statement); err != nil {
			s.log.Warn("failed to create index, continuing without it",
				zap.String("index", idx.name),
				zap.Error(err),
			)
			report.SkippedIndexes = append(report.SkippedIndexes, idx.name)
		}
	}

	return report, nil
}

func (s *Store) tableColumns(ctx context.Context, q sqlx.QueryerContext, tableName string) (map[string]bool, error) {
	query := `SELECT name FROM pragma_table_info(?)`
	if s.driver == DriverPostgres {
		query = `SELECT column_name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ?`
	}

	var names []string
	if err := sqlx.SelectContext(ctx, q, &names, sqlx.Rebind(sqlx.BindType(s.driver), query), tableName); err != nil {
		return nil, err
	}

	cols := make(map[string]bool, len(names))
	for _, n := range names {
		cols[n] = true
	}
	return cols, nil
}
