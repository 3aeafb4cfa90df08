package relational

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/cuemby/districtmig/pkg/log"
	"github.com/cuemby/districtmig/pkg/migerr"
	"github.com/cuemby/districtmig/pkg/store"
	"github.com/cuemby/districtmig/pkg/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements store.Relational over a single PostgreSQL
// database. A Postgres value holds at most one open transaction at a
// time, matching the "single transaction per store per phase" resource
// policy.
type Postgres struct {
	StoreID string
	Schema  string

	pool *pgxpool.Pool
	tx   pgx.Tx
}

var _ store.Relational = (*Postgres)(nil)

// Connect opens a pooled connection to dsn. schema defaults to "public"
// when empty.
func Connect(ctx context.Context, storeID, dsn, schema string) (*Postgres, error) {
	if schema == "" {
		schema = "public"
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &migerr.Connection{Store: storeID, Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &migerr.Connection{Store: storeID, Err: err}
	}
	return &Postgres{StoreID: storeID, Schema: schema, pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() { p.pool.Close() }

// Begin opens the store's single transaction for this phase.
func (p *Postgres) Begin(ctx context.Context) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("relational(%s): begin: %w", p.StoreID, err)
	}
	p.tx = tx
	return nil
}

// Commit commits the open transaction.
func (p *Postgres) Commit(ctx context.Context) error {
	if p.tx == nil {
		return fmt.Errorf("relational(%s): commit called with no open transaction", p.StoreID)
	}
	err := p.tx.Commit(ctx)
	p.tx = nil
	return err
}

// Rollback rolls back the open transaction. Rollback on a nil
// transaction is a no-op so callers may defer it unconditionally.
func (p *Postgres) Rollback(ctx context.Context) error {
	if p.tx == nil {
		return nil
	}
	err := p.tx.Rollback(ctx)
	p.tx = nil
	return err
}

func (p *Postgres) qualified(table string) string {
	if strings.Contains(table, ".") {
		return table
	}
	return p.Schema + "." + table
}

// ReadFiltered streams rows for table matching filter, either directly
// or via an inner join chain along joinPath.
func (p *Postgres) ReadFiltered(ctx context.Context, table string, filter types.TenantFilter, joinPath []types.JoinStep, fn store.RowFunc) error {
	builder := sq.Select("t.*").From(p.qualified(table) + " t").PlaceholderFormat(sq.Dollar)

	if len(joinPath) == 0 {
		builder = builder.Where(sq.Eq{"t." + filter.Key: filter.Value})
	} else {
		alias := "t"
		for i, step := range joinPath {
			parentAlias := fmt.Sprintf("p%d", i)
			builder = builder.Join(fmt.Sprintf("%s %s ON %s.%s = %s.id", p.qualified(step.Table), parentAlias, alias, step.FKColumn, parentAlias))
			alias = parentAlias
		}
		builder = builder.Where(sq.Eq{alias + "." + filter.Key: filter.Value})
	}

	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return &migerr.Data{Table: table, Err: err}
	}

	rows, err := p.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return &migerr.Data{Table: table, Err: err}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return &migerr.Data{Table: table, Err: err}
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			row[name] = values[i]
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &migerr.Data{Table: table, Err: err}
	}
	return nil
}

// WriteBulk applies rows to table under the open transaction using the
// given conflict strategy. merge is treated identically to upsert in
// the baseline implementation (the strategy name is reserved for
// table-specific merge predicates a caller may add later).
func (p *Postgres) WriteBulk(ctx context.Context, table string, columns []string, rows []map[string]any, strategy types.LoadStrategy) (int64, error) {
	if p.tx == nil {
		return 0, fmt.Errorf("relational(%s): write_bulk called with no open transaction", p.StoreID)
	}

	var total int64
	for _, row := range rows {
		values := make([]any, len(columns))
		for i, col := range columns {
			values[i] = row[col]
		}

		builder := sq.Insert(p.qualified(table)).Columns(columns...).Values(values...).PlaceholderFormat(sq.Dollar)

		switch strategy {
		case types.LoadUpsert, types.LoadMerge:
			var sets []string
			for _, col := range columns {
				if col == "id" {
					continue
				}
				sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
			}
			suffix := "ON CONFLICT (id) DO NOTHING"
			if len(sets) > 0 {
				suffix = "ON CONFLICT (id) DO UPDATE SET " + strings.Join(sets, ", ")
			}
			builder = builder.Suffix(suffix)
		case types.LoadInsert:
			// plain insert; any conflict aborts the phase
		}

		sqlStr, args, err := builder.ToSql()
		if err != nil {
			return total, &migerr.Data{Table: table, Err: err}
		}

		tag, err := p.tx.Exec(ctx, sqlStr, args...)
		if err != nil {
			return total, &migerr.Data{Table: table, Err: err}
		}
		total += tag.RowsAffected()
	}

	log.WithTable(table).Debug(fmt.Sprintf("wrote %d rows via %s", total, strategy))
	return total, nil
}

// DeleteByTenant removes every row of table matching filter, under the
// open transaction if one is held, else as a standalone statement (used
// by rollback, which manages its own transaction boundary per store).
func (p *Postgres) DeleteByTenant(ctx context.Context, table string, filter types.TenantFilter) (int64, error) {
	builder := sq.Delete(p.qualified(table)).Where(sq.Eq{filter.Key: filter.Value}).PlaceholderFormat(sq.Dollar)
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return 0, &migerr.Data{Table: table, Err: err}
	}

	var tag pgconn.CommandTag
	if p.tx != nil {
		tag, err = p.tx.Exec(ctx, sqlStr, args...)
	} else {
		tag, err = p.pool.Exec(ctx, sqlStr, args...)
	}
	if err != nil {
		return 0, &migerr.Data{Table: table, Err: err}
	}
	return tag.RowsAffected(), nil
}

// Introspect reads table/column/PK/FK metadata for p.Schema. Implicit
// FKs (convention-only *_id columns) are not reported; only declared
// constraints are.
func (p *Postgres) Introspect(ctx context.Context) ([]types.TableSchema, error) {
	tableNames, err := p.listTables(ctx)
	if err != nil {
		return nil, err
	}

	schemas := make([]types.TableSchema, 0, len(tableNames))
	for _, name := range tableNames {
		qualified := fmt.Sprintf("%s.%s.%s", p.StoreID, p.Schema, name)
		columns, err := p.listColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		pk, err := p.listPrimaryKey(ctx, name)
		if err != nil {
			return nil, err
		}
		fks, err := p.listForeignKeys(ctx, name)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, types.TableSchema{
			QualifiedName: qualified,
			Columns:       columns,
			PrimaryKey:    pk,
			ForeignKeys:   fks,
		})
	}
	return schemas, nil
}

func (p *Postgres) listTables(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`, p.Schema)
	if err != nil {
		return nil, &migerr.Schema{Table: p.Schema, Msg: err.Error()}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &migerr.Schema{Table: p.Schema, Msg: err.Error()}
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (p *Postgres) listColumns(ctx context.Context, table string) ([]types.Column, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, p.Schema, table)
	if err != nil {
		return nil, &migerr.Schema{Table: table, Msg: err.Error()}
	}
	defer rows.Close()

	var cols []types.Column
	for rows.Next() {
		var c types.Column
		if err := rows.Scan(&c.Name, &c.LogicalType, &c.Nullable); err != nil {
			return nil, &migerr.Schema{Table: table, Msg: err.Error()}
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (p *Postgres) listPrimaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`, p.Schema, table)
	if err != nil {
		return nil, &migerr.Schema{Table: table, Msg: err.Error()}
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, &migerr.Schema{Table: table, Msg: err.Error()}
		}
		pk = append(pk, col)
	}
	return pk, rows.Err()
}

func (p *Postgres) listForeignKeys(ctx context.Context, table string) ([]types.ForeignKey, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY kcu.ordinal_position`, p.Schema, table)
	if err != nil {
		return nil, &migerr.Schema{Table: table, Msg: err.Error()}
	}
	defer rows.Close()

	// Grouped by constraint_name, not by target table: two distinct FK
	// constraints pointing at the same table stay two edges, and a single
	// composite-column FK stays one.
	byConstraint := make(map[string]*types.ForeignKey)
	var order []string
	for rows.Next() {
		var constraintName, fromCol, toTable, toCol string
		if err := rows.Scan(&constraintName, &fromCol, &toTable, &toCol); err != nil {
			return nil, &migerr.Schema{Table: table, Msg: err.Error()}
		}
		fk, ok := byConstraint[constraintName]
		if !ok {
			qualifiedTarget := fmt.Sprintf("%s.%s.%s", p.StoreID, p.Schema, toTable)
			fk = &types.ForeignKey{ToTableQualifiedName: qualifiedTarget}
			byConstraint[constraintName] = fk
			order = append(order, constraintName)
		}
		fk.FromColumns = append(fk.FromColumns, fromCol)
		fk.ToColumns = append(fk.ToColumns, toCol)
	}
	if err := rows.Err(); err != nil {
		return nil, &migerr.Schema{Table: table, Msg: err.Error()}
	}

	fks := make([]types.ForeignKey, 0, len(order))
	for _, constraintName := range order {
		fks = append(fks, *byConstraint[constraintName])
	}
	return fks, nil
}
