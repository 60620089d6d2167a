package clickhouse

import (
	"context"

	"hermannm.dev/pivot/db"
	"hermannm.dev/wrap"
)

// LoadRows selects the schema's columns from its table, in storage order. A limit of 0 or less
// loads every row.
func (clickhouse ClickHouseDB) LoadRows(
	ctx context.Context,
	schema db.TableSchema,
	limit int,
) ([]db.Row, error) {
	query, err := selectRowsQuery(schema, limit)
	if err != nil {
		return nil, err
	}

	result, err := clickhouse.conn.Query(ctx, query)
	if err != nil {
		if isUnknownTableError(err) {
			return nil, wrap.Errorf(err, "table '%s' does not exist", schema.TableName)
		}
		return nil, wrap.Error(err, "ClickHouse row query failed")
	}
	defer result.Close()

	var rows []db.Row
	for result.Next() {
		values, pointers, err := db.NewTypedValues(schema)
		if err != nil {
			return nil, wrap.Error(err, "failed to prepare row scan")
		}

		if err := result.Scan(pointers...); err != nil {
			return nil, wrap.Errorf(err, "failed to scan row %d", len(rows)+1)
		}

		rows = append(rows, db.RowFromTypedValues(schema, values))
	}

	if err := result.Err(); err != nil {
		return nil, wrap.Error(err, "failed to read ClickHouse query result")
	}

	return rows, nil
}

func selectRowsQuery(schema db.TableSchema, limit int) (string, error) {
	if err := ValidateIdentifier(schema.TableName); err != nil {
		return "", wrap.Error(err, "invalid table name")
	}

	names := columnNames(schema)
	if err := ValidateIdentifiers(names...); err != nil {
		return "", wrap.Error(err, "invalid column name")
	}

	var query QueryBuilder
	query.WriteString("SELECT ")
	query.WriteIdentifierList(names)
	query.WriteString(" FROM ")
	query.WriteIdentifier(schema.TableName)

	if limit > 0 {
		query.WriteString(" LIMIT ")
		query.WriteInt(limit)
	}

	return query.String(), nil
}
