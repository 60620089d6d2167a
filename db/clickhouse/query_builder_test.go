package clickhouse

import (
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hermannm.dev/pivot/db"
)

var salesSchema = db.TableSchema{
	TableName: "sales",
	Columns: []db.Column{
		{Name: "region", DataType: db.DataTypeText},
		{Name: "amount", DataType: db.DataTypeInt, Optional: true},
		{Name: "date", DataType: db.DataTypeTimestamp},
	},
}

func TestCreateTableQuery(t *testing.T) {
	query, err := createTableQuery(salesSchema)
	require.NoError(t, err)
	assert.Equal(
		t,
		"CREATE TABLE `sales` (`id` UUID, `region` String, `amount` Int64 NULL, `date` DateTime64(3))"+
			" ENGINE = MergeTree() PRIMARY KEY (id)",
		query,
	)
}

func TestCreateTableQueryRejectsInvalidSchema(t *testing.T) {
	_, err := createTableQuery(db.TableSchema{TableName: "bad`name"})
	assert.ErrorContains(t, err, "invalid table name")

	_, err = createTableQuery(db.TableSchema{
		TableName: "sales",
		Columns:   []db.Column{{Name: "region"}},
	})
	assert.ErrorContains(t, err, "invalid data type")
}

func TestSelectRowsQuery(t *testing.T) {
	query, err := selectRowsQuery(salesSchema, 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT `region`, `amount`, `date` FROM `sales`", query)

	query, err = selectRowsQuery(salesSchema, 500)
	require.NoError(t, err)
	assert.Equal(t, "SELECT `region`, `amount`, `date` FROM `sales` LIMIT 500", query)

	_, err = selectRowsQuery(db.TableSchema{
		TableName: "sales",
		Columns:   []db.Column{{Name: "a`b", DataType: db.DataTypeText}},
	}, 0)
	assert.ErrorContains(t, err, "invalid column name")
}

func TestValidateIdentifiers(t *testing.T) {
	assert.NoError(t, ValidateIdentifiers("sales", "amount with spaces"))
	assert.Error(t, ValidateIdentifiers("sales", ""))
	assert.Error(t, ValidateIdentifiers("sa`les"))
}

func TestIsUnknownTableError(t *testing.T) {
	assert.True(t, isUnknownTableError(&proto.Exception{Code: 60}))
	assert.False(t, isUnknownTableError(&proto.Exception{Code: 62}))
	assert.False(t, isUnknownTableError(assert.AnError))
}
