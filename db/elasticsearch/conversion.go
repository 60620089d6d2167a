package elasticsearch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"hermannm.dev/pivot/db"
	"hermannm.dev/wrap"
)

func schemaToElasticMappings(schema db.TableSchema) (*types.TypeMapping, error) {
	mappings := new(types.TypeMapping)
	mappings.Properties = make(map[string]types.Property, len(schema.Columns))

	for _, column := range schema.Columns {
		property, err := dataTypeToElasticProperty(column.DataType)
		if err != nil {
			return nil, wrap.Errorf(
				err,
				"failed to convert data type to Elasticsearch property for column '%s'",
				column.Name,
			)
		}

		mappings.Properties[column.Name] = property
	}

	return mappings, nil
}

func dataTypeToElasticProperty(dataType db.DataType) (types.Property, error) {
	switch dataType {
	case db.DataTypeText:
		return types.NewKeywordProperty(), nil
	case db.DataTypeInt:
		return types.NewLongNumberProperty(), nil
	case db.DataTypeFloat:
		return types.NewDoubleNumberProperty(), nil
	case db.DataTypeTimestamp:
		return types.NewDateProperty(), nil
	case db.DataTypeUUID:
		return types.NewKeywordProperty(), nil
	default:
		return nil, fmt.Errorf("unrecognized data type '%v'", dataType)
	}
}

// rowToDocument encodes the row as a JSON object keyed by column name.
func rowToDocument(row db.Row) (json.RawMessage, error) {
	return json.Marshal(row)
}

// documentToRow converts a document's _source back to a row with the schema's data types. JSON
// numbers are decoded exactly, so integers above 2^53 survive the round trip.
func documentToRow(source json.RawMessage, schema db.TableSchema) (db.Row, error) {
	decoder := json.NewDecoder(bytes.NewReader(source))
	decoder.UseNumber()

	var document map[string]any
	if err := decoder.Decode(&document); err != nil {
		return db.Row{}, wrap.Error(err, "failed to decode document")
	}

	typedValues, _, err := db.NewTypedValues(schema)
	if err != nil {
		return db.Row{}, err
	}

	for i, column := range schema.Columns {
		value, err := convertDocumentField(document[column.Name], column)
		if err != nil {
			return db.Row{}, wrap.Errorf(err, "invalid value in field '%s'", column.Name)
		}

		if ok := typedValues[i].Set(value); !ok {
			return db.Row{}, fmt.Errorf(
				"value of type %T in field '%s' does not fit %v column",
				value,
				column.Name,
				typedValues[i].DataType(),
			)
		}
	}

	return db.RowFromTypedValues(schema, typedValues), nil
}

func convertDocumentField(field any, column db.Column) (any, error) {
	if field == nil {
		if column.Optional {
			return nil, nil
		}
		return nil, errors.New("missing value for non-optional column")
	}

	switch column.DataType {
	case db.DataTypeText, db.DataTypeUUID:
		if text, ok := field.(string); ok {
			return text, nil
		}
	case db.DataTypeInt:
		if number, ok := field.(json.Number); ok {
			return number.Int64()
		}
	case db.DataTypeFloat:
		if number, ok := field.(json.Number); ok {
			return number.Float64()
		}
	case db.DataTypeTimestamp:
		switch field := field.(type) {
		case string:
			return time.Parse(time.RFC3339Nano, field)
		case json.Number:
			// Dates may come back as epoch milliseconds, Elasticsearch's internal format.
			millis, err := field.Int64()
			if err != nil {
				return nil, err
			}
			return time.UnixMilli(millis).UTC(), nil
		}
	default:
		return nil, fmt.Errorf("unrecognized data type '%v'", column.DataType)
	}

	return nil, fmt.Errorf("expected %v value, got %T", column.DataType, field)
}
