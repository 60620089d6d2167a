package csv

import (
	"encoding/csv"
	"errors"
	"io"

	"hermannm.dev/wrap"
)

// Reader reads CSV rows with a delimiter deduced from the start of the file. The file must be
// seekable, since both delimiter and data type deduction read ahead and then rewind.
type Reader struct {
	inner      *csv.Reader
	file       io.ReadSeeker
	delimiter  rune
	currentRow int
}

// Number of lines that delimiter deduction looks at.
const delimiterSampleRows = 20

func NewReader(csvFile io.ReadSeeker, skipHeaderRow bool) (*Reader, error) {
	delimiter, err := DeduceFieldDelimiter(csvFile, delimiterSampleRows, DefaultDelimitersToCheck)
	if err != nil {
		return nil, wrap.Error(err, "failed to deduce CSV field delimiter")
	}

	reader := &Reader{
		inner:     newInnerReader(csvFile, delimiter),
		file:      csvFile,
		delimiter: delimiter,
	}

	if skipHeaderRow {
		if _, err := reader.ReadHeaderRow(); err != nil {
			return nil, wrap.Error(err, "failed to skip CSV header row")
		}
	}

	return reader, nil
}

func newInnerReader(csvFile io.Reader, delimiter rune) *csv.Reader {
	reader := csv.NewReader(csvFile)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = delimiter != ' '
	return reader
}

func (reader *Reader) Delimiter() rune {
	return reader.delimiter
}

// Implements db.DataSource. Row numbers start at 1 for the header row.
func (reader *Reader) ReadRow() (row []string, rowNumber int, done bool, err error) {
	row, err = reader.inner.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, reader.currentRow, true, nil
		} else {
			return nil, reader.currentRow + 1, false, wrap.Errorf(
				err,
				"failed to parse CSV row %d",
				reader.currentRow+1,
			)
		}
	}

	reader.currentRow++
	return row, reader.currentRow, false, nil
}

func (reader *Reader) ReadHeaderRow() (row []string, err error) {
	if reader.currentRow != 0 {
		return nil, errors.New("tried to read header row after reading previous rows")
	}

	row, _, done, err := reader.ReadRow()
	if done {
		return nil, errors.New("CSV file ended before header row")
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (reader *Reader) ResetReadPosition(skipHeaderRow bool) error {
	if _, err := reader.file.Seek(0, io.SeekStart); err != nil {
		return wrap.Error(err, "failed to seek to start of CSV file")
	}

	reader.currentRow = 0
	reader.inner = newInnerReader(reader.file, reader.delimiter)

	if skipHeaderRow {
		if _, err := reader.ReadHeaderRow(); err != nil {
			return wrap.Error(err, "failed to skip CSV header row")
		}
	}

	return nil
}
