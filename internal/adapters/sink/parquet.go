package sink

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/okian/splits/internal/domain/model"
)

const parquetParallelism = 4

// WriteParquet writes a SNAPPY-compressed Parquet file. A column whose every
// value is a duration becomes INT64; all others become UTF8 strings.
// Column names are lower-cased with non-alphanumerics replaced by '_'.
func WriteParquet(w io.Writer, t model.Table) error {
	cols := columns(t)
	durations := durationColumns(t, cols)
	names := parquetNames(cols)

	md := make([]string, len(cols))
	for i := range cols {
		if durations[i] {
			md[i] = fmt.Sprintf("name=%s, type=INT64", names[i])
		} else {
			md[i] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY", names[i])
		}
	}

	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewCSVWriter(md, fw, parquetParallelism)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range t.Rows {
		rec := make([]interface{}, len(cols))
		for j, col := range cols {
			v := valueAt(row, col)
			if durations[j] {
				n, _ := v.Seconds()
				rec[j] = int64(n)
			} else {
				rec[j] = v.String()
			}
		}
		if err := pw.Write(rec); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("write parquet row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish parquet: %w", err)
	}
	if err := fw.Close(); err != nil {
		return err
	}
	if _, err := w.Write(fw.Bytes()); err != nil {
		return fmt.Errorf("copy parquet: %w", err)
	}
	return nil
}

func durationColumns(t model.Table, cols []string) []bool {
	out := make([]bool, len(cols))
	if len(t.Rows) == 0 {
		return out
	}
	for j, col := range cols {
		out[j] = true
		for _, row := range t.Rows {
			if !valueAt(row, col).IsSeconds() {
				out[j] = false
				break
			}
		}
	}
	return out
}

// parquetNames sanitises column names and disambiguates collisions.
func parquetNames(cols []string) []string {
	out := make([]string, len(cols))
	used := make(map[string]int, len(cols))
	for i, c := range cols {
		var b strings.Builder
		for _, r := range strings.ToLower(c) {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				b.WriteRune(r)
			} else {
				b.WriteByte('_')
			}
		}
		name := b.String()
		if name == "" || unicode.IsDigit(rune(name[0])) {
			name = "c_" + name
		}
		if n := used[name]; n > 0 {
			used[name] = n + 1
			name = name + "_" + strconv.Itoa(n+1)
		} else {
			used[name] = 1
		}
		out[i] = name
	}
	return out
}
