package sink_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/okian/splits/internal/adapters/sink"
	"github.com/okian/splits/internal/adapters/source"
	"github.com/okian/splits/internal/domain/model"
)

func sampleTable() model.Table {
	cols := []string{"Bib", "Name", "Swim", "Gun"}
	return model.Table{
		Columns: cols,
		Rows: []model.Row{
			model.NewRow(cols, []model.Value{model.Text("1"), model.Text("Ada"), model.Seconds(600), model.Seconds(3723)}),
			model.NewRow(cols, []model.Value{model.Text("2"), model.Text("Grace, B."), model.Seconds(522), model.Seconds(3600)}),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	t.Run("renders seconds by default", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, sink.Write(&buf, sampleTable(), sink.FormatCSV))
		assert.Equal(t, "Bib,Name,Swim,Gun\n1,Ada,600,3723\n2,\"Grace, B.\",522,3600\n", buf.String())
	})

	t.Run("renders clock text on request", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, sink.Write(&buf, sampleTable(), sink.FormatCSV, sink.WithRender(sink.RenderClock)))
		assert.Equal(t, "Bib,Name,Swim,Gun\n1,Ada,0:10:00,1:02:03\n2,\"Grace, B.\",0:08:42,1:00:00\n", buf.String())
	})
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sink.Write(&buf, sampleTable(), sink.FormatXLSX, sink.WithRender(sink.RenderClock)))

	back, err := source.ReadXLSX(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bib", "Name", "Swim", "Gun"}, back.Columns)
	require.Len(t, back.Rows, 2)
	v, _ := back.Rows[0].Get("Gun")
	assert.Equal(t, "1:02:03", v.Text())
	v, _ = back.Rows[1].Get("Name")
	assert.Equal(t, "Grace, B.", v.Text())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sink.Write(&buf, sampleTable(), sink.FormatJSON))

	var got struct {
		Columns []string        `json:"columns"`
		Rows    [][]interface{} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []string{"Bib", "Name", "Swim", "Gun"}, got.Columns)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "1", got.Rows[0][0])
	assert.Equal(t, float64(3723), got.Rows[0][3])
}

func TestWriteParquet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sink.Write(&buf, sampleTable(), sink.FormatParquet))

	b := buf.Bytes()
	require.Greater(t, len(b), 8)
	assert.Equal(t, "PAR1", string(b[:4]))
	assert.Equal(t, "PAR1", string(b[len(b)-4:]))
}

func TestWriteParquetSchemaAndValues(t *testing.T) {
	cols := []string{"Name", "Swim", "Gun", "Bike Leg", "bike_leg", "1st"}
	tbl := model.Table{
		Columns: cols,
		Rows: []model.Row{
			model.NewRow(cols, []model.Value{model.Text("Ada"), model.Seconds(600), model.Seconds(3723), model.Seconds(1800), model.Text("x"), model.Text("y")}),
			model.NewRow(cols, []model.Value{model.Text("Grace"), model.Seconds(522), model.Seconds(3600), model.Seconds(1750), model.Text("z"), model.Text("w")}),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, sink.Write(&buf, tbl, sink.FormatParquet))

	pr, err := reader.NewParquetColumnReader(parquetbuffer.NewBufferFileFromBytes(buf.Bytes()), 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	require.EqualValues(t, 2, pr.GetNumRows())

	// Element 0 is the schema root.
	elems := pr.SchemaHandler.SchemaElements
	infos := pr.SchemaHandler.Infos
	require.Len(t, elems, len(cols)+1)

	wantNames := []string{"name", "swim", "gun", "bike_leg", "bike_leg_2", "c_1st"}
	wantInt := []bool{false, true, true, true, false, false}
	for i := range cols {
		assert.Equal(t, wantNames[i], infos[i+1].ExName, "column %q", cols[i])
		if wantInt[i] {
			assert.Equal(t, parquet.Type_INT64, elems[i+1].GetType(), "column %q", cols[i])
		} else {
			assert.Equal(t, parquet.Type_BYTE_ARRAY, elems[i+1].GetType(), "column %q", cols[i])
			assert.Equal(t, parquet.ConvertedType_UTF8, elems[i+1].GetConvertedType(), "column %q", cols[i])
		}
	}

	names, _, _, err := pr.ReadColumnByIndex(0, 2)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Ada", "Grace"}, names)

	swim, _, _, err := pr.ReadColumnByIndex(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(600), int64(522)}, swim)

	gun, _, _, err := pr.ReadColumnByIndex(2, 2)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(3723), int64(3600)}, gun)
}

func TestParse(t *testing.T) {
	f, err := sink.ParseFormat("Parquet")
	require.NoError(t, err)
	assert.Equal(t, sink.FormatParquet, f)

	_, err = sink.ParseFormat("yaml")
	assert.ErrorIs(t, err, sink.ErrUnsupportedFormat)

	r, err := sink.ParseRender("clock")
	require.NoError(t, err)
	assert.Equal(t, sink.RenderClock, r)

	_, err = sink.ParseRender("minutes")
	assert.ErrorIs(t, err, sink.ErrUnsupportedRender)

	err = sink.Write(&bytes.Buffer{}, sampleTable(), sink.Format("yaml"))
	assert.ErrorIs(t, err, sink.ErrUnsupportedFormat)
}

func TestFilledPath(t *testing.T) {
	got := sink.FilledPath("/out", "/in/race.xlsx", sink.FormatCSV)
	assert.Equal(t, filepath.Join("/out", "race.filled.csv"), got)
}
