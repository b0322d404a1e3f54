package pdf

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/pdf2json/internal/pdf/errors"
	"github.com/a3tai/pdf2json/internal/pdf/tables"
	"github.com/a3tai/pdf2json/internal/pdf/testpdf"
)

func writePDF(t *testing.T, doc testpdf.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, doc.WriteFile(path))
	return path
}

// decode round-trips a result through its JSON form so tests see exactly
// the keys a consumer would
func decode(t *testing.T, result *ConversionResult) map[string]interface{} {
	t.Helper()
	data, err := json.Marshal(result)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func pages(t *testing.T, out map[string]interface{}) []map[string]interface{} {
	t.Helper()
	raw, ok := out["pages"].([]interface{})
	require.True(t, ok, "pages must be an array")
	result := make([]map[string]interface{}, len(raw))
	for i, p := range raw {
		result[i] = p.(map[string]interface{})
	}
	return result
}

func twoPages() testpdf.Document {
	return testpdf.Document{
		Pages: []testpdf.Page{
			{Texts: []testpdf.Text{{Size: 12, X: 72, Y: 700, S: "Hello"}}},
			{Texts: []testpdf.Text{{Font: testpdf.FontBold, Size: 14, X: 72, Y: 720, S: "Second"}}},
		},
	}
}

func TestConvert_MissingFile(t *testing.T) {
	result := NewConverter(DefaultConverterConfig()).Convert("/tmp/missing.pdf", DefaultOptions())
	assert.False(t, result.Success)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Equal(t, `{"success":false,"error":"PDF file not found: /tmp/missing.pdf"}`, string(data))
}

func TestConvert_MissingFileUsesCleanedPath(t *testing.T) {
	dir := t.TempDir()
	result := NewConverter(DefaultConverterConfig()).Convert(dir+"/./sub/../nope.pdf", DefaultOptions())
	assert.Equal(t, "PDF file not found: "+filepath.Join(dir, "nope.pdf"), result.Error)
}

func TestConvert_TwoPages(t *testing.T) {
	path := writePDF(t, twoPages())

	result := NewConverter(DefaultConverterConfig()).Convert(path, DefaultOptions())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "report.pdf", result.Source)
	assert.Equal(t, 2, result.TotalPages)
	require.Len(t, result.Pages, 2)

	out := decode(t, result)
	assert.NotContains(t, out, "error")
	assert.NotContains(t, out, "metadata")
	assert.EqualValues(t, 2, out["total_pages"])

	for i, p := range pages(t, out) {
		assert.EqualValues(t, i+1, p["page_number"])
		assert.EqualValues(t, 612, p["width"])
		assert.EqualValues(t, 792, p["height"])
		assert.NotContains(t, p, "tables")
		assert.IsType(t, []interface{}{}, p["blocks"])
	}

	first := result.Pages[0]
	assert.Contains(t, first.Text, "Hello")
	require.Len(t, first.Blocks, 1)
	span := first.Blocks[0]
	assert.Equal(t, "Hello", span.Text)
	assert.Equal(t, "Helvetica", span.Font)
	assert.InDelta(t, 12, span.Size, 0.001)
	// top-left origin: baseline 700 is 92pt below the top edge
	assert.InDelta(t, 72, span.BBox[0], 0.001)
	assert.InDelta(t, 92-9.6, span.BBox[1], 0.001)
	assert.InDelta(t, 102, span.BBox[2], 0.001)
	assert.InDelta(t, 92+2.4, span.BBox[3], 0.001)

	assert.Equal(t, "Helvetica-Bold", result.Pages[1].Blocks[0].Font)
}

func TestConvert_KeyOrder(t *testing.T) {
	path := writePDF(t, twoPages())
	result := NewConverter(DefaultConverterConfig()).Convert(path, Options{IncludeMetadata: true})
	require.True(t, result.Success, result.Error)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	s := string(data)

	keys := []string{`"success"`, `"source"`, `"total_pages"`, `"pages"`, `"metadata"`}
	last := -1
	for _, k := range keys {
		i := strings.Index(s, k)
		require.GreaterOrEqual(t, i, 0, "missing key %s", k)
		assert.Greater(t, i, last, "key %s out of order", k)
		last = i
	}
	assert.True(t, strings.HasPrefix(s, `{"success":true,`))
}

func TestConvert_Metadata(t *testing.T) {
	doc := twoPages()
	doc.Info = map[string]string{
		"Title":        "Quarterly report",
		"Producer":     "testpdf",
		"CreationDate": "D:20240101120000Z",
	}
	path := writePDF(t, doc)

	result := NewConverter(DefaultConverterConfig()).Convert(path, Options{IncludeMetadata: true})
	require.True(t, result.Success, result.Error)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, "Quarterly report", result.Metadata.Title)
	assert.Equal(t, "testpdf", result.Metadata.Producer)
	assert.Equal(t, "D:20240101120000Z", result.Metadata.CreationDate)
	assert.Equal(t, "", result.Metadata.Author)

	meta, ok := decode(t, result)["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, meta, 7)
	for _, k := range []string{"title", "author", "subject", "creator", "producer", "creation_date", "mod_date"} {
		assert.Contains(t, meta, k)
	}
	assert.Equal(t, "", meta["author"])
}

func TestConvert_MetadataWithoutInfoDictionary(t *testing.T) {
	path := writePDF(t, twoPages())

	result := NewConverter(DefaultConverterConfig()).Convert(path, Options{IncludeMetadata: true})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, &MetadataRecord{}, result.Metadata)
}

func ruledPage() testpdf.Page {
	return testpdf.Page{
		Rects: testpdf.Grid([]float64{100, 200, 300, 400}, []float64{500, 530, 560}, 1),
		Texts: []testpdf.Text{
			{Size: 10, X: 110, Y: 540, S: "Name"},
			{Size: 10, X: 210, Y: 540, S: "Qty"},
			{Size: 10, X: 310, Y: 540, S: "Price"},
			{Size: 10, X: 110, Y: 510, S: "Apple"},
			{Size: 10, X: 210, Y: 510, S: "3"},
			{Size: 10, X: 310, Y: 510, S: "1.20"},
			{Size: 10, X: 72, Y: 700, S: "Inventory"},
		},
	}
}

func TestConvert_RuledTable(t *testing.T) {
	path := writePDF(t, testpdf.Document{Pages: []testpdf.Page{ruledPage()}})

	result := NewConverter(DefaultConverterConfig()).Convert(path, Options{ExtractTables: true})
	require.True(t, result.Success, result.Error)

	page := result.Pages[0]
	require.Len(t, page.Tables, 1)
	table := page.Tables[0]
	assert.Equal(t, 0, table.Index)
	assert.Equal(t, 2, table.RowCount)
	assert.Equal(t, 3, table.ColCount)
	assert.Equal(t, [][]string{{"Name", "Qty", "Price"}, {"Apple", "3", "1.20"}}, table.Rows)

	p := pages(t, decode(t, result))[0]
	require.Contains(t, p, "tables")
	found := p["tables"].([]interface{})
	require.Len(t, found, 1)
	rec := found[0].(map[string]interface{})
	assert.EqualValues(t, 2, rec["row_count"])
	assert.EqualValues(t, 3, rec["col_count"])
}

func TestConvert_RuledTableUnderTransform(t *testing.T) {
	page := ruledPage()
	page.Rects = testpdf.Grid([]float64{200, 400, 600, 800}, []float64{1000, 1060, 1120}, 2)
	page.RectCTM = []float64{0.5, 0, 0, 0.5, 0, 0}
	path := writePDF(t, testpdf.Document{Pages: []testpdf.Page{page}})

	result := NewConverter(DefaultConverterConfig()).Convert(path, Options{ExtractTables: true})
	require.True(t, result.Success, result.Error)
	require.Len(t, result.Pages[0].Tables, 1)
	assert.Equal(t, [][]string{{"Name", "Qty", "Price"}, {"Apple", "3", "1.20"}}, result.Pages[0].Tables[0].Rows)
}

func TestExtractTables_SkipsFailedTables(t *testing.T) {
	c := NewConverter(DefaultConverterConfig())
	degenerate := func(index int) *tables.Table { return &tables.Table{Index: index} }
	good := &tables.Table{Index: 1, Rows: []float64{0, 10}, Cols: []float64{0, 10, 20}}

	t.Run("failed table leaves an index gap", func(t *testing.T) {
		warnings := pdferrors.NewErrorCollection("report.pdf")
		records := c.extractTables([]*tables.Table{degenerate(0), good}, 1, Options{}, warnings)
		require.Len(t, records, 1)
		assert.Equal(t, 1, records[0].Index)
		assert.Equal(t, [][]string{{"", ""}}, records[0].Rows)
		assert.Equal(t, 1, warnings.Count())
	})

	t.Run("all tables failed", func(t *testing.T) {
		records := c.extractTables([]*tables.Table{degenerate(0), degenerate(1)}, 1, Options{}, pdferrors.NewErrorCollection(""))
		require.NotNil(t, records)
		assert.Empty(t, records)

		data, err := json.Marshal(PageRecord{PageNumber: 1, Tables: records})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"tables":[]`)
	})

	t.Run("nothing detected", func(t *testing.T) {
		assert.Nil(t, c.extractTables(nil, 1, Options{}, pdferrors.NewErrorCollection("")))
	})
}

func TestConvert_TablesDisabled(t *testing.T) {
	path := writePDF(t, testpdf.Document{Pages: []testpdf.Page{ruledPage()}})

	result := NewConverter(DefaultConverterConfig()).Convert(path, DefaultOptions())
	require.True(t, result.Success, result.Error)
	assert.Nil(t, result.Pages[0].Tables)
	assert.NotContains(t, pages(t, decode(t, result))[0], "tables")
}

func TestConvert_NoTablesFound(t *testing.T) {
	path := writePDF(t, twoPages())

	result := NewConverter(DefaultConverterConfig()).Convert(path, Options{ExtractTables: true})
	require.True(t, result.Success, result.Error)
	for _, p := range pages(t, decode(t, result)) {
		assert.NotContains(t, p, "tables")
	}
}

func TestConvert_TextStrategy(t *testing.T) {
	doc := testpdf.Document{Pages: []testpdf.Page{{
		Texts: []testpdf.Text{
			{Size: 10, X: 72, Y: 700, S: "Name"}, {Size: 10, X: 200, Y: 700, S: "Qty"},
			{Size: 10, X: 72, Y: 686, S: "Apple"}, {Size: 10, X: 200, Y: 686, S: "3"},
		},
	}}}
	path := writePDF(t, doc)

	result := NewConverter(DefaultConverterConfig()).Convert(path, Options{ExtractTables: true, TableStrategy: "text"})
	require.True(t, result.Success, result.Error)
	require.Len(t, result.Pages[0].Tables, 1)
	assert.Equal(t, [][]string{{"Name", "Qty"}, {"Apple", "3"}}, result.Pages[0].Tables[0].Rows)
}

func TestConvert_UnknownStrategy(t *testing.T) {
	path := writePDF(t, twoPages())

	result := NewConverter(DefaultConverterConfig()).Convert(path, Options{ExtractTables: true, TableStrategy: "stream"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, `unknown table strategy "stream"`)
}

func TestConvert_RotatedPage(t *testing.T) {
	doc := testpdf.Document{Pages: []testpdf.Page{{
		Rotate: 90,
		Texts:  []testpdf.Text{{Size: 12, X: 72, Y: 700, S: "Turned"}},
	}}}
	path := writePDF(t, doc)

	result := NewConverter(DefaultConverterConfig()).Convert(path, DefaultOptions())
	require.True(t, result.Success, result.Error)
	page := result.Pages[0]
	assert.InDelta(t, 792, page.Width, 0.001)
	assert.InDelta(t, 612, page.Height, 0.001)
	require.Len(t, page.Blocks, 1)

	bbox := page.Blocks[0].BBox
	for _, v := range bbox {
		assert.GreaterOrEqual(t, v, 0.0)
	}
	assert.LessOrEqual(t, bbox[2], page.Width)
	assert.LessOrEqual(t, bbox[3], page.Height)
}

func TestConvert_InvalidFiles(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		config  ConverterConfig
		wantErr string
	}{
		{
			name:    "not a pdf",
			content: []byte("this is plain text, not a PDF"),
			config:  DefaultConverterConfig(),
			wantErr: "not a PDF",
		},
		{
			name:    "empty file",
			content: []byte{},
			config:  DefaultConverterConfig(),
		},
		{
			name:    "too large",
			content: twoPages().Bytes(),
			config:  ConverterConfig{MaxFileSize: 64},
			wantErr: "file too large:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.pdf")
			require.NoError(t, testpdf.WriteRaw(path, tt.content))

			result := NewConverter(tt.config).Convert(path, Options{IncludeMetadata: true, ExtractTables: true})
			assert.False(t, result.Success)
			assert.NotEmpty(t, result.Error)
			if tt.wantErr != "" {
				assert.Contains(t, result.Error, tt.wantErr)
			}

			out := decode(t, result)
			assert.Len(t, out, 2)
			assert.NotContains(t, out, "pages")
		})
	}
}

func TestConvert_Directory(t *testing.T) {
	result := NewConverter(DefaultConverterConfig()).Convert(t.TempDir(), DefaultOptions())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "is a directory")
}

func TestConverter_SelfCheck(t *testing.T) {
	assert.NoError(t, NewConverter(DefaultConverterConfig()).SelfCheck())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ﬁle", normalize("ﬁle", Options{}))
	assert.Equal(t, "file", normalize("ﬁle", Options{NormalizeText: true}))
	assert.Equal(t, "A1", normalize("Ａ１", Options{NormalizeText: true}))
}

func TestNewTableRecord(t *testing.T) {
	rec := NewTableRecord(3, [][]string{{"a", "b"}, {"c"}})
	assert.Equal(t, 3, rec.Index)
	assert.Equal(t, 2, rec.RowCount)
	assert.Equal(t, 2, rec.ColCount)

	empty := NewTableRecord(0, nil)
	assert.Equal(t, 0, empty.RowCount)
	assert.Equal(t, 0, empty.ColCount)
}

func TestPageRecord_EmptyTablesKeptAsArray(t *testing.T) {
	data, err := json.Marshal(PageRecord{PageNumber: 1, Tables: []TableRecord{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"page_number":1,"width":0,"height":0,"text":"","blocks":[],"tables":[]}`, string(data))

	data, err = json.Marshal(PageRecord{PageNumber: 1})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "tables")
}

func TestWriteJSON(t *testing.T) {
	var buf strings.Builder
	result := &ConversionResult{
		Success:    true,
		Source:     "a.pdf",
		TotalPages: 1,
		Pages:      []PageRecord{{PageNumber: 1, Text: "Größe <b> & co"}},
	}
	require.NoError(t, WriteJSON(&buf, result))

	s := buf.String()
	assert.Equal(t, 1, strings.Count(s, "\n"))
	assert.True(t, strings.HasSuffix(s, "\n"))
	assert.Contains(t, s, "Größe <b> & co")

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, Failed(errors.New("bad <tag> & more"))))
	assert.Equal(t, `{"success":false,"error":"bad <tag> & more"}`+"\n", buf.String())
}

func TestWriteJSON_UnencodableResult(t *testing.T) {
	var buf strings.Builder
	result := &ConversionResult{
		Success:    true,
		Source:     "a.pdf",
		TotalPages: 1,
		Pages:      []PageRecord{{PageNumber: 1, Width: math.NaN()}},
	}

	err := WriteJSON(&buf, result)
	require.Error(t, err)
	assert.Equal(t, pdferrors.ErrorTypeOutput, pdferrors.TypeOf(err))

	s := buf.String()
	assert.Equal(t, 1, strings.Count(s, "\n"))
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &out))
	assert.Equal(t, false, out["success"])
	assert.Contains(t, out["error"], "encode result")
	assert.Contains(t, out["error"], "unsupported value")
}

func TestFailed_EmptyError(t *testing.T) {
	assert.Equal(t, "unknown error", Failed(errors.New("")).Error)
	assert.Equal(t, "unknown error", Failed(nil).Error)
	assert.Equal(t, "boom", Failed(errors.New("boom")).Error)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("success is written indented", func(t *testing.T) {
		path := filepath.Join(dir, "out.json")
		result := &ConversionResult{Success: true, Source: "a.pdf", TotalPages: 0}
		require.NoError(t, WriteFile(path, result))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "{\n  \"success\": true,"))

		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, []interface{}{}, out["pages"])
	})

	t.Run("html characters are kept", func(t *testing.T) {
		path := filepath.Join(dir, "html.json")
		result := &ConversionResult{
			Success:    true,
			Source:     "a&b.pdf",
			TotalPages: 1,
			Pages: []PageRecord{{
				PageNumber: 1,
				Text:       "A<B & C>D",
				Blocks:     []SpanRecord{{Text: "A<B & C>D"}},
				Tables:     []TableRecord{NewTableRecord(0, [][]string{{"<x>"}})},
			}},
		}
		require.NoError(t, WriteFile(path, result))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"source": "a&b.pdf"`)
		assert.Contains(t, string(data), `"text": "A<B & C>D"`)
		assert.Contains(t, string(data), `"<x>"`)
		assert.NotContains(t, string(data), `\u00`)
	})

	t.Run("failure is not written", func(t *testing.T) {
		path := filepath.Join(dir, "failed.json")
		err := WriteFile(path, Failed(assert.AnError))
		require.Error(t, err)
		assert.NoFileExists(t, path)
	})

	t.Run("failure leaves existing file alone", func(t *testing.T) {
		path := filepath.Join(dir, "existing.json")
		require.NoError(t, os.WriteFile(path, []byte("keep"), 0o600))
		require.Error(t, WriteFile(path, Failed(assert.AnError)))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "keep", string(data))
	})

	t.Run("unwritable path", func(t *testing.T) {
		err := WriteFile(filepath.Join(dir, "missing", "out.json"), &ConversionResult{Success: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "write")
	})
}
