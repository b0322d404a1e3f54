package pdf

import (
	"bytes"
	"encoding/json"

	pdferrors "github.com/a3tai/pdf2json/internal/pdf/errors"
	"github.com/a3tai/pdf2json/internal/pdf/tables"
)

// Options select the optional parts of a conversion
type Options struct {
	IncludeMetadata bool
	ExtractTables   bool
	TableStrategy   string
	NormalizeText   bool
}

// DefaultOptions returns options with every optional part disabled
func DefaultOptions() Options {
	return Options{TableStrategy: tables.DefaultStrategy}
}

// ConversionResult is the JSON document produced for one PDF
type ConversionResult struct {
	Success    bool
	Source     string
	TotalPages int
	Pages      []PageRecord
	Metadata   *MetadataRecord
	Error      string
}

// MarshalJSON emits {"success":false,"error":...} for failed conversions and
// the full record otherwise. pages is never null on success.
func (r *ConversionResult) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{Error: r.Error})
	}

	pages := r.Pages
	if pages == nil {
		pages = []PageRecord{}
	}
	return marshal(struct {
		Success    bool            `json:"success"`
		Source     string          `json:"source"`
		TotalPages int             `json:"total_pages"`
		Pages      []PageRecord    `json:"pages"`
		Metadata   *MetadataRecord `json:"metadata,omitempty"`
	}{
		Success:    true,
		Source:     r.Source,
		TotalPages: r.TotalPages,
		Pages:      pages,
		Metadata:   r.Metadata,
	})
}

// marshal is json.Marshal without HTML escaping
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Failed builds the result of a conversion that stopped with err. The error
// text is never empty.
func Failed(err error) *ConversionResult {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = pdferrors.UnknownErrorMessage
	}
	return &ConversionResult{Error: msg}
}

// PageRecord holds the content of one page. Tables is nil when table
// extraction was not requested or found nothing, and the key is omitted.
type PageRecord struct {
	PageNumber int
	Width      float64
	Height     float64
	Text       string
	Blocks     []SpanRecord
	Tables     []TableRecord
}

type pageJSON struct {
	PageNumber int          `json:"page_number"`
	Width      float64      `json:"width"`
	Height     float64      `json:"height"`
	Text       string       `json:"text"`
	Blocks     []SpanRecord `json:"blocks"`
}

// MarshalJSON writes tables only when the page has a non-nil table list, so
// an empty list still shows up as "tables": []
func (p PageRecord) MarshalJSON() ([]byte, error) {
	base := pageJSON{
		PageNumber: p.PageNumber,
		Width:      p.Width,
		Height:     p.Height,
		Text:       p.Text,
		Blocks:     p.Blocks,
	}
	if base.Blocks == nil {
		base.Blocks = []SpanRecord{}
	}
	if p.Tables == nil {
		return marshal(base)
	}
	return marshal(struct {
		pageJSON
		Tables []TableRecord `json:"tables"`
	}{base, p.Tables})
}

// SpanRecord is one run of text sharing font and size. BBox is x0, y0, x1, y1
// with a top-left origin.
type SpanRecord struct {
	Text string     `json:"text"`
	BBox [4]float64 `json:"bbox"`
	Font string     `json:"font"`
	Size float64    `json:"size"`
}

// TableRecord is one extracted table
type TableRecord struct {
	Index    int        `json:"index"`
	Rows     [][]string `json:"rows"`
	RowCount int        `json:"row_count"`
	ColCount int        `json:"col_count"`
}

// NewTableRecord derives the row and column counts from rows. The column
// count is the length of the first row.
func NewTableRecord(index int, rows [][]string) TableRecord {
	rec := TableRecord{Index: index, Rows: rows, RowCount: len(rows)}
	if len(rows) > 0 {
		rec.ColCount = len(rows[0])
	}
	return rec
}

// MetadataRecord holds the document information fields. Missing entries are
// empty strings; dates are kept in raw PDF form.
type MetadataRecord struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Subject      string `json:"subject"`
	Creator      string `json:"creator"`
	Producer     string `json:"producer"`
	CreationDate string `json:"creation_date"`
	ModDate      string `json:"mod_date"`
}
