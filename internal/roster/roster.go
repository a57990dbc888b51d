// Package roster parses uploaded CSV rosters into name/email rows.
//
// Headers exported from spreadsheets vary: they may carry a UTF-8 byte-order
// mark, stray whitespace, different letter case or a localized label. Keys
// are normalized before alias lookup so all of those resolve to the same
// field. Rows without both a name and an email are dropped without being
// reported. Quoting is lenient: a stray quote inside an unquoted field is
// kept as text rather than failing the whole roster.
package roster

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ErrMalformed is returned when the input is not UTF-8 CSV text.
var ErrMalformed = errors.New("malformed csv")

const bom = "\uFEFF"

var (
	nameAliases  = aliasSet("name", "full name", "姓名", "名字")
	emailAliases = aliasSet("email", "e-mail", "信箱", "電子郵件")
)

// Row is one usable roster line.
type Row struct {
	Name  string
	Email string
}

// Parse reads a CSV roster. The first record is the header. An empty input,
// or a header without data, yields no rows and no error.
func Parse(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte(bom))
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: roster is not UTF-8 encoded", ErrMalformed)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var nameCols, emailCols []int
	for i, h := range header {
		key := NormalizeKey(h)
		if nameAliases[key] {
			nameCols = append(nameCols, i)
		}
		if emailAliases[key] {
			emailCols = append(emailCols, i)
		}
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		name := firstField(record, nameCols)
		email := firstField(record, emailCols)
		if name == "" || email == "" {
			continue
		}
		rows = append(rows, Row{Name: name, Email: email})
	}
	return rows, nil
}

// NormalizeKey strips byte-order marks and surrounding space from a header
// key and folds it for caseless comparison.
func NormalizeKey(s string) string {
	s = strings.ReplaceAll(s, bom, "")
	s = strings.TrimSpace(s)
	return cases.Fold().String(norm.NFC.String(s))
}

// EmailKey is the dedup key for an email address.
func EmailKey(email string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(email)))
}

// firstField returns the first non-empty value among cols.
func firstField(record []string, cols []int) string {
	for _, col := range cols {
		if col >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[col]); v != "" {
			return v
		}
	}
	return ""
}

func aliasSet(aliases ...string) map[string]bool {
	set := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		set[NormalizeKey(a)] = true
	}
	return set
}
