package codec

import "fmt"

// Row is one raw CSV row in hours-import field order. The two constructors
// are the only ways to build one: rows either carry a leading username or
// belong to an already-resolved coder. This replaces arity-based guessing
// with named variants.
type Row struct {
	hasUsername bool

	Username    string
	ProjectName string
	Date        string
	StartTime   string
	EndTime     string
	Amount      string
	Tags        string
	Repository  string
	Issue       string
	Comment     string

	raw []string
}

// RowWithUsername builds a row whose first field is the coder's username,
// followed by the nine hours fields.
func RowWithUsername(fields []string) (Row, error) {
	if len(fields) != 10 {
		return Row{}, fmt.Errorf("row with username needs 10 fields, got %d", len(fields))
	}
	row := fromFields(fields[1:])
	row.hasUsername = true
	row.Username = fields[0]
	row.raw = append([]string(nil), fields...)
	return row, nil
}

// RowForCoder builds a row for a coder that is supplied out of band; the row
// itself carries only the nine hours fields.
func RowForCoder(fields []string) (Row, error) {
	if len(fields) != 9 {
		return Row{}, fmt.Errorf("row for coder needs 9 fields, got %d", len(fields))
	}
	row := fromFields(fields)
	row.raw = append([]string(nil), fields...)
	return row, nil
}

func fromFields(fields []string) Row {
	return Row{
		ProjectName: fields[0],
		Date:        fields[1],
		StartTime:   fields[2],
		EndTime:     fields[3],
		Amount:      fields[4],
		Tags:        fields[5],
		Repository:  fields[6],
		Issue:       fields[7],
		Comment:     fields[8],
	}
}

// HasUsername reports which variant the row is.
func (r Row) HasUsername() bool {
	return r.hasUsername
}

// Fields returns the verbatim source fields, kept on the parsed entry for
// audit purposes.
func (r Row) Fields() []string {
	return append([]string(nil), r.raw...)
}
