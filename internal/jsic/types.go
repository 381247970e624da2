// Package jsic holds the JSIC master table model and the transform that turns
// the e-Stat long-format code list into one denormalized row per class.
package jsic

// Output column names, shared by the JSON keys, the CSV header and the
// validation contracts.
const (
	ColDivisionCode       = "division_code"
	ColDivisionCodeName   = "division_code_name"
	ColDivisionDesc       = "division_desc"
	ColMajorGroupCode     = "major_group_code"
	ColMajorGroupCodeName = "major_group_code_name"
	ColMajorGroupDesc     = "major_group_desc"
	ColGroupCode          = "group_code"
	ColGroupCodeName      = "group_code_name"
	ColGroupDesc          = "group_desc"
	ColClassCode          = "class_code"
	ColClassCodeName      = "class_code_name"
	ColClassDesc          = "class_desc"
	ColExample            = "example"
	ColUnsuitableExample  = "unsuitable_example"
	ColReleaseDate        = "release_date"
	colCode               = "code"
	colCodeName           = "code_name"
	colDesc               = "desc"
)

// RawRow is one row of the e-Stat download: a code at any level.
type RawRow struct {
	Code     string
	CodeName string
	Desc     *string
}

// ExampleRecord is the scraped example page of one class code.
type ExampleRecord struct {
	Code              string  `json:"code"`
	Example           *string `json:"example"`
	UnsuitableExample *string `json:"unsuitable_example"`
	ReleaseDate       *string `json:"release_date"`
}

// FlatLeafRow is one class with the attributes of all of its ancestors.
//
// An empty code means the ancestor was never seen before the class.
type FlatLeafRow struct {
	DivisionCode       string  `json:"division_code"`
	DivisionCodeName   *string `json:"division_code_name"`
	DivisionDesc       *string `json:"division_desc"`
	MajorGroupCode     string  `json:"major_group_code"`
	MajorGroupCodeName *string `json:"major_group_code_name"`
	MajorGroupDesc     *string `json:"major_group_desc"`
	GroupCode          string  `json:"group_code"`
	GroupCodeName      *string `json:"group_code_name"`
	GroupDesc          *string `json:"group_desc"`
	ClassCode          string  `json:"class_code"`
	ClassCodeName      string  `json:"class_code_name"`
	ClassDesc          *string `json:"class_desc"`
}

// MasterRow is the published row: a flattened class plus its examples.
type MasterRow struct {
	FlatLeafRow
	Example           *string `json:"example"`
	UnsuitableExample *string `json:"unsuitable_example"`
	ReleaseDate       *string `json:"release_date"`
}

// Value implements schema.Row.
func (r RawRow) Value(col string) (string, bool) {
	switch col {
	case colCode:
		return nonEmpty(r.Code)
	case colCodeName:
		return nonEmpty(r.CodeName)
	case colDesc:
		return deref(r.Desc)
	}
	return "", false
}

// Value implements schema.Row.
func (r ExampleRecord) Value(col string) (string, bool) {
	switch col {
	case colCode:
		return nonEmpty(r.Code)
	case ColExample:
		return deref(r.Example)
	case ColUnsuitableExample:
		return deref(r.UnsuitableExample)
	case ColReleaseDate:
		return deref(r.ReleaseDate)
	}
	return "", false
}

// Value implements schema.Row.
func (r FlatLeafRow) Value(col string) (string, bool) {
	switch col {
	case ColDivisionCode:
		return nonEmpty(r.DivisionCode)
	case ColDivisionCodeName:
		return deref(r.DivisionCodeName)
	case ColDivisionDesc:
		return deref(r.DivisionDesc)
	case ColMajorGroupCode:
		return nonEmpty(r.MajorGroupCode)
	case ColMajorGroupCodeName:
		return deref(r.MajorGroupCodeName)
	case ColMajorGroupDesc:
		return deref(r.MajorGroupDesc)
	case ColGroupCode:
		return nonEmpty(r.GroupCode)
	case ColGroupCodeName:
		return deref(r.GroupCodeName)
	case ColGroupDesc:
		return deref(r.GroupDesc)
	case ColClassCode:
		return nonEmpty(r.ClassCode)
	case ColClassCodeName:
		return nonEmpty(r.ClassCodeName)
	case ColClassDesc:
		return deref(r.ClassDesc)
	}
	return "", false
}

// Value implements schema.Row.
func (r MasterRow) Value(col string) (string, bool) {
	switch col {
	case ColExample:
		return deref(r.Example)
	case ColUnsuitableExample:
		return deref(r.UnsuitableExample)
	case ColReleaseDate:
		return deref(r.ReleaseDate)
	}
	return r.FlatLeafRow.Value(col)
}

func nonEmpty(s string) (string, bool) {
	return s, s != ""
}

func deref(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}

func ptr(s string) *string {
	return &s
}
