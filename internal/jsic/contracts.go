package jsic

import (
	"regexp"

	"github.com/estat-master/estat-master/pkg/pipeline/core"
	"github.com/estat-master/estat-master/pkg/pipeline/schema"
)

var (
	anyCodeRe        = regexp.MustCompile(`^([A-Z]|[0-9]{2}|[0-9]{3}|[0-9]{4})$`)
	divisionCodeRe   = regexp.MustCompile(`^[A-Z]$`)
	majorGroupCodeRe = regexp.MustCompile(`^[0-9]{2}$`)
	groupCodeRe      = regexp.MustCompile(`^[0-9]{3}$`)
	classCodeRe      = regexp.MustCompile(`^[0-9]{4}$`)
	isoDateRe        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// RawContract is the e-Stat download as fetched.
var RawContract = schema.Contract{
	Name: "raw_master",
	Fields: []schema.Field{
		{Name: colCode, Required: true, Unique: true, Pattern: anyCodeRe, PatternErr: core.ErrInvalidCodeShape},
		{Name: colCodeName, Required: true},
		{Name: colDesc},
	},
}

// ExampleContract is one batch of scraped example pages.
var ExampleContract = schema.Contract{
	Name: "class_examples",
	Fields: []schema.Field{
		{Name: colCode, Required: true, Unique: true, Pattern: classCodeRe},
		{Name: ColExample},
		{Name: ColUnsuitableExample},
		{Name: ColReleaseDate, Pattern: isoDateRe},
	},
}

// FlatContract is the flattened class table. Its field order is the column
// order of the published output.
var FlatContract = schema.Contract{
	Name: "flat_master",
	Fields: []schema.Field{
		{Name: ColDivisionCode, Required: true, Pattern: divisionCodeRe},
		{Name: ColDivisionCodeName, Required: true},
		{Name: ColDivisionDesc, Required: true},
		{Name: ColMajorGroupCode, Required: true, Pattern: majorGroupCodeRe},
		{Name: ColMajorGroupCodeName, Required: true},
		{Name: ColMajorGroupDesc, Required: true},
		{Name: ColGroupCode, Required: true, Pattern: groupCodeRe},
		{Name: ColGroupCodeName, Required: true},
		{Name: ColGroupDesc},
		{Name: ColClassCode, Required: true, Unique: true, Pattern: classCodeRe},
		{Name: ColClassCodeName, Required: true},
		{Name: ColClassDesc},
	},
}

// MasterContract is the published table.
var MasterContract = FlatContract.Extend("master",
	schema.Field{Name: ColExample},
	schema.Field{Name: ColUnsuitableExample},
	schema.Field{Name: ColReleaseDate, Pattern: isoDateRe},
)

// MasterColumns is the output column order.
func MasterColumns() []string {
	return MasterContract.Columns()
}
