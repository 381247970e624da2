package jsic

// JoinExamples inner-joins classes with their example records on class code.
// Classes without an example are dropped; output keeps the leaf order.
func JoinExamples(leaves []FlatLeafRow, examples []ExampleRecord) []MasterRow {
	byCode := make(map[string]ExampleRecord, len(examples))
	for _, ex := range examples {
		if _, dup := byCode[ex.Code]; !dup {
			byCode[ex.Code] = ex
		}
	}

	out := make([]MasterRow, 0, min(len(leaves), len(byCode)))
	for _, leaf := range leaves {
		ex, ok := byCode[leaf.ClassCode]
		if !ok {
			continue
		}
		out = append(out, MasterRow{
			FlatLeafRow:       leaf,
			Example:           ex.Example,
			UnsuitableExample: ex.UnsuitableExample,
			ReleaseDate:       ex.ReleaseDate,
		})
	}
	return out
}
