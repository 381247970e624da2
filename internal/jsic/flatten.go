package jsic

// Flatten turns the pre-order code list into one row per class.
//
// Ancestor codes come from a single forward pass: each division, major group
// and group row replaces the current code at its level, and every class row
// takes the codes current at that point. Deeper slots are not reset when a
// shallower level changes. Ancestor names and descriptions are then looked up
// by code against the whole table; a code with no row leaves them nil.
//
// Rows must have recognizable code shapes. Descriptions are used as given, so
// normalize them first.
func Flatten(rows []RawRow) ([]FlatLeafRow, error) {
	byCode := make(map[string]RawRow, len(rows))
	var current [LevelClass]string
	leaves := make([]FlatLeafRow, 0)

	for _, r := range rows {
		lvl, err := LevelOf(r.Code)
		if err != nil {
			return nil, err
		}
		if _, dup := byCode[r.Code]; !dup {
			byCode[r.Code] = r
		}
		if lvl != LevelClass {
			current[lvl] = r.Code
			continue
		}
		leaves = append(leaves, FlatLeafRow{
			DivisionCode:   current[LevelDivision],
			MajorGroupCode: current[LevelMajorGroup],
			GroupCode:      current[LevelGroup],
			ClassCode:      r.Code,
			ClassCodeName:  r.CodeName,
			ClassDesc:      r.Desc,
		})
	}

	lookup := func(code string) (name, desc *string) {
		if code == "" {
			return nil, nil
		}
		r, ok := byCode[code]
		if !ok {
			return nil, nil
		}
		return ptr(r.CodeName), r.Desc
	}
	for i := range leaves {
		l := &leaves[i]
		l.GroupCodeName, l.GroupDesc = lookup(l.GroupCode)
		l.MajorGroupCodeName, l.MajorGroupDesc = lookup(l.MajorGroupCode)
		l.DivisionCodeName, l.DivisionDesc = lookup(l.DivisionCode)
	}
	return leaves, nil
}
