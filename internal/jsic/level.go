package jsic

import (
	"fmt"

	"github.com/estat-master/estat-master/pkg/pipeline/core"
)

// Level is the depth of a code in the classification tree.
type Level int

const (
	LevelDivision   Level = 1
	LevelMajorGroup Level = 2
	LevelGroup      Level = 3
	LevelClass      Level = 4
)

func (l Level) String() string {
	switch l {
	case LevelDivision:
		return "division"
	case LevelMajorGroup:
		return "major_group"
	case LevelGroup:
		return "group"
	case LevelClass:
		return "class"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// CodeShapeError reports a code that matches none of the four code shapes.
type CodeShapeError struct {
	Code string
}

func (e *CodeShapeError) Error() string {
	if e == nil {
		return core.ErrInvalidCodeShape.Error()
	}
	return fmt.Sprintf("%s: %q", core.ErrInvalidCodeShape, e.Code)
}

func (e *CodeShapeError) Unwrap() error {
	return core.ErrInvalidCodeShape
}

// LevelOf infers the level from the code's shape: one uppercase letter is a
// division, two, three and four digits are major group, group and class.
func LevelOf(code string) (Level, error) {
	if len(code) == 1 && code[0] >= 'A' && code[0] <= 'Z' {
		return LevelDivision, nil
	}
	if len(code) < 2 || len(code) > 4 {
		return 0, &CodeShapeError{Code: code}
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return 0, &CodeShapeError{Code: code}
		}
	}
	return Level(len(code)), nil
}

// LeafCodes returns the class codes of rows in table order. Rows whose code
// has no recognizable shape are skipped.
func LeafCodes(rows []RawRow) []string {
	var out []string
	for _, r := range rows {
		if lvl, err := LevelOf(r.Code); err == nil && lvl == LevelClass {
			out = append(out, r.Code)
		}
	}
	return out
}
