package jsic

import (
	"fmt"

	"github.com/estat-master/estat-master/pkg/pipeline/schema"
)

// BuildMaster runs the whole transform: validate the raw table, normalize
// descriptions, flatten, validate, join examples and validate the result.
// Any violation fails the build; there is no partial result.
func BuildMaster(raw []RawRow, examples []ExampleRecord) ([]MasterRow, error) {
	if err := schema.Validate(RawContract, raw); err != nil {
		return nil, err
	}
	if err := schema.Validate(ExampleContract, examples); err != nil {
		return nil, err
	}

	flat, err := Flatten(NormalizeDescriptions(raw))
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}
	if err := schema.Validate(FlatContract, flat); err != nil {
		return nil, err
	}

	master := JoinExamples(flat, examples)
	if err := schema.Validate(MasterContract, master); err != nil {
		return nil, err
	}
	return master, nil
}
