package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/estat-master/estat-master/pkg/pipeline/core"
)

// DataType is a classification this tool can publish.
type DataType struct {
	Name string
	// ClassificationType is the e-Stat bKbn code.
	ClassificationType string
	Description        string
}

var dataTypes = map[string]DataType{
	"jsic": {Name: "jsic", ClassificationType: "10", Description: "Japan Standard Industrial Classification"},
}

// LookupDataType resolves a --data-type value.
func LookupDataType(name string) (DataType, error) {
	dt, ok := dataTypes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return DataType{}, fmt.Errorf("%w: data type %q (supported: %s)",
			core.ErrUnsupportedFormat, name, strings.Join(DataTypeNames(), ", "))
	}
	return dt, nil
}

// DataTypeNames lists the registered data types.
func DataTypeNames() []string {
	names := make([]string, 0, len(dataTypes))
	for name := range dataTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
