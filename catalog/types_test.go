package catalog

import (
	"testing"

	"github.com/federatedsql/multidb/schema"
)

func TestMapDataType(t *testing.T) {
	cases := map[string]schema.DataType{
		"integer":                   schema.TypeInt,
		"bigint":                    schema.TypeInt,
		"int4":                      schema.TypeInt,
		"numeric(10,2)":             schema.TypeFloat,
		"double precision":          schema.TypeFloat,
		"boolean":                   schema.TypeBool,
		"date":                      schema.TypeDate,
		"timestamp without time zone": schema.TypeDatetime,
		"character varying(255)":   schema.TypeString,
		"text":                      schema.TypeString,
		"json":                      schema.TypeUnsupported,
		"geometry":                  schema.TypeUnsupported,
	}
	for declared, want := range cases {
		if got := mapDataType(declared); got != want {
			t.Errorf("mapDataType(%q) = %v, want %v", declared, got, want)
		}
	}
}
