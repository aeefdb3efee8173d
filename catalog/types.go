package catalog

import (
	"strings"

	"github.com/federatedsql/multidb/schema"
)

// mapDataType reduces a dialect's declared SQL type name onto the engine's
// own DataType lattice (schema.DataType), mirroring the hand-maintained
// type tables in multidb/dialect.py's BaseDialect subclasses. Sizes and
// precision aren't modeled: the engine only needs enough type information
// to decide comparison/convolution semantics and the local mirror's
// SQLite column type.
func mapDataType(declared string) schema.DataType {
	t := strings.ToLower(strings.TrimSpace(declared))
	// Strip a trailing size/precision spec, e.g. "varchar(255)" -> "varchar".
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(t)

	switch t {
	case "int", "int2", "int4", "int8", "smallint", "integer", "bigint",
		"tinyint", "mediumint", "serial", "bigserial":
		return schema.TypeInt
	case "float", "float4", "float8", "real", "double", "double precision",
		"numeric", "decimal":
		return schema.TypeFloat
	case "bool", "boolean":
		return schema.TypeBool
	case "date":
		return schema.TypeDate
	case "timestamp", "timestamptz", "datetime",
		"timestamp without time zone", "timestamp with time zone":
		return schema.TypeDatetime
	case "char", "varchar", "bpchar", "text", "character", "character varying",
		"tinytext", "mediumtext", "longtext", "enum":
		return schema.TypeString
	default:
		return schema.TypeUnsupported
	}
}
