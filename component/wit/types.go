// Package wit implements WIT (WebAssembly Interface Types) reflection over
// a compiled component: listing its imported and exported interfaces, and
// the functions exported directly from its world root. Grounded on
// runtime/src/component/wit.rs, decoding via the `wasm-tools` CLI and
// go.bytecodealliance.org/wit instead of reimplementing a WIT parser.
package wit

// TypeKind enumerates the shapes a WIT type can take, mirroring
// wit_parser::TypeDefKind's variants relevant to reflection and value
// conversion (spec.md §4.5's supported subset, plus the unsupported kinds
// so callers can reject them explicitly rather than falling through).
type TypeKind string

const (
	KindBool    TypeKind = "bool"
	KindU8      TypeKind = "u8"
	KindU16     TypeKind = "u16"
	KindU32     TypeKind = "u32"
	KindU64     TypeKind = "u64"
	KindS8      TypeKind = "s8"
	KindS16     TypeKind = "s16"
	KindS32     TypeKind = "s32"
	KindS64     TypeKind = "s64"
	KindF32     TypeKind = "f32"
	KindF64     TypeKind = "f64"
	KindChar    TypeKind = "char"
	KindString  TypeKind = "string"
	KindList    TypeKind = "list"
	KindTuple   TypeKind = "tuple"
	KindOption  TypeKind = "option"
	KindResult  TypeKind = "result"
	KindRecord  TypeKind = "record"
	KindVariant TypeKind = "variant"
	KindEnum    TypeKind = "enum"
	KindFlags   TypeKind = "flags"
	KindUnknown TypeKind = "unknown"
)

// Type is a WIT type reference, resolved deeply enough to display and,
// for the supported subset, convert values against.
type Type struct {
	Kind TypeKind
	Name string // named type alias, if any; empty for anonymous/built-in types

	// Elem is the element type for List and Option.
	Elem *Type
	// Tuple is the member types for Tuple, in order.
	Tuple []Type
	// ResultOk/ResultErr are the payload types for Result; either may be nil.
	ResultOk  *Type
	ResultErr *Type
	// Fields is the field list for Record, in declaration order.
	Fields []RecordField
	// Cases is the case name list for Enum and Variant.
	Cases []string
	// Flags is the flag name list for Flags.
	Flags []string
}

// RecordField is one named, typed field of a WIT record.
type RecordField struct {
	Name string
	Type Type
}

// Display renders ty the way the original reflection layer does: named
// types render as their name, anonymous compound types render
// structurally (e.g. "option<string>", "tuple<u32, string>").
func Display(ty Type) string {
	if ty.Name != "" {
		return ty.Name
	}
	return displayKind(ty)
}

func displayKind(ty Type) string {
	switch ty.Kind {
	case KindOption:
		return "option<" + Display(*ty.Elem) + ">"
	case KindList:
		return "list<" + Display(*ty.Elem) + ">"
	case KindResult:
		okStr, errStr := "_", "_"
		if ty.ResultOk != nil {
			okStr = Display(*ty.ResultOk)
		}
		if ty.ResultErr != nil {
			errStr = Display(*ty.ResultErr)
		}
		return "result<" + okStr + ", " + errStr + ">"
	case KindTuple:
		return "tuple<" + joinDisplay(ty.Tuple) + ">"
	case KindRecord:
		return "record"
	case KindVariant:
		return "variant"
	case KindEnum:
		return "enum"
	case KindFlags:
		return "flags"
	default:
		return string(ty.Kind)
	}
}

func joinDisplay(types []Type) string {
	s := ""
	for i, t := range types {
		if i > 0 {
			s += ", "
		}
		s += Display(t)
	}
	return s
}

// FunctionParam is one named, typed function parameter.
type FunctionParam struct {
	Name string
	Type Type
}

// Function describes one exported function's signature.
type Function struct {
	Name       string
	Docs       string
	Params     []FunctionParam
	ReturnType *Type // nil when the function has no return value
}

// ImportedInterface is a world import resolved to its fully qualified
// name, e.g. "wasi:http/outgoing-handler@0.2.0".
type ImportedInterface struct {
	Name string
}

// ExportedInterface is a world export resolved to its fully qualified
// name plus the functions it exposes.
type ExportedInterface struct {
	Name      string
	Docs      string
	Functions []Function
}
