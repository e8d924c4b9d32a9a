package wit

import (
	witpkg "go.bytecodealliance.org/wit"
)

// resolveType maps a go.bytecodealliance.org/wit type reference to this
// package's own Type model. This is the one seam that depends on the
// external library's exact shape; everything downstream (display,
// reflection, value conversion) operates only on our own Type.
func resolveType(resolved *witpkg.Resolve, t witpkg.Type) Type {
	if named := t.TypeDef(); named != nil && named.Name != "" {
		base := resolveTypeDefKind(resolved, named)
		base.Name = named.Name
		return base
	}
	if named := t.TypeDef(); named != nil {
		return resolveTypeDefKind(resolved, named)
	}
	return Type{Kind: primitiveKind(t)}
}

func resolveTypeDefKind(resolved *witpkg.Resolve, def *witpkg.TypeDef) Type {
	switch kind := def.Kind.(type) {
	case *witpkg.Option:
		elem := resolveType(resolved, kind.Type)
		return Type{Kind: KindOption, Elem: &elem}
	case *witpkg.List:
		elem := resolveType(resolved, kind.Type)
		return Type{Kind: KindList, Elem: &elem}
	case *witpkg.Tuple:
		members := make([]Type, 0, len(kind.Types))
		for _, m := range kind.Types {
			members = append(members, resolveType(resolved, m))
		}
		return Type{Kind: KindTuple, Tuple: members}
	case *witpkg.Result:
		out := Type{Kind: KindResult}
		if kind.OK != nil {
			ok := resolveType(resolved, *kind.OK)
			out.ResultOk = &ok
		}
		if kind.Err != nil {
			errT := resolveType(resolved, *kind.Err)
			out.ResultErr = &errT
		}
		return out
	case *witpkg.Record:
		fields := make([]RecordField, 0, len(kind.Fields))
		for _, f := range kind.Fields {
			fields = append(fields, RecordField{Name: f.Name, Type: resolveType(resolved, f.Type)})
		}
		return Type{Kind: KindRecord, Fields: fields}
	case *witpkg.Enum:
		cases := make([]string, 0, len(kind.Cases))
		for _, c := range kind.Cases {
			cases = append(cases, c.Name)
		}
		return Type{Kind: KindEnum, Cases: cases}
	case *witpkg.Variant:
		cases := make([]string, 0, len(kind.Cases))
		for _, c := range kind.Cases {
			cases = append(cases, c.Name)
		}
		return Type{Kind: KindVariant, Cases: cases}
	case *witpkg.Flags:
		flags := make([]string, 0, len(kind.Flags))
		for _, f := range kind.Flags {
			flags = append(flags, f.Name)
		}
		return Type{Kind: KindFlags, Flags: flags}
	case *witpkg.TypeAlias:
		return resolveType(resolved, kind.Type)
	default:
		return Type{Kind: KindUnknown}
	}
}

func primitiveKind(t witpkg.Type) TypeKind {
	switch t {
	case witpkg.Bool:
		return KindBool
	case witpkg.U8:
		return KindU8
	case witpkg.U16:
		return KindU16
	case witpkg.U32:
		return KindU32
	case witpkg.U64:
		return KindU64
	case witpkg.S8:
		return KindS8
	case witpkg.S16:
		return KindS16
	case witpkg.S32:
		return KindS32
	case witpkg.S64:
		return KindS64
	case witpkg.F32:
		return KindF32
	case witpkg.F64:
		return KindF64
	case witpkg.Char:
		return KindChar
	case witpkg.String:
		return KindString
	default:
		return KindUnknown
	}
}
