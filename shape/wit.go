package shape

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/codecgen/errors"
)

// dynamicName is the WIT name used for dynamically typed values.
const dynamicName = "value"

// WIT maps the descriptor to a WIT type. A named record or enumeration at
// the top level becomes a full definition; named types reached through
// members or elements are referenced by name only.
func WIT(d *Descriptor) (wit.Type, error) {
	if err := d.Valid(); err != nil {
		return nil, err
	}
	if d.IsEnumeration() {
		return enumDef(d.Type, d.Symbols), nil
	}
	return witType(d.Type, true, nil)
}

func witType(t reflect.Type, top bool, path []string) (wit.Type, error) {
	if !top && t.Name() != "" {
		if syms := declaredSymbols(t); len(syms) > 0 || t.Kind() == reflect.Struct {
			name := witName(t.Name())
			return &wit.TypeDef{Name: &name}, nil
		}
	}
	if syms := declaredSymbols(t); len(syms) > 0 {
		return enumDef(t, syms), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return wit.Bool{}, nil
	case reflect.Int8:
		return wit.S8{}, nil
	case reflect.Int16:
		return wit.S16{}, nil
	case reflect.Int32:
		return wit.S32{}, nil
	case reflect.Int, reflect.Int64:
		return wit.S64{}, nil
	case reflect.Uint8:
		return wit.U8{}, nil
	case reflect.Uint16:
		return wit.U16{}, nil
	case reflect.Uint32:
		return wit.U32{}, nil
	case reflect.Uint, reflect.Uint64:
		return wit.U64{}, nil
	case reflect.Float32:
		return wit.F32{}, nil
	case reflect.Float64:
		return wit.F64{}, nil
	case reflect.String:
		return wit.String{}, nil
	case reflect.Interface:
		name := dynamicName
		return &wit.TypeDef{Name: &name}, nil
	}

	tr := analyzeType(t)
	switch tr.Kind {
	case KindBytes, KindSequence, KindArray, KindSet:
		elem, err := witType(tr.Elem, false, child(path, "[elem]"))
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.List{Type: elem}}, nil

	case KindMapping:
		key, err := witType(tr.Key, false, child(path, "[key]"))
		if err != nil {
			return nil, err
		}
		val, err := witType(tr.Elem, false, child(path, "[value]"))
		if err != nil {
			return nil, err
		}
		pair := &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{key, val}}}
		return &wit.TypeDef{Kind: &wit.List{Type: pair}}, nil

	case KindNullable:
		elem, err := witType(tr.Elem, false, child(path, "[elem]"))
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Option{Type: elem}}, nil

	case KindRecord:
		members, err := Members(t)
		if err != nil {
			return nil, err
		}
		rec := &wit.Record{Fields: make([]wit.Field, 0, len(members))}
		for _, m := range members {
			ft, err := witType(m.Type, false, child(path, m.Name))
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, wit.Field{Name: witName(m.Name), Type: ft})
		}
		def := &wit.TypeDef{Kind: rec}
		if t.Name() != "" && t.PkgPath() != "" {
			name := witName(t.Name())
			def.Name = &name
		}
		return def, nil
	}

	return nil, errors.New(errors.PhaseAnalyze, errors.KindUnsupported).
		Path(path...).
		GoType(t.String()).
		Detail("no WIT mapping for %s", t.Kind()).
		Build()
}

func enumDef(t reflect.Type, symbols []Symbol) wit.Type {
	e := &wit.Enum{Cases: make([]wit.EnumCase, len(symbols))}
	for i, s := range symbols {
		e.Cases[i] = wit.EnumCase{Name: witName(s.Name)}
	}
	def := &wit.TypeDef{Kind: e}
	if t.Name() != "" && t.PkgPath() != "" {
		name := witName(t.Name())
		def.Name = &name
	}
	return def
}

// FormatWIT renders t in WIT syntax. A named record or enum is rendered as a
// definition; nested named types render as their name.
func FormatWIT(t wit.Type) string {
	return formatWIT(t, true)
}

func formatWIT(t wit.Type, top bool) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		return formatTypeDef(v, top)
	default:
		return fmt.Sprintf("%T", t)
	}
}

func formatTypeDef(td *wit.TypeDef, top bool) string {
	if td.Name != nil && (!top || td.Kind == nil) {
		return *td.Name
	}

	switch k := td.Kind.(type) {
	case *wit.List:
		return "list<" + formatWIT(k.Type, false) + ">"
	case *wit.Option:
		return "option<" + formatWIT(k.Type, false) + ">"
	case *wit.Tuple:
		parts := make([]string, len(k.Types))
		for i, et := range k.Types {
			parts[i] = formatWIT(et, false)
		}
		return "tuple<" + strings.Join(parts, ", ") + ">"
	case *wit.Record:
		parts := make([]string, len(k.Fields))
		for i, f := range k.Fields {
			parts[i] = f.Name + ": " + formatWIT(f.Type, false)
		}
		return "record " + defName(td) + "{ " + strings.Join(parts, ", ") + " }"
	case *wit.Enum:
		parts := make([]string, len(k.Cases))
		for i, c := range k.Cases {
			parts[i] = c.Name
		}
		return "enum " + defName(td) + "{ " + strings.Join(parts, ", ") + " }"
	default:
		if td.Name != nil {
			return *td.Name
		}
		return "typedef"
	}
}

func defName(td *wit.TypeDef) string {
	if td.Name == nil {
		return ""
	}
	return *td.Name + " "
}

// witName converts a Go identifier to a WIT kebab-case identifier.
// Acronym runs stay together: HTTPServer becomes http-server.
func witName(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		switch {
		case r == '_' || r == ' ':
			if b.Len() > 0 {
				b.WriteByte('-')
			}
			continue
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('-')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func child(path []string, elem string) []string {
	return append(append(make([]string, 0, len(path)+1), path...), elem)
}
