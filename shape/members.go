package shape

import (
	"reflect"
	"strings"

	"github.com/zoobzio/sentinel"

	"github.com/wippyai/codecgen/errors"
)

// TagName is the struct tag consulted for member names.
const TagName = "msgpack"

func init() {
	sentinel.Tag(TagName)
}

// Member is one serialized field of a record.
type Member struct {
	Type  reflect.Type
	Name  string // wire name
	Field string // Go field name
	Index []int
}

// Warm scans T into the sentinel metadata cache so later Members calls for
// the same type skip reflection.
func Warm[T any]() {
	if reflect.TypeFor[T]().Kind() != reflect.Struct {
		return
	}
	sentinel.Scan[T]()
}

// Members lists the serialized members of struct type t in declaration
// order. Unexported fields and fields tagged "-" are skipped.
func Members(t reflect.Type) ([]Member, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errors.New(errors.PhaseAnalyze, errors.KindInvalidArgument).
			GoType(typeName(t)).
			Detail("members requested for a non-struct type").
			Build()
	}

	meta := lookupMetadata(t)
	members := make([]Member, 0, len(meta.Fields))
	seen := make(map[string]string, len(meta.Fields))

	for _, fm := range meta.Fields {
		sf := t.FieldByIndex(fm.Index)
		if !sf.IsExported() {
			continue
		}

		tag, ok := fm.Tags[TagName]
		if !ok {
			tag = sf.Tag.Get(TagName)
		}
		name, skip := parseTag(tag, sf.Name)
		if skip {
			continue
		}

		if prev, dup := seen[name]; dup {
			return nil, errors.New(errors.PhaseAnalyze, errors.KindInvalidArgument).
				GoType(t.String()).
				Detail("fields %s and %s share wire name %q", prev, sf.Name, name).
				Build()
		}
		seen[name] = sf.Name

		members = append(members, Member{
			Name:  name,
			Field: sf.Name,
			Index: append([]int(nil), fm.Index...),
			Type:  sf.Type,
		})
	}
	return members, nil
}

// lookupMetadata prefers the sentinel cache and falls back to reflection.
// The cache is keyed by bare type name, so cached metadata is only trusted
// if it describes the same package, field layout and tags.
func lookupMetadata(t reflect.Type) sentinel.Metadata {
	if meta, ok := sentinel.Lookup(t.Name()); ok && sameLayout(t, meta) {
		return meta
	}

	meta := sentinel.Metadata{
		TypeName:    t.Name(),
		PackageName: t.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, t.NumField()),
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        map[string]string{},
		}
		if tag, ok := sf.Tag.Lookup(TagName); ok {
			fm.Tags[TagName] = tag
		}
		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Pointer:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}
		meta.Fields = append(meta.Fields, fm)
	}
	return meta
}

func sameLayout(t reflect.Type, meta sentinel.Metadata) bool {
	if meta.PackageName != t.PkgPath() {
		return false
	}
	for _, fm := range meta.Fields {
		if len(fm.Index) != 1 || fm.Index[0] >= t.NumField() {
			return false
		}
		sf := t.Field(fm.Index[0])
		if sf.Name != fm.Name || sf.Type != fm.ReflectType {
			return false
		}
		if fm.Tags[TagName] != sf.Tag.Get(TagName) {
			return false
		}
	}
	return true
}

func parseTag(tag, fieldName string) (name string, skip bool) {
	if tag == "-" {
		return "", true
	}
	name, _, _ = strings.Cut(tag, ",")
	if name == "" {
		name = fieldName
	}
	return name, false
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
