package serde

import (
	"path"
	"reflect"
	"strings"
)

// CanonicalName returns the name under which t is configured, registered and
// recorded in generated schemas: "<package name>.<TypeName>".
//
// Pointers are dereferenced. Import paths inside generic type arguments are
// dropped and the argument list is flattened with '_', so Box[model.Item]
// becomes "pkg.Box_model_Item". Unnamed types return "".
func CanonicalName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return ""
	}

	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i] + "_" + flattenTypeArgs(name[i+1:])
	}

	pkg := packageName(t.PkgPath())
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// CanonicalNameOf is CanonicalName for the type of T.
func CanonicalNameOf[T any]() string {
	return CanonicalName(reflect.TypeOf((*T)(nil)).Elem())
}

// sidecarPath maps a canonical name to its resource path: dots become
// directories and ".avsc" is appended.
func sidecarPath(canonical string) string {
	return strings.ReplaceAll(canonical, ".", "/") + ".avsc"
}

// splitName splits a canonical name into Avro namespace and name.
func splitName(canonical string) (namespace, name string) {
	if i := strings.LastIndexByte(canonical, '.'); i >= 0 {
		return canonical[:i], canonical[i+1:]
	}
	return "", canonical
}

func packageName(pkgPath string) string {
	if pkgPath == "" {
		return ""
	}
	return sanitizeName(path.Base(pkgPath))
}

// flattenTypeArgs turns "github.com/x/model.Item,int]" into "model_Item_int".
func flattenTypeArgs(args string) string {
	args = strings.TrimSuffix(args, "]")

	var b strings.Builder
	var segment strings.Builder
	flush := func() {
		s := segment.String()
		if i := strings.LastIndexByte(s, '/'); i >= 0 {
			s = s[i+1:]
		}
		b.WriteString(sanitizeName(s))
		segment.Reset()
	}

	for _, r := range args {
		switch r {
		case ',', '[', ']', ' ', '*':
			flush()
			if r != ' ' {
				b.WriteByte('_')
			}
		default:
			segment.WriteRune(r)
		}
	}
	flush()

	return strings.Trim(collapseUnderscores(b.String()), "_")
}

// sanitizeName replaces characters that are not valid in an Avro name with '_'.
func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}
