package serde

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/linkedin/goavro/v2"
)

// codec is a writer or reader bound to one schema. The binary encoding is done
// by goavro; values are converted between Go structs and goavro's native form
// by walking the parsed schema.
type codec struct {
	*resolvedSchema
	avro *goavro.Codec
}

func newCodec(rs *resolvedSchema) (*codec, error) {
	c, err := goavro.NewCodec(rs.text)
	if err != nil {
		return nil, err
	}
	return &codec{resolvedSchema: rs, avro: c}, nil
}

// encode converts v and appends its binary encoding to buf.
func (c *codec) encode(conv *converter, buf []byte, v any) ([]byte, error) {
	native, err := conv.toNative(c.schema, reflect.ValueOf(v), "")
	if err != nil {
		return nil, err
	}
	return c.avro.BinaryFromNative(buf, native)
}

// decode reads body into target, which must be a non-nil pointer.
func (c *codec) decode(conv *converter, body []byte, target any) error {
	native, rest, err := c.avro.NativeFromBinary(body)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("%d trailing bytes after %s body", len(rest), c.recordName())
	}
	return conv.fromNative(c.schema, native, reflect.ValueOf(target).Elem(), "")
}

// converter maps Go values to goavro native values and back, honouring the
// binder's field projection.
type converter struct {
	binder *binder
}

func (c *converter) toNative(s avro.Schema, v reflect.Value, layout string) (interface{}, error) {
	s = deref(s)
	if s.Type() == avro.Union {
		return c.unionToNative(s.(*avro.UnionSchema), v, layout)
	}

	v = indirect(v)
	if s.Type() == avro.Null {
		return nil, nil
	}
	if !v.IsValid() {
		return nil, fmt.Errorf("nil value for non-nullable %s", s.Type())
	}
	t := v.Type()

	switch s.Type() {
	case avro.Record, avro.Error:
		if t.Kind() != reflect.Struct || t == timeType {
			return nil, mismatch(s, t)
		}
		return c.recordToNative(s.(*avro.RecordSchema), v)

	case avro.Array:
		if (t.Kind() != reflect.Slice && t.Kind() != reflect.Array) || isBytes(t) {
			return nil, mismatch(s, t)
		}
		items := s.(*avro.ArraySchema).Items()
		out := make([]interface{}, v.Len())
		for i := range out {
			item, err := c.toNative(items, v.Index(i), layout)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = item
		}
		return out, nil

	case avro.Map:
		if t.Kind() != reflect.Map || t.Key().Kind() != reflect.String {
			return nil, mismatch(s, t)
		}
		values := s.(*avro.MapSchema).Values()
		out := make(map[string]interface{}, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			value, err := c.toNative(values, iter.Value(), layout)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", iter.Key().String(), err)
			}
			out[iter.Key().String()] = value
		}
		return out, nil

	case avro.String:
		if t == timeType {
			return v.Interface().(time.Time).Format(timeLayout(layout)), nil
		}
		if t.Kind() != reflect.String {
			return nil, mismatch(s, t)
		}
		return v.String(), nil

	case avro.Enum:
		if t.Kind() != reflect.String {
			return nil, mismatch(s, t)
		}
		return v.String(), nil

	case avro.Bytes, avro.Fixed:
		if !isBytes(t) {
			return nil, mismatch(s, t)
		}
		b := make([]byte, v.Len())
		reflect.Copy(reflect.ValueOf(b), v)
		return b, nil

	case avro.Int:
		if t == timeType {
			return v.Interface().(time.Time), nil
		}
		n, err := integer(v)
		if err != nil {
			return nil, mismatch(s, t)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("value %d overflows int", n)
		}
		return int32(n), nil

	case avro.Long:
		logical := logicalType(s)
		if t == timeType {
			tm := v.Interface().(time.Time)
			if logical == "" {
				return tm.UnixMilli(), nil
			}
			return tm, nil
		}
		n, err := integer(v)
		if err != nil {
			return nil, mismatch(s, t)
		}
		switch logical {
		case avro.TimestampMillis:
			return time.UnixMilli(n).UTC(), nil
		case avro.TimestampMicros:
			return time.UnixMicro(n).UTC(), nil
		}
		return n, nil

	case avro.Float:
		if !isFloat(t.Kind()) {
			return nil, mismatch(s, t)
		}
		return float32(v.Float()), nil

	case avro.Double:
		if !isFloat(t.Kind()) {
			return nil, mismatch(s, t)
		}
		return v.Float(), nil

	case avro.Boolean:
		if t.Kind() != reflect.Bool {
			return nil, mismatch(s, t)
		}
		return v.Bool(), nil
	}

	return nil, fmt.Errorf("unsupported schema type %s", s.Type())
}

func (c *converter) recordToNative(rs *avro.RecordSchema, v reflect.Value) (interface{}, error) {
	sf := c.binder.structFields(v.Type())
	out := make(map[string]interface{}, len(rs.Fields()))
	for _, f := range rs.Fields() {
		gf, ok := sf.lookup(f.Name())
		if !ok {
			// left to the schema default
			continue
		}
		fv, err := fieldByIndex(v, gf.index)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name(), err)
		}
		native, err := c.toNative(f.Type(), fv, gf.layout)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name(), err)
		}
		out[f.Name()] = native
	}
	return out, nil
}

func (c *converter) unionToNative(u *avro.UnionSchema, v reflect.Value, layout string) (interface{}, error) {
	iv := indirect(v)
	if !iv.IsValid() || ((iv.Kind() == reflect.Slice || iv.Kind() == reflect.Map) && iv.IsNil() && hasNull(u)) {
		if hasNull(u) {
			return nil, nil
		}
		return nil, errors.New("nil value for union without null")
	}

	// a record branch named like the Go type wins over structural matches
	if name := CanonicalName(iv.Type()); name != "" {
		for _, branch := range u.Types() {
			if named, ok := deref(branch).(avro.NamedSchema); ok && named.FullName() == name {
				native, err := c.toNative(branch, iv, layout)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{branchName(branch): native}, nil
			}
		}
	}

	var lastErr error
	for _, branch := range u.Types() {
		if branch.Type() == avro.Null || !accepts(branch, iv.Type(), layout) {
			continue
		}
		native, err := c.toNative(branch, iv, layout)
		if err != nil {
			lastErr = err
			continue
		}
		return map[string]interface{}{branchName(branch): native}, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("no union branch accepts %s", iv.Type())
}

func (c *converter) fromNative(s avro.Schema, native interface{}, target reflect.Value, layout string) error {
	s = deref(s)
	if s.Type() == avro.Union {
		if native == nil {
			target.Set(reflect.Zero(target.Type()))
			return nil
		}
		m, ok := native.(map[string]interface{})
		if !ok || len(m) != 1 {
			return fmt.Errorf("unexpected union value %T", native)
		}
		for name, value := range m {
			branch := findBranch(s.(*avro.UnionSchema), name)
			if branch == nil {
				return fmt.Errorf("unknown union branch %q", name)
			}
			return c.fromNative(branch, value, target, layout)
		}
	}

	if native == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	for target.Kind() == reflect.Pointer {
		if target.IsNil() {
			target.Set(reflect.New(target.Type().Elem()))
		}
		target = target.Elem()
	}
	if target.Kind() == reflect.Interface && target.NumMethod() == 0 {
		target.Set(reflect.ValueOf(native))
		return nil
	}
	t := target.Type()

	switch s.Type() {
	case avro.Record, avro.Error:
		m, ok := native.(map[string]interface{})
		if !ok || t.Kind() != reflect.Struct {
			return mismatch(s, t)
		}
		sf := c.binder.structFields(t)
		for _, f := range s.(*avro.RecordSchema).Fields() {
			gf, ok := sf.lookup(f.Name())
			if !ok {
				continue
			}
			value, present := m[f.Name()]
			if !present {
				continue
			}
			fv, err := fieldByIndex(target, gf.index)
			if err != nil {
				return fmt.Errorf("field %s: %w", f.Name(), err)
			}
			if err := c.fromNative(f.Type(), value, fv, gf.layout); err != nil {
				return fmt.Errorf("field %s: %w", f.Name(), err)
			}
		}
		return nil

	case avro.Array:
		items, ok := native.([]interface{})
		if !ok {
			return mismatch(s, t)
		}
		itemSchema := s.(*avro.ArraySchema).Items()
		switch t.Kind() {
		case reflect.Slice:
			out := reflect.MakeSlice(t, len(items), len(items))
			for i, item := range items {
				if err := c.fromNative(itemSchema, item, out.Index(i), layout); err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
			}
			target.Set(out)
		case reflect.Array:
			if len(items) > t.Len() {
				return fmt.Errorf("%d items do not fit %s", len(items), t)
			}
			for i, item := range items {
				if err := c.fromNative(itemSchema, item, target.Index(i), layout); err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
			}
		default:
			return mismatch(s, t)
		}
		return nil

	case avro.Map:
		m, ok := native.(map[string]interface{})
		if !ok || t.Kind() != reflect.Map || t.Key().Kind() != reflect.String {
			return mismatch(s, t)
		}
		valueSchema := s.(*avro.MapSchema).Values()
		out := reflect.MakeMapWithSize(t, len(m))
		for key, value := range m {
			elem := reflect.New(t.Elem()).Elem()
			if err := c.fromNative(valueSchema, value, elem, layout); err != nil {
				return fmt.Errorf("key %q: %w", key, err)
			}
			out.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), elem)
		}
		target.Set(out)
		return nil

	case avro.String, avro.Enum:
		str, ok := native.(string)
		if !ok {
			return mismatch(s, t)
		}
		if t == timeType {
			tm, err := time.Parse(timeLayout(layout), str)
			if err != nil {
				return err
			}
			target.Set(reflect.ValueOf(tm))
			return nil
		}
		if t.Kind() != reflect.String {
			return mismatch(s, t)
		}
		target.SetString(str)
		return nil

	case avro.Bytes, avro.Fixed:
		b, ok := native.([]byte)
		if !ok || !isBytes(t) {
			return mismatch(s, t)
		}
		if t.Kind() == reflect.Slice {
			out := reflect.MakeSlice(t, len(b), len(b))
			reflect.Copy(out, reflect.ValueOf(b))
			target.Set(out)
			return nil
		}
		reflect.Copy(target, reflect.ValueOf(b))
		return nil

	case avro.Int, avro.Long:
		switch n := native.(type) {
		case time.Time:
			if t != timeType {
				return mismatch(s, t)
			}
			target.Set(reflect.ValueOf(n))
			return nil
		case int32:
			return setInteger(target, int64(n))
		case int64:
			if t == timeType {
				target.Set(reflect.ValueOf(time.UnixMilli(n).UTC()))
				return nil
			}
			return setInteger(target, n)
		}
		return mismatch(s, t)

	case avro.Float, avro.Double:
		var f float64
		switch n := native.(type) {
		case float32:
			f = float64(n)
		case float64:
			f = n
		default:
			return mismatch(s, t)
		}
		if !isFloat(t.Kind()) {
			return mismatch(s, t)
		}
		target.SetFloat(f)
		return nil

	case avro.Boolean:
		b, ok := native.(bool)
		if !ok || t.Kind() != reflect.Bool {
			return mismatch(s, t)
		}
		target.SetBool(b)
		return nil
	}

	return fmt.Errorf("unsupported schema type %s", s.Type())
}

// deref resolves a reference to a previously defined named type.
func deref(s avro.Schema) avro.Schema {
	if ref, ok := s.(*avro.RefSchema); ok {
		return ref.Schema()
	}
	return s
}

// indirect follows pointers and interfaces; a nil yields the zero Value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// fieldByIndex is reflect.Value.FieldByIndex for paths through value embeds.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, error) {
	for _, i := range index {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("cannot index %s", v.Type())
		}
		v = v.Field(i)
	}
	return v, nil
}

// branchName is the key goavro uses for a union branch.
func branchName(s avro.Schema) string {
	s = deref(s)
	if named, ok := s.(avro.NamedSchema); ok {
		return named.FullName()
	}
	if logical := logicalType(s); logical != "" {
		return string(s.Type()) + "." + string(logical)
	}
	return string(s.Type())
}

func findBranch(u *avro.UnionSchema, name string) avro.Schema {
	for _, branch := range u.Types() {
		if branchName(branch) == name {
			return branch
		}
	}
	return nil
}

func hasNull(u *avro.UnionSchema) bool {
	for _, branch := range u.Types() {
		if branch.Type() == avro.Null {
			return true
		}
	}
	return false
}

func logicalType(s avro.Schema) avro.LogicalType {
	if ls, ok := s.(avro.LogicalTypeSchema); ok && ls.Logical() != nil {
		return ls.Logical().Type()
	}
	return ""
}

// accepts reports whether a Go type can be written with schema s.
func accepts(s avro.Schema, t reflect.Type, layout string) bool {
	s = deref(s)
	switch s.Type() {
	case avro.String:
		return t.Kind() == reflect.String || t == timeType
	case avro.Enum:
		return t.Kind() == reflect.String
	case avro.Bytes, avro.Fixed:
		return isBytes(t)
	case avro.Int, avro.Long:
		return isInteger(t.Kind()) || t == timeType
	case avro.Float, avro.Double:
		return isFloat(t.Kind())
	case avro.Boolean:
		return t.Kind() == reflect.Bool
	case avro.Record, avro.Error:
		return t.Kind() == reflect.Struct && t != timeType
	case avro.Array:
		return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && !isBytes(t)
	case avro.Map:
		return t.Kind() == reflect.Map
	}
	return false
}

func timeLayout(layout string) string {
	if layout == "" {
		return defaultTimeLayout
	}
	return layout
}

func isBytes(t reflect.Type) bool {
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() == reflect.Uint8
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func integer(v reflect.Value) (int64, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows long", u)
		}
		return int64(u), nil
	}
	return 0, fmt.Errorf("%s is not an integer", v.Type())
}

func setInteger(target reflect.Value, n int64) error {
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if target.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, target.Type())
		}
		target.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if n < 0 || target.OverflowUint(uint64(n)) {
			return fmt.Errorf("value %d overflows %s", n, target.Type())
		}
		target.SetUint(uint64(n))
		return nil
	}
	return fmt.Errorf("cannot store an integer in %s", target.Type())
}

func mismatch(s avro.Schema, t reflect.Type) error {
	return fmt.Errorf("cannot map %s to avro %s", t, s.Type())
}
