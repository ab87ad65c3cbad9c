package binder

import (
	"reflect"
	"strings"
	"unicode"
)

// sanitize trims surrounding whitespace and drops control characters from every
// string reachable from v, including map values.
func sanitize(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return
	}
	sanitizeValue(rv.Elem())
}

func sanitizeValue(rv reflect.Value) {
	switch rv.Kind() {
	case reflect.String:
		if rv.CanSet() {
			rv.SetString(cleanString(rv.String()))
		}
	case reflect.Struct:
		for i := range rv.NumField() {
			if f := rv.Field(i); f.CanSet() {
				sanitizeValue(f)
			}
		}
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			sanitizeValue(rv.Index(i))
		}
	case reflect.Map:
		if rv.Type().Elem().Kind() != reflect.String {
			return
		}
		iter := rv.MapRange()
		for iter.Next() {
			rv.SetMapIndex(iter.Key(), reflect.ValueOf(cleanString(iter.Value().String())).Convert(rv.Type().Elem()))
		}
	case reflect.Pointer, reflect.Interface:
		if !rv.IsNil() {
			sanitizeValue(rv.Elem())
		}
	}
}

func cleanString(s string) string {
	s = strings.TrimSpace(s)
	if strings.IndexFunc(s, unicode.IsControl) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
