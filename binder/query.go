package binder

import (
	"fmt"
	"net/http"
	"reflect"
)

// Query binds `query:"name"` fields from the URL query string. Slice fields
// take every value of a repeated parameter.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		rv, err := structValue(v)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		values := r.URL.Query()
		return eachField(rv, "query", func(field reflect.Value, name string) error {
			vals, ok := values[name]
			if !ok || len(vals) == 0 {
				return nil
			}
			if err := setField(field, vals); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidQuery, name, err)
			}
			return nil
		})
	}
}
