package binder

import (
	"fmt"
	"net/http"
	"reflect"
)

// Path binds `path:"name"` fields using extractor, usually chi.URLParam.
// Empty parameters leave the field untouched.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrInvalidPath)
		}
		rv, err := structValue(v)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPath, err)
		}
		return eachField(rv, "path", func(field reflect.Value, name string) error {
			value := extractor(r, name)
			if value == "" {
				return nil
			}
			if err := setField(field, []string{value}); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidPath, name, err)
			}
			return nil
		})
	}
}
