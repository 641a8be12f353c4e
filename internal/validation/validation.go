// Package validation turns raw request input into typed records and reports
// malformed payloads as structured field errors.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so locations match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// FieldError describes one rejected input location.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// Error is returned when input cannot be coerced into the requested shape.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		loc := make([]string, 0, len(f.Loc))
		for _, l := range f.Loc {
			loc = append(loc, fmt.Sprint(l))
		}
		parts = append(parts, strings.Join(loc, ".")+": "+f.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Response is the 422 body.
type Response struct {
	Detail []FieldError `json:"detail"`
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var vErr *Error
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}

// Bind decodes a JSON body into dst and applies its `validate` rules.
func Bind(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return &Error{Fields: []FieldError{{
			Loc:  []any{"body"},
			Msg:  "Field required",
			Type: "missing",
		}}}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &Error{Fields: []FieldError{decodeFieldError(err)}}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, ruleFieldError(fe))
		}
		return &Error{Fields: fields}
	}
	return nil
}

// BindObject decodes a body that must be a JSON object of arbitrary keys.
// Numbers are kept as json.Number so they echo back unchanged.
func BindObject(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &Error{Fields: []FieldError{{
			Loc:  []any{"body"},
			Msg:  "Field required",
			Type: "missing",
		}}}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, &Error{Fields: []FieldError{decodeFieldError(err)}}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, &Error{Fields: []FieldError{{Loc: []any{"body"}, Msg: "JSON decode error", Type: "json_invalid"}}}
	}
	if obj == nil {
		return nil, &Error{Fields: []FieldError{{
			Loc:  []any{"body"},
			Msg:  "Input should be a valid dictionary",
			Type: "dict_type",
		}}}
	}
	return obj, nil
}

// PathInt parses an integer path parameter.
func PathInt(name, raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &Error{Fields: []FieldError{{
			Loc:  []any{"path", name},
			Msg:  "Input should be a valid integer, unable to parse string as an integer",
			Type: "int_parsing",
		}}}
	}
	return v, nil
}

func decodeFieldError(err error) FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return FieldError{
				Loc:  []any{"body"},
				Msg:  "Input should be a valid dictionary or object to extract fields from",
				Type: "model_attributes_type",
			}
		}
		loc := []any{"body"}
		for _, part := range strings.Split(typeErr.Field, ".") {
			loc = append(loc, part)
		}
		kind, msg := expectedKind(typeErr.Type)
		return FieldError{Loc: loc, Msg: msg, Type: kind + "_type"}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return FieldError{
			Loc:  []any{"body", syntaxErr.Offset},
			Msg:  "JSON decode error",
			Type: "json_invalid",
		}
	}

	return FieldError{Loc: []any{"body"}, Msg: "JSON decode error", Type: "json_invalid"}
}

func expectedKind(t reflect.Type) (kind, msg string) {
	if t == nil {
		return "value", "Input has an invalid type"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string", "Input should be a valid string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int", "Input should be a valid integer"
	case reflect.Bool:
		return "bool", "Input should be a valid boolean"
	case reflect.Float32, reflect.Float64:
		return "float", "Input should be a valid number"
	default:
		return t.Kind().String(), "Input has an invalid type"
	}
}

func ruleFieldError(fe validator.FieldError) FieldError {
	loc := []any{"body", fe.Field()}
	switch fe.Tag() {
	case "required":
		return FieldError{Loc: loc, Msg: "Field required", Type: "missing"}
	default:
		return FieldError{Loc: loc, Msg: fmt.Sprintf("Failed %q rule", fe.Tag()), Type: fe.Tag()}
	}
}
