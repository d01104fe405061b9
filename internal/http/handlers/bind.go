package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldError is one entry of the details payload on a failed bind.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON decodes the request body into out and writes the 400 itself on
// failure, so handlers only deal with well-formed input.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		RespondBadRequest(ctx, "Invalid request body", bindDetails(err, out))

		return false
	}

	return true
}

// bindDetails turns a bind failure into a structured details payload with
// json field names rather than Go struct names.
func bindDetails(err error, out interface{}) interface{} {
	rootType := structTypeOf(out)

	var vErrs validator.ValidationErrors

	if errors.As(err, &vErrs) {
		fields := make([]FieldError, 0, len(vErrs))

		for _, fe := range vErrs {
			rule := fe.Tag()
			param := fe.Param()

			fields = append(fields, FieldError{
				Field:   fieldPath(rootType, fe),
				Rule:    rule,
				Param:   param,
				Message: ruleMessage(rule, param),
			})
		}
		return gin.H{"fields": fields}
	}

	var syntaxErr *json.SyntaxError

	if errors.As(err, &syntaxErr) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	var typeErr *json.UnmarshalTypeError

	if errors.As(err, &typeErr) {
		field := jsonPath(rootType, strings.Split(strings.TrimSpace(typeErr.Field), "."))

		if field == "" {
			field = strings.TrimSpace(typeErr.Field)
		}

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{
				{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
				},
			},
		}
	}

	return gin.H{"reason": err.Error()}
}

func structTypeOf(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// fieldPath resolves a validator error to a dotted json path. The namespace
// arrives as "<StructName>.<Field>[.<Nested>...]".
func fieldPath(rootType reflect.Type, fe validator.FieldError) string {
	namespace := fe.StructNamespace()

	if namespace == "" {
		namespace = fe.Namespace()
	}

	if namespace == "" {
		return fe.Field()
	}

	parts := strings.Split(namespace, ".")

	if rootType != nil && rootType.Name() != "" && len(parts) > 0 && parts[0] == rootType.Name() {
		parts = parts[1:]
	}

	if path := jsonPath(rootType, parts); path != "" {
		return path
	}

	return fe.Field()
}

// jsonPath walks the struct type alongside the path parts, swapping each Go
// field name for its json tag. Unknown segments pass through unchanged.
func jsonPath(rootType reflect.Type, parts []string) string {
	if len(parts) == 0 {
		return ""
	}

	current := rootType
	out := make([]string, 0, len(parts))

	for _, raw := range parts {
		if raw == "" {
			continue
		}

		name, index := splitIndex(raw)
		jsonName := name

		var next reflect.Type

		if current != nil {
			for current.Kind() == reflect.Pointer {
				current = current.Elem()
			}

			if current.Kind() == reflect.Struct {
				if sf, ok := current.FieldByName(name); ok {
					jsonName = jsonTagName(sf)
					next = sf.Type
				}
			}
		}

		out = append(out, jsonName+index)

		if next != nil {
			current = elemType(next)
		} else {
			current = nil
		}
	}

	return strings.Join(out, ".")
}

// splitIndex separates a trailing "[n]" suffix from a field name.
func splitIndex(part string) (string, string) {
	i := strings.Index(part, "[")

	if i == -1 {
		return part, ""
	}

	return part[:i], part[i:]
}

func jsonTagName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")

	if tag == "" {
		return sf.Name
	}

	name, _, _ := strings.Cut(tag, ",")

	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

// elemType unwraps pointers, slices and arrays down to the element type.
func elemType(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}

	return nil
}

func ruleMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "len":
		return "must be exactly " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
