package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Path parameter names shared by the routes and the validator.
const (
	paramUserID   = "user_id"
	paramUsername = "username"
	paramAge      = "age"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("param")
	})
	return v
}

// pathParams holds every path parameter a user route can carry. Routes bind
// only the subset they declare.
type pathParams struct {
	UserID   int    `param:"user_id"  validate:"min=1"`
	Username string `param:"username" validate:"min=5,max=20"`
	Age      int    `param:"age"      validate:"min=18,max=120"`
}

// FieldError describes one rejected input, shaped like a FastAPI
// validation detail entry.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError is returned when one or more path parameters fail their
// constraints. The registry is never called when this is returned.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(f.Loc, "."), f.Msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// bindPath parses and validates the named chi URL params. Every failing
// param is reported, in the order given.
func bindPath(r *http.Request, names ...string) (pathParams, error) {
	var p pathParams
	parseFailed := make(map[string]FieldError)

	for _, name := range names {
		raw := chi.URLParam(r, name)
		switch name {
		case paramUserID, paramAge:
			// Out-of-range numbers are still numbers: Atoi clamps them, and
			// the range check below reports them like any other bound.
			n, err := strconv.Atoi(raw)
			if err != nil && !errors.Is(err, strconv.ErrRange) {
				parseFailed[name] = FieldError{
					Loc:  []string{"path", name},
					Msg:  "Input should be a valid integer, unable to parse string as an integer",
					Type: "int_parsing",
				}
				continue
			}
			if name == paramUserID {
				p.UserID = n
			} else {
				p.Age = n
			}
		case paramUsername:
			p.Username = raw
		}
	}

	constraintFailed := make(map[string]FieldError)
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return p, fmt.Errorf("validate path params: %w", err)
		}
		for _, fe := range verrs {
			constraintFailed[fe.Field()] = fieldErrorFor(fe)
		}
	}

	var ve ValidationError
	for _, name := range names {
		if fe, ok := parseFailed[name]; ok {
			ve.Fields = append(ve.Fields, fe)
		} else if fe, ok := constraintFailed[name]; ok {
			ve.Fields = append(ve.Fields, fe)
		}
	}
	if len(ve.Fields) > 0 {
		return p, &ve
	}
	return p, nil
}

func fieldErrorFor(fe validator.FieldError) FieldError {
	out := FieldError{Loc: []string{"path", fe.Field()}}
	isString := fe.Kind() == reflect.String

	switch {
	case fe.Tag() == "min" && isString:
		out.Type = "string_too_short"
		out.Msg = fmt.Sprintf("String should have at least %s characters", fe.Param())
	case fe.Tag() == "max" && isString:
		out.Type = "string_too_long"
		out.Msg = fmt.Sprintf("String should have at most %s characters", fe.Param())
	case fe.Tag() == "min":
		out.Type = "greater_than_equal"
		out.Msg = fmt.Sprintf("Input should be greater than or equal to %s", fe.Param())
	case fe.Tag() == "max":
		out.Type = "less_than_equal"
		out.Msg = fmt.Sprintf("Input should be less than or equal to %s", fe.Param())
	default:
		out.Type = fe.Tag()
		out.Msg = fe.Error()
	}
	return out
}
