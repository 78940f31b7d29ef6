package application

import (
	"errors"
	"strings"

	"github.com/atvirokodosprendimai/portafolio/internal/domain"
)

// DescribeError renders err for the person using the browser: every field
// problem, the API status, or a generic connection failure. Raw transport
// errors are never shown.
func DescribeError(m Messages, err error) string {
	if err == nil {
		return ""
	}
	var fields []string
	walkErrors(err, func(e error) {
		var fe *domain.FieldError
		if errors.As(e, &fe) {
			fields = append(fields, m.T(fe.Reason, map[string]any{"Field": fe.Label}))
		}
	})
	if len(fields) > 0 {
		return strings.Join(fields, "; ")
	}
	if errors.Is(err, domain.ErrInvalidKey) {
		return m.T("form.invalid", map[string]any{"Error": err.Error()})
	}
	var status interface{ HTTPStatus() int }
	if errors.As(err, &status) {
		return m.T("api.status", map[string]any{"Status": status.HTTPStatus()})
	}
	return m.T("api.unreachable")
}

// walkErrors visits each leaf of a tree built with errors.Join.
func walkErrors(err error, visit func(error)) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			walkErrors(e, visit)
		}
		return
	}
	visit(err)
}
