package remote

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// TransportError is returned for any failed call: the request could not be
// made (Status == 0) or the server answered with a non-2xx status.
type TransportError struct {
	Op      string
	Status  int
	Message string
	// Fields holds per-field validation messages from a 422 response.
	Fields map[string][]string
	Err    error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("imoveis api: ")
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	switch {
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Cause is the human-readable reason shown to users.
func (e *TransportError) Cause() string {
	switch {
	case len(e.Fields) > 0:
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, strings.Join(e.Fields[k], " "))
		}
		return strings.Join(parts, " ")
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	case e.Status != 0:
		return http.StatusText(e.Status)
	default:
		return "unknown error"
	}
}

// NotFoundError is wrapped by the TransportError of a 404 response.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("imovel %s not found", e.ID)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Cause extracts a user-facing reason from any error returned by Client.
func Cause(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Cause()
	}
	return err.Error()
}
