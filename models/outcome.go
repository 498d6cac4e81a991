package models

import "encoding/json"

// Outcome is the result of a signal that may fail without aborting the
// analysis. It holds either a value or an error message, never both.
type Outcome[T any] struct {
	value *T
	err   string
}

// Ok wraps a successful value.
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{value: &v}
}

// Fail records a recovered failure.
func Fail[T any](message string) Outcome[T] {
	return Outcome[T]{err: message}
}

func (o Outcome[T]) OK() bool {
	return o.value != nil
}

// Value returns the payload and whether the outcome succeeded.
func (o Outcome[T]) Value() (T, bool) {
	if o.value == nil {
		var zero T
		return zero, false
	}
	return *o.value, true
}

// Err returns the failure message, or "" for a successful outcome.
func (o Outcome[T]) Err() string {
	return o.err
}

// MarshalJSON renders the payload itself on success and {"error": msg}
// on failure, which is the shape API clients already consume.
func (o Outcome[T]) MarshalJSON() ([]byte, error) {
	if o.value != nil {
		return json.Marshal(o.value)
	}
	return json.Marshal(struct {
		Error string `json:"error"`
	}{Error: o.err})
}

// UnmarshalJSON accepts either shape produced by MarshalJSON.
func (o *Outcome[T]) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil && len(probe) == 1 {
		if raw, ok := probe["error"]; ok {
			var msg string
			if err := json.Unmarshal(raw, &msg); err != nil {
				return err
			}
			*o = Fail[T](msg)
			return nil
		}
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Ok(v)
	return nil
}
