package form

import (
	"fmt"
	"strings"
)

// Status 表单提交生命周期
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ValidationMode 字段级校验触发时机；提交时总是做全量校验
type ValidationMode int

const (
	// ModeOnBlur validates a field when it loses focus.
	ModeOnBlur ValidationMode = iota
	// ModeOnSubmit only validates on submit.
	ModeOnSubmit
)

func (m ValidationMode) String() string {
	if m == ModeOnSubmit {
		return "onSubmit"
	}
	return "onBlur"
}

// ParseValidationMode accepts "onBlur" and "onSubmit" (case-insensitive).
func ParseValidationMode(s string) (ValidationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "onblur", "blur":
		return ModeOnBlur, nil
	case "onsubmit", "submit":
		return ModeOnSubmit, nil
	}
	return ModeOnBlur, fmt.Errorf("unknown validation mode %q", s)
}
