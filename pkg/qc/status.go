package qc

import (
	"context"
	"fmt"

	"emperror.dev/errors"
	"golang.org/x/exp/slices"
)

// Failure is one recorded check failure.
type Failure struct {
	Code    CheckCode
	Name    string
	Context string
	Detail  string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("QC Failure #%s - %s (%s) [%s]", f.Code, f.Name, f.Context, f.Detail)
}

// Status collects failures over a validation run.
type Status struct {
	Failures []*Failure
}

// Compact drops consecutive duplicates, repeated sweeps fail identically.
func (status *Status) Compact() {
	status.Failures = slices.CompactFunc(status.Failures, func(f1, f2 *Failure) bool {
		return f1.Code == f2.Code && f1.Context == f2.Context && f1.Detail == f2.Detail
	})
}

// ErrorCount counts failures excluding the A-coded assists.
func (status *Status) ErrorCount() int {
	var n int
	for _, f := range status.Failures {
		if f.Code[0] != 'A' {
			n++
		}
	}
	return n
}

type statusKeyType struct{}

var statusKey = statusKeyType{}

// NewContextValidation hangs a fresh Status into the context. All checks of
// one run report into it.
func NewContextValidation(parent context.Context) context.Context {
	return context.WithValue(parent, statusKey, &Status{Failures: []*Failure{}})
}

func GetStatus(ctx context.Context) (*Status, error) {
	statusAny := ctx.Value(statusKey)
	if statusAny == nil {
		return nil, errors.New("no validation status in context")
	}
	status, ok := statusAny.(*Status)
	if !ok {
		return nil, errors.New("validation status of wrong type in context")
	}
	return status, nil
}

// AddFailure records a failed check in the context status.
func AddFailure(ctx context.Context, code CheckCode, checkContext, format string, a ...any) error {
	status, err := GetStatus(ctx)
	if err != nil {
		return errors.Wrap(err, "cannot add qc failure")
	}
	check, ok := GetCheck(code)
	if !ok {
		return errors.Wrapf(ErrUnregisteredCheck, "code '%s'", code)
	}
	status.Failures = append(status.Failures, &Failure{
		Code:    code,
		Name:    check.Name,
		Context: checkContext,
		Detail:  fmt.Sprintf(format, a...),
	})
	return nil
}
