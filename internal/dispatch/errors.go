package dispatch

import (
	"errors"

	"github.com/rotisserie/eris"
)

var ErrDispatchFailure = eris.New("dispatch: delivery failed")

// Failure is a per-recipient delivery error. Code is the gateway's error code when it sent one.
type Failure struct {
	Code   string
	Reason string
}

func (f *Failure) Error() string {
	if f.Code == "" {
		return "dispatch failed: " + f.Reason
	}
	return "dispatch failed [" + f.Code + "]: " + f.Reason
}

func (f *Failure) Is(target error) bool { return target == ErrDispatchFailure }

func failure(code, reason string) error {
	return &Failure{Code: code, Reason: reason}
}

// describe splits err into a code and human readable reason for the dispatch log.
func describe(err error) (string, string) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Code, f.Reason
	}
	return "", err.Error()
}
