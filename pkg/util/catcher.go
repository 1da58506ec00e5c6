package util

import (
	"fmt"

	"github.com/pkg/errors"
)

// TryCatchBlock is a struct representation of try-catch-finally control flow
type TryCatchBlock struct {
	Try     func()
	Catch   func(error)
	Finally func()
}

// Do executes TryCatchBlock control flow. Panics that are not errors are converted to one.
func (tcf TryCatchBlock) Do() {
	if tcf.Finally != nil {
		defer tcf.Finally()
	}
	if tcf.Catch != nil {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("%v", r)
				}
				tcf.Catch(err)
			}
		}()
	}
	tcf.Try()
}

// CatchErrs runs fn and returns its error, or the recovered panic of the ble stack as an error
func CatchErrs(fn func() error) error {
	var err error
	TryCatchBlock{
		Try: func() {
			err = fn()
		},
		Catch: func(e error) {
			err = errors.Wrap(e, "recovered panic")
		},
	}.Do()
	return err
}
