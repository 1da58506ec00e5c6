package util

import (
	"errors"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestTimeout(t *testing.T) {
	x := time.Millisecond * 100
	err := Timeout(func() error {
		time.Sleep(x * 5)
		return errors.New("should not get called")
	}, x)
	assert.ErrorContains(t, err, "Timeout")
}

func TestTimeoutReturnsResult(t *testing.T) {
	err := Timeout(func() error {
		return errors.New("stop issue")
	}, time.Second)
	assert.ErrorContains(t, err, "stop issue")
	assert.NilError(t, Timeout(func() error { return nil }, time.Second))
}

func TestCatchErrs(t *testing.T) {
	err := CatchErrs(func() error {
		panic("hci socket closed")
	})
	assert.ErrorContains(t, err, "hci socket closed")
	err = CatchErrs(func() error {
		panic(errors.New("can't init hci"))
	})
	assert.ErrorContains(t, err, "recovered panic")
	assert.NilError(t, CatchErrs(func() error { return nil }))
}
