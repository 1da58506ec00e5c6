package ble

import (
	"github.com/ifeco/ble-telemetry/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func retry(method string, fn func() error) error {
	err := errors.New("not error")
	attempts := 0
	for err != nil && attempts < maxRetryAttempts {
		if attempts > 0 {
			log.WithField("attempt", attempts).WithError(err).Warn("Retrying " + method)
		}
		attempts += 1
		err = util.CatchErrs(fn)
	}
	if err != nil {
		return errors.Wrap(err, method+" exceeded attempts issue")
	}
	return nil
}
