package ble

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/ifeco/ble-telemetry/pkg/connection"
	"github.com/ifeco/ble-telemetry/pkg/util"
	"github.com/pkg/errors"
)

type coreMethods interface {
	SetDefaultDevice(connection.Listener) error
	AddService(*ble.Service) error
	AdvertiseNameAndServices(context.Context, string, ...ble.UUID) error
	Connect(context.Context, ble.AdvFilter) (ble.Client, error)
	Scan(context.Context, ble.AdvHandler, ble.AdvFilter) error
	Stop() error
}

type realCoreMethods struct{}

func (bc *realCoreMethods) SetDefaultDevice(listener connection.Listener) error {
	var device ble.Device
	err := util.CatchErrs(func() error {
		d, e := newDevice(listener)
		device = d
		return e
	})
	if err != nil {
		return errors.Wrap(err, "newDevice issue")
	}
	ble.SetDefaultDevice(device)
	return nil
}

func (bc *realCoreMethods) AddService(s *ble.Service) error {
	return util.CatchErrs(func() error {
		return ble.AddService(s)
	})
}

func (bc *realCoreMethods) AdvertiseNameAndServices(ctx context.Context, name string, uuids ...ble.UUID) error {
	return util.CatchErrs(func() error {
		return ble.AdvertiseNameAndServices(ctx, name, uuids...)
	})
}

func (bc *realCoreMethods) Connect(ctx context.Context, f ble.AdvFilter) (ble.Client, error) {
	var client ble.Client
	err := util.CatchErrs(func() error {
		c, e := ble.Connect(ctx, f)
		client = c
		return e
	})
	return client, err
}

func (bc *realCoreMethods) Scan(ctx context.Context, h ble.AdvHandler, f ble.AdvFilter) error {
	return util.CatchErrs(func() error {
		return ble.Scan(ctx, true, h, f)
	})
}

func (bc *realCoreMethods) Stop() error {
	return util.CatchErrs(ble.Stop)
}
