package ble

import (
	"context"
	"sync"

	"github.com/go-ble/ble"
	. "github.com/ifeco/ble-telemetry/internal"
	"github.com/ifeco/ble-telemetry/pkg/connection"
)

const (
	testAddr      = "11:22:33:44:55:66"
	testOtherAddr = "22:22:33:44:55:66"
	testRSSI      = -60
)

type advertisement struct {
	name  string
	uuids []ble.UUID
}

type testCoreMethods struct {
	mutex    sync.Mutex
	adverts  []DummyAdv
	client   *DummyCoreClient
	services []*ble.Service
	started  []advertisement
	active   int
	overlap  bool
	stopped  int
}

func newTestCoreMethods() *testCoreMethods {
	return &testCoreMethods{
		adverts: []DummyAdv{
			NewDummyAdv(testOtherAddr, -80),
			NewDummyAdv(testAddr, testRSSI),
			{Address: DummyAddr{Address: "33:22:33:44:55:66"}, Name: "headphones", Rssi: -30, NonService: true},
		},
		client: NewDummyCoreClient(testAddr),
	}
}

func (bc *testCoreMethods) SetDefaultDevice(connection.Listener) error { return nil }

func (bc *testCoreMethods) AddService(s *ble.Service) error {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	bc.services = append(bc.services, s)
	return nil
}

func (bc *testCoreMethods) AdvertiseNameAndServices(ctx context.Context, name string, uuids ...ble.UUID) error {
	bc.mutex.Lock()
	bc.started = append(bc.started, advertisement{name, uuids})
	bc.active++
	if bc.active > 1 {
		bc.overlap = true
	}
	bc.mutex.Unlock()
	<-ctx.Done()
	bc.mutex.Lock()
	bc.active--
	bc.mutex.Unlock()
	return ctx.Err()
}

func (bc *testCoreMethods) Connect(_ context.Context, f ble.AdvFilter) (ble.Client, error) {
	for _, a := range bc.adverts {
		if f(a) {
			return bc.client, nil
		}
	}
	return nil, context.DeadlineExceeded
}

func (bc *testCoreMethods) Scan(ctx context.Context, h ble.AdvHandler, f ble.AdvFilter) error {
	for _, a := range bc.adverts {
		if f == nil || f(a) {
			h(a)
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (bc *testCoreMethods) Stop() error {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	bc.stopped++
	return nil
}

func (bc *testCoreMethods) advertisements() []advertisement {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	return append([]advertisement{}, bc.started...)
}

func (bc *testCoreMethods) activeCount() int {
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	return bc.active
}
