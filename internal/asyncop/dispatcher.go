package asyncop

import (
	"context"
	"sync"

	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/logger"
	"github.com/nsm-fleet/nsmd/internal/nsmerr"
)

// Handler performs one async set-operation against dev and reports the
// taxonomy status it completed with. A non-nil error always yields
// StatusInternalFailure regardless of the returned status.
type Handler func(ctx context.Context, value any, dev *device.Device) (Status, error)

type handlerKey struct {
	Interface string
	Property  string
}

type registration struct {
	handler Handler
	sensor  device.Sensor // optional: refreshed once after a successful write
}

// Dispatcher routes PATCH-style writes to the Handler registered for their
// (interface, property) pair, publishing the outcome through a Pool
// (spec.md §4.8).
type Dispatcher struct {
	pool *Pool

	mu       sync.RWMutex
	handlers map[handlerKey]registration
}

// NewDispatcher builds a Dispatcher backed by pool.
func NewDispatcher(pool *Pool) *Dispatcher {
	return &Dispatcher{pool: pool, handlers: make(map[handlerKey]registration)}
}

// Register binds iface/property to handler. sensor, if non-nil, is given a
// single Update pass immediately after a successful write, so the next
// status-API read observes the new value without waiting for its next
// scheduled poll (spec.md §4.8 "a single sensor refresh is performed").
func (d *Dispatcher) Register(iface, property string, handler Handler, sensor device.Sensor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[handlerKey{iface, property}] = registration{handler: handler, sensor: sensor}
}

// Dispatch allocates a result slot, invokes the registered handler, and
// publishes the outcome. It returns the slot's object path immediately;
// the caller reads Pool.Slot(index) later to observe completion.
func (d *Dispatcher) Dispatch(ctx context.Context, dev *device.Device, iface, property string, value any) (string, int, error) {
	d.mu.RLock()
	reg, ok := d.handlers[handlerKey{iface, property}]
	d.mu.RUnlock()

	if !ok {
		return "", -1, nsmerr.New("Dispatcher.Dispatch", nsmerr.LayerAsyncOp, nsmerr.CodeUnsupportedRequest)
	}

	idx, err := d.pool.getNewStatusValueInterface()
	if err != nil {
		return "", -1, err
	}

	path := d.pool.ObjectPath(idx)
	go d.run(ctx, dev, idx, path, reg, value)

	return path, idx, nil
}

func (d *Dispatcher) run(ctx context.Context, dev *device.Device, idx int, path string, reg registration, value any) {
	status, err := reg.handler(ctx, value, dev)
	if err != nil {
		logger.ErrorCtx(ctx, "async op handler failed",
			logger.ObjectPath(path), logger.SlotIndex(idx), logger.EID(dev.EID), logger.Err(err))
		d.pool.Complete(idx, StatusInternalFailure, nil)
		return
	}
	if status == "" {
		status = StatusSuccess
	}
	if status == StatusSuccess && reg.sensor != nil {
		if err := reg.sensor.Update(ctx, dev); err != nil {
			logger.WarnCtx(ctx, "async op post-write sensor refresh failed",
				logger.SensorName(reg.sensor.Name()), logger.EID(dev.EID), logger.Err(err))
		}
	}

	logger.InfoCtx(ctx, "async op completed",
		logger.ObjectPath(path), logger.SlotIndex(idx), logger.EID(dev.EID), logger.AsyncStatus(string(status)))
	d.pool.Complete(idx, status, value)
}
