// Package wiring assembles C6 sensor instances onto a newly discovered
// device. It is deliberately the only place in the daemon that names
// concrete sensor/sink constructors together: device, sensor, event, and
// asyncop each stay ignorant of one another's concrete types, and this
// package is where their interfaces finally meet (spec.md §3's four
// ordered sensor collections, populated per device at discovery time).
package wiring

import (
	"github.com/nsm-fleet/nsmd/internal/asyncop"
	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/event"
	"github.com/nsm-fleet/nsmd/internal/objectmodel"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/sensor"
	"github.com/nsm-fleet/nsmd/internal/transport"
)

// defaultPowerCapMilliWatts is the cap the round-robin SetPowerCap sensor
// writes on each of its scheduler turns until an async-op dispatch installs
// a different value.
const defaultPowerCapMilliWatts = 300_000

// SensorSet bundles what NewDeviceSensorFactory needs to build every
// device's sensors: the plain and long-running exchangers, the object
// model cache every sink publishes to, the event dispatcher event-driven
// sensors register with, and the async-op dispatcher long-running writes
// register with.
type SensorSet struct {
	Exchanger            sensor.Exchanger
	LongRunningExchanger sensor.LongRunningExchanger
	EventDispatcher      *event.Dispatcher
	AsyncDispatcher      *asyncop.Dispatcher
	Cache                *objectmodel.Cache
}

// NewDeviceSensorFactory returns the callback device.Manager.SetSensorFactory
// installs: given a freshly discovered device, it populates the four sensor
// collections, registers event sensors against s.EventDispatcher, and
// registers async-write sensors against s.AsyncDispatcher, all keyed to the
// device's identity at the moment of discovery.
func NewDeviceSensorFactory(s SensorSet) func(*device.Device) {
	return func(dev *device.Device) {
		path := objectmodel.DevicePath(dev.UUID)

		tempKey := objectmodel.Key{ObjectPath: path, Interface: "com.nsmfleet.Sensor.Temperature", Property: "Value"}
		tempSink := sensor.NewValuePropertySink(s.Cache, tempKey, sensor.Identity)
		tempStatus := sensor.NewStatusSink(s.Cache, tempKey)
		tempSensor := sensor.NewPolled("temperature", &sensor.TemperatureBehavior{Observer: tempSink, Status: tempStatus}, s.Exchanger)

		powerKey := objectmodel.Key{ObjectPath: path, Interface: "com.nsmfleet.Sensor.PowerDraw", Property: "Value"}
		powerRingKey := objectmodel.Key{ObjectPath: path, Interface: "com.nsmfleet.Sensor.PowerDraw", Property: "Ring"}
		powerSink := sensor.NewCompositeObserver(
			sensor.NewValuePropertySink(s.Cache, powerKey, milliWattsToWatts),
			sensor.NewSharedMemorySink(s.Cache, powerRingKey, milliWattsToWatts),
		)
		powerStatus := sensor.NewStatusSink(s.Cache, powerKey)
		powerSensor := sensor.NewPolled("power_draw", &sensor.PowerDrawBehavior{Observer: powerSink, Status: powerStatus}, s.Exchanger)

		xidKey := objectmodel.Key{ObjectPath: path, Interface: "com.nsmfleet.Device.Health", Property: "LastXID"}
		xidSensor := sensor.NewXIDSensor(s.Cache, xidKey)

		resetKey := objectmodel.Key{ObjectPath: path, Interface: "com.nsmfleet.Device.Health", Property: "ResetRequired"}
		resetSensor := sensor.NewResetRequiredSensor(s.Cache, resetKey)

		thresholdKey := objectmodel.Key{ObjectPath: path, Interface: "com.nsmfleet.NetworkPort.Threshold", Property: "Categories"}
		thresholdSink := sensor.NewValuePropertySink(s.Cache, thresholdKey, sensor.Identity)
		thresholdSensor := sensor.NewThresholdSensor(thresholdSink)

		migKey := objectmodel.Key{ObjectPath: path, Interface: "com.nsmfleet.Device.MigMode", Property: "Enabled"}
		migSensor := sensor.NewSetMigModeSensor(s.LongRunningExchanger, func(enabled bool) {
			v := 0.0
			if enabled {
				v = 1.0
			}
			s.Cache.UpdateReading(migKey, v, 0)
		})

		powerCapSensor := sensor.NewSetPowerCapSensor(s.Exchanger, defaultPowerCapMilliWatts)

		portAggregate := sensor.NewAggregator("port_telemetry_aggregate", s.Exchanger, func() transport.Request {
			return transport.Request{MessageType: nsm.MessageTypeNetworkPort, CommandCode: nsm.CmdGetPortTelemetryCounter}
		})
		portRxKey := objectmodel.Key{ObjectPath: path, Interface: "com.nsmfleet.NetworkPort.Telemetry", Property: "RxBytes"}
		portTxKey := objectmodel.Key{ObjectPath: path, Interface: "com.nsmfleet.NetworkPort.Telemetry", Property: "TxBytes"}
		portAggregate.SetSlot(0, sensor.NewValuePropertySink(s.Cache, portRxKey, sensor.Identity), sensor.NewStatusSink(s.Cache, portRxKey))
		portAggregate.SetSlot(1, sensor.NewValuePropertySink(s.Cache, portTxKey, sensor.Identity), sensor.NewStatusSink(s.Cache, portTxKey))

		dev.StaticSensors = []device.Sensor{}
		dev.PrioritySensors = []device.Sensor{xidSensor, resetSensor}
		dev.RoundRobinSensors = []device.Sensor{tempSensor, powerSensor, powerCapSensor, portAggregate}
		dev.CapabilityRefreshSensors = []device.Sensor{}

		if s.EventDispatcher != nil {
			xidSensor.Register(s.EventDispatcher, dev.EID)
			resetSensor.Register(s.EventDispatcher, dev.EID)
			thresholdSensor.Register(s.EventDispatcher, dev.EID)
		}

		if s.AsyncDispatcher != nil {
			s.AsyncDispatcher.Register("com.nsmfleet.Device.MigMode", "Enabled", asyncHandler(migSensor), nil)
			s.AsyncDispatcher.Register("com.nsmfleet.Sensor.PowerCap", "MilliWatts", asyncHandler(powerCapSensor), powerCapSensor)
		}
	}
}

func milliWattsToWatts(v float64) float64 { return v / 1000.0 }

// asyncHandler adapts a sensor's AsHandler() to asyncop.Handler; both
// PolledSensor and AsyncLongRunningSensor implement AsHandler (see
// internal/sensor/asyncop_adapter.go), so this is a one-line dispatch by
// concrete type rather than a third interface.
func asyncHandler(s any) asyncop.Handler {
	switch v := s.(type) {
	case *sensor.PolledSensor:
		return v.AsHandler()
	case *sensor.AsyncLongRunningSensor:
		return v.AsHandler()
	default:
		return nil
	}
}
