package device

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/nsm-fleet/nsmd/internal/logger"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
	"github.com/nsm-fleet/nsmd/internal/transport"
	"github.com/nsm-fleet/nsmd/pkg/bufpool"
	"github.com/nsm-fleet/nsmd/pkg/config"
)

// Exchanger is the subset of *exchange.Exchanger the device manager needs:
// a plain request/response round trip. Named as an interface here so tests
// can supply a fake without dialing a real transport.
type Exchanger interface {
	Exchange(ctx context.Context, eid uint8, req transport.Request) (nsm.ResponseHeader, []byte, error)
}

// DiscoveryInput is one MCTP-layer discovery tuple (spec.md §4.5 "Discovery
// loop").
type DiscoveryInput struct {
	EID       uint8
	UUID      uuid.UUID
	Medium    string
	NetworkID string
	Binding   string
}

type eidRecord struct {
	UUID                        uuid.UUID
	Medium, NetworkID, Binding string
}

type typeInstanceKey struct {
	Type     nsm.DeviceType
	Instance uint32
}

// inventoryFields lists the FRU properties populated for every device type
// (spec.md §4.5 step 5). The original distinguishes per-device-type property
// lists; this implementation reads the full common set for every device,
// which is a superset and therefore still correct.
var inventoryFields = []nsm.InventoryProperty{
	nsm.InventoryBoardPartNumber,
	nsm.InventorySerialNumber,
	nsm.InventoryMarketingName,
	nsm.InventoryBuildDate,
	nsm.InventoryDeviceGUID,
}

// Manager is C5: it drains a FIFO of discovery tuples on a single
// coroutine, resolves device identity, populates capability and inventory
// state, and maintains the UUID/EID/(type,instance) indexes.
type Manager struct {
	ex    Exchanger
	remap []config.InstanceRemapRule

	mu             sync.RWMutex
	byUUID         map[uuid.UUID]*Device
	byTypeInstance map[typeInstanceKey]*Device
	eidTable       map[uint8]eidRecord

	pending chan DiscoveryInput

	sensorFactory func(*Device)
}

// New builds a Manager. pendingCapacity bounds the discovery FIFO; a full
// queue blocks Submit, applying backpressure to the MCTP layer.
func New(ex Exchanger, remap []config.InstanceRemapRule, pendingCapacity int) *Manager {
	return &Manager{
		ex:             ex,
		remap:          remap,
		byUUID:         make(map[uuid.UUID]*Device),
		byTypeInstance: make(map[typeInstanceKey]*Device),
		eidTable:       make(map[uint8]eidRecord),
		pending:        make(chan DiscoveryInput, pendingCapacity),
	}
}

// SetSensorFactory installs the callback invoked once, right after a newly
// discovered device is created, to populate its four sensor collections
// (spec.md §3). It runs before the device's first capability/inventory
// population and sensor pass, so every sensor sees a fully wired device on
// its very first Update. Not safe to call after Run has started.
func (m *Manager) SetSensorFactory(f func(*Device)) {
	m.sensorFactory = f
}

// Submit enqueues a discovery tuple. It blocks if the FIFO is full.
func (m *Manager) Submit(ctx context.Context, in DiscoveryInput) error {
	select {
	case m.pending <- in:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the discovery FIFO on the calling goroutine until ctx is
// cancelled, processing one tuple at a time (spec.md §4.5 "a single
// coroutine drains it").
func (m *Manager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-m.pending:
			m.process(ctx, in)
		}
	}
}

// ByUUID looks up a device by UUID.
func (m *Manager) ByUUID(id uuid.UUID) (*Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.byUUID[id]
	return d, ok
}

// All returns a snapshot slice of every known device, for the status API.
func (m *Manager) All() []*Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Device, 0, len(m.byUUID))
	for _, d := range m.byUUID {
		out = append(out, d)
	}
	return out
}

// SetOffline marks the device for eid unreachable (spec.md §4.5 "Offline
// path"). State records, FRU properties, and the sensor registry are
// retained so a later re-add short-circuits through the UUID match.
func (m *Manager) SetOffline(eid uint8) {
	m.mu.RLock()
	rec, ok := m.eidTable[eid]
	m.mu.RUnlock()
	if !ok {
		return
	}
	if d, ok := m.ByUUID(rec.UUID); ok {
		d.SetOnline(false)
	}
}

func (m *Manager) process(ctx context.Context, in DiscoveryInput) {
	if _, err := m.ping(ctx, in.EID); err != nil {
		logger.WarnCtx(ctx, "discovery ping failed", logger.EID(in.EID), logger.Err(err))
		return
	}

	if dev, ok := m.ByUUID(in.UUID); ok {
		dev.SetEID(in.EID)
		m.recordEIDTable(in)
		if err := m.updateNsmDevice(ctx, dev); err != nil {
			logger.WarnCtx(ctx, "capability refresh failed", logger.EID(in.EID), logger.Err(err))
		}
		dev.SetOnline(true)
		m.runSensorPass(ctx, dev)
		return
	}

	ident, err := m.queryIdentification(ctx, in.EID)
	if err != nil {
		logger.WarnCtx(ctx, "query device identification failed", logger.EID(in.EID), logger.Err(err))
		return
	}

	key := typeInstanceKey{Type: ident.DeviceType, Instance: uint32(ident.InstanceNumber)}
	m.mu.Lock()
	dev, exists := m.byTypeInstance[key]
	if !exists {
		dev = New(in.UUID, in.EID, ident.DeviceType, uint32(ident.InstanceNumber))
		if m.sensorFactory != nil {
			m.sensorFactory(dev)
		}
		m.byTypeInstance[key] = dev
	} else {
		dev.SetEID(in.EID)
	}
	m.byUUID[in.UUID] = dev
	m.mu.Unlock()

	dev.SetInstance(m.resolveInstance(dev))
	m.recordEIDTable(in)

	if err := m.updateNsmDevice(ctx, dev); err != nil {
		logger.WarnCtx(ctx, "initial capability population failed", logger.EID(in.EID), logger.Err(err))
	}
	m.populateInventory(ctx, dev)

	dev.MarkActive()
	dev.SetOnline(true)
	m.runSensorPass(ctx, dev)
}

func (m *Manager) recordEIDTable(in DiscoveryInput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eidTable[in.EID] = eidRecord{UUID: in.UUID, Medium: in.Medium, NetworkID: in.NetworkID, Binding: in.Binding}
}

// resolveInstance applies the configured remap rules in order; the first
// match wins (spec.md §4.5 step 4). Absent a match, the device keeps its
// self-reported instance number.
func (m *Manager) resolveInstance(dev *Device) uint32 {
	for _, rule := range m.remap {
		if !matchesDeviceType(rule.DeviceType, dev.Type) {
			continue
		}
		var candidate string
		switch rule.Key {
		case "eid":
			candidate = strconv.Itoa(int(dev.EID))
		case "uuid":
			candidate = dev.UUID.String()
		case "deviceInstanceId":
			candidate = strconv.Itoa(int(dev.Instance))
		default:
			continue
		}
		if candidate == rule.Match {
			return rule.Instance
		}
	}
	return dev.Instance
}

func matchesDeviceType(name string, t nsm.DeviceType) bool {
	return deviceTypeName(t) == name
}

func deviceTypeName(t nsm.DeviceType) string {
	switch t {
	case nsm.DeviceTypeGPU:
		return "GPU"
	case nsm.DeviceTypeSwitch:
		return "Switch"
	case nsm.DeviceTypePCIeBridge:
		return "PCIeBridge"
	case nsm.DeviceTypeBaseboard:
		return "Baseboard"
	case nsm.DeviceTypeEROT:
		return "EROT"
	default:
		return "Unknown"
	}
}

// updateNsmDevice repopulates the capability matrix from scratch and
// re-runs the device's capability-refresh sensors (spec.md §4.5 "Capability
// refresh").
func (m *Manager) updateNsmDevice(ctx context.Context, dev *Device) error {
	dev.ResetCapabilityMatrix()

	supported, err := m.getSupportedMessageTypes(ctx, dev.EID)
	if err != nil {
		return err
	}

	for mt := 0; mt < nsm.NumMessageTypes; mt++ {
		if !supported.Supported[mt] {
			continue
		}
		resp, err := m.getSupportedCommandCodes(ctx, dev.EID, nsm.MessageType(mt))
		if err != nil {
			logger.WarnCtx(ctx, "get supported command codes failed",
				logger.EID(dev.EID), logger.MessageType(uint8(mt)), logger.Err(err))
			continue
		}
		dev.SetCapability(nsm.MessageType(mt), resp)
	}

	m.runSensors(ctx, dev.CapabilityRefreshSensors, dev)
	return nil
}

func (m *Manager) populateInventory(ctx context.Context, dev *Device) {
	for _, prop := range inventoryFields {
		resp, err := m.getInventoryInformation(ctx, dev.EID, prop)
		if err != nil {
			logger.WarnCtx(ctx, "get inventory information failed",
				logger.EID(dev.EID), logger.Err(err))
			continue
		}
		dev.SetInventory(prop, resp.Value)
	}
}

func (m *Manager) runSensorPass(ctx context.Context, dev *Device) {
	m.runSensors(ctx, dev.StaticSensors, dev)
	m.runSensors(ctx, dev.PrioritySensors, dev)
	if s := dev.NextRoundRobinSensor(); s != nil {
		m.runSensor(ctx, s, dev)
	}
}

func (m *Manager) runSensors(ctx context.Context, sensors []Sensor, dev *Device) {
	for _, s := range sensors {
		m.runSensor(ctx, s, dev)
	}
}

func (m *Manager) runSensor(ctx context.Context, s Sensor, dev *Device) {
	if err := s.Update(ctx, dev); err != nil {
		logger.WarnCtx(ctx, "sensor update failed", logger.SensorName(s.Name()), logger.EID(dev.EID), logger.Err(err))
	}
}

func (m *Manager) ping(ctx context.Context, eid uint8) (nsm.PingResponse, error) {
	rh, payload, err := m.ex.Exchange(ctx, eid, transport.Request{MessageType: nsm.MessageTypeDeviceCapabilityDiscovery, CommandCode: nsm.CmdPing})
	if err != nil {
		return nsm.PingResponse{}, err
	}
	return nsm.DecodePingResponse(rh, payload)
}

func (m *Manager) queryIdentification(ctx context.Context, eid uint8) (nsm.QueryDeviceIdentificationResponse, error) {
	rh, payload, err := m.ex.Exchange(ctx, eid, transport.Request{MessageType: nsm.MessageTypeDeviceCapabilityDiscovery, CommandCode: nsm.CmdQueryDeviceIdentification})
	if err != nil {
		return nsm.QueryDeviceIdentificationResponse{}, err
	}
	return nsm.DecodeQueryDeviceIdentificationResponse(rh, payload)
}

func (m *Manager) getSupportedMessageTypes(ctx context.Context, eid uint8) (nsm.SupportedMessageTypesResponse, error) {
	rh, payload, err := m.ex.Exchange(ctx, eid, transport.Request{MessageType: nsm.MessageTypeDeviceCapabilityDiscovery, CommandCode: nsm.CmdGetSupportedMessageTypes})
	if err != nil {
		return nsm.SupportedMessageTypesResponse{}, err
	}
	return nsm.DecodeSupportedMessageTypesResponse(rh, payload)
}

func (m *Manager) getSupportedCommandCodes(ctx context.Context, eid uint8, messageType nsm.MessageType) (nsm.SupportedCommandCodesResponse, error) {
	body := bufpool.Get(1)
	if _, err := nsm.EncodeGetSupportedCommandCodesRequest(body, messageType); err != nil {
		return nsm.SupportedCommandCodesResponse{}, err
	}
	rh, payload, err := m.ex.Exchange(ctx, eid, transport.Request{MessageType: nsm.MessageTypeDeviceCapabilityDiscovery, CommandCode: nsm.CmdGetSupportedCommandCodes, Body: body})
	bufpool.Put(body)
	if err != nil {
		return nsm.SupportedCommandCodesResponse{}, err
	}
	return nsm.DecodeSupportedCommandCodesResponse(rh, payload)
}

func (m *Manager) getInventoryInformation(ctx context.Context, eid uint8, prop nsm.InventoryProperty) (nsm.InventoryInformationResponse, error) {
	body := bufpool.Get(1)
	if _, err := nsm.EncodeGetInventoryInformationRequest(body, prop); err != nil {
		return nsm.InventoryInformationResponse{}, err
	}
	rh, payload, err := m.ex.Exchange(ctx, eid, transport.Request{MessageType: nsm.MessageTypePlatformEnvironmental, CommandCode: nsm.CmdGetInventoryInformation, Body: body})
	bufpool.Put(body)
	if err != nil {
		return nsm.InventoryInformationResponse{}, err
	}
	return nsm.DecodeGetInventoryInformationResponse(rh, payload)
}
