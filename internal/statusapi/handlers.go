package statusapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nsm-fleet/nsmd/internal/asyncop"
	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/objectmodel"
	"github.com/nsm-fleet/nsmd/internal/protocol/nsm"
)

// inventoryPropertyNames gives GET /devices/{uuid} readable inventory keys
// instead of raw FRU property selector values.
var inventoryPropertyNames = map[nsm.InventoryProperty]string{
	nsm.InventoryBoardPartNumber: "board_part_number",
	nsm.InventorySerialNumber:    "serial_number",
	nsm.InventoryMarketingName:   "marketing_name",
	nsm.InventoryBuildDate:       "build_date",
	nsm.InventoryDeviceGUID:      "device_guid",
}

// deviceSummary is one entry in the GET /devices listing.
type deviceSummary struct {
	UUID     string `json:"uuid"`
	EID      uint8  `json:"eid"`
	Type     uint8  `json:"type"`
	Instance uint32 `json:"instance"`
	State    string `json:"state"`
	Online   bool   `json:"online"`
}

func summarize(d *device.Device) deviceSummary {
	return deviceSummary{
		UUID:     d.UUID.String(),
		EID:      d.EID,
		Type:     uint8(d.Type),
		Instance: d.Instance,
		State:    d.State().String(),
		Online:   d.Online(),
	}
}

// deviceDetail is the GET /devices/{uuid} payload: the summary plus FRU
// inventory.
type deviceDetail struct {
	deviceSummary
	Inventory map[string]string `json:"inventory"`
}

// sensorReading is one entry in the GET /devices/{uuid}/sensors listing: a
// published (interface, property) pair with its last reading and/or
// status, read out of the shared objectmodel.Cache (spec.md §4.15).
type sensorReading struct {
	Interface   string   `json:"interface"`
	Property    string   `json:"property"`
	Value       *float64 `json:"value,omitempty"`
	TimestampMs int64    `json:"timestamp_ms,omitempty"`
	Available   *bool    `json:"available,omitempty"`
	Functional  *bool    `json:"functional,omitempty"`
}

// asyncOpSlot is one entry in the GET /asyncops listing.
type asyncOpSlot struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
	Value  any    `json:"value,omitempty"`
}

// Handlers implements the A6 status/inventory endpoints (spec.md §4.15).
type Handlers struct {
	manager   *device.Manager
	cache     *objectmodel.Cache
	pool      *asyncop.Pool
	startTime time.Time
}

// NewHandlers builds a Handlers instance. pool may be nil if the async-op
// pool is disabled; GET /asyncops then always reports an empty list.
func NewHandlers(manager *device.Manager, cache *objectmodel.Cache, pool *asyncop.Pool) *Handlers {
	return &Handlers{manager: manager, cache: cache, pool: pool, startTime: time.Now()}
}

// ListDevices handles GET /devices.
func (h *Handlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices := h.manager.All()
	out := make([]deviceSummary, 0, len(devices))
	for _, d := range devices {
		out = append(out, summarize(d))
	}
	ok(w, out)
}

// GetDevice handles GET /devices/{uuid}.
func (h *Handlers) GetDevice(w http.ResponseWriter, r *http.Request) {
	d, found := h.findDevice(w, r)
	if !found {
		return
	}
	ok(w, deviceDetail{deviceSummary: summarize(d), Inventory: inventoryStrings(d)})
}

// GetDeviceSensors handles GET /devices/{uuid}/sensors: every cache entry
// published under this device's object path.
func (h *Handlers) GetDeviceSensors(w http.ResponseWriter, r *http.Request) {
	d, found := h.findDevice(w, r)
	if !found {
		return
	}

	path := objectmodel.DevicePath(d.UUID)
	byKey := make(map[objectmodel.Key]*sensorReading)

	for k, reading := range h.cache.ReadingSnapshot() {
		if k.ObjectPath != path {
			continue
		}
		v := reading.Value
		byKey[k] = &sensorReading{Interface: k.Interface, Property: k.Property, Value: &v, TimestampMs: reading.TimestampMs}
	}
	for k, status := range h.cache.StatusSnapshot() {
		if k.ObjectPath != path {
			continue
		}
		entry, exists := byKey[k]
		if !exists {
			entry = &sensorReading{Interface: k.Interface, Property: k.Property}
			byKey[k] = entry
		}
		avail, functional := status.Available, status.Functional
		entry.Available = &avail
		entry.Functional = &functional
	}

	out := make([]sensorReading, 0, len(byKey))
	for _, v := range byKey {
		out = append(out, *v)
	}
	ok(w, out)
}

// ListAsyncOps handles GET /asyncops.
func (h *Handlers) ListAsyncOps(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		ok(w, []asyncOpSlot{})
		return
	}
	slots := h.pool.Snapshot()
	out := make([]asyncOpSlot, 0, len(slots))
	for i, s := range slots {
		out = append(out, asyncOpSlot{Index: i, Status: string(s.Status), Value: s.Value})
	}
	ok(w, out)
}

// Healthz handles GET /healthz: process liveness plus a device count, so an
// operator can tell "the server answers" from "the server has found
// anything" (spec.md §4.15).
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]any{
		"uptime_sec": int64(time.Since(h.startTime).Seconds()),
		"devices":    len(h.manager.All()),
	})
}

func (h *Handlers) findDevice(w http.ResponseWriter, r *http.Request) (*device.Device, bool) {
	raw := chi.URLParam(r, "uuid")
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, "invalid device uuid")
		return nil, false
	}
	d, found := h.manager.ByUUID(id)
	if !found {
		notFound(w, "device not found")
		return nil, false
	}
	return d, true
}

func inventoryStrings(d *device.Device) map[string]string {
	snap := d.InventorySnapshot()
	out := make(map[string]string, len(snap))
	for k, v := range snap {
		name, ok := inventoryPropertyNames[k]
		if !ok {
			continue
		}
		out[name] = v
	}
	return out
}
