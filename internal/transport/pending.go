package transport

import "github.com/nsm-fleet/nsmd/internal/protocol/nsm"

// pendingKey correlates a response to the request that caused it, by
// (destination EID, instance id) as spec.md §4.2 requires.
type pendingKey struct {
	eid        uint8
	instanceID uint8
}

// pendingRequest is the transport's bookkeeping record for one in-flight
// exchange (spec.md §3 "Pending request record").
type pendingRequest struct {
	key         pendingKey
	commandCode nsm.CommandCode
	messageType nsm.MessageType
	body        []byte
	replyCh     chan pendingResult
	retriesLeft int
}

// pendingResult is delivered to the waiting caller's reply channel exactly once.
type pendingResult struct {
	instanceID uint8
	payload    []byte
	err        error
}
