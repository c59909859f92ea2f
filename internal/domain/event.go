package domain

// Kind identifies the variant of a billing event. Its values are the
// msgType discriminators used on the wire.
type Kind string

const (
	KindRemove       Kind = "remove"
	KindRequest      Kind = "request"
	KindRestore      Kind = "restore"
	KindStore        Kind = "store"
	KindTransfer     Kind = "transfer"
	KindUnrecognized Kind = ""
)

// Event is a decoded billing record. The set of implementations is closed:
// RemoveEvent, RequestEvent, RestoreEvent, StoreEvent, TransferEvent and
// UnrecognizedEvent.
type Event interface {
	Kind() Kind
	sealed()
}

// Cell identifies the dCache process that emitted an event.
type Cell struct {
	Domain string `json:"cellDomain"`
	Name   string `json:"cellName"`
	Type   string `json:"cellType"`
}

// Status is the outcome of the billed operation. Code 0 means success.
type Status struct {
	Code    uint32 `json:"code"`
	Message string `json:"msg"`
}

// Hsm identifies the tape backend of a restore or store.
type Hsm struct {
	Instance string `json:"instance"`
	Provider string `json:"provider"`
	Type     string `json:"type"`
}

// ProtocolInfo describes the client side of a transfer.
type ProtocolInfo struct {
	Host         string `json:"host"`
	Port         uint32 `json:"port"`
	Protocol     string `json:"protocol"`
	VersionMajor uint32 `json:"versionMajor"`
	VersionMinor uint32 `json:"versionMinor"`
}

// Header carries the fields shared by every recognized variant.
type Header struct {
	Cell        Cell
	Status      Status
	BillingPath string
	Session     string
	QueuingTime uint64 // ms
}

// EventHeader gives access to the shared fields of recognized variants.
func (h *Header) EventHeader() *Header { return h }

// HeaderOf returns the shared fields of ev, or false for UnrecognizedEvent.
func HeaderOf(ev Event) (*Header, bool) {
	hv, ok := ev.(interface{ EventHeader() *Header })
	if !ok {
		return nil, false
	}
	return hv.EventHeader(), true
}

// RemoveEvent records the deletion of a file.
type RemoveEvent struct {
	Header
	FileSize    uint64
	PnfsID      string
	StorageInfo *string // present for pools, absent for doors
	Subject     []string
	Transaction *string
}

// RequestEvent records a client request handled by a door.
type RequestEvent struct {
	Header
	Client          string
	ClientChain     string
	FileSize        uint64
	MappedGID       OptionalUint
	MappedUID       OptionalUint
	Mover           *MoverInfo
	Owner           *string
	PnfsID          *string
	SessionDuration uint64 // ms
	StorageInfo     *string // may be missing when the request failed
	Subject         []string
	TransferPath    string
}

// MoverInfo describes the transfer that served a request.
type MoverInfo struct {
	Cell               Cell
	Status             Status
	Date               string
	Direction          Direction
	LocalEndpoint      *string
	MeanReadBandwidth  *float64 // bytes/s
	MeanWriteBandwidth *float64 // bytes/s
	ProtocolInfo       ProtocolInfo
	QueuingTime        uint64 // ms
	ReadActive         *string
	ReadIdle           *string
	Session            string
	TransferPath       string
	TransferSize       OptionalUint
	TransferTime       uint64 // ms
	Version            string
}

// RestoreEvent records a file staged back from tape.
type RestoreEvent struct {
	Header
	Date         string
	FileSize     uint64
	Hsm          Hsm
	Locations    []string
	PnfsID       string
	StorageInfo  string
	Transaction  string
	TransferTime uint64 // ms
	Version      string
}

// StoreEvent records a file flushed to tape.
type StoreEvent struct {
	Header
	Date         string
	FileSize     uint64
	Hsm          Hsm
	Locations    []string
	PnfsID       string
	StorageInfo  string
	Transaction  string
	TransferTime uint64 // ms
}

// TransferEvent records a data transfer performed by a pool.
type TransferEvent struct {
	Header
	Date               string
	Direction          Direction
	FileSize           uint64
	Initiator          string
	LocalEndpoint      *string
	MeanReadBandwidth  *float64 // bytes/s
	MeanWriteBandwidth *float64 // bytes/s
	PnfsID             string
	ProtocolInfo       ProtocolInfo
	ReadActive         *string
	StorageInfo        string
	Subject            []string
	TransferPath       string
	TransferSize       OptionalUint // bytes moved, may be absent on failure
	TransferTime       uint64       // ms
	WriteActive        *string
}

// UnrecognizedEvent is a well-formed record whose msgType is not modelled.
type UnrecognizedEvent struct {
	MsgType string
}

func (*RemoveEvent) Kind() Kind       { return KindRemove }
func (*RequestEvent) Kind() Kind      { return KindRequest }
func (*RestoreEvent) Kind() Kind      { return KindRestore }
func (*StoreEvent) Kind() Kind        { return KindStore }
func (*TransferEvent) Kind() Kind     { return KindTransfer }
func (*UnrecognizedEvent) Kind() Kind { return KindUnrecognized }

func (*RemoveEvent) sealed()       {}
func (*RequestEvent) sealed()      {}
func (*RestoreEvent) sealed()      {}
func (*StoreEvent) sealed()        {}
func (*TransferEvent) sealed()     {}
func (*UnrecognizedEvent) sealed() {}
