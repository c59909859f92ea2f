package billing

import (
	"encoding/json"
	"fmt"

	"github.com/V4T54L/dcache-billing-exporter/internal/domain"
)

// Wire layouts. Presence and types are already enforced by the schemas,
// so these only carry field names.

type wireHeader struct {
	domain.Cell
	Status      domain.Status `json:"status"`
	BillingPath string        `json:"billingPath"`
	Session     string        `json:"session"`
	QueuingTime uint64        `json:"queuingTime"`
}

func (w wireHeader) header() domain.Header {
	return domain.Header{
		Cell:        w.Cell,
		Status:      w.Status,
		BillingPath: w.BillingPath,
		Session:     w.Session,
		QueuingTime: w.QueuingTime,
	}
}

// wireDirection is the field bag the direction is reconstructed from.
type wireDirection struct {
	IsP2p   bool   `json:"isP2p"`
	IsWrite string `json:"isWrite"`
}

func (w wireDirection) direction() (domain.Direction, error) {
	return domain.DirectionFrom(w.IsP2p, w.IsWrite)
}

type wireRemove struct {
	wireHeader
	FileSize    uint64   `json:"fileSize"`
	PnfsID      string   `json:"pnfsid"`
	StorageInfo *string  `json:"storageInfo"`
	Subject     []string `json:"subject"`
	Transaction *string  `json:"transaction"`
}

type wireRequest struct {
	wireHeader
	Client          string              `json:"client"`
	ClientChain     string              `json:"clientChain"`
	FileSize        uint64              `json:"fileSize"`
	MappedGID       domain.OptionalUint `json:"mappedGID"`
	MappedUID       domain.OptionalUint `json:"mappedUID"`
	MoverInfo       *wireMover          `json:"moverInfo"`
	Owner           *string             `json:"owner"`
	PnfsID          *string             `json:"pnfsid"`
	SessionDuration uint64              `json:"sessionDuration"`
	StorageInfo     *string             `json:"storageInfo"`
	Subject         []string            `json:"subject"`
	TransferPath    string              `json:"transferPath"`
}

type wireMover struct {
	domain.Cell
	wireDirection
	Status             domain.Status       `json:"status"`
	Date               string              `json:"date"`
	LocalEndpoint      *string             `json:"localEndpoint"`
	MeanReadBandwidth  *float64            `json:"meanReadBandwidth"`
	MeanWriteBandwidth *float64            `json:"meanWriteBandwidth"`
	ProtocolInfo       domain.ProtocolInfo `json:"protocolInfo"`
	QueuingTime        uint64              `json:"queuingTime"`
	ReadActive         *string             `json:"readActive"`
	ReadIdle           *string             `json:"readIdle"`
	Session            string              `json:"session"`
	TransferPath       string              `json:"transferPath"`
	TransferSize       domain.OptionalUint `json:"transferSize"`
	TransferTime       uint64              `json:"transferTime"`
	Version            string              `json:"version"`
}

type wireTape struct {
	wireHeader
	Date         string     `json:"date"`
	FileSize     uint64     `json:"fileSize"`
	Hsm          domain.Hsm `json:"hsm"`
	Locations    []string   `json:"locations"`
	PnfsID       string     `json:"pnfsid"`
	StorageInfo  string     `json:"storageInfo"`
	Transaction  string     `json:"transaction"`
	TransferTime uint64     `json:"transferTime"`
	Version      string     `json:"version"`
}

type wireTransfer struct {
	wireHeader
	wireDirection
	Date               string              `json:"date"`
	FileSize           uint64              `json:"fileSize"`
	Initiator          string              `json:"initiator"`
	LocalEndpoint      *string             `json:"localEndpoint"`
	MeanReadBandwidth  *float64            `json:"meanReadBandwidth"`
	MeanWriteBandwidth *float64            `json:"meanWriteBandwidth"`
	PnfsID             string              `json:"pnfsid"`
	ProtocolInfo       domain.ProtocolInfo `json:"protocolInfo"`
	ReadActive         *string             `json:"readActive"`
	StorageInfo        string              `json:"storageInfo"`
	Subject            []string            `json:"subject"`
	TransferPath       string              `json:"transferPath"`
	TransferSize       domain.OptionalUint `json:"transferSize"`
	TransferTime       uint64              `json:"transferTime"`
	WriteActive        *string             `json:"writeActive"`
}

func decodeRemove(data []byte) (domain.Event, error) {
	var w wireRemove
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &domain.RemoveEvent{
		Header:      w.header(),
		FileSize:    w.FileSize,
		PnfsID:      w.PnfsID,
		StorageInfo: w.StorageInfo,
		Subject:     w.Subject,
		Transaction: w.Transaction,
	}, nil
}

func decodeRequest(data []byte) (domain.Event, error) {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	ev := &domain.RequestEvent{
		Header:          w.header(),
		Client:          w.Client,
		ClientChain:     w.ClientChain,
		FileSize:        w.FileSize,
		MappedGID:       w.MappedGID,
		MappedUID:       w.MappedUID,
		Owner:           w.Owner,
		PnfsID:          w.PnfsID,
		SessionDuration: w.SessionDuration,
		StorageInfo:     w.StorageInfo,
		Subject:         w.Subject,
		TransferPath:    w.TransferPath,
	}
	if w.MoverInfo != nil {
		mover, err := w.MoverInfo.mover()
		if err != nil {
			return nil, fmt.Errorf("moverInfo: %w", err)
		}
		ev.Mover = mover
	}
	return ev, nil
}

func (w *wireMover) mover() (*domain.MoverInfo, error) {
	dir, err := w.direction()
	if err != nil {
		return nil, err
	}
	return &domain.MoverInfo{
		Cell:               w.Cell,
		Status:             w.Status,
		Date:               w.Date,
		Direction:          dir,
		LocalEndpoint:      w.LocalEndpoint,
		MeanReadBandwidth:  w.MeanReadBandwidth,
		MeanWriteBandwidth: w.MeanWriteBandwidth,
		ProtocolInfo:       w.ProtocolInfo,
		QueuingTime:        w.QueuingTime,
		ReadActive:         w.ReadActive,
		ReadIdle:           w.ReadIdle,
		Session:            w.Session,
		TransferPath:       w.TransferPath,
		TransferSize:       w.TransferSize,
		TransferTime:       w.TransferTime,
		Version:            w.Version,
	}, nil
}

func decodeRestore(data []byte) (domain.Event, error) {
	var w wireTape
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &domain.RestoreEvent{
		Header:       w.header(),
		Date:         w.Date,
		FileSize:     w.FileSize,
		Hsm:          w.Hsm,
		Locations:    w.Locations,
		PnfsID:       w.PnfsID,
		StorageInfo:  w.StorageInfo,
		Transaction:  w.Transaction,
		TransferTime: w.TransferTime,
		Version:      w.Version,
	}, nil
}

func decodeStore(data []byte) (domain.Event, error) {
	var w wireTape
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &domain.StoreEvent{
		Header:       w.header(),
		Date:         w.Date,
		FileSize:     w.FileSize,
		Hsm:          w.Hsm,
		Locations:    w.Locations,
		PnfsID:       w.PnfsID,
		StorageInfo:  w.StorageInfo,
		Transaction:  w.Transaction,
		TransferTime: w.TransferTime,
	}, nil
}

func decodeTransfer(data []byte) (domain.Event, error) {
	var w wireTransfer
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	dir, err := w.direction()
	if err != nil {
		return nil, err
	}
	return &domain.TransferEvent{
		Header:             w.header(),
		Date:               w.Date,
		Direction:          dir,
		FileSize:           w.FileSize,
		Initiator:          w.Initiator,
		LocalEndpoint:      w.LocalEndpoint,
		MeanReadBandwidth:  w.MeanReadBandwidth,
		MeanWriteBandwidth: w.MeanWriteBandwidth,
		PnfsID:             w.PnfsID,
		ProtocolInfo:       w.ProtocolInfo,
		ReadActive:         w.ReadActive,
		StorageInfo:        w.StorageInfo,
		Subject:            w.Subject,
		TransferPath:       w.TransferPath,
		TransferSize:       w.TransferSize,
		TransferTime:       w.TransferTime,
		WriteActive:        w.WriteActive,
	}, nil
}
