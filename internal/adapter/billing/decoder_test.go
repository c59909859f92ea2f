package billing

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/dcache-billing-exporter/internal/domain"
)

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()
	d, err := NewDecoder()
	require.NoError(t, err)
	return d
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name+".json"))
	require.NoError(t, err)
	return string(data)
}

// mutated returns the named fixture with fn applied to its top-level object.
func mutated(t *testing.T, name string, fn func(m map[string]any)) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(fixture(t, name)), &m))
	fn(m)
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return string(out)
}

func TestDecode_Transfer(t *testing.T) {
	d := newTestDecoder(t)

	ev, err := d.Decode(fixture(t, "transfer"))
	require.NoError(t, err)

	tr, ok := ev.(*domain.TransferEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, domain.KindTransfer, tr.Kind())
	assert.Equal(t, domain.Cell{Domain: "pool_aDomain", Name: "pool_a-07", Type: "pool"}, tr.Cell)
	assert.Equal(t, domain.Status{Code: 0, Message: ""}, tr.Status)
	assert.Equal(t, domain.DirectionRead, tr.Direction)
	assert.Equal(t, uint64(1024), tr.FileSize)
	assert.Equal(t, domain.SomeUint(1000), tr.TransferSize)
	assert.Equal(t, uint64(2000), tr.TransferTime)
	assert.Equal(t, uint64(12), tr.QueuingTime)
	assert.Equal(t, "atlas:default@osm", tr.StorageInfo)
	assert.Equal(t, "Xrootd", tr.ProtocolInfo.Protocol)
	assert.Equal(t, uint32(46010), tr.ProtocolInfo.Port)
	require.NotNil(t, tr.MeanReadBandwidth)
	assert.Equal(t, 512000.0, *tr.MeanReadBandwidth)
	assert.Nil(t, tr.MeanWriteBandwidth)
	assert.Len(t, tr.Subject, 3)
}

func TestDecode_Request(t *testing.T) {
	d := newTestDecoder(t)

	ev, err := d.Decode(fixture(t, "request"))
	require.NoError(t, err)

	req, ok := ev.(*domain.RequestEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, uint64(2500), req.SessionDuration)
	assert.Equal(t, domain.SomeUint(1000), req.MappedUID)
	assert.False(t, req.MappedGID.Valid, "mappedGID -1 must decode as absent")
	require.NotNil(t, req.StorageInfo)
	assert.Equal(t, "atlas:default@osm", *req.StorageInfo)

	require.NotNil(t, req.Mover)
	assert.Equal(t, domain.DirectionWrite, req.Mover.Direction)
	assert.False(t, req.Mover.TransferSize.Valid, "transferSize -1 must decode as absent")
	assert.Equal(t, "pool_a-07", req.Mover.Cell.Name)
	require.NotNil(t, req.Mover.ReadIdle)
	assert.Nil(t, req.Mover.ReadActive)
}

func TestDecode_RequestWithoutOptionalFields(t *testing.T) {
	d := newTestDecoder(t)

	raw := mutated(t, "request", func(m map[string]any) {
		delete(m, "moverInfo")
		delete(m, "storageInfo")
		delete(m, "mappedUID")
		delete(m, "pnfsid")
		m["owner"] = nil
	})
	ev, err := d.Decode(raw)
	require.NoError(t, err)

	req := ev.(*domain.RequestEvent)
	assert.Nil(t, req.Mover)
	assert.Nil(t, req.StorageInfo)
	assert.Nil(t, req.PnfsID)
	assert.Nil(t, req.Owner)
	assert.False(t, req.MappedUID.Valid)
}

func TestDecode_Remove(t *testing.T) {
	d := newTestDecoder(t)

	ev, err := d.Decode(fixture(t, "remove"))
	require.NoError(t, err)

	rm, ok := ev.(*domain.RemoveEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, uint64(4096), rm.FileSize)
	assert.Nil(t, rm.StorageInfo, "doors do not report storageInfo")
	assert.Nil(t, rm.Transaction)
	assert.Equal(t, "PnfsManager", rm.Cell.Name)
}

func TestDecode_RestoreAndStore(t *testing.T) {
	d := newTestDecoder(t)

	ev, err := d.Decode(fixture(t, "restore"))
	require.NoError(t, err)
	rs, ok := ev.(*domain.RestoreEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, domain.Hsm{Instance: "osm", Provider: "endit", Type: "osm"}, rs.Hsm)
	assert.Equal(t, uint64(600000), rs.TransferTime)
	assert.Equal(t, "1.0", rs.Version)
	assert.Len(t, rs.Locations, 1)

	ev, err = d.Decode(fixture(t, "store"))
	require.NoError(t, err)
	st, ok := ev.(*domain.StoreEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "atlas:tape@osm", st.StorageInfo)
	assert.Equal(t, uint64(1073741824), st.FileSize)
}

func TestDecode_Unrecognized(t *testing.T) {
	d := newTestDecoder(t)

	ev, err := d.Decode(`{"msgType":"checksum","cellName":"pool_a-01"}`)
	require.NoError(t, err)

	un, ok := ev.(*domain.UnrecognizedEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "checksum", un.MsgType)
	assert.Equal(t, domain.KindUnrecognized, un.Kind())
}

func TestDecode_Direction(t *testing.T) {
	d := newTestDecoder(t)

	tests := []struct {
		isP2p   bool
		isWrite string
		want    domain.Direction
		wantErr bool
	}{
		{isP2p: true, isWrite: "read", want: domain.DirectionP2P},
		{isP2p: false, isWrite: "read", want: domain.DirectionRead},
		{isP2p: false, isWrite: "write", want: domain.DirectionWrite},
		{isP2p: true, isWrite: "write", wantErr: true},
		{isP2p: true, isWrite: "other", wantErr: true},
		{isP2p: false, isWrite: "other", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.isWrite, func(t *testing.T) {
			set := func(m map[string]any) {
				m["isP2p"] = tt.isP2p
				m["isWrite"] = tt.isWrite
			}

			transfer := mutated(t, "transfer", set)
			request := mutated(t, "request", func(m map[string]any) {
				set(m["moverInfo"].(map[string]any))
			})

			trEv, trErr := d.Decode(transfer)
			rqEv, rqErr := d.Decode(request)

			if tt.wantErr {
				assert.ErrorIs(t, trErr, domain.ErrInvalidDirection)
				assert.ErrorIs(t, rqErr, domain.ErrInvalidDirection)
				return
			}
			require.NoError(t, trErr)
			require.NoError(t, rqErr)
			assert.Equal(t, tt.want, trEv.(*domain.TransferEvent).Direction)
			assert.Equal(t, tt.want, rqEv.(*domain.RequestEvent).Mover.Direction)
		})
	}
}

func TestDecode_Failures(t *testing.T) {
	d := newTestDecoder(t)

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "not json", raw: `this is not json`},
		{name: "truncated", raw: `{"msgType":"transfer"`},
		{name: "empty", raw: ``},
		{name: "array", raw: `[1,2,3]`},
		{name: "null", raw: `null`, wantErr: domain.ErrMissingDiscriminator},
		{name: "no msgType", raw: `{"cellName":"pool"}`, wantErr: domain.ErrMissingDiscriminator},
		{name: "numeric msgType", raw: `{"msgType":5}`},
		{name: "invalid utf8", raw: "{\"msgType\":\"remove\xff\"}", wantErr: domain.ErrInvalidUTF8},
		{
			name:    "missing required field",
			raw:     mutated(t, "transfer", func(m map[string]any) { delete(m, "transferTime") }),
			wantErr: domain.ErrSchemaViolation,
		},
		{
			name:    "missing status message",
			raw:     mutated(t, "store", func(m map[string]any) { m["status"] = map[string]any{"code": 1} }),
			wantErr: domain.ErrSchemaViolation,
		},
		{
			name:    "negative file size",
			raw:     mutated(t, "remove", func(m map[string]any) { m["fileSize"] = -1 }),
			wantErr: domain.ErrSchemaViolation,
		},
		{
			name:    "missing hsm",
			raw:     mutated(t, "restore", func(m map[string]any) { delete(m, "hsm") }),
			wantErr: domain.ErrSchemaViolation,
		},
		{
			name:    "missing isP2p",
			raw:     mutated(t, "transfer", func(m map[string]any) { delete(m, "isP2p") }),
			wantErr: domain.ErrSchemaViolation,
		},
		{
			name:    "unknown mover type",
			raw:     mutated(t, "request", func(m map[string]any) { m["moverInfo"].(map[string]any)["msgType"] = "store" }),
			wantErr: domain.ErrSchemaViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev domain.Event
			var err error
			require.NotPanics(t, func() { ev, err = d.Decode(tt.raw) })

			require.Error(t, err)
			assert.Nil(t, ev)

			var decodeErr *domain.DecodeError
			require.True(t, errors.As(err, &decodeErr), "got %T", err)
			assert.Equal(t, tt.raw, decodeErr.Raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
