package billing

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/V4T54L/dcache-billing-exporter/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/*.json
var schemaFS embed.FS

var schemaKinds = []domain.Kind{
	domain.KindRemove,
	domain.KindRequest,
	domain.KindRestore,
	domain.KindStore,
	domain.KindTransfer,
}

// Decoder turns raw billing records into typed domain events. A Decoder
// is immutable after construction and safe for concurrent use.
type Decoder struct {
	schemas map[domain.Kind]*gojsonschema.Schema
}

// NewDecoder compiles the embedded per-variant schemas.
func NewDecoder() (*Decoder, error) {
	schemas := make(map[domain.Kind]*gojsonschema.Schema, len(schemaKinds))
	for _, kind := range schemaKinds {
		src, err := schemaFS.ReadFile("schema/" + string(kind) + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to read %s schema: %w", kind, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(src))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", kind, err)
		}
		schemas[kind] = schema
	}
	return &Decoder{schemas: schemas}, nil
}

// Decode parses one billing record. Records with an unknown msgType
// decode to *domain.UnrecognizedEvent. Every failure is a
// *domain.DecodeError carrying the raw text.
func (d *Decoder) Decode(raw string) (domain.Event, error) {
	ev, err := d.decode(raw)
	if err != nil {
		return nil, &domain.DecodeError{Raw: raw, Err: err}
	}
	return ev, nil
}

func (d *Decoder) decode(raw string) (domain.Event, error) {
	if !utf8.ValidString(raw) {
		return nil, domain.ErrInvalidUTF8
	}

	var envelope struct {
		MsgType *string `json:"msgType"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, err
	}
	if envelope.MsgType == nil {
		return nil, domain.ErrMissingDiscriminator
	}

	kind := domain.Kind(*envelope.MsgType)
	schema, ok := d.schemas[kind]
	if !ok {
		return &domain.UnrecognizedEvent{MsgType: *envelope.MsgType}, nil
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrSchemaViolation, describe(result.Errors()))
	}

	data := []byte(raw)
	switch kind {
	case domain.KindRemove:
		return decodeRemove(data)
	case domain.KindRequest:
		return decodeRequest(data)
	case domain.KindRestore:
		return decodeRestore(data)
	case domain.KindStore:
		return decodeStore(data)
	case domain.KindTransfer:
		return decodeTransfer(data)
	}
	return nil, fmt.Errorf("no decoder for msgType %q", kind)
}

func describe(errs []gojsonschema.ResultError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.String())
	}
	return strings.Join(msgs, "; ")
}
