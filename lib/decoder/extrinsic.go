// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package decoder

import (
	"encoding/json"
	"fmt"

	"github.com/ChainSafe/desub/lib/typedesc"
	"github.com/ChainSafe/desub/pkg/scale"
)

// supportedExtrinsicVersion is the only transaction format version
// in circulation.
const supportedExtrinsicVersion = 4

// Extrinsic is one decoded extrinsic.
type Extrinsic struct {
	Version uint8
	// Signature is nil for unsigned extrinsics.
	Signature *ExtrinsicSignature
	Call      Call
}

// ExtrinsicSignature is the signature part of a signed extrinsic.
type ExtrinsicSignature struct {
	Address   Value
	Signature Value
	// Extra holds the decoded signed extensions.
	Extra Value
}

func (e *Extrinsic) String() string {
	if e.Signature == nil {
		return "unsigned " + e.Call.String()
	}
	return fmt.Sprintf("signed by %s: %s", e.Signature.Address, e.Call)
}

func (e *Extrinsic) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"version": e.Version,
		"call":    e.Call,
	}
	if e.Signature != nil {
		out["signature"] = map[string]Value{
			"address":   e.Signature.Address,
			"signature": e.Signature.Signature,
			"extra":     e.Signature.Extra,
		}
	}
	return json.Marshal(out)
}

// multiSignatureType is the MultiSignature enum shipped with every
// modern runtime.
var multiSignatureType = typedesc.NewVariantType(
	typedesc.Variant{Name: "Ed25519", Fields: []typedesc.Field{
		{Ty: typedesc.NewArray(typedesc.NewPrimitive(typedesc.U8), 64)}}},
	typedesc.Variant{Name: "Sr25519", Fields: []typedesc.Field{
		{Ty: typedesc.NewArray(typedesc.NewPrimitive(typedesc.U8), 64)}}},
	typedesc.Variant{Name: "Ecdsa", Fields: []typedesc.Field{
		{Ty: typedesc.NewArray(typedesc.NewPrimitive(typedesc.U8), 65)}}},
)

// DecodeExtrinsic decodes a single extrinsic body. The input must
// not carry the outer compact length prefix, and must be consumed
// exactly.
func (d *Decoder) DecodeExtrinsic(spec uint32, data []byte) (*Extrinsic, error) {
	version, err := d.version(spec)
	if err != nil {
		return nil, err
	}

	r := scale.NewReader(data)
	ds := d.newState(r, version.meta, spec)

	extrinsic, err := ds.decodeExtrinsic()
	if err != nil {
		return nil, err
	}
	if r.Remaining() > 0 {
		return nil, fmt.Errorf("%w: %d of %d bytes consumed",
			ErrTrailingBytes, r.Offset(), r.Len())
	}
	return extrinsic, nil
}

func (ds *decodeState) decodeExtrinsic() (*Extrinsic, error) {
	versionByte, err := ds.reader.DecodeUint8()
	if err != nil {
		return nil, fmt.Errorf("version byte: %w", err)
	}

	signed := versionByte&0x80 != 0
	version := versionByte & 0x7f
	if version != supportedExtrinsicVersion {
		return nil, fmt.Errorf("%w: %d", ErrExtrinsicVersion, version)
	}

	extrinsic := &Extrinsic{Version: version}
	if signed {
		extrinsic.Signature, err = ds.decodeExtrinsicSignature()
		if err != nil {
			return nil, fmt.Errorf("signature: %w", err)
		}
	}

	call, err := ds.decodeCall()
	if err != nil {
		return nil, fmt.Errorf("call: %w", err)
	}
	extrinsic.Call = call.(Call)
	return extrinsic, nil
}

// decodeExtrinsicSignature decodes address, signature and signed
// extensions. A chain specific "signature" dictionary entry takes
// precedence; otherwise registry metadata implies the MultiAddress
// era and older metadata the legacy address format.
func (ds *decodeState) decodeExtrinsicSignature() (*ExtrinsicSignature, error) {
	if override := ds.extrinsicType("signature"); override != nil {
		value, err := ds.decodeType(override)
		if err != nil {
			return nil, err
		}
		return signatureFromStruct(value)
	}

	var address Value
	var err error
	if ds.meta != nil && ds.meta.Registry != nil {
		address, err = ds.decodeMultiAddress()
	} else {
		address, err = ds.decodeLegacyAddress()
	}
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}

	signature, err := ds.decodeType(multiSignatureType)
	if err != nil {
		return nil, fmt.Errorf("signature value: %w", err)
	}

	extra, err := ds.decodeSignedExtra()
	if err != nil {
		return nil, fmt.Errorf("signed extensions: %w", err)
	}

	return &ExtrinsicSignature{Address: address, Signature: signature, Extra: extra}, nil
}

// signatureFromStruct maps a dictionary decoded signature struct
// onto the fixed three part shape.
func signatureFromStruct(value Value) (*ExtrinsicSignature, error) {
	fields, ok := value.(Struct)
	if !ok {
		return nil, fmt.Errorf("%w: signature dictionary entry is not a struct",
			ErrTypeUnresolved)
	}

	signature := &ExtrinsicSignature{}
	var extra Struct
	for _, field := range fields {
		switch field.Name {
		case "address", "from":
			signature.Address = field.Value
		case "signature":
			signature.Signature = field.Value
		case "extra":
			signature.Extra = field.Value
		default:
			extra = append(extra, field)
		}
	}
	if signature.Extra == nil && len(extra) > 0 {
		signature.Extra = extra
	}
	return signature, nil
}

// DecodeExtrinsics decodes a block body: a compact count of
// extrinsics, each length prefixed. Decoding continues past a
// failing extrinsic when the declared length still locates the next
// one; the first failure is returned alongside the successes.
func (d *Decoder) DecodeExtrinsics(spec uint32, data []byte) ([]*Extrinsic, error) {
	if _, err := d.version(spec); err != nil {
		return nil, err
	}

	r := scale.NewReader(data)
	count, err := r.DecodeLength()
	if err != nil {
		return nil, fmt.Errorf("extrinsic count: %w", err)
	}

	var extrinsics []*Extrinsic
	var firstErr error
	for i := 0; i < count; i++ {
		start := r.Offset()
		length, err := r.DecodeLength()
		if err != nil {
			return extrinsics, firstOf(firstErr,
				fmt.Errorf("extrinsic %d length at offset %d: %w", i, start, err))
		}
		if length > r.Remaining() {
			return extrinsics, firstOf(firstErr,
				fmt.Errorf("extrinsic %d at offset %d: %w: %d declared, %d left",
					i, start, ErrItemLengthOverrun, length, r.Remaining()))
		}

		body, err := r.ReadBytes(length)
		if err != nil {
			return extrinsics, firstOf(firstErr, err)
		}

		extrinsic, err := d.DecodeExtrinsic(spec, body)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("extrinsic %d at offset %d: %w", i, start, err)
			}
			continue
		}
		extrinsics = append(extrinsics, extrinsic)
	}
	return extrinsics, firstErr
}

func firstOf(first, second error) error {
	if first != nil {
		return first
	}
	return second
}
