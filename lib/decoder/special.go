// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package decoder

import (
	"fmt"

	"github.com/ChainSafe/desub/lib/typedesc"
)

// decodeWellKnown handles runtime types whose encodings are fixed by
// convention rather than described by metadata or dictionaries. The
// handled return is false when the name is not one of them.
func (ds *decodeState) decodeWellKnown(name string) (value Value, handled bool, err error) {
	switch name {
	case "Era", "ExtrinsicEra":
		value, err = ds.decodeEra()
	case "Address", "GenericAddress", "RawAddress", "LookupSource":
		value, err = ds.decodeLegacyAddress()
	case "MultiAddress", "GenericMultiAddress":
		value, err = ds.decodeMultiAddress()
	case "AccountId", "AccountId32", "GenericAccountId":
		value, err = ds.decodeAccountID()
	case "Data":
		value, err = ds.decodeData()
	case "Vote", "GenericVote":
		value, err = ds.decodeVote()
	case "IdentityInfo":
		value, err = ds.decodeIdentityInfo()
	case "IdentityFields":
		var fields uint64
		fields, err = ds.reader.DecodeUint64()
		value = U64(fields)
	case "BitVec":
		bitvec, bitErr := ds.reader.DecodeBitVec()
		if bitErr != nil {
			return nil, true, bitErr
		}
		value = BitVecValue{BitVec: bitvec}
	case "Call", "GenericCall", "Proposal":
		value, err = ds.decodeCall()
	case "GenericSignature", "Signature", "H512":
		value, err = ds.decodeFixedBytes(64)
	case "H256", "Hash":
		value, err = ds.decodeFixedBytes(32)
	case "H160":
		value, err = ds.decodeFixedBytes(20)
	case "Bytes":
		raw, bytesErr := ds.reader.DecodeByteSlice()
		if bytesErr != nil {
			return nil, true, bytesErr
		}
		value = Bytes(append([]byte{}, raw...))
	case "Text", "String":
		var s string
		s, err = ds.reader.DecodeString()
		value = Str(s)
	case "SignedExtra", "Extra":
		value, err = ds.decodeSignedExtra()
	default:
		return nil, false, nil
	}
	return value, true, err
}

func (ds *decodeState) decodeFixedBytes(n int) (Value, error) {
	raw, err := ds.reader.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return Bytes(append([]byte{}, raw...)), nil
}

// decodeEra decodes a transaction era: a single zero byte for an
// immortal transaction, otherwise two bytes packing the period
// exponent in the low nibble and the quantized phase in the rest.
func (ds *decodeState) decodeEra() (Value, error) {
	first, err := ds.reader.DecodeUint8()
	if err != nil {
		return nil, err
	}
	if first == 0 {
		return Era{Immortal: true}, nil
	}

	second, err := ds.reader.DecodeUint8()
	if err != nil {
		return nil, err
	}

	encoded := uint64(first) | uint64(second)<<8
	period := uint64(2) << (encoded % (1 << 4))
	quantizeFactor := period >> 12
	if quantizeFactor < 1 {
		quantizeFactor = 1
	}
	phase := (encoded >> 4) * quantizeFactor
	if period < 4 || phase >= period {
		return nil, fmt.Errorf("%w: period %d phase %d", ErrInvalidEra, period, phase)
	}
	return Era{Period: period, Phase: phase}, nil
}

// decodeLegacyAddress decodes the pre-MultiAddress account lookup
// format, where the first byte selects an inline index or the width
// of the value following it.
func (ds *decodeState) decodeLegacyAddress() (Value, error) {
	first, err := ds.reader.DecodeUint8()
	if err != nil {
		return nil, err
	}

	switch {
	case first <= 0xef:
		return Address{Kind: "index", Index: uint64(first)}, nil
	case first == 0xfc:
		index, err := ds.reader.DecodeUint16()
		if err != nil {
			return nil, err
		}
		if index <= 0xef {
			return nil, fmt.Errorf("%w: non-canonical u16 index %d", ErrInvalidAddress, index)
		}
		return Address{Kind: "index", Index: uint64(index)}, nil
	case first == 0xfd:
		index, err := ds.reader.DecodeUint32()
		if err != nil {
			return nil, err
		}
		if index <= 0xffff {
			return nil, fmt.Errorf("%w: non-canonical u32 index %d", ErrInvalidAddress, index)
		}
		return Address{Kind: "index", Index: uint64(index)}, nil
	case first == 0xfe:
		index, err := ds.reader.DecodeUint64()
		if err != nil {
			return nil, err
		}
		if index <= 0xffffffff {
			return nil, fmt.Errorf("%w: non-canonical u64 index %d", ErrInvalidAddress, index)
		}
		return Address{Kind: "index", Index: index}, nil
	case first == 0xff:
		account, err := ds.readAccountID()
		if err != nil {
			return nil, err
		}
		return Address{Kind: "id", AccountID: account}, nil
	default:
		return nil, fmt.Errorf("%w: leading byte 0x%02x", ErrInvalidAddress, first)
	}
}

func (ds *decodeState) decodeMultiAddress() (Value, error) {
	tag, err := ds.reader.DecodeUint8()
	if err != nil {
		return nil, err
	}

	switch tag {
	case 0:
		account, err := ds.readAccountID()
		if err != nil {
			return nil, err
		}
		return Address{Kind: "id", AccountID: account}, nil
	case 1:
		index, err := ds.reader.DecodeCompactUint64()
		if err != nil {
			return nil, err
		}
		return Address{Kind: "index", Index: index}, nil
	case 2:
		raw, err := ds.reader.DecodeByteSlice()
		if err != nil {
			return nil, err
		}
		return Address{Kind: "raw", Raw: append([]byte{}, raw...)}, nil
	case 3:
		raw, err := ds.reader.ReadBytes(32)
		if err != nil {
			return nil, err
		}
		return Address{Kind: "address32", Raw: append([]byte{}, raw...)}, nil
	case 4:
		raw, err := ds.reader.ReadBytes(20)
		if err != nil {
			return nil, err
		}
		return Address{Kind: "address20", Raw: append([]byte{}, raw...)}, nil
	default:
		return nil, fmt.Errorf("%w: multi address tag 0x%02x", ErrInvalidAddress, tag)
	}
}

func (ds *decodeState) decodeAccountID() (Value, error) {
	account, err := ds.readAccountID()
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (ds *decodeState) readAccountID() (AccountID, error) {
	var account AccountID
	raw, err := ds.reader.ReadBytes(32)
	if err != nil {
		return account, err
	}
	copy(account[:], raw)
	return account, nil
}

// decodeData decodes an identity Data field. The tag byte packs the
// shape: 0 none, 1 through 33 raw bytes of length tag-1, 34 through
// 37 one of four 32 byte hashes.
func (ds *decodeState) decodeData() (Value, error) {
	tag, err := ds.reader.DecodeUint8()
	if err != nil {
		return nil, err
	}

	switch {
	case tag == 0:
		return Data{Kind: "none"}, nil
	case tag <= 33:
		raw, err := ds.reader.ReadBytes(int(tag) - 1)
		if err != nil {
			return nil, err
		}
		return Data{Kind: "raw", Bytes: append([]byte{}, raw...)}, nil
	case tag <= 37:
		kinds := []string{"blake2b256", "sha256", "keccak256", "sha3_256"}
		raw, err := ds.reader.ReadBytes(32)
		if err != nil {
			return nil, err
		}
		return Data{Kind: kinds[tag-34], Bytes: append([]byte{}, raw...)}, nil
	default:
		return nil, fmt.Errorf("%w: tag 0x%02x", ErrInvalidData, tag)
	}
}

// decodeVote decodes a democracy vote byte: the top bit is the
// direction and the rest the conviction.
func (ds *decodeState) decodeVote() (Value, error) {
	b, err := ds.reader.DecodeUint8()
	if err != nil {
		return nil, err
	}
	conviction := b & 0x7f
	if conviction > 6 {
		return nil, fmt.Errorf("%w: conviction %d", ErrInvalidVote, conviction)
	}
	return Vote{Aye: b&0x80 != 0, Conviction: conviction}, nil
}

// identityInfoType is the fixed shape of pallet_identity's
// IdentityInfo struct.
var identityInfoType = typedesc.NewComposite(
	typedesc.Field{Name: "additional", Ty: typedesc.NewSequence(typedesc.NewTuple(
		typedesc.NewPointer("Data"), typedesc.NewPointer("Data")))},
	typedesc.Field{Name: "display", Ty: typedesc.NewPointer("Data")},
	typedesc.Field{Name: "legal", Ty: typedesc.NewPointer("Data")},
	typedesc.Field{Name: "web", Ty: typedesc.NewPointer("Data")},
	typedesc.Field{Name: "riot", Ty: typedesc.NewPointer("Data")},
	typedesc.Field{Name: "email", Ty: typedesc.NewPointer("Data")},
	typedesc.Field{Name: "pgp_fingerprint", Ty: typedesc.NewOption(
		typedesc.NewArray(typedesc.NewPrimitive(typedesc.U8), 20))},
	typedesc.Field{Name: "image", Ty: typedesc.NewPointer("Data")},
	typedesc.Field{Name: "twitter", Ty: typedesc.NewPointer("Data")},
)

func (ds *decodeState) decodeIdentityInfo() (Value, error) {
	return ds.decodeType(identityInfoType)
}

// decodeCall decodes a nested call: module index byte, call index
// byte, then the declared arguments. The module context switches to
// the target module for the argument types.
func (ds *decodeState) decodeCall() (Value, error) {
	moduleIndex, err := ds.reader.DecodeUint8()
	if err != nil {
		return nil, err
	}
	module, err := ds.meta.ModuleByCallIndex(moduleIndex)
	if err != nil {
		return nil, err
	}

	callIndex, err := ds.reader.DecodeUint8()
	if err != nil {
		return nil, err
	}
	call, err := module.CallByIndex(callIndex)
	if err != nil {
		return nil, err
	}

	previousModule := ds.module
	ds.module = module.Name
	defer func() { ds.module = previousModule }()

	args := make([]StructField, len(call.Args))
	for i, arg := range call.Args {
		value, err := ds.decodeType(arg.Ty)
		if err != nil {
			return nil, fmt.Errorf("%s.%s argument %s: %w",
				module.Name, call.Name, arg.Name, err)
		}
		args[i] = StructField{Name: arg.Name, Value: value}
	}
	return Call{Module: module.Name, Function: call.Name, Args: args}, nil
}

// decodeSignedExtra decodes the signed extension payload. Registry
// metadata carries the extension types directly; legacy metadata
// names them, with the shapes coming from the resolver's extrinsic
// dictionary.
func (ds *decodeState) decodeSignedExtra() (Value, error) {
	if ds.meta == nil || ds.meta.Extrinsics == nil {
		return ds.decodeResolverExtra()
	}

	extrinsics := ds.meta.Extrinsics
	if len(extrinsics.SignedExtensionTypes) == len(extrinsics.SignedExtensions) &&
		len(extrinsics.SignedExtensionTypes) > 0 {
		values := make(Struct, 0, len(extrinsics.SignedExtensions))
		for i, identifier := range extrinsics.SignedExtensions {
			value, err := ds.decodeType(extrinsics.SignedExtensionTypes[i])
			if err != nil {
				return nil, fmt.Errorf("extension %s: %w", identifier, err)
			}
			values = append(values, StructField{Name: identifier, Value: value})
		}
		return values, nil
	}

	if len(extrinsics.SignedExtensions) == 0 {
		return ds.decodeResolverExtra()
	}

	values := make(Struct, 0, len(extrinsics.SignedExtensions))
	for _, identifier := range extrinsics.SignedExtensions {
		ty := ds.extrinsicType(identifier)
		if ty == nil {
			return nil, fmt.Errorf("%w: signed extension %q", ErrTypeUnresolved, identifier)
		}
		value, err := ds.decodeType(ty)
		if err != nil {
			return nil, fmt.Errorf("extension %s: %w", identifier, err)
		}
		values = append(values, StructField{Name: identifier, Value: value})
	}
	return values, nil
}

// decodeResolverExtra falls back to the dictionary definition of the
// whole extra tuple for metadata below v11.
func (ds *decodeState) decodeResolverExtra() (Value, error) {
	ty := ds.extrinsicType("SignedExtra")
	if ty == nil {
		return nil, fmt.Errorf("%w: %q", ErrTypeUnresolved, "SignedExtra")
	}
	return ds.decodeType(ty)
}

func (ds *decodeState) extrinsicType(name string) *typedesc.Type {
	if ds.dec == nil || ds.dec.resolver == nil {
		return nil
	}
	return ds.dec.resolver.GetExtrinsicType(ds.dec.chain, ds.spec, name)
}
