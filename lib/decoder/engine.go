// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package decoder

import (
	"fmt"
	"math/big"

	"github.com/ChainSafe/desub/lib/metadata"
	"github.com/ChainSafe/desub/lib/typedesc"
	"github.com/ChainSafe/desub/pkg/scale"
)

// maxDepth bounds type recursion so that cyclic resolver definitions
// fail instead of overflowing the stack.
const maxDepth = 64

// decodeState is one decoding pass over a byte stream. The module
// name scopes resolver lookups, since legacy type names can mean
// different things in different modules.
type decodeState struct {
	reader *scale.Reader
	dec    *Decoder
	meta   *metadata.Metadata
	spec   uint32
	module string
	depth  int
}

func (d *Decoder) newState(r *scale.Reader, meta *metadata.Metadata, spec uint32) *decodeState {
	return &decodeState{reader: r, dec: d, meta: meta, spec: spec}
}

func (ds *decodeState) resolveRef(id int) *typedesc.Type {
	if ds.meta == nil || ds.meta.Registry == nil {
		return nil
	}
	return ds.meta.Registry.Resolve(id)
}

func (ds *decodeState) decodeType(ty *typedesc.Type) (Value, error) {
	if ty == nil {
		return nil, fmt.Errorf("%w: nil type", ErrTypeUnresolved)
	}
	if ds.depth >= maxDepth {
		return nil, fmt.Errorf("%w: at %s", ErrDepthLimit, ty)
	}
	ds.depth++
	defer func() { ds.depth-- }()

	switch ty.Kind {
	case typedesc.KindNull:
		return Null{}, nil
	case typedesc.KindPrimitive:
		return ds.decodePrimitive(ty.Prim)
	case typedesc.KindCompact:
		if err := ds.checkCompactInner(ty.Inner); err != nil {
			return nil, err
		}
		value, err := ds.reader.DecodeCompact()
		if err != nil {
			return nil, err
		}
		return NewBigInt(value), nil
	case typedesc.KindSequence:
		length, err := ds.reader.DecodeLength()
		if err != nil {
			return nil, err
		}
		return ds.decodeElems(ty.Inner, length)
	case typedesc.KindArray:
		return ds.decodeElems(ty.Inner, int(ty.Len))
	case typedesc.KindTuple:
		values := make(Tuple, len(ty.Fields))
		for i, field := range ty.Fields {
			value, err := ds.decodeType(field.Ty)
			if err != nil {
				return nil, fmt.Errorf("tuple element %d: %w", i, err)
			}
			values[i] = value
		}
		return values, nil
	case typedesc.KindComposite:
		return ds.decodeComposite(ty)
	case typedesc.KindVariant:
		return ds.decodeVariant(ty)
	case typedesc.KindOption:
		return ds.decodeOption(ty.Inner)
	case typedesc.KindResult:
		return ds.decodeResult(ty)
	case typedesc.KindGeneric:
		return ds.decodePointer(ty.Name)
	case typedesc.KindPointer:
		return ds.decodePointer(ty.Name)
	case typedesc.KindBitSequence:
		bitvec, err := ds.reader.DecodeBitVec()
		if err != nil {
			return nil, err
		}
		return BitVecValue{BitVec: bitvec}, nil
	case typedesc.KindSet:
		return ds.decodeSet(ty)
	case typedesc.KindRef:
		resolved := ds.resolveRef(ty.Ref)
		if resolved == nil {
			return nil, fmt.Errorf("%w: id %d", ErrNoRegistry, ty.Ref)
		}
		return ds.decodeType(resolved)
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrTypeUnresolved, ty.Kind)
	}
}

// checkCompactInner rejects compact wrappers around types that are
// not unsigned integers. Compact bytes are self-describing, so the
// inner type never steers decoding, but a non-integer inner marks a
// malformed definition. Named types resolve to integers at runtime
// and registry compacts often wrap single field newtypes.
func (ds *decodeState) checkCompactInner(inner *typedesc.Type) error {
	for hops := 0; inner != nil; hops++ {
		if hops >= maxDepth {
			return fmt.Errorf("%w: at Compact<%s>", ErrDepthLimit, inner)
		}
		switch inner.Kind {
		case typedesc.KindPrimitive:
			switch inner.Prim {
			case typedesc.U8, typedesc.U16, typedesc.U32,
				typedesc.U64, typedesc.U128, typedesc.U256:
				return nil
			}
			return fmt.Errorf("%w: Compact<%s>", ErrInvalidCompact, inner)
		case typedesc.KindCompact:
			inner = inner.Inner
		case typedesc.KindComposite:
			if len(inner.Fields) != 1 {
				return fmt.Errorf("%w: Compact<%s>", ErrInvalidCompact, inner)
			}
			inner = inner.Fields[0].Ty
		case typedesc.KindRef:
			resolved := ds.resolveRef(inner.Ref)
			if resolved == nil {
				return fmt.Errorf("%w: id %d", ErrNoRegistry, inner.Ref)
			}
			inner = resolved
		case typedesc.KindPointer, typedesc.KindGeneric, typedesc.KindNull:
			return nil
		default:
			return fmt.Errorf("%w: Compact<%s>", ErrInvalidCompact, inner)
		}
	}
	return nil
}

func (ds *decodeState) decodePrimitive(prim typedesc.Primitive) (Value, error) {
	switch prim {
	case typedesc.Bool:
		b, err := ds.reader.DecodeBool()
		return Bool(b), err
	case typedesc.U8:
		v, err := ds.reader.DecodeUint8()
		return U8(v), err
	case typedesc.U16:
		v, err := ds.reader.DecodeUint16()
		return U16(v), err
	case typedesc.U32, typedesc.Char:
		v, err := ds.reader.DecodeUint32()
		return U32(v), err
	case typedesc.U64:
		v, err := ds.reader.DecodeUint64()
		return U64(v), err
	case typedesc.U128:
		v, err := ds.reader.DecodeUint128()
		if err != nil {
			return nil, err
		}
		return NewBigInt(v.Big()), nil
	case typedesc.U256:
		v, err := ds.reader.DecodeBigFixed(32)
		if err != nil {
			return nil, err
		}
		return NewBigInt(v), nil
	case typedesc.I8:
		v, err := ds.reader.DecodeInt8()
		return I8(v), err
	case typedesc.I16:
		v, err := ds.reader.DecodeInt16()
		return I16(v), err
	case typedesc.I32:
		v, err := ds.reader.DecodeInt32()
		return I32(v), err
	case typedesc.I64:
		v, err := ds.reader.DecodeInt64()
		return I64(v), err
	case typedesc.I128, typedesc.I256:
		width := 16
		if prim == typedesc.I256 {
			width = 32
		}
		raw, err := ds.reader.ReadBytes(width)
		if err != nil {
			return nil, err
		}
		return NewBigInt(twosComplement(raw)), nil
	case typedesc.Str:
		s, err := ds.reader.DecodeString()
		return Str(s), err
	default:
		return nil, fmt.Errorf("%w: primitive %s", ErrTypeUnresolved, prim)
	}
}

// twosComplement interprets little endian bytes as a signed integer.
func twosComplement(le []byte) *big.Int {
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	value := new(big.Int).SetBytes(be)
	if len(be) > 0 && be[0]&0x80 != 0 {
		bits := uint(len(be)) * 8
		value.Sub(value, new(big.Int).Lsh(big.NewInt(1), bits))
	}
	return value
}

func (ds *decodeState) decodeElems(elem *typedesc.Type, count int) (Value, error) {
	if elem != nil && elem.Kind == typedesc.KindPrimitive && elem.Prim == typedesc.U8 {
		raw, err := ds.reader.ReadBytes(count)
		if err != nil {
			return nil, err
		}
		return Bytes(append([]byte{}, raw...)), nil
	}
	// sequences of registry u8 refs are byte strings too
	if elem != nil && elem.Kind == typedesc.KindRef {
		if resolved := ds.resolveRef(elem.Ref); resolved != nil &&
			resolved.Kind == typedesc.KindPrimitive && resolved.Prim == typedesc.U8 {
			raw, err := ds.reader.ReadBytes(count)
			if err != nil {
				return nil, err
			}
			return Bytes(append([]byte{}, raw...)), nil
		}
	}

	// every element consumes at least one byte, so a length prefix
	// beyond the remaining input can never decode
	if count > ds.reader.Remaining() {
		return nil, fmt.Errorf("%w: %d elements with %d bytes remaining",
			scale.ErrEndOfData, count, ds.reader.Remaining())
	}

	values := make(Seq, count)
	for i := 0; i < count; i++ {
		value, err := ds.decodeType(elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		values[i] = value
	}
	return values, nil
}

func (ds *decodeState) decodeComposite(ty *typedesc.Type) (Value, error) {
	unnamed := len(ty.Fields) > 0 && ty.Fields[0].Name == ""

	// newtype wrappers decode transparently
	if unnamed && len(ty.Fields) == 1 {
		value, err := ds.decodeType(ty.Fields[0].Ty)
		if err != nil {
			return nil, err
		}
		if raw, ok := value.(Bytes); ok && len(raw) == 32 &&
			(ty.Name == "AccountId32" || ty.Name == "AccountId") {
			var account AccountID
			copy(account[:], raw)
			return account, nil
		}
		return value, nil
	}

	if unnamed {
		values := make(Tuple, len(ty.Fields))
		for i, field := range ty.Fields {
			value, err := ds.decodeType(field.Ty)
			if err != nil {
				return nil, fmt.Errorf("%s field %d: %w", ty, i, err)
			}
			values[i] = value
		}
		return values, nil
	}

	values := make(Struct, len(ty.Fields))
	for i, field := range ty.Fields {
		value, err := ds.decodeType(field.Ty)
		if err != nil {
			return nil, fmt.Errorf("%s field %s: %w", ty, field.Name, err)
		}
		values[i] = StructField{Name: field.Name, Value: value}
	}
	return values, nil
}

// decodeVariant reads the discriminant byte and decodes the matching
// arm. Registry enums carry their discriminants; legacy enums use
// declaration order.
func (ds *decodeState) decodeVariant(ty *typedesc.Type) (Value, error) {
	discriminant, err := ds.reader.DecodeUint8()
	if err != nil {
		return nil, err
	}

	var variant *typedesc.Variant
	for i := range ty.Variants {
		if ty.Variants[i].Index != nil {
			if *ty.Variants[i].Index == discriminant {
				variant = &ty.Variants[i]
				break
			}
		} else if i == int(discriminant) {
			variant = &ty.Variants[i]
			break
		}
	}
	if variant == nil {
		return nil, fmt.Errorf("%w: %d in %s", ErrInvalidVariant, discriminant, ty)
	}

	inner, err := ds.decodeVariantFields(variant)
	if err != nil {
		return nil, fmt.Errorf("variant %s: %w", variant.Name, err)
	}
	return Enum{Name: variant.Name, Value: inner}, nil
}

func (ds *decodeState) decodeVariantFields(variant *typedesc.Variant) (Value, error) {
	switch {
	case len(variant.Fields) == 0:
		return Null{}, nil
	case variant.Fields[0].Name == "":
		if len(variant.Fields) == 1 {
			return ds.decodeType(variant.Fields[0].Ty)
		}
		values := make(Tuple, len(variant.Fields))
		for i, field := range variant.Fields {
			value, err := ds.decodeType(field.Ty)
			if err != nil {
				return nil, err
			}
			values[i] = value
		}
		return values, nil
	default:
		values := make(Struct, len(variant.Fields))
		for i, field := range variant.Fields {
			value, err := ds.decodeType(field.Ty)
			if err != nil {
				return nil, err
			}
			values[i] = StructField{Name: field.Name, Value: value}
		}
		return values, nil
	}
}

func (ds *decodeState) decodeOption(inner *typedesc.Type) (Value, error) {
	tag, err := ds.reader.DecodeUint8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return Option{}, nil
	case 1:
		value, err := ds.decodeType(inner)
		if err != nil {
			return nil, err
		}
		return Option{Inner: value}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidOptionTag, tag)
	}
}

func (ds *decodeState) decodeResult(ty *typedesc.Type) (Value, error) {
	tag, err := ds.reader.DecodeUint8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		value, err := ds.decodeType(ty.Inner)
		if err != nil {
			return nil, err
		}
		return Result{OK: true, Inner: value}, nil
	case 1:
		value, err := ds.decodeType(ty.Second)
		if err != nil {
			return nil, err
		}
		return Result{Inner: value}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidResultTag, tag)
	}
}

func (ds *decodeState) decodeSet(ty *typedesc.Type) (Value, error) {
	width := ty.SetWidth
	if width == 0 {
		width = 1
	}
	raw, err := ds.reader.ReadBytes(width)
	if err != nil {
		return nil, err
	}

	var encoded uint64
	for i, b := range raw {
		encoded |= uint64(b) << (8 * i)
	}

	var members []string
	for _, member := range ty.Sets {
		if encoded&member.Bit != 0 {
			members = append(members, member.Name)
		}
	}
	return Set{Members: members, Raw: encoded}, nil
}

// decodePointer resolves a type name and decodes it. Well known
// runtime types decode directly; everything else goes through the
// resolver, with a fallback retry from the start of the value when
// the primary definition fails to decode.
func (ds *decodeState) decodePointer(name string) (Value, error) {
	clean := typedesc.Sanitize(name)

	if value, handled, err := ds.decodeWellKnown(clean); handled {
		return value, err
	}

	if ds.dec == nil || ds.dec.resolver == nil {
		return nil, fmt.Errorf("%w: %q", ErrTypeUnresolved, name)
	}
	resolved := ds.dec.resolver.Get(ds.dec.chain, ds.spec, ds.module, clean)
	if resolved == nil {
		return nil, fmt.Errorf("%w: %q", ErrTypeUnresolved, name)
	}

	start := ds.reader.Offset()
	value, err := ds.decodeType(resolved)
	if err == nil {
		return value, nil
	}

	fallback := ds.dec.resolver.TryFallback(ds.module, clean)
	if fallback == nil {
		return nil, fmt.Errorf("type %q: %w", name, err)
	}
	ds.reader.SetOffset(start)
	value, fallbackErr := ds.decodeType(fallback)
	if fallbackErr != nil {
		return nil, fmt.Errorf("type %q: %w", name, err)
	}
	return value, nil
}
