package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/nightjar-mud/nightjar/pkg/value"
)

// ImageVersion is the current artifact image format version.
const ImageVersion uint16 = 1

// imageMagic marks Nightjar bytecode images.
const imageMagic = "NJBC"

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// constKind tags a constant record on the wire.
type constKind uint8

const (
	constNil constKind = iota
	constInt
	constChar
	constSymbol
	constString
)

// constRecord is the wire form of one constant pool entry.
type constRecord struct {
	Kind constKind `cbor:"k"`
	Int  int32     `cbor:"i,omitempty"`
	Char byte      `cbor:"c,omitempty"`
	Text string    `cbor:"t,omitempty"`
}

// image is the wire form of a Function.
type image struct {
	Magic     string        `cbor:"magic"`
	Version   uint16        `cbor:"version"`
	NumLocals int           `cbor:"locals"`
	Varargs   bool          `cbor:"varargs"`
	Code      []byte        `cbor:"code"`
	Constants []constRecord `cbor:"constants"`
}

// EncodeImage serializes a function artifact to a CBOR image. Only nil,
// integer, character, symbol and string constants can cross the wire; a
// pool holding live object references cannot be imaged.
func EncodeImage(fn *Function) ([]byte, error) {
	img := image{
		Magic:     imageMagic,
		Version:   ImageVersion,
		NumLocals: fn.NumLocals,
		Varargs:   fn.Varargs,
		Code:      fn.Code,
		Constants: make([]constRecord, 0, len(fn.Constants)),
	}
	for i, v := range fn.Constants {
		rec, err := encodeConstant(v)
		if err != nil {
			return nil, fmt.Errorf("bytecode: constant %d: %w", i, err)
		}
		img.Constants = append(img.Constants, rec)
	}
	return cborEncMode.Marshal(&img)
}

// DecodeImage deserializes a function artifact from a CBOR image.
func DecodeImage(data []byte) (*Function, error) {
	var img image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal image: %w", err)
	}
	if img.Magic != imageMagic {
		return nil, fmt.Errorf("bytecode: invalid image magic %q", img.Magic)
	}
	if img.Version > ImageVersion {
		return nil, fmt.Errorf("bytecode: image version %d is newer than supported version %d",
			img.Version, ImageVersion)
	}
	fn := &Function{
		NumLocals: img.NumLocals,
		Varargs:   img.Varargs,
		Code:      img.Code,
		Constants: make([]value.Value, 0, len(img.Constants)),
	}
	for i, rec := range img.Constants {
		v, err := decodeConstant(rec)
		if err != nil {
			return nil, fmt.Errorf("bytecode: constant %d: %w", i, err)
		}
		fn.Constants = append(fn.Constants, v)
	}
	return fn, nil
}

func encodeConstant(v value.Value) (constRecord, error) {
	switch v.Kind() {
	case value.KindNil:
		return constRecord{Kind: constNil}, nil
	case value.KindInt:
		return constRecord{Kind: constInt, Int: v.Int()}, nil
	case value.KindChar:
		return constRecord{Kind: constChar, Char: v.Char()}, nil
	case value.KindRef:
		switch ref := v.Ref().(type) {
		case *value.Symbol:
			return constRecord{Kind: constSymbol, Text: ref.Name()}, nil
		case string:
			return constRecord{Kind: constString, Text: ref}, nil
		default:
			return constRecord{}, fmt.Errorf("reference %T cannot be imaged", ref)
		}
	default:
		return constRecord{}, fmt.Errorf("unknown value kind %v", v.Kind())
	}
}

func decodeConstant(rec constRecord) (value.Value, error) {
	switch rec.Kind {
	case constNil:
		return value.Nil(), nil
	case constInt:
		return value.FromInt(rec.Int), nil
	case constChar:
		return value.FromChar(rec.Char), nil
	case constSymbol:
		return value.FromRef(value.Intern(rec.Text)), nil
	case constString:
		return value.FromRef(rec.Text), nil
	default:
		return value.Nil(), fmt.Errorf("unknown constant kind %d", rec.Kind)
	}
}
