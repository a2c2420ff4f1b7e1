// Package bitpack packs and unpacks fixed binary records described as an
// ordered list of named, bit-width-tagged fields.
//
// A record is a little-endian bit stream: each numeric field occupies the
// next Bits stream bits, least significant bit first, so byte-aligned
// fields come out as ordinary little-endian integers. Raw fields are
// independent byte runs kept in declared order; they must start and end on
// a byte boundary.
package bitpack

import (
	"errors"
	"fmt"
)

// Kind selects how a field's value is interpreted.
type Kind int

const (
	Uint Kind = iota
	Int
	Raw
)

type Field struct {
	Name string
	Bits int
	Kind Kind
}

// ErrFieldOverflow is returned when a value does not fit its declared
// bit width (including the sign range of Int fields).
var ErrFieldOverflow = errors.New("field overflow")

// Schema is a compiled record description. Compile once, reuse for every
// pack/unpack of that record type.
type Schema struct {
	name    string
	fields  []Field
	offsets []int
	bits    int
}

func New(name string, fields ...Field) (*Schema, error) {
	s := &Schema{
		name:    name,
		fields:  fields,
		offsets: make([]int, len(fields)),
	}
	for i, f := range fields {
		if f.Bits <= 0 || (f.Kind != Raw && f.Bits > 64) {
			return nil, fmt.Errorf("schema %s: field %s: invalid width %d", name, f.Name, f.Bits)
		}
		if f.Kind == Raw && (s.bits%8 != 0 || f.Bits%8 != 0) {
			return nil, fmt.Errorf("schema %s: raw field %s must be byte aligned", name, f.Name)
		}
		s.offsets[i] = s.bits
		s.bits += f.Bits
	}
	return s, nil
}

// MustNew is New for package-level schema variables.
func MustNew(name string, fields ...Field) *Schema {
	s, err := New(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string { return s.name }

func (s *Schema) SizeBits() int { return s.bits }

func (s *Schema) SizeBytes() int { return (s.bits + 7) / 8 }

// Pack encodes one value per declared field, in declared order. Uint fields
// take uint64, Int fields int64, Raw fields []byte (shorter runs are
// zero-padded to the field width).
func (s *Schema) Pack(values ...interface{}) ([]byte, error) {
	if len(values) != len(s.fields) {
		return nil, fmt.Errorf("schema %s: got %d values, want %d", s.name, len(values), len(s.fields))
	}
	out := make([]byte, s.SizeBytes())
	for i, f := range s.fields {
		pos := s.offsets[i]
		switch f.Kind {
		case Uint:
			v, ok := values[i].(uint64)
			if !ok {
				return nil, fmt.Errorf("schema %s: field %s: want uint64, got %T", s.name, f.Name, values[i])
			}
			if f.Bits < 64 && v > (uint64(1)<<uint(f.Bits))-1 {
				return nil, fmt.Errorf("%w: %s.%s: %d exceeds %d bits", ErrFieldOverflow, s.name, f.Name, v, f.Bits)
			}
			writeBits(out, pos, f.Bits, v)
		case Int:
			v, ok := values[i].(int64)
			if !ok {
				return nil, fmt.Errorf("schema %s: field %s: want int64, got %T", s.name, f.Name, values[i])
			}
			max := int64(1)<<uint(f.Bits-1) - 1
			min := -(int64(1) << uint(f.Bits-1))
			if v > max || v < min {
				return nil, fmt.Errorf("%w: %s.%s: %d exceeds signed %d bits", ErrFieldOverflow, s.name, f.Name, v, f.Bits)
			}
			writeBits(out, pos, f.Bits, uint64(v)&mask(f.Bits))
		case Raw:
			v, ok := values[i].([]byte)
			if !ok {
				return nil, fmt.Errorf("schema %s: field %s: want []byte, got %T", s.name, f.Name, values[i])
			}
			n := f.Bits / 8
			if len(v) > n {
				return nil, fmt.Errorf("%w: %s.%s: %d bytes exceed %d", ErrFieldOverflow, s.name, f.Name, len(v), n)
			}
			copy(out[pos/8:pos/8+n], v)
		}
	}
	return out, nil
}

// Unpack decodes a record from the front of data, which may be longer than
// the record itself.
func (s *Schema) Unpack(data []byte) (Record, error) {
	if len(data) < s.SizeBytes() {
		return Record{}, fmt.Errorf("schema %s: need %d bytes, have %d", s.name, s.SizeBytes(), len(data))
	}
	r := Record{schema: s, values: make(map[string]interface{}, len(s.fields))}
	for i, f := range s.fields {
		pos := s.offsets[i]
		switch f.Kind {
		case Uint:
			r.values[f.Name] = readBits(data, pos, f.Bits)
		case Int:
			v := readBits(data, pos, f.Bits)
			if f.Bits < 64 && v&(uint64(1)<<uint(f.Bits-1)) != 0 {
				v |= ^mask(f.Bits)
			}
			r.values[f.Name] = int64(v)
		case Raw:
			n := f.Bits / 8
			b := make([]byte, n)
			copy(b, data[pos/8:pos/8+n])
			r.values[f.Name] = b
		}
	}
	return r, nil
}

// Record holds the decoded fields of one unpacked record.
type Record struct {
	schema *Schema
	values map[string]interface{}
}

func (r Record) Uint(name string) uint64 {
	v, ok := r.values[name].(uint64)
	if !ok {
		panic(fmt.Sprintf("bitpack: %s has no uint field %s", r.schema.name, name))
	}
	return v
}

func (r Record) Int(name string) int64 {
	v, ok := r.values[name].(int64)
	if !ok {
		panic(fmt.Sprintf("bitpack: %s has no int field %s", r.schema.name, name))
	}
	return v
}

func (r Record) Raw(name string) []byte {
	v, ok := r.values[name].([]byte)
	if !ok {
		panic(fmt.Sprintf("bitpack: %s has no raw field %s", r.schema.name, name))
	}
	return v
}

func mask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bits)) - 1
}

func writeBits(buf []byte, pos, width int, v uint64) {
	for i := 0; i < width; i++ {
		if v&(uint64(1)<<uint(i)) != 0 {
			p := pos + i
			buf[p/8] |= 1 << uint(p%8)
		}
	}
}

func readBits(buf []byte, pos, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		p := pos + i
		if buf[p/8]&(1<<uint(p%8)) != 0 {
			v |= uint64(1) << uint(i)
		}
	}
	return v
}
