package bitpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := New("test_record",
		Field{Name: "tag", Bits: 8 * 4, Kind: Raw},
		Field{Name: "kind", Bits: 2, Kind: Uint},
		Field{Name: "flags", Bits: 2, Kind: Uint},
		Field{Name: "offset", Bits: 19, Kind: Uint},
		Field{Name: "size", Bits: 19, Kind: Uint},
		Field{Name: "info", Bits: 14, Kind: Uint},
		Field{Name: "addend", Bits: 16, Kind: Int},
	)
	require.NoError(t, err)
	return s
}

func TestSchemaSizes(t *testing.T) {
	s := testSchema(t)
	assert.Equal(t, 32+2+2+19+19+14+16, s.SizeBits())
	assert.Equal(t, 13, s.SizeBytes())
}

func TestPackUnpackRoundTrip(t *testing.T) {
	s := testSchema(t)
	for _, tc := range []struct {
		name         string
		kind, flags  uint64
		offset, size uint64
		info         uint64
		addend       int64
	}{
		{name: "zeros"},
		{name: "max", kind: 3, flags: 3, offset: 1<<19 - 1, size: 1<<19 - 1, info: 1<<14 - 1, addend: 1<<15 - 1},
		{name: "min addend", addend: -(1 << 15)},
		{name: "mixed", kind: 1, flags: 2, offset: 0x6fa3, size: 42, info: 9000, addend: -7},
	} {
		t.Run(tc.name, func(t *testing.T) {
			packed, err := s.Pack([]byte("JELF"), tc.kind, tc.flags, tc.offset, tc.size, tc.info, tc.addend)
			require.NoError(t, err)
			require.Len(t, packed, s.SizeBytes())

			rec, err := s.Unpack(packed)
			require.NoError(t, err)
			assert.Equal(t, []byte("JELF"), rec.Raw("tag"))
			assert.Equal(t, tc.kind, rec.Uint("kind"))
			assert.Equal(t, tc.flags, rec.Uint("flags"))
			assert.Equal(t, tc.offset, rec.Uint("offset"))
			assert.Equal(t, tc.size, rec.Uint("size"))
			assert.Equal(t, tc.info, rec.Uint("info"))
			assert.Equal(t, tc.addend, rec.Int("addend"))
		})
	}
}

func TestUintOverflowBoundary(t *testing.T) {
	s, err := New("bounds", Field{Name: "v", Bits: 19, Kind: Uint})
	require.NoError(t, err)

	_, err = s.Pack(uint64(1<<19 - 1))
	assert.NoError(t, err, "2^19-1 must fit")

	_, err = s.Pack(uint64(1 << 19))
	assert.ErrorIs(t, err, ErrFieldOverflow, "2^19 must overflow")
}

func TestIntOverflowBoundary(t *testing.T) {
	s, err := New("bounds", Field{Name: "v", Bits: 16, Kind: Int})
	require.NoError(t, err)

	for _, v := range []int64{1<<15 - 1, -(1 << 15)} {
		_, err := s.Pack(v)
		assert.NoError(t, err, "%d must fit", v)
	}
	for _, v := range []int64{1 << 15, -(1 << 15) - 1} {
		_, err := s.Pack(v)
		assert.ErrorIs(t, err, ErrFieldOverflow, "%d must overflow", v)
	}
}

func TestRawField(t *testing.T) {
	s, err := New("raw", Field{Name: "key", Bits: 8 * 8, Kind: Raw})
	require.NoError(t, err)

	// Short values are zero-padded to the field width.
	packed, err := s.Pack([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 'b', 'c', 0, 0, 0, 0, 0}, packed)

	_, err = s.Pack([]byte("123456789"))
	assert.ErrorIs(t, err, ErrFieldOverflow, "9 bytes must not fit an 8-byte field")
}

func TestRawFieldAlignment(t *testing.T) {
	_, err := New("misaligned",
		Field{Name: "bits", Bits: 3, Kind: Uint},
		Field{Name: "run", Bits: 16, Kind: Raw},
	)
	assert.Error(t, err, "raw field off a byte boundary must be rejected at schema compile time")

	_, err = New("ragged", Field{Name: "run", Bits: 12, Kind: Raw})
	assert.Error(t, err, "raw field width must be a whole number of bytes")
}

func TestLittleEndianLayout(t *testing.T) {
	s, err := New("le",
		Field{Name: "a", Bits: 16, Kind: Uint},
		Field{Name: "b", Bits: 32, Kind: Uint},
	)
	require.NoError(t, err)

	packed, err := s.Pack(uint64(0x1234), uint64(0xdeadbeef))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x34, 0x12, 0xef, 0xbe, 0xad, 0xde}, packed)
}

func TestSubByteLayout(t *testing.T) {
	s, err := New("bits",
		Field{Name: "a", Bits: 2, Kind: Uint},
		Field{Name: "b", Bits: 2, Kind: Uint},
		Field{Name: "c", Bits: 4, Kind: Uint},
	)
	require.NoError(t, err)

	// LSB-first: a in bits 0-1, b in bits 2-3, c in bits 4-7.
	packed, err := s.Pack(uint64(1), uint64(2), uint64(9))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x99}, packed)
}

func TestUnpackShortBuffer(t *testing.T) {
	s := testSchema(t)
	_, err := s.Unpack(make([]byte, s.SizeBytes()-1))
	assert.Error(t, err)
}

func TestUnpackConsumesPrefix(t *testing.T) {
	s, err := New("prefix", Field{Name: "v", Bits: 16, Kind: Uint})
	require.NoError(t, err)

	rec, err := s.Unpack([]byte{0x01, 0x02, 0xff, 0xff, 0xff})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0201), rec.Uint("v"))
}

func TestPackWrongValueCount(t *testing.T) {
	s := testSchema(t)
	_, err := s.Pack(uint64(1))
	assert.Error(t, err)
}
