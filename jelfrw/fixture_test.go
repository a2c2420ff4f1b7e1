package jelfrw

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joltwallet/elf2jelf/elfrw"
)

type testSection struct {
	name  string
	typ   uint32
	flags uint32
	info  uint32
	body  []byte
	// size overrides len(body) without emitting bytes, for NOBITS regions.
	size uint32
}

// buildELF assembles an ELF32/Xtensa image from the given sections: file
// header, bodies in order, then the section header table. The .shstrtab
// section's body is the generated name table.
func buildELF(t *testing.T, secs []testSection) []byte {
	t.Helper()

	shstrtab := []byte{0}
	nameOff := make([]uint32, len(secs))
	shstrndx := -1
	for i, s := range secs {
		nameOff[i] = uint32(len(shstrtab))
		shstrtab = append(shstrtab, s.name...)
		shstrtab = append(shstrtab, 0)
		if s.name == elfrw.SectionShstrtab {
			shstrndx = i
		}
	}
	require.GreaterOrEqual(t, shstrndx, 0, "fixture needs a .shstrtab section")

	bodies := make([][]byte, len(secs))
	sizes := make([]uint32, len(secs))
	for i, s := range secs {
		bodies[i] = s.body
		sizes[i] = uint32(len(s.body))
		if s.size != 0 {
			bodies[i] = nil
			sizes[i] = s.size
		}
	}
	bodies[shstrndx] = shstrtab
	sizes[shstrndx] = uint32(len(shstrtab))

	offsets := make([]uint32, len(secs))
	cursor := uint32(elfrw.EhdrSchema.SizeBytes())
	for i := range bodies {
		offsets[i] = cursor
		cursor += uint32(len(bodies[i]))
	}
	shoff := cursor

	ehdr, err := elfrw.EhdrSchema.Pack(
		[]byte{0x7f, 'E', 'L', 'F', 1, 1, 1},
		uint64(1), uint64(elfrw.MachineXtensa), uint64(1),
		uint64(0), uint64(0), uint64(shoff), uint64(0),
		uint64(elfrw.EhdrSchema.SizeBytes()), uint64(0), uint64(0),
		uint64(elfrw.ShdrSchema.SizeBytes()), uint64(len(secs)), uint64(shstrndx),
	)
	require.NoError(t, err)

	out := append([]byte{}, ehdr...)
	for _, b := range bodies {
		out = append(out, b...)
	}
	for i, s := range secs {
		sh, err := elfrw.ShdrSchema.Pack(
			uint64(nameOff[i]), uint64(s.typ), uint64(s.flags), uint64(0),
			uint64(offsets[i]), uint64(sizes[i]), uint64(0), uint64(s.info),
			uint64(0), uint64(0),
		)
		require.NoError(t, err)
		out = append(out, sh...)
	}
	return out
}

// readSections parses the fixture back into the converter's input form.
func readSections(t *testing.T, raw []byte) []elfrw.Section {
	t.Helper()
	hdr, err := elfrw.ParseHeader(raw)
	require.NoError(t, err)
	shstrtab, err := elfrw.ReadShstrtab(raw, hdr)
	require.NoError(t, err)
	sections, err := elfrw.ReadSections(raw, hdr, shstrtab)
	require.NoError(t, err)
	return sections
}

func packElfSym(t *testing.T, name, value uint32, shndx uint16) []byte {
	t.Helper()
	b, err := elfrw.SymSchema.Pack(
		uint64(name), uint64(value), uint64(0),
		[]byte{0x12}, []byte{0}, uint64(shndx),
	)
	require.NoError(t, err)
	return b
}

func packElfRela(t *testing.T, offset, info uint32, addend int32) []byte {
	t.Helper()
	b, err := elfrw.RelaSchema.Pack(uint64(offset), uint64(info), int64(addend))
	require.NoError(t, err)
	return b
}
