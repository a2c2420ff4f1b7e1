package jelfrw

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joltwallet/elf2jelf/common"
	"github.com/joltwallet/elf2jelf/exports"
)

// strtab: \0 jelf_malloc@1 app_main@13 helper@22
var symStrtab = []byte("\x00jelf_malloc\x00app_main\x00helper\x00")

func symList() *exports.List {
	return &exports.List{
		Names: []string{"jelf_print", "jelf_malloc", "app_main"},
		Major: 2, Minor: 1,
	}
}

func TestConvertSymtabExportBijection(t *testing.T) {
	symtab := append([]byte{}, packElfSym(t, 0, 0, 0)...)             // unnamed
	symtab = append(symtab, packElfSym(t, 1, 0x4000, 1)...)          // jelf_malloc, exported
	symtab = append(symtab, packElfSym(t, 22, 0x4010, 1)...)         // helper, internal
	symtab = append(symtab, packElfSym(t, 13, 0x4020, 2)...)         // app_main, entry

	out, entry, err := ConvertSymtab(symtab, symStrtab, symList(), logr.Discard())
	require.NoError(t, err)
	assert.Equal(t, 3, entry)
	require.Len(t, out, 4*SymSchema.SizeBytes(), "symbol count preserved 1:1")

	want := []struct {
		name  uint64
		shndx uint64
		value uint64
	}{
		{0, 0, 0},
		{2, 1, 0x4000}, // 1-based export index
		{0, 1, 0x4010}, // internal: section index identifies it
		{3, 2, 0x4020},
	}
	for i, w := range want {
		rec, err := SymSchema.Unpack(out[i*SymSchema.SizeBytes():])
		require.NoError(t, err)
		assert.Equal(t, w.name, rec.Uint("st_name"), "symbol %d name index", i)
		assert.Equal(t, w.shndx, rec.Uint("st_shndx"), "symbol %d shndx", i)
		assert.Equal(t, w.value, rec.Uint("st_value"), "symbol %d value", i)
	}
}

func TestConvertSymtabEmptyNameSkipsEntry(t *testing.T) {
	symtab := append([]byte{}, packElfSym(t, 0, 0, 0)...)
	symtab = append(symtab, packElfSym(t, 13, 0x4020, 1)...) // app_main

	out, entry, err := ConvertSymtab(symtab, symStrtab, symList(), logr.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1, entry, "unnamed symbols must not alter entry resolution")

	rec, err := SymSchema.Unpack(out)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), rec.Uint("st_name"))
}

func TestConvertSymtabMissingEntryPoint(t *testing.T) {
	symtab := packElfSym(t, 22, 0x4010, 1) // helper only

	_, _, err := ConvertSymtab(symtab, symStrtab, symList(), logr.Discard())
	assert.ErrorIs(t, err, common.ErrMissingEntryPoint)
}

func TestConvertSymtabDuplicateEntryLastWins(t *testing.T) {
	symtab := append([]byte{}, packElfSym(t, 13, 0x4000, 1)...)
	symtab = append(symtab, packElfSym(t, 13, 0x4020, 1)...)

	_, entry, err := ConvertSymtab(symtab, symStrtab, symList(), logr.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1, entry)
}

func TestConvertSymtabRaggedTable(t *testing.T) {
	symtab := packElfSym(t, 13, 0, 0)
	_, _, err := ConvertSymtab(symtab[:len(symtab)-1], symStrtab, symList(), logr.Discard())
	assert.ErrorIs(t, err, common.ErrInvalidFormat)
}
