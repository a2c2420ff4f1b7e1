// Package jelfrw re-encodes a parsed ELF32/Xtensa object into the compact,
// signable JELF format the embedded application loader consumes.
package jelfrw

import "github.com/joltwallet/elf2jelf/bitpack"

// Reduced section types. Anything that is not a relocation table, NOBITS
// region or the re-encoded symbol table collapses to Other.
const (
	SHTOther  = 0
	SHTRela   = 1
	SHTNobits = 2
	SHTSymtab = 3
)

// Reduced section flags.
const (
	SHFAlloc     = 0x1
	SHFExecinstr = 0x2
)

// Reduced relocation types, stored in the low 2 bits of r_info.
const (
	RNone      = 0
	R32        = 1
	RAsmExpand = 2
	RSlot0Op   = 3
)

// EntrySymbol names the function the loader jumps to.
const EntrySymbol = "app_main"

// Harden marks a key-derivation path component as hardened.
const Harden = 0x80000000

// maxOffset is the layout budget for resolved section offsets.
const maxOffset = 1<<19 - 1

// Magic identifies a JELF file.
var Magic = []byte{0x7f, 'J', 'E', 'L', 'F', 0}

var (
	HeaderSchema = bitpack.MustNew("Jelf_Ehdr",
		bitpack.Field{Name: "e_ident", Bits: 8 * 6, Kind: bitpack.Raw},
		bitpack.Field{Name: "e_signature", Bits: 8 * 32, Kind: bitpack.Raw},
		bitpack.Field{Name: "e_public_key", Bits: 8 * 32, Kind: bitpack.Raw},
		bitpack.Field{Name: "e_version_major", Bits: 8, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_version_minor", Bits: 8, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_entry_index", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_shnum", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_shoff", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_coin_purpose", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_coin_path", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_bip32key", Bits: 8 * 32, Kind: bitpack.Raw},
	)

	ShdrSchema = bitpack.MustNew("Jelf_Shdr",
		bitpack.Field{Name: "sh_type", Bits: 2, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_flags", Bits: 2, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_offset", Bits: 19, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_size", Bits: 19, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_info", Bits: 14, Kind: bitpack.Uint},
	)

	SymSchema = bitpack.MustNew("Jelf_Sym",
		bitpack.Field{Name: "st_name", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "st_shndx", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "st_value", Bits: 32, Kind: bitpack.Uint},
	)

	RelaSchema = bitpack.MustNew("Jelf_Rela",
		bitpack.Field{Name: "r_offset", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "r_info", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "r_addend", Bits: 16, Kind: bitpack.Int},
	)
)

// SectionHeader is a converted section descriptor. Offset stays zero until
// layout resolves it; a nil *SectionHeader in a converted table marks a
// section stripped from the output.
type SectionHeader struct {
	Type   uint32
	Flags  uint32
	Offset uint32
	Size   uint32
	Info   uint32
}

// Params carries the caller-supplied values synthesized into the header.
type Params struct {
	Purpose  uint32
	Coin     uint32
	BIP32Key string
}
