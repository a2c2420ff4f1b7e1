package elfrw

import "github.com/joltwallet/elf2jelf/bitpack"

// Machine id of the Xtensa cores the embedded runtime executes on.
const MachineXtensa = 94

// Section header types and flags the conversion distinguishes; everything
// else is collapsed on the JELF side.
const (
	SHTRela   = 4
	SHTNobits = 8

	SHFAlloc     = 0x2
	SHFExecinstr = 0x4
)

// Xtensa relocation types understood by the embedded loader.
const (
	RXtensaNone      = 0
	RXtensa32        = 1
	RXtensaAsmExpand = 11
	RXtensaSlot0Op   = 20
)

const (
	SectionSymtab   = ".symtab"
	SectionStrtab   = ".strtab"
	SectionShstrtab = ".shstrtab"
)

var (
	EhdrSchema = bitpack.MustNew("Elf32_Ehdr",
		bitpack.Field{Name: "e_ident", Bits: 8 * 16, Kind: bitpack.Raw},
		bitpack.Field{Name: "e_type", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_machine", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_version", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_entry", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_phoff", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_shoff", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_flags", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_ehsize", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_phentsize", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_phnum", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_shentsize", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_shnum", Bits: 16, Kind: bitpack.Uint},
		bitpack.Field{Name: "e_shstrndx", Bits: 16, Kind: bitpack.Uint},
	)

	ShdrSchema = bitpack.MustNew("Elf32_Shdr",
		bitpack.Field{Name: "sh_name", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_type", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_flags", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_addr", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_offset", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_size", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_link", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_info", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_addralign", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "sh_entsize", Bits: 32, Kind: bitpack.Uint},
	)

	SymSchema = bitpack.MustNew("Elf32_Sym",
		bitpack.Field{Name: "st_name", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "st_value", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "st_size", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "st_info", Bits: 8, Kind: bitpack.Raw},
		bitpack.Field{Name: "st_other", Bits: 8, Kind: bitpack.Raw},
		bitpack.Field{Name: "st_shndx", Bits: 16, Kind: bitpack.Uint},
	)

	RelaSchema = bitpack.MustNew("Elf32_Rela",
		bitpack.Field{Name: "r_offset", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "r_info", Bits: 32, Kind: bitpack.Uint},
		bitpack.Field{Name: "r_addend", Bits: 32, Kind: bitpack.Int},
	)
)

// Header is the fixed 52-byte ELF32 file header.
type Header struct {
	Ident     []byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

// SectionHeader is one 40-byte ELF32 section descriptor.
type SectionHeader struct {
	NameOffset uint32
	Type       uint32
	Flags      uint32
	Addr       uint32
	Offset     uint32
	Size       uint32
	Link       uint32
	Info       uint32
	Addralign  uint32
	Entsize    uint32
}

// Section pairs a parsed header with its resolved name and original index.
type Section struct {
	Header SectionHeader
	Name   string
	Index  int
}

// Symbol is one 16-byte ELF32 symbol table entry.
type Symbol struct {
	Name  uint32
	Value uint32
	Size  uint32
	Info  byte
	Other byte
	Shndx uint16
}

// Rela is one 12-byte ELF32 RELA relocation entry.
type Rela struct {
	Offset uint32
	Info   uint32
	Addend int32
}
