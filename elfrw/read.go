package elfrw

import (
	"bytes"
	"fmt"

	"github.com/joltwallet/elf2jelf/common"
)

// expectedIdent is the 16-byte identification prefix of a 32-bit
// little-endian version-1 ELF object.
var expectedIdent = []byte{0x7f, 'E', 'L', 'F', 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0}

// ParseHeader unpacks and validates the ELF file header.
func ParseHeader(raw []byte) (*Header, error) {
	rec, err := EhdrSchema.Unpack(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidFormat, err)
	}
	hdr := &Header{
		Ident:     rec.Raw("e_ident"),
		Type:      uint16(rec.Uint("e_type")),
		Machine:   uint16(rec.Uint("e_machine")),
		Version:   uint32(rec.Uint("e_version")),
		Entry:     uint32(rec.Uint("e_entry")),
		Phoff:     uint32(rec.Uint("e_phoff")),
		Shoff:     uint32(rec.Uint("e_shoff")),
		Flags:     uint32(rec.Uint("e_flags")),
		Ehsize:    uint16(rec.Uint("e_ehsize")),
		Phentsize: uint16(rec.Uint("e_phentsize")),
		Phnum:     uint16(rec.Uint("e_phnum")),
		Shentsize: uint16(rec.Uint("e_shentsize")),
		Shnum:     uint16(rec.Uint("e_shnum")),
		Shstrndx:  uint16(rec.Uint("e_shstrndx")),
	}
	if !bytes.Equal(hdr.Ident, expectedIdent) {
		return nil, fmt.Errorf("%w: bad identification bytes % x", common.ErrInvalidFormat, hdr.Ident)
	}
	if hdr.Machine != MachineXtensa {
		return nil, fmt.Errorf("%w: machine %d, want Xtensa (%d)", common.ErrInvalidFormat, hdr.Machine, MachineXtensa)
	}
	return hdr, nil
}

func parseSectionHeader(raw []byte, offset uint32) (SectionHeader, error) {
	if int64(offset) > int64(len(raw)) {
		return SectionHeader{}, fmt.Errorf("%w: section header offset %d beyond file end", common.ErrInvalidFormat, offset)
	}
	rec, err := ShdrSchema.Unpack(raw[offset:])
	if err != nil {
		return SectionHeader{}, fmt.Errorf("%w: %v", common.ErrInvalidFormat, err)
	}
	return SectionHeader{
		NameOffset: uint32(rec.Uint("sh_name")),
		Type:       uint32(rec.Uint("sh_type")),
		Flags:      uint32(rec.Uint("sh_flags")),
		Addr:       uint32(rec.Uint("sh_addr")),
		Offset:     uint32(rec.Uint("sh_offset")),
		Size:       uint32(rec.Uint("sh_size")),
		Link:       uint32(rec.Uint("sh_link")),
		Info:       uint32(rec.Uint("sh_info")),
		Addralign:  uint32(rec.Uint("sh_addralign")),
		Entsize:    uint32(rec.Uint("sh_entsize")),
	}, nil
}

// ReadShstrtab locates the section-header string table via e_shstrndx and
// returns its body. The table's own name must resolve to ".shstrtab"; a
// mismatch means the file is internally inconsistent.
func ReadShstrtab(raw []byte, hdr *Header) ([]byte, error) {
	if hdr.Shstrndx == 0 || hdr.Shstrndx >= hdr.Shnum {
		return nil, fmt.Errorf("%w: %s: e_shstrndx %d of %d sections",
			common.ErrMissingSection, SectionShstrtab, hdr.Shstrndx, hdr.Shnum)
	}
	offset := hdr.Shoff + uint32(hdr.Shstrndx)*uint32(ShdrSchema.SizeBytes())
	sh, err := parseSectionHeader(raw, offset)
	if err != nil {
		return nil, err
	}
	body, err := sliceSection(raw, sh.Offset, sh.Size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SectionShstrtab, err)
	}
	if name := IndexStrtab(body, sh.NameOffset); !bytes.Equal(name, []byte(SectionShstrtab)) {
		return nil, fmt.Errorf("%w: section header string table resolves to %q, want %q",
			common.ErrInvalidFormat, name, SectionShstrtab)
	}
	return body, nil
}

// ReadSections walks all e_shnum section headers in file order and resolves
// each name against the section-header string table.
func ReadSections(raw []byte, hdr *Header, shstrtab []byte) ([]Section, error) {
	sections := make([]Section, 0, hdr.Shnum)
	for i := 0; i < int(hdr.Shnum); i++ {
		offset := hdr.Shoff + uint32(i)*uint32(ShdrSchema.SizeBytes())
		sh, err := parseSectionHeader(raw, offset)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		sections = append(sections, Section{
			Header: sh,
			Name:   string(IndexStrtab(shstrtab, sh.NameOffset)),
			Index:  i,
		})
	}
	return sections, nil
}

// SymtabAndStrtab returns the raw bodies of .symtab and .strtab, both of
// which symbol conversion requires.
func SymtabAndStrtab(raw []byte, sections []Section) (symtab, strtab []byte, err error) {
	for _, sec := range sections {
		switch sec.Name {
		case SectionSymtab:
			if symtab, err = sec.Body(raw); err != nil {
				return nil, nil, err
			}
		case SectionStrtab:
			if strtab, err = sec.Body(raw); err != nil {
				return nil, nil, err
			}
		}
	}
	if symtab == nil {
		return nil, nil, fmt.Errorf("%w: %s", common.ErrMissingSection, SectionSymtab)
	}
	if strtab == nil {
		return nil, nil, fmt.Errorf("%w: %s", common.ErrMissingSection, SectionStrtab)
	}
	return symtab, strtab, nil
}

// Body returns the section's byte range within the file image.
func (s *Section) Body(raw []byte) ([]byte, error) {
	body, err := sliceSection(raw, s.Header.Offset, s.Header.Size)
	if err != nil {
		return nil, fmt.Errorf("section %s: %w", s.Name, err)
	}
	return body, nil
}

// ParseSymbol unpacks one symbol table entry from the front of data.
func ParseSymbol(data []byte) (Symbol, error) {
	rec, err := SymSchema.Unpack(data)
	if err != nil {
		return Symbol{}, fmt.Errorf("%w: %v", common.ErrInvalidFormat, err)
	}
	return Symbol{
		Name:  uint32(rec.Uint("st_name")),
		Value: uint32(rec.Uint("st_value")),
		Size:  uint32(rec.Uint("st_size")),
		Info:  rec.Raw("st_info")[0],
		Other: rec.Raw("st_other")[0],
		Shndx: uint16(rec.Uint("st_shndx")),
	}, nil
}

// ParseRela unpacks one RELA entry from the front of data.
func ParseRela(data []byte) (Rela, error) {
	rec, err := RelaSchema.Unpack(data)
	if err != nil {
		return Rela{}, fmt.Errorf("%w: %v", common.ErrInvalidFormat, err)
	}
	return Rela{
		Offset: uint32(rec.Uint("r_offset")),
		Info:   uint32(rec.Uint("r_info")),
		Addend: int32(rec.Int("r_addend")),
	}, nil
}

// IndexStrtab returns the NUL-terminated byte run starting at offset. This
// is the universal lookup for both section and symbol names.
func IndexStrtab(table []byte, offset uint32) []byte {
	if int64(offset) >= int64(len(table)) {
		return nil
	}
	end := bytes.IndexByte(table[offset:], 0)
	if end < 0 {
		return table[offset:]
	}
	return table[offset : int(offset)+end]
}

func sliceSection(raw []byte, offset, size uint32) ([]byte, error) {
	end := int64(offset) + int64(size)
	if end > int64(len(raw)) {
		return nil, fmt.Errorf("%w: range [%d, %d) exceeds file size %d",
			common.ErrInvalidFormat, offset, end, len(raw))
	}
	return raw[offset:end], nil
}
