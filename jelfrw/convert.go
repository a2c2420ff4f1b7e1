package jelfrw

import (
	"github.com/go-logr/logr"
	"github.com/joltwallet/elf2jelf/elfrw"
	"github.com/joltwallet/elf2jelf/exports"
)

// Convert turns a complete ELF32/Xtensa object image into a JELF image.
// The transform is pure and fail-fast: either every stage succeeds and the
// final image is returned, or the first error aborts with nothing written.
func Convert(raw []byte, list *exports.List, p Params, log logr.Logger) ([]byte, error) {
	hdr, err := elfrw.ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	log.Info("parsed ELF header", "sections", hdr.Shnum, "shoff", hdr.Shoff)

	shstrtab, err := elfrw.ReadShstrtab(raw, hdr)
	if err != nil {
		return nil, err
	}
	sections, err := elfrw.ReadSections(raw, hdr, shstrtab)
	if err != nil {
		return nil, err
	}
	symtabRaw, strtabRaw, err := elfrw.SymtabAndStrtab(raw, sections)
	if err != nil {
		return nil, err
	}

	headers, err := ConvertSectionHeaders(sections, log)
	if err != nil {
		return nil, err
	}
	symtab, entry, err := ConvertSymtab(symtabRaw, strtabRaw, list, log)
	if err != nil {
		return nil, err
	}
	log.Info("converted symbol table", "symbols", len(symtab)/SymSchema.SizeBytes(), "entry", entry)

	relas, err := ConvertRelas(raw, sections, headers, log)
	if err != nil {
		return nil, err
	}

	buf, shoff, err := writeSections(raw, sections, headers, symtab, relas, log)
	if err != nil {
		return nil, err
	}
	buf, count, err := writeSectionTable(buf, headers, shoff, log)
	if err != nil {
		return nil, err
	}

	header, err := buildHeader(list, entry, count, shoff, p)
	if err != nil {
		return nil, err
	}
	copy(buf[:len(header)], header)

	log.Info("conversion complete", "size", len(buf), "sections", count)
	return buf, nil
}
