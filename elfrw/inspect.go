package elfrw

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/yalue/elf_reader"
)

// Inspect prints a structural summary of the input ELF through the given
// logger. It runs over the generic elf_reader view rather than our own
// parser so the dump is useful even for objects the converter rejects.
func Inspect(raw []byte, log logr.Logger) error {
	f, err := elf_reader.ParseELFFile(raw)
	if err != nil {
		return fmt.Errorf("failed to parse ELF file: %w", err)
	}

	log.Info("input ELF",
		"size", len(raw),
		"type", uint16(f.GetFileType()),
		"sections", f.GetSectionCount(),
		"segments", f.GetSegmentCount())

	for i := uint16(0); i < f.GetSectionCount(); i++ {
		hdr, err := f.GetSectionHeader(i)
		if err != nil {
			return fmt.Errorf("failed to read section header %d: %w", i, err)
		}
		name, _ := f.GetSectionName(i)
		flags := hdr.GetFlags()
		log.Info("section",
			"index", i,
			"name", name,
			"type", uint32(hdr.GetType()),
			"offset", hdr.GetFileOffset(),
			"size", hdr.GetSize(),
			"alloc", flags.Allocated(),
			"exec", flags.Executable(),
			"write", flags.Writable(),
			"strtab", f.IsStringTable(i),
			"symtab", f.IsSymbolTable(i),
			"rela", f.IsRelocationTable(i))
	}
	return nil
}
