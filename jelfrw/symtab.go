package jelfrw

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/joltwallet/elf2jelf/common"
	"github.com/joltwallet/elf2jelf/elfrw"
	"github.com/joltwallet/elf2jelf/exports"
)

// ConvertSymtab re-encodes every ELF symbol against the export list and
// returns the packed JELF symbol table plus the entry point's symbol index.
// Symbol count is preserved 1:1; names absent from the export list become
// index 0, identified at load time by their section index instead.
func ConvertSymtab(symtab, strtab []byte, list *exports.List, log logr.Logger) ([]byte, int, error) {
	elfSize := elfrw.SymSchema.SizeBytes()
	jelfSize := SymSchema.SizeBytes()

	if len(symtab)%elfSize != 0 {
		return nil, 0, fmt.Errorf("%w: symtab size %d is not a multiple of %d",
			common.ErrInvalidFormat, len(symtab), elfSize)
	}
	count := len(symtab) / elfSize
	out := make([]byte, 0, count*jelfSize)
	entry := -1

	for i := 0; i < count; i++ {
		sym, err := elfrw.ParseSymbol(symtab[i*elfSize:])
		if err != nil {
			return nil, 0, fmt.Errorf("symbol %d: %w", i, err)
		}

		name := string(elfrw.IndexStrtab(strtab, sym.Name))
		nameIndex := 0
		if name == "" {
			log.V(1).Info("symbol has no name", "index", i)
		} else if nameIndex = list.Index(name); nameIndex != 0 {
			log.V(1).Info("symbol matched export", "index", i, "name", name, "export", nameIndex)
		}

		packed, err := SymSchema.Pack(uint64(nameIndex), uint64(sym.Shndx), uint64(sym.Value))
		if err != nil {
			return nil, 0, fmt.Errorf("symbol %d (%s): %w", i, name, err)
		}
		out = append(out, packed...)

		// st_shndx only stays meaningful because section enumeration
		// order is preserved through layout.
		if name == EntrySymbol {
			entry = i
		}
	}

	if entry < 0 {
		return nil, 0, fmt.Errorf("%w: no symbol named %q", common.ErrMissingEntryPoint, EntrySymbol)
	}
	return out, entry, nil
}
