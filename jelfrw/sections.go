package jelfrw

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/joltwallet/elf2jelf/common"
	"github.com/joltwallet/elf2jelf/elfrw"
)

// ConvertSectionHeaders maps every ELF section header to its reduced JELF
// form, in original order. Offsets are resolved later by layout; symtab and
// relocation sizes are rewritten once their converted payloads exist.
func ConvertSectionHeaders(sections []elfrw.Section, log logr.Logger) ([]*SectionHeader, error) {
	headers := make([]*SectionHeader, 0, len(sections))
	for _, sec := range sections {
		sh := &SectionHeader{}

		switch sec.Header.Type {
		case elfrw.SHTRela:
			sh.Type = SHTRela
		case elfrw.SHTNobits:
			sh.Type = SHTNobits
		default:
			sh.Type = SHTOther
		}

		if sec.Header.Flags&elfrw.SHFAlloc != 0 {
			sh.Flags |= SHFAlloc
		}
		if sec.Header.Flags&elfrw.SHFExecinstr != 0 {
			sh.Flags |= SHFExecinstr
		}

		if sec.Header.Size > 1<<19-1 {
			return nil, fmt.Errorf("%w: section %s: sh_size %d exceeds 19 bits",
				common.ErrFieldOverflow, sec.Name, sec.Header.Size)
		}
		sh.Size = sec.Header.Size

		if sec.Header.Info > 1<<14-1 {
			return nil, fmt.Errorf("%w: section %s: sh_info %d exceeds 14 bits",
				common.ErrFieldOverflow, sec.Name, sec.Header.Info)
		}
		sh.Info = sec.Header.Info

		log.V(1).Info("converted section header",
			"index", sec.Index, "name", sec.Name,
			"type", sh.Type, "flags", sh.Flags, "size", sh.Size, "info", sh.Info)
		headers = append(headers, sh)
	}
	return headers, nil
}
