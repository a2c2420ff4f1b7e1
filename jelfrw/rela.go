package jelfrw

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/joltwallet/elf2jelf/common"
	"github.com/joltwallet/elf2jelf/elfrw"
)

// relaType maps an ELF Xtensa relocation type byte to its reduced 2-bit
// JELF code. The embedded loader only understands these four kinds.
func relaType(elfType uint32) (uint32, error) {
	switch elfType {
	case elfrw.RXtensaNone:
		return RNone, nil
	case elfrw.RXtensa32:
		return R32, nil
	case elfrw.RXtensaAsmExpand:
		return RAsmExpand, nil
	case elfrw.RXtensaSlot0Op:
		return RSlot0Op, nil
	default:
		return 0, fmt.Errorf("%w: %d", common.ErrUnsupportedRelocation, elfType)
	}
}

// ConvertRelas re-encodes every relocation entry of every RELA section and
// shrinks the owning converted header's size to the new record width. The
// returned map is keyed by original section index.
func ConvertRelas(raw []byte, sections []elfrw.Section, headers []*SectionHeader, log logr.Logger) (map[int][]byte, error) {
	elfSize := elfrw.RelaSchema.SizeBytes()
	jelfSize := RelaSchema.SizeBytes()

	relas := make(map[int][]byte)
	for i, sh := range headers {
		if sh.Type != SHTRela {
			continue
		}
		sec := &sections[i]
		if sec.Header.Size%uint32(elfSize) != 0 {
			return nil, fmt.Errorf("%w: section %s: size %d is not a multiple of %d",
				common.ErrInvalidFormat, sec.Name, sec.Header.Size, elfSize)
		}
		body, err := sec.Body(raw)
		if err != nil {
			return nil, err
		}

		count := int(sec.Header.Size) / elfSize
		sh.Size = uint32(count * jelfSize)
		out := make([]byte, 0, count*jelfSize)

		for j := 0; j < count; j++ {
			rela, err := elfrw.ParseRela(body[j*elfSize:])
			if err != nil {
				return nil, fmt.Errorf("section %s, relocation %d: %w", sec.Name, j, err)
			}

			reduced, err := relaType(rela.Info & 0xff)
			if err != nil {
				return nil, fmt.Errorf("section %s, relocation %d: %w", sec.Name, j, err)
			}
			// Symbol index moves from bits 8.. to bits 2.., leaving the
			// low 2 bits for the reduced type.
			info := ((rela.Info &^ 0xff) >> 8 << 2) | reduced

			packed, err := RelaSchema.Pack(uint64(rela.Offset), uint64(info), int64(rela.Addend))
			if err != nil {
				return nil, fmt.Errorf("section %s, relocation %d: %w", sec.Name, j, err)
			}
			out = append(out, packed...)
		}

		log.V(1).Info("converted relocations", "section", sec.Name, "entries", count, "size", sh.Size)
		relas[i] = out
	}
	return relas, nil
}
