package jelfrw

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/joltwallet/elf2jelf/common"
	"github.com/joltwallet/elf2jelf/elfrw"
)

// writeSections lays every retained section out contiguously after the
// header region, in original enumeration order, resolving each converted
// header's offset to its final position. Stripped sections are marked nil
// in headers. The buffer is sized to the input image plus the NOBITS space
// the output must reserve, and is trimmed by writeSectionTable.
func writeSections(raw []byte, sections []elfrw.Section, headers []*SectionHeader,
	symtab []byte, relas map[int][]byte, log logr.Logger) ([]byte, int, error) {

	if len(headers) != len(sections) {
		return nil, 0, fmt.Errorf("%w: %d converted headers for %d sections",
			common.ErrInvalidFormat, len(headers), len(sections))
	}

	// A NOBITS region occupies output bytes that have no input counterpart,
	// so the input size alone can undershoot.
	bufSize := len(raw)
	for _, sh := range headers {
		if sh != nil && sh.Type == SHTNobits {
			bufSize += int(sh.Size)
		}
	}

	buf := make([]byte, bufSize)
	cursor := HeaderSchema.SizeBytes()
	stripped := false

	for i := range sections {
		sec := &sections[i]
		sh := headers[i]

		var data []byte
		switch {
		case sec.Name == elfrw.SectionStrtab || sec.Name == elfrw.SectionShstrtab:
			headers[i] = nil
			stripped = true
			continue
		case sec.Name == elfrw.SectionSymtab:
			sh.Size = uint32(len(symtab))
			sh.Type = SHTSymtab
			data = symtab
		case sh.Type == SHTRela:
			data = relas[sec.Index]
		case sh.Type == SHTNobits:
			// Occupies sh.Size zeroed bytes; there is no file content
			// to copy.
		default:
			body, err := sec.Body(raw)
			if err != nil {
				return nil, 0, err
			}
			data = body
		}

		// Symbols carry original section indices, so no stripped section
		// may precede a retained one.
		if stripped {
			return nil, 0, fmt.Errorf("%w: section %s follows a stripped string table",
				common.ErrInvalidFormat, sec.Name)
		}

		if cursor > maxOffset {
			return nil, 0, fmt.Errorf("%w: section %s: offset %d exceeds 19 bits",
				common.ErrFieldOverflow, sec.Name, cursor)
		}
		sh.Offset = uint32(cursor)

		end := cursor + int(sh.Size)
		if end > len(buf) {
			return nil, 0, fmt.Errorf("%w: section %s: output range [%d, %d) exceeds buffer size %d",
				common.ErrInvalidFormat, sec.Name, cursor, end, len(buf))
		}
		copy(buf[cursor:end], data)

		log.V(1).Info("placed section", "index", sec.Index, "name", sec.Name,
			"offset", sh.Offset, "size", sh.Size)
		cursor = end
	}
	return buf, cursor, nil
}

// writeSectionTable appends the converted section header records for every
// retained section at cursor and trims the buffer to its final length. It
// returns the trimmed image and the output section count.
func writeSectionTable(buf []byte, headers []*SectionHeader, cursor int, log logr.Logger) ([]byte, int, error) {
	log.Info("section header table", "offset", fmt.Sprintf("0x%08X", cursor))

	count := 0
	for i, sh := range headers {
		if sh == nil {
			continue
		}
		packed, err := ShdrSchema.Pack(uint64(sh.Type), uint64(sh.Flags),
			uint64(sh.Offset), uint64(sh.Size), uint64(sh.Info))
		if err != nil {
			return nil, 0, fmt.Errorf("section %d: %w", i, err)
		}
		end := cursor + len(packed)
		if end > len(buf) {
			return nil, 0, fmt.Errorf("%w: section header table exceeds buffer size %d",
				common.ErrInvalidFormat, len(buf))
		}
		copy(buf[cursor:end], packed)
		cursor = end
		count++
	}
	return buf[:cursor], count, nil
}
