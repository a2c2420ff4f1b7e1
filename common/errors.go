// Package common holds the error taxonomy shared by every conversion stage.
package common

import (
	"errors"

	"github.com/joltwallet/elf2jelf/bitpack"
)

var (
	// ErrInvalidFormat means the input is not the expected ELF32/Xtensa
	// object or failed an internal self-consistency check.
	ErrInvalidFormat = errors.New("invalid ELF format")

	// ErrMissingSection means a section the conversion requires
	// (.symtab, .strtab, .shstrtab) is absent.
	ErrMissingSection = errors.New("missing required section")

	// ErrMissingEntryPoint means no symbol matches the entry point name.
	ErrMissingEntryPoint = errors.New("entry point symbol not found")

	// ErrFieldOverflow means a value exceeds its target field's bit width.
	// Aliased from bitpack so errors.Is matches across all stages.
	ErrFieldOverflow = bitpack.ErrFieldOverflow

	// ErrUnsupportedRelocation means a relocation type outside the four
	// kinds the embedded loader understands was encountered.
	ErrUnsupportedRelocation = errors.New("unsupported relocation type")

	// ErrInvalidInput means a caller-supplied parameter failed validation.
	ErrInvalidInput = errors.New("invalid input")
)
