// Package exports loads the versioned list of symbols the embedded runtime
// exports to applications. Converted symbols reference exports by 1-based
// position, so the list's order is part of the binary contract.
package exports

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joltwallet/elf2jelf/common"
)

// List is the ordered export table with its semantic version.
type List struct {
	Names []string
	Major uint8
	Minor uint8
}

// Parse reads an export list resource: a "VERSION <major>.<minor>" line
// followed by one exported symbol name per line.
func Parse(r io.Reader) (*List, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read export list: %w", err)
		}
		return nil, fmt.Errorf("%w: export list is empty", common.ErrInvalidInput)
	}

	keyword, version, found := strings.Cut(strings.TrimRight(scanner.Text(), "\r\n"), " ")
	if !found || keyword != "VERSION" {
		return nil, fmt.Errorf("%w: export list must start with a VERSION line", common.ErrInvalidInput)
	}
	majorStr, minorStr, found := strings.Cut(version, ".")
	if !found {
		return nil, fmt.Errorf("%w: malformed version %q", common.ErrInvalidInput, version)
	}
	major, err := strconv.ParseUint(majorStr, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed major version %q", common.ErrInvalidInput, majorStr)
	}
	minor, err := strconv.ParseUint(minorStr, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed minor version %q", common.ErrInvalidInput, minorStr)
	}

	list := &List{Major: uint8(major), Minor: uint8(minor)}
	for scanner.Scan() {
		name := strings.TrimRight(scanner.Text(), "\r\n")
		if name == "" {
			continue
		}
		list.Names = append(list.Names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export list: %w", err)
	}
	return list, nil
}

// Load reads an export list from a file.
func Load(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export list: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	return Parse(f)
}

// Index returns the 1-based position of name, or 0 if the name is not
// exported. Index 0 is reserved to mean "no export name".
func (l *List) Index(name string) int {
	for i, n := range l.Names {
		if n == name {
			return i + 1
		}
	}
	return 0
}

// WriteHeader emits the companion C header declaring the export table the
// runtime compiles in.
func (l *List) WriteHeader(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "_JELF_VERSION_MAJOR = %d;\n", l.Major)
	fmt.Fprintf(&b, "_JELF_VERSION_MINOR = %d;\n\n", l.Minor)
	b.WriteString("#define EXPORT_SYMBOL(x) &x\n\n")
	b.WriteString("static void *exports[] = {\n")
	for _, name := range l.Names {
		fmt.Fprintf(&b, "    EXPORT_SYMBOL( %s ),\n", name)
	}
	b.WriteString("};\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}
	return nil
}
