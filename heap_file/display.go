package heap_file

import (
	"fmt"
	"io"
	"strings"

	"github.com/robot-dreams/db2700"
)

const columnWidth = 20

func SchemaInfo(s *db2700.Schema) string {
	var b strings.Builder
	fmt.Fprintf(
		&b,
		"--schema %s: %d field(s), totally %d bytes\n",
		s.Name(),
		s.NumFields(),
		s.Len())
	for _, f := range s.Fields() {
		fmt.Fprintf(
			&b,
			"  %q, %v field, len: %d, offset: %d\n",
			f.Name,
			f.Type,
			f.Length,
			f.Offset)
	}
	b.WriteString("--\n")
	return b.String()
}

// Info describes the table's layout and size.
func (hf *HeapFile) Info() (string, error) {
	numBlocks, err := hf.NumBlocks()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(SchemaInfo(hf.schema))
	fmt.Fprintf(
		&b,
		"%s: %d blocks, %d records\n----\n",
		hf.pager.Path(hf.Name()),
		numBlocks,
		hf.numRecords)
	return b.String(), nil
}

// Display writes every record of the table as right-aligned columns under a
// header.
func (hf *HeapFile) Display(w io.Writer) error {
	var b strings.Builder
	for _, f := range hf.schema.Fields() {
		fmt.Fprintf(&b, "%*s", columnWidth, f.Name)
	}
	b.WriteString("\n")
	for _, f := range hf.schema.Fields() {
		n := len(f.Name)
		if n > columnWidth {
			n = columnWidth
		}
		b.WriteString(strings.Repeat(" ", columnWidth-n))
		b.WriteString(strings.Repeat("-", n))
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	if err != nil {
		return err
	}

	s, err := NewScan(hf)
	if err != nil {
		return err
	}
	defer s.Close()
	r := hf.schema.NewRecord()
	for {
		err = hf.Next(r)
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		b.Reset()
		for i, f := range hf.schema.Fields() {
			switch f.Type {
			case db2700.Int:
				fmt.Fprintf(&b, "%*d", columnWidth, r.Int(i))
			default:
				fmt.Fprintf(&b, "%*s", columnWidth, r.Str(i).String())
			}
		}
		b.WriteString("\n")
		_, err = io.WriteString(w, b.String())
		if err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "\n")
	return err
}
