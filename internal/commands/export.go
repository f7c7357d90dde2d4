package commands

import (
	"bytes"
	"io"

	gotoml "github.com/pelletier/go-toml/v2"
)

// Encode writes the table as TOML in the same layout Parse reads.
func (t *Table) Encode(w io.Writer) error {
	f := tableFile{
		Commands: t.commands,
		Options:  t.options,
		Enums:    t.enums,
	}
	enc := gotoml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(f)
}

// Marshal returns the table encoded as TOML.
func (t *Table) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
