package commands

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"doxyscan/internal/errors"
)

//go:embed commands.toml
var builtinTable []byte

// Table is an immutable, validated command vocabulary.
type Table struct {
	commands []*Command
	byName   map[string]*Command
	names    []string
	options  map[string]*OptionSet
	enums    map[string]*EnumSet
}

// tableFile is the on-disk layout of a command table.
type tableFile struct {
	Commands []*Command           `toml:"commands"`
	Options  map[string]*OptionSet `toml:"options"`
	Enums    map[string]*EnumSet   `toml:"enums"`
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the built-in table, decoding it on first use.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(builtinTable)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("built-in command table: %v", defaultErr))
	}
	return defaultTable
}

// Builtin returns the raw TOML of the built-in table.
func Builtin() []byte {
	out := make([]byte, len(builtinTable))
	copy(out, builtinTable)
	return out
}

// Load reads and validates a table from a TOML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.FileUnreadable, fmt.Sprintf("cannot read command table %s", path), err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a table from TOML.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errors.New(errors.TableInvalid, "cannot decode command table", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, errors.New(errors.TableInvalid, "unknown keys in command table: "+strings.Join(keys, ", "), nil)
	}
	return build(&f)
}

func build(f *tableFile) (*Table, error) {
	t := &Table{
		commands: f.Commands,
		byName:   make(map[string]*Command),
		options:  f.Options,
		enums:    f.Enums,
	}
	if t.options == nil {
		t.options = make(map[string]*OptionSet)
	}
	if t.enums == nil {
		t.enums = make(map[string]*EnumSet)
	}

	for name, set := range t.options {
		if err := validateOptionSet(name, set); err != nil {
			return nil, err
		}
	}

	for i, cmd := range f.Commands {
		if len(cmd.Names) == 0 {
			return nil, tableError("command #%d has no names", i)
		}
		if cmd.Position == "" {
			cmd.Position = PositionAnywhere
		}
		if cmd.Position != PositionLineStart && cmd.Position != PositionAnywhere {
			return nil, tableError("command %s: unknown position %q", cmd.Names[0], cmd.Position)
		}
		cmd.pieces = cmd.pieces[:0]
		for _, spec := range cmd.Args {
			p, err := ParsePiece(spec)
			if err != nil {
				return nil, tableError("command %s: %v", cmd.Names[0], err)
			}
			if err := t.checkRef(p); err != nil {
				return nil, tableError("command %s: %v", cmd.Names[0], err)
			}
			cmd.pieces = append(cmd.pieces, p)
		}
		for _, name := range cmd.Names {
			if name == "" {
				return nil, tableError("command #%d has an empty name", i)
			}
			if _, dup := t.byName[name]; dup {
				return nil, tableError("duplicate command name %q", name)
			}
			t.byName[name] = cmd
			t.names = append(t.names, name)
		}
	}

	// Region end commands must exist so the recognizer can close them.
	for _, cmd := range f.Commands {
		if p, ok := cmd.Region(); ok && p.Ref != "" {
			if _, found := t.byName[p.Ref]; !found {
				return nil, tableError("command %s: end command %q is not defined", cmd.Names[0], p.Ref)
			}
		}
	}

	sort.Strings(t.names)
	return t, nil
}

func (t *Table) checkRef(p Piece) error {
	switch p.Kind {
	case PieceBracket, PieceBrace:
		set, ok := t.options[p.Ref]
		if !ok {
			return fmt.Errorf("unknown option set %q", p.Ref)
		}
		want := "{"
		if p.Kind == PieceBracket {
			want = "["
		}
		if set.Open != want {
			return fmt.Errorf("option set %q opens with %q, piece needs %q", p.Ref, set.Open, want)
		}
	case PieceEnum:
		if _, ok := t.enums[p.Ref]; !ok {
			return fmt.Errorf("unknown enum set %q", p.Ref)
		}
	}
	return nil
}

func validateOptionSet(name string, set *OptionSet) error {
	if set.Open != "[" && set.Open != "{" {
		return tableError("option set %s: open must be \"[\" or \"{\"", name)
	}
	switch set.Mode {
	case "", "free", "lang":
	default:
		return tableError("option set %s: unknown mode %q", name, set.Mode)
	}
	known := make(map[string]bool, len(set.Keys))
	for _, k := range set.Keys {
		known[k] = true
	}
	for key, spec := range set.Values {
		if !known[key] {
			return tableError("option set %s: value spec for unknown key %q", name, key)
		}
		if spec.Kind != "int" && spec.Kind != "text" {
			return tableError("option set %s: key %q has unknown value kind %q", name, key, spec.Kind)
		}
		if spec.Kind == "int" && spec.Max < spec.Min {
			return tableError("option set %s: key %q has empty range %d..%d", name, key, spec.Min, spec.Max)
		}
	}
	for _, combo := range set.Combos {
		for _, k := range strings.Split(combo, ",") {
			if !known[k] {
				return tableError("option set %s: combo %q names unknown key %q", name, combo, k)
			}
		}
	}
	return nil
}

func tableError(format string, args ...interface{}) error {
	return errors.New(errors.TableInvalid, fmt.Sprintf(format, args...), nil)
}

// ParsePiece parses table notation such as "word?", "bracket:paramdir" or
// "region:endcode".
func ParsePiece(spec string) (Piece, error) {
	var p Piece
	if strings.HasSuffix(spec, "?") {
		p.Optional = true
		spec = strings.TrimSuffix(spec, "?")
	}
	kind, ref, _ := strings.Cut(spec, ":")
	p.Kind = PieceKind(kind)
	p.Ref = ref

	switch p.Kind {
	case PieceBracket, PieceBrace, PieceWord, PieceWordQuoted, PieceHeader, PieceQuoted,
		PieceIDs, PieceRef, PieceFile, PieceTitle, PieceSizes, PieceEnum, PieceAttached,
		PieceEmoji, PieceRegion, PieceFormula, PieceFormulaEnv:
	default:
		return Piece{}, fmt.Errorf("unknown argument kind %q", kind)
	}
	if p.Kind.needsRef() && p.Ref == "" {
		return Piece{}, fmt.Errorf("argument kind %q needs a reference", kind)
	}
	if !p.Kind.needsRef() && p.Ref != "" {
		return Piece{}, fmt.Errorf("argument kind %q takes no reference", kind)
	}
	if p.Kind.alwaysOptional() {
		p.Optional = true
	}
	return p, nil
}

// Lookup returns the command with the given name. Names are case sensitive.
func (t *Table) Lookup(name string) (*Command, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// Names returns every command name and alias, sorted.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Commands returns the command definitions in table order.
func (t *Table) Commands() []*Command {
	out := make([]*Command, len(t.commands))
	copy(out, t.commands)
	return out
}

// OptionSet returns the named option set.
func (t *Table) OptionSet(name string) (*OptionSet, bool) {
	s, ok := t.options[name]
	return s, ok
}

// EnumSet returns the named enum set.
func (t *Table) EnumSet(name string) (*EnumSet, bool) {
	s, ok := t.enums[name]
	return s, ok
}

// Complete returns the word-named commands starting with prefix, sorted.
func (t *Table) Complete(prefix string) []string {
	var out []string
	for _, name := range t.names {
		if !IsWordName(name) {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// Description is the quick-info view of a command.
type Description struct {
	Name      string   `json:"name" yaml:"name"`
	Aliases   []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Group     string   `json:"group" yaml:"group"`
	Position  Position `json:"position" yaml:"position"`
	Arguments []string `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Signature string   `json:"signature,omitempty" yaml:"signature,omitempty"`
	Help      string   `json:"help,omitempty" yaml:"help,omitempty"`
}

// Describe returns the quick-info for a command.
func (t *Table) Describe(name string) (Description, bool) {
	cmd, ok := t.byName[name]
	if !ok {
		return Description{}, false
	}
	d := Description{
		Name:      name,
		Group:     cmd.Group,
		Position:  cmd.Position,
		Signature: cmd.Signature,
		Help:      cmd.Help,
	}
	for _, alias := range cmd.Names {
		if alias != name {
			d.Aliases = append(d.Aliases, alias)
		}
	}
	for _, p := range cmd.pieces {
		d.Arguments = append(d.Arguments, p.String())
	}
	return d, true
}

// IsWordName reports whether a command name is made of identifier
// characters, as opposed to a symbol such as "\\" or "f$".
func IsWordName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return name != ""
}
