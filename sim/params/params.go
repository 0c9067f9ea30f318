// Package params loads flat name → value parameter files.
//
// The native format is line oriented: the first whitespace-delimited token of
// a line is the name and the rest of the line is the value. Text after '#' is
// a comment. Files ending in .yaml or .yml are decoded as a flat YAML mapping
// instead; sequence values are joined with spaces so list getters work on
// both formats.
package params

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/popgen-abc/popgen-abc/sim"
)

// Params is a parsed parameter file.
type Params struct {
	values map[string]string
	used   map[string]bool
}

// New wraps an in-memory mapping.
func New(values map[string]string) *Params {
	p := &Params{values: make(map[string]string, len(values)), used: make(map[string]bool)}
	for k, v := range values {
		p.values[k] = v
	}
	return p
}

// Load reads a parameter file, choosing the format by extension.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sim.WrapError(sim.KindConfiguration, "params", fmt.Errorf("reading %s: %w", path, err))
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(bytes.NewReader(data))
	}
}

// Parse reads the line-oriented `name value` format.
func Parse(r io.Reader) (*Params, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		name, value := text, ""
		if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
			name, value = text[:i], strings.TrimSpace(text[i:])
		}
		if value == "" {
			return nil, sim.Errorf(sim.KindConfiguration, "params", "line %d: %q has no value", line, name)
		}
		values[name] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, sim.WrapError(sim.KindConfiguration, "params", err)
	}
	return New(values), nil
}

// ParseYAML decodes a flat YAML mapping.
func ParseYAML(data []byte) (*Params, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, sim.WrapError(sim.KindConfiguration, "params", fmt.Errorf("parsing yaml: %w", err))
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case []any:
			parts := make([]string, len(tv))
			for i, e := range tv {
				parts[i] = fmt.Sprint(e)
			}
			values[k] = strings.Join(parts, " ")
		case map[string]any:
			return nil, sim.Errorf(sim.KindConfiguration, "params", "%q must be a scalar or a list", k)
		case nil:
			return nil, sim.Errorf(sim.KindConfiguration, "params", "%q has no value", k)
		default:
			values[k] = fmt.Sprint(tv)
		}
	}
	return New(values), nil
}

// Has reports whether name is set.
func (p *Params) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

func (p *Params) lookup(name string) (string, error) {
	v, ok := p.values[name]
	if !ok {
		return "", sim.Errorf(sim.KindConfiguration, "params", "required parameter %q is missing", name)
	}
	p.used[name] = true
	return v, nil
}

func invalid(name, value, want string) error {
	return sim.Errorf(sim.KindValidation, "params", "%q = %q is not %s", name, value, want)
}

// String returns the raw value of name.
func (p *Params) String(name string) (string, error) { return p.lookup(name) }

// StringOr returns the raw value of name or def when unset.
func (p *Params) StringOr(name, def string) string {
	if !p.Has(name) {
		return def
	}
	v, _ := p.lookup(name)
	return v
}

// Int parses name as an integer. Scientific notation with an integral value
// (e.g. 1e6) is accepted.
func (p *Params) Int(name string) (int64, error) {
	v, err := p.lookup(name)
	if err != nil {
		return 0, err
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, invalid(name, v, "an integer")
	}
	return int64(f), nil
}

// IntOr parses name as an integer or returns def when unset.
func (p *Params) IntOr(name string, def int64) (int64, error) {
	if !p.Has(name) {
		return def, nil
	}
	return p.Int(name)
}

// Float parses name as a float.
func (p *Params) Float(name string) (float64, error) {
	v, err := p.lookup(name)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, invalid(name, v, "a number")
	}
	return f, nil
}

// FloatOr parses name as a float or returns def when unset.
func (p *Params) FloatOr(name string, def float64) (float64, error) {
	if !p.Has(name) {
		return def, nil
	}
	return p.Float(name)
}

// Floats parses name as a whitespace- or comma-separated list of floats.
func (p *Params) Floats(name string) ([]float64, error) {
	v, err := p.lookup(name)
	if err != nil {
		return nil, err
	}
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	out := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, invalid(name, v, "a list of numbers")
		}
		out[i] = x
	}
	return out, nil
}

// Unused returns the names that were set but never read, sorted.
func (p *Params) Unused() []string {
	var out []string
	for k := range p.values {
		if !p.used[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
