package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// A flat key/value store of configuration knobs.
//
// Values are kept as strings and converted by the typed getters.
// Components read the knobs they need once, at construction, and never poll the Config afterwards.
type Config struct {
	values map[string]string
}

// Create a new Config holding a copy of the provided values
func New(values map[string]string) *Config {
	c := &Config{values: map[string]string{}}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Load a Config from a YAML document.
//
// Nested mappings are flattened into dotted keys, so that
//
//	cg:
//	  boolean:
//	    false_first: false
//
// is stored as "cg.boolean.false_first" = "false".
// Sequences are stored as comma separated lists.
func Load(r io.Reader) (*Config, error) {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return New(nil), nil
		}
		return nil, fmt.Errorf("config: unable to decode yaml: %w", err)
	}
	c := New(nil)
	flatten("", doc, c.values)
	return c, nil
}

// Load a Config from the YAML file at path
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case []any:
			parts := make([]string, 0, len(val))
			for _, e := range val {
				parts = append(parts, fmt.Sprint(e))
			}
			out[key] = strings.Join(parts, ",")
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Set the value of a key, overriding any loaded value
func (c *Config) Set(key, value string) {
	c.values[key] = value
}

// Returns the raw value of the key and whether it is present
func (c *Config) Lookup(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *Config) Get(key, def string) string {
	if v, ok := c.values[key]; ok {
		return v
	}
	return def
}

// Returns the boolean value of the key.
// Accepts the same spellings as strconv.ParseBool in addition to "yes", "no", "on" and "off".
// Returns def if the key is absent or malformed.
func (c *Config) Bool(key string, def bool) bool {
	v, ok := c.values[key]
	if !ok {
		return def
	}
	b, err := parseBool(v)
	if err != nil {
		return def
	}
	return b
}

func (c *Config) Int(key string, def int) int {
	v, ok := c.values[key]
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func (c *Config) Int64(key string, def int64) int64 {
	v, ok := c.values[key]
	if !ok {
		return def
	}
	i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return def
	}
	return i
}

// Returns the comma separated integer list stored at key.
// Returns nil if the key is absent, and an error if any element is malformed.
func (c *Config) IntList(key string) ([]int, error) {
	v, ok := c.values[key]
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	out := []int{}
	for _, s := range strings.Split(v, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("config: malformed int list %v=%q: %w", key, v, err)
		}
		out = append(out, i)
	}
	return out, nil
}

// Returns all keys in sorted order
func (c *Config) Keys() []string {
	keys := maps.Keys(c.values)
	slices.Sort(keys)
	return keys
}

// Returns a copy of all values
func (c *Config) Values() map[string]string {
	return maps.Clone(c.values)
}

// Validate that the known knobs hold values of the expected type.
// Unknown keys are ignored since listeners and examples may define their own.
func (c *Config) Validate() error {
	for _, key := range c.Keys() {
		kind, ok := knownKeys[key]
		if !ok {
			continue
		}
		v := c.values[key]
		var err error
		switch kind {
		case boolKnob:
			_, err = parseBool(v)
		case intKnob:
			_, err = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		}
		if err != nil {
			return fmt.Errorf("config: invalid value for %v: %q", key, v)
		}
	}
	return nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}
