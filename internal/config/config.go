// Package config loads bookbinder settings from a YAML file.
//
//	database: content.db
//	log:
//	  level: info
//	  format: text
//	cache:
//	  ttl: 5m
//	resolver:
//	  concurrency: 4
//	  retry_missing: true
//	names:
//	  table: books.yaml
//	  numeric_collections:
//	    - name: quran
//	      max: 114
//
// Keys missing from the file keep their Default value.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/Bookbinder/core/errors"
	"github.com/FocuswithJustin/Bookbinder/core/graph"
	"github.com/FocuswithJustin/Bookbinder/core/ref"
	"github.com/FocuswithJustin/Bookbinder/internal/logging"
)

// Config holds all settings.
type Config struct {
	Database string         `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Cache    CacheConfig    `yaml:"cache"`
	Resolver ResolverConfig `yaml:"resolver"`
	Names    NamesConfig    `yaml:"names"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// CacheConfig controls the node cache in front of the store.
type CacheConfig struct {
	// TTL is a Go duration string. "0" keeps entries forever.
	TTL string `yaml:"ttl"`
}

// ResolverConfig controls graph resolution.
type ResolverConfig struct {
	Concurrency  int  `yaml:"concurrency"`
	RetryMissing bool `yaml:"retry_missing"`
}

// NamesConfig controls title resolution.
type NamesConfig struct {
	// Table is a YAML name table. Empty uses the built-in table.
	Table              string              `yaml:"table"`
	NumericCollections []NumericCollection `yaml:"numeric_collections"`
}

// NumericCollection is a collection whose books are numbered 1..Max.
type NumericCollection struct {
	Name string `yaml:"name"`
	Max  int    `yaml:"max"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Database: "bookbinder.db",
		Log:      LogConfig{Level: "info", Format: "text"},
		Cache:    CacheConfig{TTL: "5m"},
		Resolver: ResolverConfig{
			Concurrency:  graph.DefaultConcurrency,
			RetryMissing: true,
		},
	}
}

// Load reads path over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML from r over the defaults and validates the result.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.NewParse("YAML", "", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	if c.Resolver.Concurrency < 1 {
		return errors.NewValidation("resolver.concurrency", fmt.Sprintf("must be at least 1, got %d", c.Resolver.Concurrency))
	}
	for i, nc := range c.Names.NumericCollections {
		if ref.NormalizeIdentifier(nc.Name) == "" {
			return errors.NewValidation("names.numeric_collections", fmt.Sprintf("entry %d has no name", i))
		}
		if nc.Max < 1 {
			return errors.NewValidation("names.numeric_collections", fmt.Sprintf("%s: max must be positive", nc.Name))
		}
	}
	return nil
}

// CacheTTL parses Cache.TTL.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, errors.NewValidation("cache.ttl", err.Error())
	}
	if d < 0 {
		return 0, errors.NewValidation("cache.ttl", "must not be negative")
	}
	return d, nil
}

// NameTable loads Names.Table, or returns the built-in table.
func (c *Config) NameTable() ([]ref.NameEntry, error) {
	if c.Names.Table == "" {
		return ref.DefaultTable(), nil
	}
	f, err := os.Open(c.Names.Table)
	if err != nil {
		return nil, errors.NewIO("open", c.Names.Table, err)
	}
	defer f.Close()

	table, err := ref.LoadTable(f)
	if err != nil {
		return nil, errors.NewParse("YAML", c.Names.Table, err)
	}
	return table, nil
}

// Parser builds a reference parser from the name settings.
func (c *Config) Parser() (*ref.Parser, error) {
	table, err := c.NameTable()
	if err != nil {
		return nil, err
	}
	opts := make([]ref.ParserOption, 0, len(c.Names.NumericCollections))
	for _, nc := range c.Names.NumericCollections {
		opts = append(opts, ref.WithNumericCollection(nc.Name, nc.Max))
	}
	return ref.NewParser(ref.NewCanonicalResolver(table), opts...), nil
}

// ResolverOptions returns graph resolver options for these settings.
func (c *Config) ResolverOptions() []graph.Option {
	return []graph.Option{
		graph.WithConcurrency(c.Resolver.Concurrency),
		graph.WithRetryMissing(c.Resolver.RetryMissing),
	}
}
