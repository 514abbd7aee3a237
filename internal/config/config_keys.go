// config_keys.go provides key-value access to configuration settings.
//
// Separated from config.go to isolate the key enumeration and string-based
// get/set logic used by the config command and MCP, where settings are
// addressed by dotted key (e.g., "backend.git.branch").
//
// Pointers are used for optional numeric fields so "not set" (nil) differs
// from an explicit value; defaults only apply to unset keys.

package config

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/jpl-au/docstore/internal/duration"
	"github.com/jpl-au/docstore/internal/store"
)

var parseDuration = duration.Parse

// ValidKeys returns all valid configuration keys.
func ValidKeys() []string {
	return []string{
		"author.name", "author.email",
		"backend.kind",
		"backend.relational.file",
		"backend.git.dir", "backend.git.branch", "backend.git.extension",
		"backend.analytical.file", "backend.analytical.namespace",
		"processor.limit", "processor.lease",
		"timeouts.io",
		"server.addr",
		"limits.max_path", "limits.max_content",
	}
}

// IsValidKey returns true if the key is a valid configuration key.
func IsValidKey(key string) bool {
	return slices.Contains(ValidKeys(), key)
}

// Get returns the effective value of a configuration key as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "author.name":
		return c.Author.Name, nil
	case "author.email":
		return c.Author.Email, nil
	case "backend.kind":
		return string(c.Kind()), nil
	case "backend.relational.file":
		return c.RelationalFile(), nil
	case "backend.git.dir":
		return c.GitDir(), nil
	case "backend.git.branch":
		return c.GitBranch(), nil
	case "backend.git.extension":
		return c.GitExtension(), nil
	case "backend.analytical.file":
		return c.AnalyticalFile(), nil
	case "backend.analytical.namespace":
		return c.Namespace(), nil
	case "processor.limit":
		return strconv.Itoa(c.ProcessorLimit()), nil
	case "processor.lease":
		return duration.Format(c.ProcessorLease()), nil
	case "timeouts.io":
		return duration.Format(c.IOTimeout()), nil
	case "server.addr":
		return c.ServerAddr(), nil
	case "limits.max_path":
		return strconv.Itoa(c.MaxPath()), nil
	case "limits.max_content":
		return strconv.FormatInt(c.MaxContent(), 10), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// Set sets the value of a configuration key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "author.name":
		c.Author.Name = value
	case "author.email":
		c.Author.Email = value
	case "backend.kind":
		if !store.Kind(value).Valid() {
			return fmt.Errorf("%w: backend.kind must be one of %v", ErrInvalidValue, store.Kinds())
		}
		c.Backend.Kind = value
	case "backend.relational.file":
		c.Backend.Relational.File = value
	case "backend.git.dir":
		c.Backend.Git.Dir = value
	case "backend.git.branch":
		if value == "" {
			return fmt.Errorf("%w: backend.git.branch must not be empty", ErrInvalidValue)
		}
		c.Backend.Git.Branch = value
	case "backend.git.extension":
		if value != ".md" && value != ".mdx" {
			return fmt.Errorf("%w: backend.git.extension must be .md or .mdx", ErrInvalidValue)
		}
		c.Backend.Git.Extension = value
	case "backend.analytical.file":
		c.Backend.Analytical.File = value
	case "backend.analytical.namespace":
		c.Backend.Analytical.Namespace = value
	case "processor.limit":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > MaxProcessorLimit {
			return fmt.Errorf("%w: processor.limit must be between 1 and %d", ErrInvalidValue, MaxProcessorLimit)
		}
		c.Processor.Limit = &n
	case "processor.lease", "timeouts.io":
		d, err := parseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration", ErrInvalidValue, key)
		}
		if key == "processor.lease" {
			c.Processor.Lease = value
		} else {
			c.Timeouts.IO = value
		}
	case "server.addr":
		c.Server.Addr = value
	case "limits.max_path":
		n, err := strconv.Atoi(value)
		if err != nil || n < MinMaxPath || n > MaxMaxPath {
			return fmt.Errorf("%w: limits.max_path must be between %d and %d", ErrInvalidValue, MinMaxPath, MaxMaxPath)
		}
		c.Limits.MaxPath = &n
	case "limits.max_content":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < MinMaxContent || n > MaxMaxContent {
			return fmt.Errorf("%w: limits.max_content must be a positive integer", ErrInvalidValue)
		}
		c.Limits.MaxContent = &n
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// All returns all effective configuration values as a map.
func (c *Config) All() map[string]string {
	out := make(map[string]string, len(ValidKeys()))
	for _, k := range ValidKeys() {
		out[k], _ = c.Get(k)
	}
	return out
}

// IsSet returns true if the key has an explicit value (not just defaults).
func (c *Config) IsSet(key string) bool {
	switch key {
	case "author.name":
		return c.Author.Name != ""
	case "author.email":
		return c.Author.Email != ""
	case "backend.kind":
		return c.Backend.Kind != ""
	case "backend.relational.file":
		return c.Backend.Relational.File != ""
	case "backend.git.dir":
		return c.Backend.Git.Dir != ""
	case "backend.git.branch":
		return c.Backend.Git.Branch != ""
	case "backend.git.extension":
		return c.Backend.Git.Extension != ""
	case "backend.analytical.file":
		return c.Backend.Analytical.File != ""
	case "backend.analytical.namespace":
		return c.Backend.Analytical.Namespace != ""
	case "processor.limit":
		return c.Processor.Limit != nil
	case "processor.lease":
		return c.Processor.Lease != ""
	case "timeouts.io":
		return c.Timeouts.IO != ""
	case "server.addr":
		return c.Server.Addr != ""
	case "limits.max_path":
		return c.Limits.MaxPath != nil
	case "limits.max_content":
		return c.Limits.MaxContent != nil
	default:
		return false
	}
}
