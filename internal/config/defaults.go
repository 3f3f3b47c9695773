package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// DefaultExtensions are the file types indexed when none are configured.
var DefaultExtensions = []string{".txt", ".md", ".rst", ".docx", ".pdf", ".xlsx", ".pptx", ".odp", ".ods"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Index.MaxPhraseLength == 0 {
		cfg.Index.MaxPhraseLength = 2
	}
	if cfg.Index.Workers == 0 {
		cfg.Index.Workers = 4
	}
	if cfg.Corpus.Extensions == nil {
		cfg.Corpus.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if cfg.Corpus.Recursive == nil {
		t := true
		cfg.Corpus.Recursive = &t
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.SnippetLength == 0 {
		cfg.Search.SnippetLength = 160
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Sample.Documents == 0 {
		cfg.Sample.Documents = 10
	}
	if cfg.Sample.Paragraphs == 0 {
		cfg.Sample.Paragraphs = 3
	}
}

// applyEnvOverrides applies WORDSEARCH_* variables on top of cfg. A value
// that does not parse is an error naming the variable.
func applyEnvOverrides(cfg *Config) error {
	var err error
	if v := os.Getenv("WORDSEARCH_DEBUG"); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("WORDSEARCH_DEBUG: %w", perr))
		} else {
			cfg.Debug = b
		}
	}
	if v := os.Getenv("WORDSEARCH_CORPUS_DIRECTORIES"); v != "" {
		cfg.Corpus.Directories = strings.Split(v, string(os.PathListSeparator))
	}
	if v := os.Getenv("WORDSEARCH_MAX_PHRASE_LENGTH"); v != "" {
		n, perr := strconv.Atoi(v)
		switch {
		case perr != nil:
			err = multierr.Append(err, fmt.Errorf("WORDSEARCH_MAX_PHRASE_LENGTH: %w", perr))
		case n < 1:
			err = multierr.Append(err, fmt.Errorf("WORDSEARCH_MAX_PHRASE_LENGTH: must be at least 1, got %d", n))
		default:
			cfg.Index.MaxPhraseLength = n
		}
	}
	if v := os.Getenv("WORDSEARCH_DATABASE_PATH"); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if v := os.Getenv("WORDSEARCH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("WORDSEARCH_SERVER_PORT"); v != "" {
		port, perr := strconv.Atoi(v)
		switch {
		case perr != nil:
			err = multierr.Append(err, fmt.Errorf("WORDSEARCH_SERVER_PORT: %w", perr))
		case port < 1 || port > 65535:
			err = multierr.Append(err, fmt.Errorf("WORDSEARCH_SERVER_PORT: %d out of range", port))
		default:
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WORDSEARCH_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("WORDSEARCH_CACHE_TTL"); v != "" {
		d, perr := time.ParseDuration(v)
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("WORDSEARCH_CACHE_TTL: %w", perr))
		} else {
			cfg.Cache.TTL = d
		}
	}
	return err
}
