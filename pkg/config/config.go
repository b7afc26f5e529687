// Package config loads studybook settings from defaults, an optional YAML
// file and STUDYBOOK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/japaniel/studybook/pkg/markup"
)

const (
	DefaultBookPath    = ".studybook/book.json"
	DefaultHistoryPath = ".studybook/history.db"
	DefaultDictPath    = ".studybook/jmdict-eng-common.json"
	DefaultSnapshotDir = ".studybook/snapshots"
)

type (
	Config struct {
		Storage
		Markup
		Log
		Suggest
	}

	Storage struct {
		BookPath     string
		HistoryPath  string // empty disables the history database
		SnapshotDir  string
		SnapshotKeep int // 0 keeps every snapshot
	}
	Markup struct {
		SentenceDelimiter string
		TagOpen           string
		TagClose          string
		FieldDelimiter    string
		Highlight         string
	}
	Log struct {
		Level  string
		Format string
	}
	Suggest struct {
		DictPath string
		Workers  int
	}
)

// ParserOptions converts the markup settings.
func (m Markup) ParserOptions() markup.Options {
	return markup.Options{
		SentenceDelimiter: m.SentenceDelimiter,
		TagOpen:           m.TagOpen,
		TagClose:          m.TagClose,
		FieldDelimiter:    m.FieldDelimiter,
		Highlight:         m.Highlight,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("book_path", DefaultBookPath)
	v.SetDefault("history_path", DefaultHistoryPath)
	v.SetDefault("snapshot_dir", DefaultSnapshotDir)
	v.SetDefault("snapshot_keep", 10)

	v.SetDefault("sentence_delimiter", markup.DefaultSentenceDelimiter)
	v.SetDefault("tag_open", markup.DefaultTagOpen)
	v.SetDefault("tag_close", markup.DefaultTagClose)
	v.SetDefault("field_delimiter", markup.DefaultFieldDelimiter)
	// Books written so far quote tagged words with a backtick.
	v.SetDefault("highlight", "`")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("dict_path", DefaultDictPath)
	v.SetDefault("workers", 4)
}

// Load reads the configuration from defaults, an optional config file and
// STUDYBOOK_* environment variables, in increasing priority. An empty path
// looks for studybook.yaml in the working directory and in .studybook; a
// missing default file is not an error, a missing explicit one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("studybook")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("studybook")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(DefaultBookPath))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Storage: Storage{
			BookPath:     v.GetString("book_path"),
			HistoryPath:  v.GetString("history_path"),
			SnapshotDir:  v.GetString("snapshot_dir"),
			SnapshotKeep: v.GetInt("snapshot_keep"),
		},
		Markup: Markup{
			SentenceDelimiter: v.GetString("sentence_delimiter"),
			TagOpen:           v.GetString("tag_open"),
			TagClose:          v.GetString("tag_close"),
			FieldDelimiter:    v.GetString("field_delimiter"),
			Highlight:         v.GetString("highlight"),
		},
		Log: Log{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
		Suggest: Suggest{
			DictPath: v.GetString("dict_path"),
			Workers:  v.GetInt("workers"),
		},
	}
	if cfg.BookPath == "" {
		return nil, errors.New("book_path must be set")
	}
	if cfg.SnapshotKeep < 0 {
		return nil, fmt.Errorf("snapshot_keep must not be negative, got %d", cfg.SnapshotKeep)
	}
	if _, err := markup.New(cfg.ParserOptions()); err != nil {
		return nil, fmt.Errorf("markup settings: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return cfg, nil
}
