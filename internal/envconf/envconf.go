// Package envconf loads command configuration from the environment.
package envconf

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads dotenv files (missing ones are skipped, set variables win), then fills cfg from
// variables named PREFIX_FIELD and validates it with its `validate` tags.
//
// Without files, ".env" in the working directory is tried.
func Load(prefix string, cfg any, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("envconf: load %s: %w", f, err)
		}
	}
	if err := envconfig.Process(prefix, cfg); err != nil {
		return fmt.Errorf("envconf: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("envconf: invalid %s configuration: %w", prefix, err)
	}
	return nil
}

// Usage writes the variables cfg understands.
func Usage(w io.Writer, prefix string, cfg any) error {
	return envconfig.Usagef(prefix, cfg, w, envconfig.DefaultTableFormat)
}

// NewLogger returns a JSON logger writing to stderr whose level is controlled by lv.
// format "text" selects the text handler.
func NewLogger(lv *slog.LevelVar, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lv}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
