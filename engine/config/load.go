package config

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default retry policy for reading a settings file that is being written.
const (
	DefaultRetryInterval   = 20 * time.Millisecond
	DefaultRetryMaxElapsed = 2 * time.Second
)

// Load reads and parses the settings file at path. Missing files and
// truncated documents are retried with exponential backoff since editors
// replace files in several steps; validation errors are not retried.
//
// Parameters:
//   - ctx: cancels the retries
//   - path: the settings file
//
// Returns:
//   - Settings: the parsed settings
//   - error: the last read, decode or validation error
func Load(ctx context.Context, path string) (Settings, error) {
	return load(ctx, path, DefaultRetryInterval, DefaultRetryMaxElapsed)
}

func load(ctx context.Context, path string, interval, maxElapsed time.Duration) (Settings, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxElapsedTime = maxElapsed

	return backoff.RetryWithData(func() (Settings, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Settings{}, err
			}
			return Settings{}, backoff.Permanent(err)
		}
		s, err := Parse(data)
		if err != nil && !incomplete(err) {
			return Settings{}, backoff.Permanent(err)
		}
		return s, err
	}, backoff.WithContext(b, ctx))
}

// incomplete reports whether err comes from a document cut short by a writer.
func incomplete(err error) bool {
	var syntax *json.SyntaxError
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &syntax)
}
