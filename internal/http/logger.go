package http

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/storyblok-client/pkg/storyblok"
)

// leveledLogger adapts storyblok.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger storyblok.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fields(keysAndValues))
}

// fields turns key/value pairs into a map. URLs lose their query string,
// which carries the delivery token.
func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		out[key] = redact(keysAndValues[i+1])
	}

	if len(keysAndValues)%2 == 1 {
		out["extra"] = keysAndValues[len(keysAndValues)-1]
	}

	return out
}

func redact(value interface{}) interface{} {
	switch v := value.(type) {
	case *url.URL:
		if v == nil {
			return v
		}

		stripped := *v
		stripped.RawQuery = ""

		return stripped.String()
	case *url.Error:
		stripped := *v
		stripped.URL = stripQuery(v.URL)

		return stripped.Error()
	case string:
		words := strings.Fields(v)
		changed := false

		for i, word := range words {
			if stripped := stripQuery(word); stripped != word {
				words[i] = stripped
				changed = true
			}
		}

		if !changed {
			return v
		}

		return strings.Join(words, " ")
	default:
		return value
	}
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.RawQuery == "" {
		return raw
	}

	u.RawQuery = ""

	return u.String()
}
