package trusted

import (
	"strings"

	"go.uber.org/zap"
)

// Checker reports whether a message source is an internal trusted caller.
// Messages from trusted sources are remembered without being classified or
// turned into notifications.
type Checker struct {
	sources []string
	logger  *zap.Logger
}

// NewChecker creates a new trusted-source checker
func NewChecker(sources []string, logger *zap.Logger) *Checker {
	normalized := make([]string, len(sources))
	for i, source := range sources {
		normalized[i] = strings.ToLower(strings.TrimSpace(source))
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized trusted-source checker", zap.Strings("sources", normalized))
	}

	return &Checker{
		sources: normalized,
		logger:  logger,
	}
}

// IsTrusted checks if source names a trusted caller. An empty source is
// never trusted.
func (c *Checker) IsTrusted(source string) bool {
	if source == "" {
		return false
	}

	for _, s := range c.sources {
		if strings.EqualFold(s, source) {
			if c.logger != nil {
				c.logger.Debug("Source is trusted", zap.String("source", source))
			}
			return true
		}
	}

	return false
}
