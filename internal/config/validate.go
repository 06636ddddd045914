package config

import (
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var (
	logLevels  = []any{"debug", "info", "warn", "error"}
	logFormats = []any{"json", "text"}
)

func (c *Config) validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Upstream),
		validation.Field(&c.Routes),
		validation.Field(&c.Static),
		validation.Field(&c.Log),
		validation.Field(&c.Metrics,
			validation.When(c.Metrics.Enabled, validation.By(c.validateMetricsPath)),
		),
	)
}

// Validate checks listener bounds.
func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Host, is.Host),
		validation.Field(&s.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&s.BodyMaxBytes, validation.Min(0)),
		validation.Field(&s.MaxConcurrent, validation.Min(0)),
		validation.Field(&s.RateLimit),
	)
}

// Validate requires a positive rate when limiting is enabled.
func (r RateLimitConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RequestsPerSecond,
			validation.When(r.Enabled, validation.Required, validation.Min(0.0).Exclusive()),
		),
	)
}

// Validate checks the backend URL and client bounds.
func (u UpstreamConfig) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.BaseURL, validation.Required, validation.By(validateBackendURL)),
		validation.Field(&u.TimeoutSeconds, validation.Min(0)),
		validation.Field(&u.IdleConnections, validation.Min(0)),
	)
}

// Validate checks that both prefixes are absolute and do not shadow each other.
func (r RoutesConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProxyPrefix, validation.Required, validation.By(validatePrefix)),
		validation.Field(&r.IntrospectionPrefix,
			validation.Required,
			validation.By(validatePrefix),
			validation.By(func(any) error {
				if overlaps(r.ProxyPrefix, r.IntrospectionPrefix) {
					return validation.NewError("validation_route_overlap", "must not overlap routes.proxy_prefix")
				}
				return nil
			}),
		),
	)
}

// Validate requires a plain index file name.
func (s StaticConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Root, validation.Required),
		validation.Field(&s.Index, validation.By(func(any) error {
			if strings.ContainsAny(s.Index, `/\`) {
				return validation.NewError("validation_invalid_index", "must be a file name, not a path")
			}
			return nil
		})),
	)
}

// Validate checks the log enums case-insensitively.
func (l LogConfig) Validate() error {
	level := strings.ToLower(l.Level)
	format := strings.ToLower(l.Format)
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.By(func(any) error {
			return validation.Validate(level, validation.In(logLevels...).Error("must be one of: debug, info, warn, error"))
		})),
		validation.Field(&l.Format, validation.By(func(any) error {
			return validation.Validate(format, validation.In(logFormats...).Error("must be one of: json, text"))
		})),
	)
}

func (c *Config) validateMetricsPath(any) error {
	p := c.Metrics.Path
	if !strings.HasPrefix(p, "/") {
		return validation.NewError("validation_invalid_path", "path must start with '/'")
	}
	for _, reserved := range []string{c.Routes.ProxyPrefix, c.Routes.IntrospectionPrefix} {
		if overlaps(reserved, p) {
			return validation.NewError("validation_route_conflict", "path conflicts with reserved route "+reserved)
		}
	}
	return nil
}

func validateBackendURL(value any) error {
	raw, _ := value.(string)
	u, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}
	if u.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return validation.NewError("validation_invalid_url", "URL must not carry a query or fragment")
	}
	return nil
}

func validatePrefix(value any) error {
	p, _ := value.(string)
	if !strings.HasPrefix(p, "/") {
		return validation.NewError("validation_invalid_prefix", "must start with '/'")
	}
	if strings.ContainsAny(p, "*:?") {
		return validation.NewError("validation_invalid_prefix", "must not contain route wildcards")
	}
	return nil
}

// overlaps reports whether either prefix is a prefix of the other.
func overlaps(a, b string) bool {
	a = strings.TrimSuffix(a, "/")
	b = strings.TrimSuffix(b, "/")
	return a == b || strings.HasPrefix(b, a+"/") || strings.HasPrefix(a, b+"/")
}
