package types

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
)

// HTTPConfig holds shared HTTP settings used by every stage that makes
// network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is how many times a failed request is retried. 0 disables
	// retries; a negative value selects the default of 3.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// SessionCookie is the optional substack.sid value of a logged-in
	// subscriber. It is never written to disk by the tool.
	SessionCookie string `json:"-" yaml:"-"`
}

// Validate checks HTTP settings.
func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxRetries, validation.Min(-1), validation.Max(10)),
	)
}

// ListConfig holds settings for post discovery.
type ListConfig struct {
	HTTPConfig `yaml:",inline"`

	// PageSize is the archive API page size (default 12).
	PageSize int `json:"page_size" yaml:"page_size"`

	// ExcludedKeywords drops post URLs whose path contains any of these
	// segments (default: about, archive, podcast).
	ExcludedKeywords []string `json:"excluded_keywords" yaml:"excluded_keywords"`
}

// ConvertBackend identifies the HTML-to-Markdown engine.
type ConvertBackend string

const (
	BackendNative ConvertBackend = "native"
	BackendPandoc ConvertBackend = "pandoc"
)

// ConvertConfig holds settings for the conversion stage.
type ConvertConfig struct {
	// Backend selects the conversion engine: native or pandoc.
	Backend ConvertBackend `json:"backend" yaml:"backend"`
}

// OutputConfig holds settings for persisted artifacts.
type OutputConfig struct {
	// Dir is the base output directory (contains substack_md_files/,
	// substack_html_pages/, data/, cache/).
	Dir string `json:"dir" yaml:"dir"`

	// Mode gates which artifacts are written.
	Mode OutputMode `json:"mode" yaml:"mode"`

	// Force overwrites existing post files instead of skipping them.
	Force bool `json:"force" yaml:"force"`

	// Cache enables the on-disk page cache under Dir/cache.
	Cache bool `json:"cache" yaml:"cache"`
}

// ScrapeConfig groups everything a fetch run needs.
type ScrapeConfig struct {
	List    ListConfig    `json:"list" yaml:"list"`
	Convert ConvertConfig `json:"convert" yaml:"convert"`
	Output  OutputConfig  `json:"output" yaml:"output"`

	// BaseURL is the publication URL, e.g. https://example.substack.com.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Limit caps the number of posts processed; 0 means all.
	Limit int `json:"limit" yaml:"limit"`

	// Concurrency is the number of posts fetched in parallel (default 5).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// Delay is a pause each worker takes before starting a fetch.
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// Validate checks the run configuration. Failures carry the go-errors
// validation category.
func (c ScrapeConfig) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Limit, validation.Min(0)),
		validation.Field(&c.Concurrency, validation.Min(0), validation.Max(20)),
		validation.Field(&c.List),
		validation.Field(&c.Output),
		validation.Field(&c.Convert),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid fetch configuration")
	}
	return nil
}

// Validate checks list settings.
func (c ListConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HTTPConfig),
		validation.Field(&c.PageSize, validation.Min(0), validation.Max(50)),
	)
}

// Validate checks output settings.
func (c OutputConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Mode, validation.Required, validation.In(OutputBoth, OutputMarkdown, OutputHTML)),
	)
}

// Validate checks conversion settings.
func (c ConvertConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.In(BackendNative, BackendPandoc)),
	)
}
