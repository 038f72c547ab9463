package registry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURLConstant is the public npm registry.
	DefaultBaseURLConstant = "https://registry.npmjs.org"
	// DefaultTimeoutConstant bounds a single lookup including retries.
	DefaultTimeoutConstant = 10 * time.Second
	// DefaultRetriesConstant is the number of additional attempts after a transient failure.
	DefaultRetriesConstant = 1

	latestPathSuffixConstant     = "latest"
	pathSeparatorConstant        = "/"
	acceptHeaderNameConstant     = "Accept"
	acceptHeaderValueConstant    = "application/json"
	maximumResponseBytesConstant = 1 << 20
	retryWaitMinimumConstant     = 200 * time.Millisecond
	retryWaitMaximumConstant     = 2 * time.Second
	lookupFailedMessageConstant  = "registry lookup failed"
	lookupStatusMessageConstant  = "registry lookup returned unexpected status"
	lookupDecodeMessageConstant  = "registry response could not be decoded"
	lookupEmptyMessageConstant   = "registry response carried no version"
	logFieldPackageConstant      = "package"
	logFieldStatusCodeConstant   = "status_code"
	logFieldRequestURLConstant   = "url"
)

// Configuration controls registry access.
type Configuration struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Retries int           `mapstructure:"retries" validate:"gte=0,lte=5"`
}

// DefaultConfiguration returns the settings used when nothing is configured.
func DefaultConfiguration() Configuration {
	return Configuration{
		BaseURL: DefaultBaseURLConstant,
		Timeout: DefaultTimeoutConstant,
		Retries: DefaultRetriesConstant,
	}
}

type latestVersionDocument struct {
	Version string `json:"version"`
}

// Client looks up the latest published version of npm packages.
// Lookups never return errors: every failure collapses into "not found".
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient constructs a registry client; zero configuration fields fall back to defaults.
func NewClient(configuration Configuration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfiguration()
	if len(strings.TrimSpace(configuration.BaseURL)) == 0 {
		configuration.BaseURL = defaults.BaseURL
	}
	if configuration.Timeout <= 0 {
		configuration.Timeout = defaults.Timeout
	}
	if configuration.Retries < 0 {
		configuration.Retries = 0
	}

	httpClient := retryablehttp.NewClient()
	httpClient.HTTPClient.Timeout = configuration.Timeout
	httpClient.RetryMax = configuration.Retries
	httpClient.RetryWaitMin = retryWaitMinimumConstant
	httpClient.RetryWaitMax = retryWaitMaximumConstant
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	httpClient.Logger = newLeveledLogger(logger)

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(configuration.BaseURL, pathSeparatorConstant),
		timeout:    configuration.Timeout,
		logger:     logger,
	}
}

// LatestVersion returns the version tagged latest for packageName and whether it was found.
func (client *Client) LatestVersion(executionContext context.Context, packageName string) (string, bool) {
	trimmedName := strings.TrimSpace(packageName)
	if len(trimmedName) == 0 {
		return "", false
	}
	if executionContext == nil {
		executionContext = context.Background()
	}

	lookupContext, cancel := context.WithTimeout(executionContext, client.timeout)
	defer cancel()

	requestURL := client.latestURL(trimmedName)
	request, requestError := retryablehttp.NewRequestWithContext(lookupContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		client.logger.Debug(lookupFailedMessageConstant, zap.String(logFieldPackageConstant, trimmedName), zap.Error(requestError))
		return "", false
	}
	request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		if response != nil {
			response.Body.Close()
		}
		client.logger.Debug(lookupFailedMessageConstant, zap.String(logFieldPackageConstant, trimmedName), zap.Error(responseError))
		return "", false
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		client.logger.Debug(
			lookupStatusMessageConstant,
			zap.String(logFieldPackageConstant, trimmedName),
			zap.String(logFieldRequestURLConstant, requestURL),
			zap.Int(logFieldStatusCodeConstant, response.StatusCode),
		)
		return "", false
	}

	var document latestVersionDocument
	if decodeError := json.NewDecoder(io.LimitReader(response.Body, maximumResponseBytesConstant)).Decode(&document); decodeError != nil {
		client.logger.Debug(lookupDecodeMessageConstant, zap.String(logFieldPackageConstant, trimmedName), zap.Error(decodeError))
		return "", false
	}

	latestVersion := strings.TrimSpace(document.Version)
	if len(latestVersion) == 0 {
		client.logger.Debug(lookupEmptyMessageConstant, zap.String(logFieldPackageConstant, trimmedName))
		return "", false
	}
	return latestVersion, true
}

// latestURL escapes the name as one path segment, so scoped names keep their "@" and encode "/".
func (client *Client) latestURL(packageName string) string {
	return client.baseURL + pathSeparatorConstant + url.PathEscape(packageName) + pathSeparatorConstant + latestPathSuffixConstant
}
