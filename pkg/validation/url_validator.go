package validation

import (
	"net/url"
	"regexp"
	"strings"

	apperrors "go-tryon/internal/errors"
)

// S3 bucket naming: 3-63 lowercase letters, digits, dots or hyphens,
// starting and ending with a letter or digit.
var bucketName = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// URLValidator checks garment image locations before they are fetched.
// Supported forms are http(s)://host/path and s3://bucket/key.
type URLValidator struct {
	allowedHosts []string
}

// NewURLValidator creates a validator restricted to hosts. An entry of the
// form "*.example.com" matches any subdomain of example.com. For s3:// URLs
// the bucket name is checked against the list. No hosts allows any host.
func NewURLValidator(hosts ...string) *URLValidator {
	v := &URLValidator{}
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			v.allowedHosts = append(v.allowedHosts, h)
		}
	}
	return v
}

// ValidateImageURL validates a garment image location.
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}
	if parsedURL.User != nil {
		return apperrors.NewValidationError("URL must not carry credentials", nil)
	}

	var host string
	switch strings.ToLower(parsedURL.Scheme) {
	case "http", "https":
		host = strings.ToLower(parsedURL.Hostname())
		if host == "" {
			return apperrors.NewValidationError("URL must have a valid host", nil)
		}
	case "s3":
		host = parsedURL.Host
		if host == "" {
			return apperrors.NewValidationError("URL must have a valid host", nil)
		}
		if !validBucketName(host) {
			return apperrors.NewValidationError("invalid S3 bucket name", nil)
		}
		if strings.Trim(parsedURL.Path, "/") == "" {
			return apperrors.NewValidationError("S3 URL must name an object key", nil)
		}
	default:
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if !v.isHostAllowed(host) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}
	return nil
}

func validBucketName(name string) bool {
	if !bucketName.MatchString(name) || strings.Contains(name, "..") {
		return false
	}
	// Buckets may not be named like an IPv4 address.
	parts := strings.Split(name, ".")
	if len(parts) == 4 {
		numeric := true
		for _, p := range parts {
			if p == "" || strings.Trim(p, "0123456789") != "" {
				numeric = false
			}
		}
		if numeric {
			return false
		}
	}
	return true
}

func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if suffix, ok := strings.CutPrefix(allowed, "*."); ok {
			if strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}
