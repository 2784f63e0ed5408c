package validate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sidereusnuntius/blogclient/internal/domain"
)

const (
	MaxUsernameLen = 64
	MaxPasswordLen = 72
	MaxTitleLen    = 256
)

// Credentials only rejects what the server would certainly refuse; password policy is the
// server's business.
func Credentials(username, password string) error {
	return errors.Join(Username(username), Password(password))
}

func Password(password string) error {
	l := len(password)
	switch {
	case l == 0:
		return errors.New("empty password")
	case l > MaxPasswordLen:
		return fmt.Errorf("password too long; max %d characters", MaxPasswordLen)
	}
	return nil
}

func Username(username string) error {
	if l := len(strings.TrimSpace(username)); l == 0 {
		return errors.New("empty username")
	} else if l > MaxUsernameLen {
		return fmt.Errorf("username too long; max %d characters", MaxUsernameLen)
	}
	return nil
}

// Endpoint accepts absolute http and https URLs. When allowedHosts is not empty, the URL's host
// (with or without its port) must be one of them.
func Endpoint(endpoint string, allowedHosts ...string) error {
	if endpoint == "" {
		return errors.New("empty endpoint")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("endpoint has no host")
	}
	if len(allowedHosts) == 0 {
		return nil
	}
	for _, host := range allowedHosts {
		if strings.EqualFold(host, u.Host) || strings.EqualFold(host, u.Hostname()) {
			return nil
		}
	}
	return fmt.Errorf("endpoint host %q is not allowed", u.Host)
}

func Post(fields domain.PostFields) error {
	var errs []error
	if strings.TrimSpace(fields.Title) == "" {
		errs = append(errs, errors.New("missing field: title"))
	} else if len(fields.Title) > MaxTitleLen {
		errs = append(errs, fmt.Errorf("title too long; max %d characters", MaxTitleLen))
	}
	if strings.TrimSpace(fields.Content) == "" {
		errs = append(errs, errors.New("missing field: content"))
	}
	return errors.Join(errs...)
}

func Comment(author, content string) error {
	var errs []error
	if strings.TrimSpace(author) == "" {
		errs = append(errs, errors.New("missing field: author"))
	}
	if strings.TrimSpace(content) == "" {
		errs = append(errs, errors.New("missing field: content"))
	}
	return errors.Join(errs...)
}
