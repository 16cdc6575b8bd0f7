// Package entity defines the view and transport types of the askboard web layer.
package entity

import (
	"crypto/tls"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Msg represents a standard API response message with success status, message text, and optional data object.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}

// QuestionView is a question row joined with its classroom subject and,
// on the classroom page, whether the viewing user already voted for it.
type QuestionView struct {
	Id           int    `json:"id"`
	ClassroomId  int    `json:"classroomId"`
	Text         string `json:"text"`
	Votes        int    `json:"votes"`
	ClassSubject string `json:"classSubject,omitempty"`
	HasVoted     bool   `json:"hasVoted"`
}

// AllSetting contains the server settings kept in the settings table.
type AllSetting struct {
	WebListen      string `json:"webListen" form:"webListen" validate:"omitempty,ip"`                // listen IP, empty for all interfaces
	WebPort        int    `json:"webPort" form:"webPort" validate:"min=1,max=65535"`                 // listen port
	WebCertFile    string `json:"webCertFile" form:"webCertFile"`                                    // TLS certificate file
	WebKeyFile     string `json:"webKeyFile" form:"webKeyFile"`                                      // TLS key file
	WebBasePath    string `json:"webBasePath" form:"webBasePath"`                                    // URL prefix of every route
	SessionMaxAge  int    `json:"sessionMaxAge" form:"sessionMaxAge" validate:"min=0"`               // minutes, 0 for a browser-session cookie
	TimeLocation   string `json:"timeLocation" form:"timeLocation" validate:"required,timezone"`     // zone used by scheduled jobs
	TrustedProxies string `json:"trustedProxies" form:"trustedProxies" validate:"omitempty,proxies"` // comma separated IPs or CIDRs allowed to set X-Forwarded-*
}

func init() {
	if err := validate.RegisterValidation("proxies", func(fl validator.FieldLevel) bool {
		for _, p := range SplitProxies(fl.Field().String()) {
			if validate.Var(p, "ip|cidr") != nil {
				return false
			}
		}
		return true
	}); err != nil {
		panic(err)
	}
}

// SplitProxies breaks a trusted proxy list into trimmed, non-empty entries.
func SplitProxies(list string) []string {
	proxies := make([]string, 0)
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}

// NormalizeBasePath gives p a leading and a trailing slash.
func NormalizeBasePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// CheckValid validates the settings and normalizes the base path.
func (s *AllSetting) CheckValid() error {
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.Errorf("setting %s: %v is not valid (%s)", fe.Field(), fe.Value(), fe.Tag())
		}
		return errors.Wrap(err, "validate settings")
	}

	if s.WebCertFile != "" || s.WebKeyFile != "" {
		if _, err := tls.LoadX509KeyPair(s.WebCertFile, s.WebKeyFile); err != nil {
			return errors.Wrapf(err, "cert file <%v> or key file <%v> invalid", s.WebCertFile, s.WebKeyFile)
		}
	}

	s.WebBasePath = NormalizeBasePath(s.WebBasePath)
	return nil
}
