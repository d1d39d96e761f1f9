package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// Setting keys stored in site_settings.
const (
	KeyMaintenanceMode = "maintenance_mode"
	KeySiteTitle       = "site_title"
	KeySiteDescription = "site_description"
	KeyMapURL          = "map_url"
	KeySocialLinks     = "social_links"
	KeySiteLogo        = "site_logo"
	KeyLastBackup      = "last_backup"
)

var (
	ErrEmptyUpdate = errors.New("No fields to update")
	// ErrMobileReadOnly is returned for a patch that tries to set the admin mobile.
	ErrMobileReadOnly = errors.New("mobile can only be changed through the OTP verified mobile change")
)

// InvalidFieldError reports an unknown key or a value of the wrong type.
type InvalidFieldError struct {
	Key    string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Reason)
}

// SocialLink is one entry of the social_links setting.
type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// Settings is the decoded view of site_settings.
type Settings struct {
	MaintenanceMode bool         `json:"maintenance_mode"`
	SiteTitle       string       `json:"site_title"`
	SiteDescription string       `json:"site_description"`
	MapURL          string       `json:"map_url"`
	SocialLinks     []SocialLink `json:"social_links"`
	SiteLogo        string       `json:"site_logo"`
	LastBackup      *time.Time   `json:"last_backup"`
}

// editable maps each admin-editable key to a decoder that type-checks its value.
var editable = map[string]func(raw []byte, s *Settings) error{
	KeyMaintenanceMode: func(raw []byte, s *Settings) error { return json.Unmarshal(raw, &s.MaintenanceMode) },
	KeySiteTitle:       func(raw []byte, s *Settings) error { return json.Unmarshal(raw, &s.SiteTitle) },
	KeySiteDescription: func(raw []byte, s *Settings) error { return json.Unmarshal(raw, &s.SiteDescription) },
	KeyMapURL:          func(raw []byte, s *Settings) error { return json.Unmarshal(raw, &s.MapURL) },
	KeySocialLinks:     func(raw []byte, s *Settings) error { return json.Unmarshal(raw, &s.SocialLinks) },
	KeySiteLogo:        func(raw []byte, s *Settings) error { return json.Unmarshal(raw, &s.SiteLogo) },
}

func decodeLastBackup(raw []byte, s *Settings) error {
	var t *time.Time
	if err := json.Unmarshal(raw, &t); err != nil {
		return err
	}
	s.LastBackup = t
	return nil
}

// Decode builds Settings from stored raw values. Unknown keys and undecodable values are skipped
// so a bad row never takes the public site down; the returned keys name the skipped values.
func Decode(values map[string][]byte) (*Settings, []string) {
	s := &Settings{SocialLinks: []SocialLink{}}
	var skipped []string
	for k, raw := range values {
		dec, ok := editable[k]
		if k == KeyLastBackup {
			dec, ok = decodeLastBackup, true
		}
		if !ok || dec(raw, s) != nil {
			skipped = append(skipped, k)
		}
	}
	if s.SocialLinks == nil {
		s.SocialLinks = []SocialLink{}
	}
	sort.Strings(skipped)
	return s, skipped
}

// ValidatePatch checks an admin update: at least one key, only editable keys, values of the
// right JSON type. last_backup is system managed and the mobile has its own verified flow.
func ValidatePatch(patch map[string]json.RawMessage) error {
	if len(patch) == 0 {
		return ErrEmptyUpdate
	}
	var scratch Settings
	for _, k := range sortedKeys(patch) {
		if k == "mobile" {
			return ErrMobileReadOnly
		}
		dec, ok := editable[k]
		if !ok {
			return &InvalidFieldError{Key: k, Reason: "is not an editable setting"}
		}
		if err := dec(patch[k], &scratch); err != nil {
			return &InvalidFieldError{Key: k, Reason: "has the wrong type"}
		}
	}
	return nil
}

// Defaults returns the initial values installed by the seed command.
func Defaults() map[string][]byte {
	return map[string][]byte{
		KeyMaintenanceMode: []byte(`false`),
		KeySiteTitle:       []byte(`"My Portfolio"`),
		KeySiteDescription: []byte(`"Personal VCard / Portfolio"`),
		KeyMapURL:          []byte(`""`),
		KeySocialLinks: []byte(`[
			{"platform": "github", "url": "#"},
			{"platform": "linkedin", "url": "#"},
			{"platform": "discord", "url": "#"}
		]`),
		KeyLastBackup: []byte(`null`),
	}
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
