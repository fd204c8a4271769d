package auth

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wansing/newsroom/util"
)

// FallbackPolicy derives a role from an email address, for when the ProfileDB can't deliver a profile.
type FallbackPolicy struct {
	Domain            string // organization domain, like "opiniku.id"
	AdminAddress      string
	EditorAddress     string
	JournalistAddress string

	// If RequireVerifiedEmail is set, only identities whose email the provider has verified get a role above Subscriber.
	RequireVerifiedEmail bool
}

func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		Domain:            "opiniku.id",
		AdminAddress:      "admin@opiniku.id",
		EditorAddress:     "editor@opiniku.id",
		JournalistAddress: "journalist@opiniku.id",
	}
}

// LoadFallbackPolicy reads the [fallback] section of an ini file. Keys which are missing keep their default value.
// If the file does not exist, the default policy is returned.
func LoadFallbackPolicy(path string) (FallbackPolicy, error) {

	var policy = DefaultFallbackPolicy()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return policy, nil
	}

	values, err := util.IniSection(path, "fallback")
	if err != nil {
		return policy, err
	}

	if v, ok := values["domain"]; ok {
		policy.Domain = normalizeEmail(v)
	}
	if v, ok := values["admin"]; ok {
		policy.AdminAddress = normalizeEmail(v)
	}
	if v, ok := values["editor"]; ok {
		policy.EditorAddress = normalizeEmail(v)
	}
	if v, ok := values["journalist"]; ok {
		policy.JournalistAddress = normalizeEmail(v)
	}
	if v, ok := values["require_verified_email"]; ok {
		policy.RequireVerifiedEmail, err = strconv.ParseBool(v)
		if err != nil {
			return policy, err
		}
	}

	return policy, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role determines the fallback role of an identity.
func (p FallbackPolicy) Role(id Identity) Role {

	var email = normalizeEmail(id.Email)
	var role Role

	switch {
	case email == "":
		role = Subscriber
	case email == p.AdminAddress:
		role = SuperAdmin
	case email == p.EditorAddress:
		role = Editor
	case email == p.JournalistAddress:
		role = Journalist
	case p.Domain != "" && strings.HasSuffix(email, "@"+p.Domain):
		role = Contributor
	default:
		role = Subscriber
	}

	if p.RequireVerifiedEmail && !id.EmailVerified {
		role = Subscriber
	}

	return role
}

// Synthesize creates a profile which is not stored anywhere.
func (p FallbackPolicy) Synthesize(id Identity, now time.Time) *Profile {

	var name = id.Email
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		name = "User"
	}

	return &Profile{
		ID:            "fallback-" + id.ID,
		UserID:        id.ID,
		FullName:      name,
		Role:          p.Role(id),
		IsActive:      true,
		LastLoginAt:   now,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
		Synthesized:   true,
	}
}
