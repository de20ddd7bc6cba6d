package team

import (
	"strings"

	"github.com/Iron-Ham/teamlabel/internal/errors"
)

// ID identifies a team. Slug may contain further "/" segments for nested
// GitLab groups.
type ID struct {
	Org  string
	Slug string
}

// String returns the "org/slug" form.
func (id ID) String() string {
	if id.Org == "" {
		return id.Slug
	}
	return id.Org + "/" + id.Slug
}

// ParseID parses "org/slug" or a bare "slug". A bare slug takes its
// organization from defaultOrg, normally the repository owner.
func ParseID(raw, defaultOrg string) (ID, error) {
	raw = strings.Trim(strings.TrimSpace(raw), "/")
	raw = strings.TrimPrefix(raw, "@")
	if raw == "" {
		return ID{}, errors.NewValidationError("team is empty").WithField("team")
	}

	org, slug, found := strings.Cut(raw, "/")
	if !found {
		if defaultOrg == "" {
			return ID{}, errors.NewValidationError("team has no organization and none could be inferred").
				WithField("team").WithValue(raw)
		}
		return ID{Org: defaultOrg, Slug: raw}, nil
	}
	if org == "" || slug == "" {
		return ID{}, errors.NewValidationError("team must be org/slug").WithField("team").WithValue(raw)
	}
	return ID{Org: org, Slug: slug}, nil
}
