//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=../mocks/mock_directory.go -package=mocks

package team

import (
	"context"

	"github.com/Iron-Ham/teamlabel/internal/errors"
	"github.com/Iron-Ham/teamlabel/internal/logging"
	"github.com/Iron-Ham/teamlabel/internal/pr"
)

// Directory lists team members on a hosting service.
type Directory interface {
	ListTeamMembers(ctx context.Context, id ID) ([]pr.Identity, error)
}

// Resolver produces the roster of a team.
type Resolver struct {
	dir        Directory
	defaultOrg string
	logger     *logging.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDefaultOrg sets the organization used for bare team slugs.
func WithDefaultOrg(org string) Option {
	return func(r *Resolver) {
		r.defaultOrg = org
	}
}

// WithLogger sets the logger for the Resolver.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver backed by dir.
func NewResolver(dir Directory, opts ...Option) *Resolver {
	r := &Resolver{dir: dir}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NopLogger()
	}
	return r
}

// Resolve returns the set of members of teamID. An empty team yields an
// empty set. Any failure, including a missing team or one the credential
// cannot see, is a *errors.RosterError.
func (r *Resolver) Resolve(ctx context.Context, teamID string) (pr.IdentitySet, error) {
	id, err := ParseID(teamID, r.defaultOrg)
	if err != nil {
		return nil, errors.NewRosterError("invalid team", err).WithTeam(teamID)
	}

	members, err := r.dir.ListTeamMembers(ctx, id)
	if err != nil {
		return nil, errors.NewRosterError("listing team members", err).WithTeam(id.String())
	}

	roster := pr.NewIdentitySet(members...)
	r.logger.Debug("roster resolved", "team", id.String(), "members", roster.Len())
	return roster, nil
}
