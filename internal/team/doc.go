// Package team resolves the membership of a named team.
//
// A team is addressed by an [ID]. On GitHub that is an organization and a
// team slug; on GitLab it is a group path. The [Resolver] turns the ID into
// a [pr.IdentitySet] through a [Directory] supplied by a provider package.
package team
