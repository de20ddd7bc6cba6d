// Package pr holds the request-level value types shared by every pipeline
// stage: identities, labels, the request context supplied by the trigger,
// and the notification job handed to the dispatcher.
package pr

import (
	"fmt"
	"slices"
	"strings"
)

// Identity is an opaque login as reported by the hosting service.
// Equality is exact string match.
type Identity string

// IdentitySet is an unordered set of identities. Sets are built once by a
// constructor and treated as immutable afterwards.
type IdentitySet map[Identity]struct{}

// NewIdentitySet builds a set from ids, dropping empty logins.
func NewIdentitySet(ids ...Identity) IdentitySet {
	set := make(IdentitySet, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Has reports whether id is a member of the set.
func (s IdentitySet) Has(id Identity) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of members.
func (s IdentitySet) Len() int {
	return len(s)
}

// Sorted returns the members in lexical order, for logs and summaries.
func (s IdentitySet) Sorted() []Identity {
	out := make([]Identity, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Strings returns the sorted members as plain strings.
func (s IdentitySet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, id := range sorted {
		out[i] = string(id)
	}
	return out
}

// Kind distinguishes pull requests (which have reviews) from plain issues.
type Kind string

const (
	KindPullRequest Kind = "pull_request"
	KindIssue       Kind = "issue"
)

// Label is a label currently attached to a request.
type Label struct {
	Name string `json:"name"`
}

// Repo identifies the repository (or GitLab project path) a request lives in.
type Repo struct {
	Owner string
	Name  string
}

// String returns "owner/name".
func (r Repo) String() string {
	if r.Owner == "" {
		return r.Name
	}
	return r.Owner + "/" + r.Name
}

// ParseRepo splits "owner/name". GitLab subgroups keep every segment but
// the last in Owner.
func ParseRepo(s string) (Repo, error) {
	i := strings.LastIndex(s, "/")
	if i <= 0 || i == len(s)-1 {
		return Repo{}, fmt.Errorf("repository %q is not in owner/name form", s)
	}
	return Repo{Owner: s[:i], Name: s[i+1:]}, nil
}

// RequestContext is everything the pipeline knows about the triggering
// pull request or issue. It is read-only once built.
type RequestContext struct {
	Number    int
	Author    Identity
	Labels    []Label
	URL       string
	Title     string
	Repo      Repo
	Kind      Kind
	EventName string
}

// HasLabel reports whether a label with the given name is attached.
func (r RequestContext) HasLabel(name string) bool {
	return slices.ContainsFunc(r.Labels, func(l Label) bool { return l.Name == name })
}

// WithLabel returns a copy of r with name appended to its labels, unless
// already present. The receiver is not modified.
func (r RequestContext) WithLabel(name string) RequestContext {
	if r.HasLabel(name) {
		return r
	}
	labels := make([]Label, 0, len(r.Labels)+1)
	labels = append(labels, r.Labels...)
	r.Labels = append(labels, Label{Name: name})
	return r
}

// LabelNames returns the label names in order.
func (r RequestContext) LabelNames() []string {
	names := make([]string, len(r.Labels))
	for i, l := range r.Labels {
		names[i] = l.Name
	}
	return names
}

// ChannelMap maps a label name to a notification channel identifier.
type ChannelMap map[string]string

// NotificationJob is one message bound for one channel.
type NotificationJob struct {
	Channel string
	Body    string
}
