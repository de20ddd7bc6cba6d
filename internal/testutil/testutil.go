// Package testutil provides fixtures for teamlabel tests: webhook payloads
// as the Actions runner writes them, and tool-availability skips.
package testutil

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
)

// Payload is a webhook event body under construction.
type Payload map[string]any

// PullRequestPayload returns a pull_request event body for acme/app.
func PullRequestPayload(number int, author string, labels ...string) Payload {
	return Payload{
		"action":       "opened",
		"number":       number,
		"pull_request": requestObject("pull", number, author, labels),
		"repository":   repositoryObject("acme", "app"),
		"sender":       map[string]any{"login": author},
	}
}

// IssuePayload returns an issues event body for acme/app.
func IssuePayload(number int, author string, labels ...string) Payload {
	return Payload{
		"action":     "opened",
		"issue":      requestObject("issues", number, author, labels),
		"repository": repositoryObject("acme", "app"),
		"sender":     map[string]any{"login": author},
	}
}

// IssueCommentPayload returns an issue_comment event body. When onPull is
// true the issue carries the pull_request marker GitHub sets for comments
// on pull requests.
func IssueCommentPayload(number int, author, commenter string, onPull bool, labels ...string) Payload {
	issue := requestObject("issues", number, author, labels)
	if onPull {
		issue["pull_request"] = map[string]any{
			"url": "https://api.github.com/repos/acme/app/pulls/" + strconv.Itoa(number),
		}
	}
	return Payload{
		"action":     "created",
		"issue":      issue,
		"comment":    map[string]any{"user": map[string]any{"login": commenter}, "body": "looks good"},
		"repository": repositoryObject("acme", "app"),
		"sender":     map[string]any{"login": commenter},
	}
}

// Without returns a copy of p with the given top-level keys removed.
func (p Payload) Without(keys ...string) Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// WriteEventFile writes p as JSON to a temporary file and returns its
// path, the way the runner exposes GITHUB_EVENT_PATH.
func WriteEventFile(t *testing.T, p Payload) string {
	t.Helper()

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("failed to encode event payload: %v", err)
	}
	return WriteFile(t, "event.json", string(data))
}

// WriteFile writes content to name inside a per-test temporary directory.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// SkipIfNoGolangciLint skips the test if golangci-lint is not installed.
func SkipIfNoGolangciLint(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("golangci-lint"); err != nil {
		t.Skip("golangci-lint not found in PATH, skipping test")
	}
}

func requestObject(path string, number int, author string, labels []string) map[string]any {
	labelObjs := make([]map[string]any, len(labels))
	for i, l := range labels {
		labelObjs[i] = map[string]any{"name": l}
	}
	return map[string]any{
		"number":   number,
		"title":    "Add retries to the uploader",
		"html_url": "https://github.com/acme/app/" + path + "/" + strconv.Itoa(number),
		"user":     map[string]any{"login": author},
		"labels":   labelObjs,
	}
}

func repositoryObject(owner, name string) map[string]any {
	return map[string]any{
		"name":      name,
		"full_name": owner + "/" + name,
		"owner":     map[string]any{"login": owner},
	}
}
