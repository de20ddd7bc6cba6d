package notify

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/teamlabel/internal/errors"
	"github.com/Iron-Ham/teamlabel/internal/pr"
)

// ParseChannelMap normalizes a label to channel table. raw may be a JSON
// object string, a YAML mapping string, a map from a config file, or empty.
// Every key and value must be a non-empty string; anything else is a
// *errors.ChannelMapError.
func ParseChannelMap(raw any) (pr.ChannelMap, error) {
	switch v := raw.(type) {
	case nil:
		return pr.ChannelMap{}, nil
	case string:
		return parseChannelMapString(v)
	case map[string]string:
		m := make(pr.ChannelMap, len(v))
		for key, channel := range v {
			if err := addChannel(m, key, channel); err != nil {
				return nil, err
			}
		}
		return m, nil
	case map[string]any:
		m := make(pr.ChannelMap, len(v))
		for key, value := range v {
			channel, ok := value.(string)
			if !ok {
				return nil, errors.NewChannelMapError(
					fmt.Sprintf("channel must be a string, got %T", value), errors.ErrInvalidInput,
				).WithKey(key)
			}
			if err := addChannel(m, key, channel); err != nil {
				return nil, err
			}
		}
		return m, nil
	default:
		return nil, errors.NewChannelMapError(
			fmt.Sprintf("unsupported channel map type %T", raw), errors.ErrInvalidInput,
		)
	}
}

// parseChannelMapString decodes JSON or YAML text. JSON is a subset of
// YAML, so one decoder covers both.
func parseChannelMapString(s string) (pr.ChannelMap, error) {
	if strings.TrimSpace(s) == "" {
		return pr.ChannelMap{}, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		return nil, errors.NewChannelMapError("decoding channel map", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, errors.NewChannelMapError("channel map must be a single document", errors.ErrInvalidInput)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.NewChannelMapError("channel map must be an object of label to channel", errors.ErrInvalidInput)
	}

	m := make(pr.ChannelMap, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, errors.NewChannelMapError("label must be a string", errors.ErrInvalidInput)
		}
		if valueNode.Kind != yaml.ScalarNode || valueNode.ShortTag() != "!!str" {
			return nil, errors.NewChannelMapError(
				"channel must be a string", errors.ErrInvalidInput,
			).WithKey(keyNode.Value)
		}
		if err := addChannel(m, keyNode.Value, valueNode.Value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// addChannel stores label as written, since lookups match label names
// exactly. A key with surrounding whitespace could never match and is
// rejected, as is a label mapped twice. Channel IDs are trimmed.
func addChannel(m pr.ChannelMap, label, channel string) error {
	channel = strings.TrimSpace(channel)
	if strings.TrimSpace(label) == "" {
		return errors.NewChannelMapError("label is empty", errors.ErrInvalidInput)
	}
	if strings.TrimSpace(label) != label {
		return errors.NewChannelMapError("label has surrounding whitespace", errors.ErrInvalidInput).WithKey(label)
	}
	if _, dup := m[label]; dup {
		return errors.NewChannelMapError("label is mapped more than once", errors.ErrInvalidInput).WithKey(label)
	}
	if channel == "" {
		return errors.NewChannelMapError("channel is empty", errors.ErrInvalidInput).WithKey(label)
	}
	m[label] = channel
	return nil
}

// ResolveOption configures ResolveChannels.
type ResolveOption func(*resolveConfig)

type resolveConfig struct {
	glob bool
}

// WithGlob lets map keys containing glob metacharacters match label names.
// Keys without metacharacters still match exactly.
func WithGlob() ResolveOption {
	return func(c *resolveConfig) {
		c.glob = true
	}
}

// ResolveChannels returns the sorted, de-duplicated channels mapped from
// labels. Unmapped labels are skipped.
func ResolveChannels(m pr.ChannelMap, labels []pr.Label, opts ...ResolveOption) []string {
	var cfg resolveConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var channels []string
	for _, l := range labels {
		if channel, ok := m[l.Name]; ok {
			channels = append(channels, channel)
		}
	}

	if cfg.glob {
		for pattern, channel := range m {
			if !hasGlobMeta(pattern) {
				continue
			}
			g, err := glob.Compile(pattern)
			if err != nil {
				continue
			}
			if slices.ContainsFunc(labels, func(l pr.Label) bool { return g.Match(l.Name) }) {
				channels = append(channels, channel)
			}
		}
	}

	channels = lo.Uniq(channels)
	slices.Sort(channels)
	return channels
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, `*?[{\`)
}
