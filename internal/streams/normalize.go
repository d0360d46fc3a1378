package streams

import (
	"fmt"
	"strconv"
	"strings"
)

// MissingStreamPolicy decides what happens to episodes without a stream URL.
type MissingStreamPolicy string

const (
	// PolicyDrop removes episodes that have no stream URL. This is the default.
	PolicyDrop MissingStreamPolicy = "drop"
	// PolicyRetain keeps such episodes with StreamURL left empty.
	PolicyRetain MissingStreamPolicy = "retain"
)

// ParseMissingStreamPolicy validates a configured policy value. Empty selects
// the default.
func ParseMissingStreamPolicy(value string) (MissingStreamPolicy, error) {
	switch MissingStreamPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyDrop:
		return PolicyDrop, nil
	case PolicyRetain:
		return PolicyRetain, nil
	default:
		return "", fmt.Errorf("unsupported missing stream policy %q (want drop or retain)", value)
	}
}

// Normalize flattens a provider payload into episode records tagged with the
// given source. Output order is server-group order, then in-group order, as
// received.
func Normalize(payload Payload, tag SourceTag, policy MissingStreamPolicy) []EpisodeRecord {
	out := make([]EpisodeRecord, 0, payload.EpisodeCount())
	for _, group := range payload.Servers {
		server := strings.TrimSpace(group.ServerName)
		for index, entry := range group.Episodes {
			stream := strings.TrimSpace(entry.LinkM3U8)
			if stream == "" && policy != PolicyRetain {
				continue
			}
			name := strings.TrimSpace(entry.Name)
			out = append(out, EpisodeRecord{
				ID:         episodeID(tag, server, name, index),
				Name:       name,
				ServerName: server,
				StreamURL:  stream,
				EmbedURL:   strings.TrimSpace(entry.LinkEmbed),
				source:     tag,
			})
		}
	}
	return out
}

// episodeID is stable for a given payload: <source>-<server>-<name>-<index>.
func episodeID(tag SourceTag, server, name string, index int) string {
	var b strings.Builder
	b.WriteString(string(tag))
	b.WriteByte('-')
	b.WriteString(server)
	b.WriteByte('-')
	b.WriteString(name)
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(index))
	return b.String()
}
