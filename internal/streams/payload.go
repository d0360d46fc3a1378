package streams

// Payload is the provider-native episode structure both catalogs return: an
// ordered list of server groups. The zero value is the empty structure every
// failure path collapses to.
type Payload struct {
	Servers []ServerGroup `json:"episodes"`
}

// IsEmpty reports whether the payload carries no server groups.
func (p Payload) IsEmpty() bool {
	return len(p.Servers) == 0
}

// EpisodeCount returns the number of raw entries across all server groups.
func (p Payload) EpisodeCount() int {
	total := 0
	for _, group := range p.Servers {
		total += len(group.Episodes)
	}
	return total
}

// ServerGroup is one streaming server with its episode list.
type ServerGroup struct {
	ServerName string         `json:"server_name"`
	Episodes   []EpisodeEntry `json:"server_data"`
}

// EpisodeEntry is a provider episode row.
type EpisodeEntry struct {
	Name      string `json:"name"`
	Slug      string `json:"slug,omitempty"`
	Filename  string `json:"filename,omitempty"`
	LinkM3U8  string `json:"link_m3u8"`
	LinkEmbed string `json:"link_embed"`
}
