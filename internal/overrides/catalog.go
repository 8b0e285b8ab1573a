package overrides

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog describes the built-in sound events and the seasonal sound table.
// It is supplied by the host as a YAML document:
//
//	events:
//	  user_join:
//	    seasonal: [halloween_user_join, winter_user_join]
//	seasonal:
//	  halloween_user_join: https://cdn.example/halloween/join.mp3
type Catalog struct {
	Events   map[string]CatalogEvent `yaml:"events" json:"events"`
	Seasonal map[string]string       `yaml:"seasonal" json:"seasonal"`
}

// CatalogEvent lists the seasonal variants available for one event.
type CatalogEvent struct {
	Seasonal []string `yaml:"seasonal" json:"seasonal"`
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	catalog := &Catalog{}
	if err := yaml.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if catalog.Events == nil {
		catalog.Events = map[string]CatalogEvent{}
	}
	if catalog.Seasonal == nil {
		catalog.Seasonal = map[string]string{}
	}
	return catalog, nil
}

// LoadCatalog reads a YAML catalog from path. An empty path yields an empty catalog.
func LoadCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ParseCatalog(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// SeasonalURI looks a seasonal id up in the seasonal table.
func (c *Catalog) SeasonalURI(id string) (string, bool) {
	if c == nil {
		return "", false
	}
	uri, ok := c.Seasonal[id]
	if !ok || strings.TrimSpace(uri) == "" {
		return "", false
	}
	return uri, true
}

// SeasonalIDFor finds the event's seasonal id named "<key>_...".
func (c *Catalog) SeasonalIDFor(eventID, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	event, ok := c.Events[eventID]
	if !ok {
		return "", false
	}
	prefix := key + "_"
	for _, id := range event.Seasonal {
		if strings.HasPrefix(id, prefix) {
			return id, true
		}
	}
	return "", false
}
