// Package session persists the open trail between runs so a reader can
// resume browsing where they left off.
package session

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/csheth/wikitrail/internal/nav"
)

// Trail is the on-disk snapshot of the pane sequence and active cursor.
type Trail struct {
	SavedAt time.Time   `json:"savedAt"`
	Active  int         `json:"active"`
	Panes   []paneState `json:"panes"`
}

type paneState struct {
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Links        []linkState `json:"links,omitempty"`
	SearchResult bool        `json:"searchResult,omitempty"`
	Width        int         `json:"width"`
}

type linkState struct {
	Text   string `json:"text"`
	Target string `json:"target"`
}

// Save writes the controller's current trail to path. An empty trail
// removes the snapshot so the next run starts fresh.
func Save(path string, c *nav.Controller) error {
	if c.Len() == 0 {
		err := os.Remove(path)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	panes := c.Panes()
	trail := Trail{
		SavedAt: time.Now().UTC(),
		Active:  c.Active(),
		Panes:   make([]paneState, 0, len(panes)),
	}
	for _, p := range panes {
		state := paneState{
			Title:        p.Title,
			Content:      p.Content,
			SearchResult: p.SearchResult,
			Width:        p.Width,
		}
		for _, l := range p.Links {
			state.Links = append(state.Links, linkState{Text: l.Text, Target: l.Target})
		}
		trail.Panes = append(trail.Panes, state)
	}

	data, err := json.MarshalIndent(trail, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a saved trail and rebuilds the controller. A missing or empty
// file yields a fresh empty controller and no error.
func Load(path string) (*nav.Controller, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nav.NewController(), nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nav.NewController(), nil
	}

	var trail Trail
	if err := json.Unmarshal(data, &trail); err != nil {
		return nil, err
	}

	panes := make([]nav.Pane, 0, len(trail.Panes))
	for _, state := range trail.Panes {
		p := nav.Pane{
			Title:        state.Title,
			Content:      state.Content,
			SearchResult: state.SearchResult,
			Width:        state.Width,
		}
		for _, l := range state.Links {
			p.Links = append(p.Links, nav.Link{Text: l.Text, Target: l.Target})
		}
		panes = append(panes, p)
	}
	return nav.Restore(panes, trail.Active), nil
}

// Exists reports whether a saved trail is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
