package gdata

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mwantia/feedtree/data"
)

type document struct {
	Feed struct {
		Entries []entry `json:"entry"`
	} `json:"feed"`
}

type text struct {
	T string `json:"$t"`
}

type entry struct {
	ID    text  `json:"id"`
	Title text  `json:"title"`
	Group group `json:"media$group"`
}

type group struct {
	Content     []content `json:"media$content"`
	Title       text      `json:"media$title"`
	Keywords    text      `json:"media$keywords"`
	Description text      `json:"media$description"`
	VideoID     text      `json:"yt$videoid"`
}

type content struct {
	URL       string    `json:"url"`
	Type      string    `json:"type"`
	IsDefault string    `json:"isDefault"`
	Width     dimension `json:"width"`
	Height    dimension `json:"height"`
}

// dimension accepts both quoted and bare numbers.
type dimension string

func (d *dimension) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = dimension(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*d = dimension(n.String())
	return nil
}

// primary returns the default media content, or the first one when none is
// flagged as default.
func (g group) primary() *content {
	if len(g.Content) == 0 {
		return nil
	}
	for i := range g.Content {
		if ok, _ := strconv.ParseBool(g.Content[i].IsDefault); ok {
			return &g.Content[i]
		}
	}

	return &g.Content[0]
}

func (e entry) remote() *data.RemoteEntry {
	title := strings.TrimSpace(e.Title.T)
	if title == "" {
		title = strings.TrimSpace(e.Group.Title.T)
	}

	result := &data.RemoteEntry{
		Token:       strings.TrimSpace(e.ID.T),
		Title:       title,
		Keywords:    e.Group.Keywords.T,
		Description: e.Group.Description.T,
		VideoID:     e.Group.VideoID.T,
	}

	media := e.Group.primary()
	if media == nil {
		result.Restricted = true
		return result
	}

	result.URL = media.URL
	result.MimeType = media.Type
	result.Width = string(media.Width)
	result.Height = string(media.Height)
	return result
}

func decodeFeed(body []byte) ([]*data.RemoteEntry, error) {
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}

	entries := make([]*data.RemoteEntry, 0, len(doc.Feed.Entries))
	for _, e := range doc.Feed.Entries {
		entries = append(entries, e.remote())
	}

	return entries, nil
}
