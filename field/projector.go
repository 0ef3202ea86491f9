// Package field projects remote feed entries onto the declared field schema
// of the resource template.
package field

import "github.com/mwantia/feedtree/data"

// Recognized field names.
const (
	URL         = "Url"
	ID          = "Id"
	Width       = "Width"
	Height      = "Height"
	Title       = "Title"
	Keywords    = "Keywords"
	Description = "Description"
	Extension   = "Extension"
	MimeType    = "Mime Type"
	Size        = "Size"
	Format      = "Format"
	Dimensions  = "Dimensions"
)

// DefaultExtension is reported for every entry; the feed only serves flash video.
const DefaultExtension = "flv"

var projections = map[string]func(*data.RemoteEntry) string{
	URL:         func(e *data.RemoteEntry) string { return e.URL },
	ID:          func(e *data.RemoteEntry) string { return e.VideoID },
	Width:       func(e *data.RemoteEntry) string { return e.Width },
	Height:      func(e *data.RemoteEntry) string { return e.Height },
	Title:       func(e *data.RemoteEntry) string { return e.Title },
	Keywords:    func(e *data.RemoteEntry) string { return e.Keywords },
	Description: func(e *data.RemoteEntry) string { return e.Description },
	Extension:   func(*data.RemoteEntry) string { return DefaultExtension },
	MimeType:    func(e *data.RemoteEntry) string { return e.MimeType },
	// Not exposed by the feed
	Size:       func(*data.RemoteEntry) string { return "" },
	Format:     func(*data.RemoteEntry) string { return "" },
	Dimensions: func(*data.RemoteEntry) string { return "" },
}

// Project returns the value of the named field for entry. Unknown names and
// nil entries yield an empty string.
func Project(name string, entry *data.RemoteEntry) string {
	project, ok := projections[name]
	if !ok {
		return ""
	}
	if entry == nil && name != Extension {
		return ""
	}

	return project(entry)
}

// Names returns every recognized field name.
func Names() []string {
	return []string{URL, ID, Width, Height, Title, Keywords, Description, Extension, MimeType, Size, Format, Dimensions}
}
