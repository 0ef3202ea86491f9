package data

// RemoteEntry is a single feed entry as returned by the remote service.
// It is never persisted; every query produces fresh values.
type RemoteEntry struct {
	// Token is the entry's own opaque identifier (its id URI).
	Token string
	Title string

	URL         string
	MimeType    string
	Width       string
	Height      string
	Keywords    string
	Description string
	VideoID     string

	// Restricted marks entries without playable media attached.
	Restricted bool
}

// Mapping is one durable row of the stable id table.
type Mapping struct {
	Namespace string `json:"namespace"`
	Token     string `json:"token"`
	ID        ID     `json:"id"`
	ParentID  ID     `json:"parent_id"`
	Name      string `json:"name"`
	// CreateTime as unix seconds.
	CreateTime int64 `json:"create_time"`
}
