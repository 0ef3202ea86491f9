package index

import (
	"net/url"
	"path"

	"github.com/mwantia/feedtree/data"
)

// IDKey is the flat key of a row addressed by its id.
func IDKey(ns string, id data.ID) string {
	return ns + ":id:" + id.String()
}

// ParentKey is the flat prefix shared by every row discovered under parent.
func ParentKey(ns string, parent data.ID) string {
	return ns + ":parent:" + parent.String() + ":"
}

// TokenKey is the flat key of a row addressed by (parent, token).
func TokenKey(ns string, parent data.ID, token string) string {
	return ParentKey(ns, parent) + token
}

// IDPath is the hierarchical key used by KV and object stores.
func IDPath(prefix, ns string, id data.ID) string {
	return path.Join(prefix, ns, "ids", id.String())
}

// ParentPath is the hierarchical prefix of all token keys under parent,
// including the trailing slash.
func ParentPath(prefix, ns string, parent data.ID) string {
	return path.Join(prefix, ns, "tokens", parent.String()) + "/"
}

// TokenPath is the hierarchical key of a row addressed by (parent, token).
// Tokens are URIs, so they are escaped into a single path segment.
func TokenPath(prefix, ns string, parent data.ID, token string) string {
	return ParentPath(prefix, ns, parent) + url.PathEscape(token)
}
