package data

// Version numbers reported to the host.
type Version int

const (
	VersionNull  Version = 0
	VersionFirst Version = 1
)

// ItemDefinition describes a synthesized item to the host tree.
type ItemDefinition struct {
	ID         ID
	Name       string
	TemplateID ID
	// Version is always VersionNull for synthesized items.
	Version Version
}

// FieldList maps host field ids to their string values.
type FieldList map[ID]string

// VersionUri is a single (language, version) pair.
type VersionUri struct {
	Language string
	Version  Version
}
