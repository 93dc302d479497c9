package domain

// ParentMarkerName is the display name of the synthetic parent entry
const ParentMarkerName = ".."

// FolderEntry is one item of a folder listing, local or remote
type FolderEntry struct {
	// ID is the backend handle (absolute path locally, item ID remotely)
	ID string

	// Path is what to navigate to when the entry is opened
	Path string

	// DisplayName is the folder name shown to the user
	DisplayName string

	// IsParentMarker is true only for the synthetic ".." entry
	IsParentMarker bool
}

// NewParentMarker returns the synthetic entry that leads to parentPath
func NewParentMarker(parentPath string) FolderEntry {
	return FolderEntry{
		ID:             parentPath,
		Path:           parentPath,
		DisplayName:    ParentMarkerName,
		IsParentMarker: true,
	}
}
