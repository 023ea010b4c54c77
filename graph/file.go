package graph

import (
	"strings"
	"time"
)

// DefaultMIMEType is assumed for files whose metadata carries no MIME type.
const DefaultMIMEType = "application/octet-stream"

// File describes one drive item.
type File struct {
	Name       string
	ID         string
	Size       int64
	Path       string
	ParentID   string
	IsFolder   bool
	MIMEType   string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// driveItem is the wire shape of a Graph drive item.
type driveItem struct {
	Name                 string     `json:"name"`
	ID                   string     `json:"id"`
	Size                 int64      `json:"size"`
	CreatedDateTime      time.Time  `json:"createdDateTime"`
	LastModifiedDateTime time.Time  `json:"lastModifiedDateTime"`
	Folder               *folderInfo `json:"folder"`
	File                 *fileInfo   `json:"file"`
	ParentReference      *parentRef  `json:"parentReference"`
}

type folderInfo struct {
	ChildCount int `json:"childCount"`
}

type fileInfo struct {
	MimeType string `json:"mimeType"`
}

type parentRef struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

type itemPage struct {
	Value    []driveItem `json:"value"`
	NextLink string      `json:"@odata.nextLink"`
}

// toFile converts the wire item into the descriptor served by the gateway.
// Graph reports parent paths as "/drive/root:/sub/dir"; the drive prefix is
// stripped so descriptor paths line up with the ACL's view of the tree.
func (d driveItem) toFile() *File {
	f := &File{
		Name:       d.Name,
		ID:         d.ID,
		Size:       d.Size,
		IsFolder:   d.Folder != nil,
		CreatedAt:  d.CreatedDateTime,
		ModifiedAt: d.LastModifiedDateTime,
	}

	parentPath := ""
	if d.ParentReference != nil {
		f.ParentID = d.ParentReference.ID
		parentPath = trimDrivePrefix(d.ParentReference.Path)
	}
	f.Path = parentPath + "/" + d.Name

	if !f.IsFolder {
		f.MIMEType = DefaultMIMEType
		if d.File != nil && d.File.MimeType != "" {
			f.MIMEType = d.File.MimeType
		}
	}

	return f
}

func trimDrivePrefix(path string) string {
	if i := strings.Index(path, ":"); i >= 0 {
		return path[i+1:]
	}
	return path
}
