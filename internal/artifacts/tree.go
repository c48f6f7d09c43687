package artifacts

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrInvalidTree = errors.New("invalid file tree")

// File is one entry of an uploaded tree. Content is base64 encoded.
type File struct {
	Path          string `json:"path"`
	ContentBase64 string `json:"contentBase64"`
}

type Tree struct {
	Files []File `json:"files"`
}

func (t *Tree) empty() bool { return t == nil || len(t.Files) == 0 }

var contentTypes = map[string]string{
	".html": "text/html",
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".css":  "text/css",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
	".txt":  "text/plain",
	".ts":   "text/plain",
	".tsx":  "text/plain",
	".map":  "application/json",
}

// ContentType picks the object content type from the file extension.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ObjectPath joins prefix and name with repeated slashes collapsed.
// Names that climb out of the prefix are rejected.
func ObjectPath(prefix, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidTree)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q leaves the tree", ErrInvalidTree, name)
		}
	}
	joined := prefix + "/" + name
	var b strings.Builder
	b.Grow(len(joined))
	for i := 0; i < len(joined); i++ {
		if joined[i] == '/' && b.Len() > 0 && joined[i-1] == '/' {
			continue
		}
		b.WriteByte(joined[i])
	}
	return strings.TrimSuffix(b.String(), "/"), nil
}

type object struct {
	path        string
	contentType string
	data        []byte
}

// decode validates every entry before anything is uploaded.
func decode(prefix string, t *Tree) ([]object, error) {
	if t.empty() {
		return nil, nil
	}
	out := make([]object, 0, len(t.Files))
	for _, f := range t.Files {
		p, err := ObjectPath(prefix, f.Path)
		if err != nil {
			return nil, err
		}
		data, err := base64.StdEncoding.DecodeString(f.ContentBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s is not base64: %v", ErrInvalidTree, f.Path, err)
		}
		out = append(out, object{path: p, contentType: ContentType(f.Path), data: data})
	}
	return out, nil
}
