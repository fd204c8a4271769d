// Package upload defines how images of articles are stored and addressed.
package upload

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

const MaxSize = 4 << 20 // bytes

var (
	ErrExists      = errors.New("file already exists")
	ErrNotAnImage  = errors.New("file is not a supported image")
	ErrInvalidName = errors.New("invalid filename")
	ErrTooLarge    = errors.New("file is too large")
)

// one Folder for one article
type Folder interface {
	ArticleID() string
	Delete(filename string) error
	Files() ([]fs.FileInfo, error)
	HasFile(filename string) (bool, error)
	Upload(filename string, src io.Reader) error
}

type Store interface {
	Folder(articleID string) Folder
	ServeHTTP(writer http.ResponseWriter, req *http.Request) // serves urls like "/<article id>/<filename>"
}

var imageExtensions = map[string]struct{}{
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
}

func CleanFilename(filename string) (string, error) {
	filename = filepath.Base(filename)
	filename = strings.TrimSpace(filename)
	if strings.Contains(filename, "/") || strings.Contains(filename, `\`) {
		return "", ErrInvalidName
	}
	if filename == "" || filename == "." || filename == ".." || strings.HasPrefix(filename, ".") {
		return "", ErrInvalidName
	}
	return filename, nil
}

// IsImage checks the file extension only.
func IsImage(filename string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ParseURL parses an url path like "/<article id>/foo.jpg".
func ParseURL(u *url.URL) (articleID string, filename string, ok bool) {
	dir, filename := path.Split(u.Path)
	articleID = strings.Trim(dir, "/")
	if articleID == "" || strings.Contains(articleID, "/") || strings.HasPrefix(articleID, ".") {
		return "", "", false
	}
	filename, err := CleanFilename(filename)
	if err != nil {
		return "", "", false
	}
	return articleID, filename, true
}
