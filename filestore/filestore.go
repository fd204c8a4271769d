// Package filestore implements upload.Store in the local filesystem.
package filestore

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/wansing/newsroom/upload"
)

// implements upload.Folder
type Folder struct {
	store     *Store
	articleID string
}

func (f Folder) dir() string {
	return filepath.Join(f.store.UploadDir, f.articleID)
}

func (f Folder) ArticleID() string {
	return f.articleID
}

func (f Folder) Delete(filename string) error {

	filename, err := upload.CleanFilename(filename)
	if err != nil {
		return err
	}

	if err = os.Remove(filepath.Join(f.dir(), filename)); err != nil {
		return err
	}

	_ = os.Remove(f.dir()) // try to remove folder, works only if the folder is empty
	return nil
}

func (f Folder) Files() ([]fs.FileInfo, error) {
	entries, err := os.ReadDir(f.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // assuming the folder was deleted because it was empty
		}
		return nil, err
	}
	var files = make([]fs.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		files = append(files, info)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
	return files, nil
}

func (f Folder) HasFile(filename string) (bool, error) {
	filename, err := upload.CleanFilename(filename)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(filepath.Join(f.dir(), filename)); err == nil {
		return true, nil
	} else if os.IsNotExist(err) {
		return false, nil
	} else {
		return false, err
	}
}

// Upload stores an image. The content must be a decodable gif, jpeg or png image of at most upload.MaxSize bytes.
func (f Folder) Upload(filename string, src io.Reader) error {

	filename, err := upload.CleanFilename(filename)
	if err != nil {
		return err
	}

	if !upload.IsImage(filename) {
		return upload.ErrNotAnImage
	}

	has, err := f.HasFile(filename)
	if err != nil {
		return err
	}
	if has {
		return upload.ErrExists
	}

	err = os.MkdirAll(f.dir(), 0755) // 755 is required if the webserver runs as a different user
	if err != nil {
		return err
	}

	var path = filepath.Join(f.dir(), filename)

	dst, err := os.Create(path)
	if err != nil {
		return err
	}

	n, err := io.Copy(dst, io.LimitReader(src, upload.MaxSize+1))
	if err == nil && n > upload.MaxSize {
		err = upload.ErrTooLarge
	}
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = checkImage(path)
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

func checkImage(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, _, err := image.DecodeConfig(file); err != nil {
		return upload.ErrNotAnImage
	}
	return nil
}

// implements upload.Store
type Store struct {
	UploadDir string // will contain folders whose names are article ids
}

func (s *Store) Folder(articleID string) upload.Folder {
	return &Folder{
		store:     s,
		articleID: articleID,
	}
}

func (s *Store) ServeHTTP(writer http.ResponseWriter, req *http.Request) {

	articleID, filename, ok := upload.ParseURL(req.URL) // req.URL seems to be always relative
	if !ok {
		http.NotFound(writer, req)
		return
	}

	http.ServeFile(writer, req, filepath.Join(s.Folder(articleID).(*Folder).dir(), filename))
}
