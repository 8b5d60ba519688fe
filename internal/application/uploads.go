package application

import (
	"io"
	"path"
	"strings"
)

const (
	MaxImageSize int64 = 5 << 20
	MaxFileSize  int64 = 50 << 20
)

// Upload is a multipart file handed over by the HTTP layer.
type Upload struct {
	Reader   io.Reader
	Filename string
	Size     int64
}

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

var fileTypes = map[string]string{
	".json": "application/json",
	".zip":  "application/zip",
	".txt":  "text/plain; charset=utf-8",
	".js":   "application/javascript",
	".py":   "text/x-python",
}

// checkUpload enforces the size limit and returns the content type for the file extension.
func checkUpload(u Upload, maxSize int64, allowed map[string]string) (string, error) {
	if u.Size > maxSize {
		return "", ErrFileTooLarge
	}
	ct, ok := allowed[strings.ToLower(path.Ext(u.Filename))]
	if !ok {
		return "", ErrFileType
	}
	return ct, nil
}

func checkImage(u Upload) (string, error) { return checkUpload(u, MaxImageSize, imageTypes) }
func checkFile(u Upload) (string, error)  { return checkUpload(u, MaxFileSize, fileTypes) }
