package utils

import (
	"io"             // Copying file contents
	"mime/multipart" // Uploaded file headers
	"net/http"       // Content sniffing
	"os"             // File system access
	"path/filepath"  // Path joining

	"tournament_system/internal/domain" // Domain errors

	"github.com/google/uuid" // Random file names
)

// MaxImageSize bounds uploaded slip and avatar images
const MaxImageSize = 5 << 20

// imageExt maps sniffed content types onto stored file extensions
var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// StoreImage validates an uploaded image and writes it into dir under a
// random name. It returns the stored file name.
func StoreImage(fh *multipart.FileHeader, dir string) (string, error) {
	if fh.Size > MaxImageSize {
		return "", domain.ErrValidation // Too large
	}
	src, err := fh.Open() // Open the uploaded file
	if err != nil {
		return "", err
	}
	defer src.Close()

	head := make([]byte, 512) // DetectContentType reads at most 512 bytes
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	ext, ok := imageExt[http.DetectContentType(head[:n])]
	if !ok || n == 0 {
		return "", domain.ErrValidation // Not an image
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ext // Random, collision free name
	if err := saveFile(filepath.Join(dir, name), head[:n], src); err != nil {
		return "", err
	}
	return name, nil
}

// saveFile writes head followed by the rest of src to path. A partly
// written file is removed on failure.
func saveFile(path string, head []byte, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	_, err = dst.Write(head)
	if err == nil {
		_, err = io.Copy(dst, src)
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
	}
	return err
}
