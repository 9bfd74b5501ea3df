package media

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Disk stores objects on the local filesystem under a single directory and
// addresses them as baseURL/<generated name>. Object names are random, so
// uploaded filenames never influence paths.
type Disk struct {
	dir     string
	baseURL string
}

// NewDisk creates the storage directory if needed.
func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create media dir")
	}
	return &Disk{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

var _ Store = (*Disk)(nil)

// Save writes the content under a fresh random name, keeping the original
// extension for content-type sniffing by the file server.
func (d *Disk) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	dst := filepath.Join(d.dir, name)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create media file")
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return "", errors.Wrap(err, "write media file")
	}
	return d.baseURL + "/" + name, nil
}

// Delete removes the object named by the URL. Unknown or foreign URLs are
// ignored; deletion is best-effort by contract.
func (d *Disk) Delete(_ context.Context, url string) error {
	name := path.Base(url)
	if name == "" || name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(d.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "delete media file")
	}
	return nil
}
