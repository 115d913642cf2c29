package archive

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/fcanata061/pbuild/internal/pkgerrors"
)

// PackagePath returns the canonical package archive path for name/version
// under a package output directory.
func PackagePath(pkgOut, name, version, codec string) string {
	return fmt.Sprintf("%s/%s-%s.tar.%s", strings.TrimRight(pkgOut, "/"), name, version, codec)
}

// TableOfContents lists every regular file entry in archivePath, as
// absolute paths normalized to a single leading "/". This is the
// authoritative source for the installed manifest: derived from the
// archive, never from a live-filesystem diff.
func TableOfContents(archivePath, codec string) ([]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.InstallFailed, archivePath, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch codec {
	case "gz":
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.InstallFailed, archivePath, err)
		}
		defer gr.Close()
		r = gr
	case "xz":
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.InstallFailed, archivePath, err)
		}
		r = xr
	case "bz2":
		r = bzip2.NewReader(f)
	}

	var files []string
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.InstallFailed, archivePath, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		files = append(files, normalizeAbs(hdr.Name))
	}
	return files, nil
}

// normalizeAbs turns a tar entry name (which may or may not begin with "./"
// or "/") into an absolute path with a single leading "/", tolerating
// either convention since packaged archive entries may begin with either.
func normalizeAbs(name string) string {
	name = strings.TrimPrefix(name, ".")
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return path.Clean(name)
}
