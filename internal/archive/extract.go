// Package archive implements the Extractor and Compressor collaborators:
// archive extraction and compression are external, swappable concerns, so
// the core only consumes extract(archive, dest) and
// compress(dir, outfile, codec), plus the packaging step that drives a
// Compressor to produce a package archive.
package archive

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/fcanata061/pbuild/internal/pkgerrors"
)

// Extractor extracts archivePath into destDir.
type Extractor interface {
	Extract(ctx context.Context, archivePath, destDir string) error
}

// Default is the extractor/compressor used throughout pbuild.
type Default struct{}

// Extract dispatches on archivePath's extension:
// .tar.xz/.tar.gz/.tar.bz2/.tar/.zip, and the bare .xz/.gz/.bz2 fallbacks
// that decompress-then-place: the payload is written to destDir as one
// file named after the archive minus its extension, and is never untarred
// even when it holds a tar stream. Unknown extension -> UnsupportedArchive.
func (Default) Extract(ctx context.Context, archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return pkgerrors.Wrap(pkgerrors.UnsupportedArchive, destDir, err)
	}
	base := strings.ToLower(filepath.Base(archivePath))

	switch {
	case strings.HasSuffix(base, ".tar.xz") || strings.HasSuffix(base, ".txz"):
		return extractTarXZ(archivePath, destDir)
	case strings.HasSuffix(base, ".tar.gz") || strings.HasSuffix(base, ".tgz"):
		return extractTarGZ(archivePath, destDir)
	case strings.HasSuffix(base, ".tar.bz2") || strings.HasSuffix(base, ".tbz2"):
		return extractTarBZ2(archivePath, destDir)
	case strings.HasSuffix(base, ".tar"):
		return extractTar(archivePath, destDir)
	case strings.HasSuffix(base, ".zip"):
		return extractZip(archivePath, destDir)
	case strings.HasSuffix(base, ".xz"):
		return decompressPlace(archivePath, destDir, xzReader)
	case strings.HasSuffix(base, ".gz"):
		return decompressPlace(archivePath, destDir, gzipReader)
	case strings.HasSuffix(base, ".bz2"):
		return decompressPlace(archivePath, destDir, bzip2Reader)
	default:
		return pkgerrors.New(pkgerrors.UnsupportedArchive, archivePath)
	}
}

func xzReader(r io.Reader) (io.Reader, error) { return xz.NewReader(r) }
func gzipReader(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }
func bzip2Reader(r io.Reader) (io.Reader, error) { return bzip2.NewReader(r), nil }

func extractTar(path, dest string) error {
	f, err := os.Open(path)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.UnsupportedArchive, path, err)
	}
	defer f.Close()
	return untar(f, dest)
}

func extractTarGZ(path, dest string) error {
	f, err := os.Open(path)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.UnsupportedArchive, path, err)
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.UnsupportedArchive, path, err)
	}
	defer gr.Close()
	return untar(gr, dest)
}

func extractTarBZ2(path, dest string) error {
	f, err := os.Open(path)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.UnsupportedArchive, path, err)
	}
	defer f.Close()
	return untar(bzip2.NewReader(f), dest)
}

func extractTarXZ(path, dest string) error {
	f, err := os.Open(path)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.UnsupportedArchive, path, err)
	}
	defer f.Close()
	xr, err := xz.NewReader(f)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.UnsupportedArchive, path, err)
	}
	return untar(xr, dest)
}

func untar(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.UnsupportedArchive, dest, err)
		}
		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.UnsupportedArchive, hdr.Name, err)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeSymlink:
			_ = os.MkdirAll(filepath.Dir(target), 0o755)
			_ = os.RemoveAll(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		default:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}
}

// safeJoin prevents a malicious tar entry ("../../etc/passwd") from
// escaping dest.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(filepath.Separator)) && target != filepath.Clean(dest) {
		return "", fmt.Errorf("illegal path escapes destination: %s", name)
	}
	return target, nil
}

func extractZip(path, dest string) error {
	// Out-of-core convenience: recipes very rarely ship .zip on LFS-style
	// systems, but the extension still has to resolve to something.
	cmd := exec.Command("unzip", "-q", "-o", path, "-d", dest)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.UnsupportedArchive, string(out), err)
	}
	return nil
}

func decompressPlace(path, dest string, newReader func(io.Reader) (io.Reader, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.UnsupportedArchive, path, err)
	}
	defer f.Close()
	r, err := newReader(f)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.UnsupportedArchive, path, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out, err := os.Create(filepath.Join(dest, base))
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, r)
	return err
}
