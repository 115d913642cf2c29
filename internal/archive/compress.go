package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/fcanata061/pbuild/internal/pkgerrors"
)

// Compressor archives srcDir into outFile using codec ("xz"|"gz"|"bz2").
type Compressor interface {
	Compress(ctx context.Context, srcDir, outFile, codec string) error
}

// Compress packages srcDir into outFile: a tar stream of its contents,
// entries rooted at "/", then piped through the requested codec. File
// ordering follows whatever filepath.WalkDir produces; byte-for-byte
// reproducibility across runs is not attempted.
func (Default) Compress(ctx context.Context, srcDir, outFile, codec string) error {
	if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		return pkgerrors.Wrap(pkgerrors.PackagingFailed, outFile, err)
	}

	switch codec {
	case "gz":
		return compressWith(srcDir, outFile, func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		})
	case "xz":
		return compressWith(srcDir, outFile, func(w io.Writer) (io.WriteCloser, error) {
			return xz.NewWriter(w)
		})
	case "bz2":
		return compressBZ2(ctx, srcDir, outFile)
	default:
		return pkgerrors.New(pkgerrors.PackagingFailed, fmt.Sprintf("unknown codec %q", codec))
	}
}

func compressWith(srcDir, outFile string, newWriter func(io.Writer) (io.WriteCloser, error)) error {
	f, err := os.Create(outFile)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.PackagingFailed, outFile, err)
	}
	defer f.Close()
	cw, err := newWriter(f)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.PackagingFailed, outFile, err)
	}
	defer cw.Close()
	tw := tar.NewWriter(cw)
	defer tw.Close()
	return tarDir(srcDir, tw)
}

// compressBZ2 shells out to the bzip2 binary: stdlib compress/bzip2 is
// decompress-only, and compressors are an external, swappable collaborator
// here rather than something the core implements itself.
func compressBZ2(ctx context.Context, srcDir, outFile string) error {
	tmpTar := outFile + ".tmp.tar"
	f, err := os.Create(tmpTar)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.PackagingFailed, tmpTar, err)
	}
	tw := tar.NewWriter(f)
	if err := tarDir(srcDir, tw); err != nil {
		tw.Close()
		f.Close()
		os.Remove(tmpTar)
		return err
	}
	tw.Close()
	f.Close()
	defer os.Remove(tmpTar)

	cmd := exec.CommandContext(ctx, "bzip2", "-z", "-k", "-c", tmpTar)
	out, err := os.Create(outFile)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.PackagingFailed, outFile, err)
	}
	defer out.Close()
	var stderr bytes.Buffer
	cmd.Stdout = out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return pkgerrors.Wrap(pkgerrors.PackagingFailed, stderr.String(), err)
	}
	return nil
}

func tarDir(srcDir string, tw *tar.Writer) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			link, err = os.Readlink(path)
			if err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = "/" + filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := io.Copy(tw, f); err != nil {
				return err
			}
		}
		return nil
	})
}
