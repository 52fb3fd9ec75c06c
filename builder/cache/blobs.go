package cache

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/utils"
)

// Blob is one stored document output.
type Blob struct {
	Hash string
	Size int64
}

// blobStore keeps document outputs by content hash under ab/cd/<hash>.
// Small outputs are stored raw; larger ones as zstd, with the slower
// level reserved for the largest.
type blobStore struct {
	fs      afero.Fs
	fast    *zstd.Encoder
	dense   *zstd.Encoder
	decoder *zstd.Decoder
}

func newBlobStore(fs afero.Fs) (*blobStore, error) {
	fast, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dense, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = fast.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = fast.Close()
		_ = dense.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &blobStore{fs: fs, fast: fast, dense: dense, decoder: decoder}, nil
}

func (s *blobStore) close() {
	_ = s.fast.Close()
	_ = s.dense.Close()
	s.decoder.Close()
}

func blobPath(hash string, compressed bool) string {
	ext := ".raw"
	if compressed {
		ext = ".zst"
	}
	if len(hash) < 4 {
		return hash + ext
	}
	return path.Join(hash[:2], hash[2:4], hash+ext)
}

// put stores content unless an identical blob exists and reports its hash
// and whether it was compressed.
func (s *blobStore) put(content []byte) (string, bool, error) {
	hash := utils.HashContent(content)
	compressed := len(content) >= RawThreshold

	p := blobPath(hash, compressed)
	if ok, _ := afero.Exists(s.fs, p); ok {
		return hash, compressed, nil
	}

	data := content
	switch {
	case !compressed:
	case len(content) < FastZstdMax:
		data = s.fast.EncodeAll(content, nil)
	default:
		data = s.dense.EncodeAll(content, nil)
	}

	if err := s.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return "", false, fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := writeSynced(s.fs, p, data); err != nil {
		return "", false, err
	}
	return hash, compressed, nil
}

// writeSynced writes data beside p, syncs it and renames it into place.
func writeSynced(fs afero.Fs, p string, data []byte) error {
	tmp := p + ".tmp"
	f, err := fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = fs.Rename(tmp, p)
	}
	if err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("failed to write blob %s: %w", p, err)
	}
	return nil
}

// get reads a blob, trying the other encoding when the expected file is
// missing.
func (s *blobStore) get(hash string, compressed bool) ([]byte, error) {
	for _, zst := range []bool{compressed, !compressed} {
		data, err := afero.ReadFile(s.fs, blobPath(hash, zst))
		if err != nil {
			continue
		}
		if zst {
			return s.decoder.DecodeAll(data, nil)
		}
		return data, nil
	}
	return nil, fmt.Errorf("blob %s not found", hash)
}

func (s *blobStore) remove(hash string) {
	_ = s.fs.Remove(blobPath(hash, false))
	_ = s.fs.Remove(blobPath(hash, true))
}

func (s *blobStore) list() ([]Blob, error) {
	var blobs []Blob
	err := afero.Walk(s.fs, ".", func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		name := info.Name()
		for _, ext := range []string{".raw", ".zst"} {
			if strings.HasSuffix(name, ext) {
				blobs = append(blobs, Blob{Hash: strings.TrimSuffix(name, ext), Size: info.Size()})
			}
		}
		return nil
	})
	return blobs, err
}

func (s *blobStore) size() (int64, error) {
	blobs, err := s.list()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, b := range blobs {
		total += b.Size
	}
	return total, nil
}
