package videogen

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

// Container magic written at the head of every output file.
var containerMagic = []byte("\x00\x00\x00\x20ftypisom")

// encodeVideo writes a clip to path as an mp4 container. The byte layout is
// a pure function of the clip, so identical clips produce identical files.
func encodeVideo(clip *Clip, path string) error {
	if clip == nil || clip.FrameCount <= 0 {
		return fmt.Errorf("%w: empty clip", ErrSaveFailed)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	defer f.Close()

	var header [20]byte
	binary.BigEndian.PutUint32(header[0:], uint32(clip.Width))
	binary.BigEndian.PutUint32(header[4:], uint32(clip.Height))
	binary.BigEndian.PutUint32(header[8:], uint32(clip.FPS))
	binary.BigEndian.PutUint32(header[12:], uint32(clip.FrameCount))
	binary.BigEndian.PutUint32(header[16:], uint32(len(clip.Data)))

	for _, chunk := range [][]byte{containerMagic, header[:], clip.Data} {
		if _, err := f.Write(chunk); err != nil {
			return fmt.Errorf("%w: %v", ErrSaveFailed, err)
		}
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}
