package partition

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// Magic bytes identify snapshot files.
var magicBytes = []byte("WSAVSPSF")

const (
	headerVersion = 1
	checksumSize  = 8
	lenSize       = 4

	// maxHeaderSize bounds the header JSON accepted on read.
	maxHeaderSize = 1 << 20
)

// File kinds recorded in headers.
const (
	KindInstances = "instances"
	KindLayer     = "layer"
)

// Header is the JSON header of a snapshot file.
type Header struct {
	Version   int    `json:"version"`
	Kind      string `json:"kind"`
	Layer     int    `json:"layer"`
	Layers    int    `json:"layers"`
	Records   int    `json:"records"`
	Codec     string `json:"codec"`
	RunID     string `json:"run_id"`
	CreatedAt int64  `json:"created_at"`

	// Bounds is only set on the instances file.
	Bounds *domain.Bounds `json:"bounds,omitempty"`

	// PayloadSize is the codec payload length before compression and
	// encryption.
	PayloadSize int    `json:"payload_size"`
	Compression string `json:"compression,omitempty"`
	Encrypted   bool   `json:"encrypted,omitempty"`
	Salt        []byte `json:"salt,omitempty"`
}

// Frame is one decoded snapshot file.
type Frame struct {
	Path    string
	Size    int64
	Header  Header
	Payload []byte
}

// writeFrame writes hdrJSON and data as a frame to w and returns the number
// of bytes written.
func writeFrame(w io.Writer, hdrJSON, data []byte) (int64, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return 0, domain.ErrInvalidArgument.WithDetailsf("payload of %d bytes exceeds frame limit", len(data))
	}
	hash := murmur3.New64()
	bw := bufio.NewWriter(w)
	mw := io.MultiWriter(bw, hash)

	var n int64
	write := func(p []byte) error {
		k, err := mw.Write(p)
		n += int64(k)
		return err
	}

	var lenBuf [lenSize]byte
	if err := write(magicBytes); err != nil {
		return n, err
	}
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(hdrJSON)))
	if err := write(lenBuf[:]); err != nil {
		return n, err
	}
	if err := write(hdrJSON); err != nil {
		return n, err
	}
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if err := write(lenBuf[:]); err != nil {
		return n, err
	}
	if err := write(data); err != nil {
		return n, err
	}

	// Checksum trailer, not included in the hash.
	var sum [checksumSize]byte
	binary.BigEndian.PutUint64(sum[:], hash.Sum64())
	k, err := bw.Write(sum[:])
	n += int64(k)
	if err != nil {
		return n, err
	}
	return n, bw.Flush()
}

// readFrame reads and verifies the frame at path. The returned header
// bytes are the exact bytes that were hashed and sealed against.
func readFrame(path string) (hdr Header, hdrJSON, data []byte, size int64, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return hdr, nil, nil, 0, domain.ErrCorruptData.WithDetailsf("missing snapshot file %s", path).WithCause(err)
		}
		return hdr, nil, nil, 0, domain.ErrFilesystem.WithDetailsf("read %s", path).WithCause(err)
	}
	size = int64(len(raw))

	corrupt := func(format string, args ...any) *domain.DomainError {
		return domain.ErrCorruptData.WithDetailsf("%s: %s", path, fmt.Sprintf(format, args...))
	}

	minSize := len(magicBytes) + 2*lenSize + checksumSize
	if len(raw) < minSize {
		return hdr, nil, nil, size, corrupt("file too short (%d bytes)", len(raw))
	}

	body := raw[:len(raw)-checksumSize]
	want := binary.BigEndian.Uint64(raw[len(raw)-checksumSize:])
	if got := murmur3.Sum64(body); got != want {
		return hdr, nil, nil, size, corrupt("checksum mismatch")
	}

	if !bytes.Equal(body[:len(magicBytes)], magicBytes) {
		return hdr, nil, nil, size, corrupt("invalid magic bytes")
	}
	body = body[len(magicBytes):]

	hdrLen := int(binary.BigEndian.Uint32(body[:lenSize]))
	body = body[lenSize:]
	if hdrLen == 0 || hdrLen > maxHeaderSize || hdrLen+lenSize > len(body) {
		return hdr, nil, nil, size, corrupt("invalid header length %d", hdrLen)
	}
	hdrJSON = body[:hdrLen]
	body = body[hdrLen:]

	dataLen := int(binary.BigEndian.Uint32(body[:lenSize]))
	body = body[lenSize:]
	if dataLen != len(body) {
		return hdr, nil, nil, size, corrupt("data length %d, have %d bytes", dataLen, len(body))
	}

	if err := json.Unmarshal(hdrJSON, &hdr); err != nil {
		return hdr, nil, nil, size, corrupt("unmarshal header").WithCause(err)
	}
	if hdr.Version != headerVersion {
		return hdr, nil, nil, size, corrupt("unsupported header version %d", hdr.Version)
	}
	return hdr, hdrJSON, body, size, nil
}
