package partition

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// Compression names accepted in Config and recorded in headers.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// maxPreallocate caps the buffer reserved from an untrusted header size.
const maxPreallocate = 64 << 20

// zstdCodec holds a shared encoder and a lazily built decoder. Both are
// safe for concurrent EncodeAll/DecodeAll use.
type zstdCodec struct {
	encOnce sync.Once
	enc     *zstd.Encoder
	encErr  error

	decOnce sync.Once
	dec     *zstd.Decoder
	decErr  error
}

func (z *zstdCodec) compress(src []byte) ([]byte, error) {
	z.encOnce.Do(func() {
		z.enc, z.encErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	if z.encErr != nil {
		return nil, domain.ErrInternal.WithDetails("zstd encoder").WithCause(z.encErr)
	}
	return z.enc.EncodeAll(src, make([]byte, 0, len(src)/2)), nil
}

func (z *zstdCodec) decompress(src []byte, size int) ([]byte, error) {
	z.decOnce.Do(func() {
		z.dec, z.decErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
	if z.decErr != nil {
		return nil, domain.ErrInternal.WithDetails("zstd decoder").WithCause(z.decErr)
	}
	out, err := z.dec.DecodeAll(src, make([]byte, 0, min(size, maxPreallocate)))
	if err != nil {
		return nil, domain.ErrCorruptData.WithDetails("zstd decode").WithCause(err)
	}
	return out, nil
}

func (z *zstdCodec) close() {
	if z.enc != nil {
		_ = z.enc.Close()
	}
	if z.dec != nil {
		z.dec.Close()
	}
}
