package codec

import (
	"sort"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// Codec encodes and decodes a blob's records.
type Codec interface {
	// Name is the identifier recorded in snapshot headers.
	Name() string
	Marshal(records []domain.Node) ([]byte, error)
	Unmarshal(data []byte) ([]domain.Node, error)
}

// Names of the built-in codecs.
const (
	NameProto   = "proto"
	NameMsgpack = "msgpack"
)

// maxDepth bounds list nesting accepted by decoders.
const maxDepth = 1024

var registry = map[string]func() Codec{
	NameProto:   func() Codec { return Proto{} },
	NameMsgpack: func() Codec { return NewMsgpack() },
}

// Lookup returns the codec registered under name. The empty name selects
// the default proto codec.
func Lookup(name string) (Codec, error) {
	if name == "" {
		name = NameProto
	}
	factory, ok := registry[name]
	if !ok {
		return nil, domain.ErrInvalidArgument.WithDetailsf("unknown codec %q", name)
	}
	return factory(), nil
}

// Names returns the registered codec names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func corrupt(format string, args ...any) *domain.DomainError {
	return domain.ErrCorruptData.WithDetailsf(format, args...)
}
