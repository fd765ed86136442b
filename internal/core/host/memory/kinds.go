package memory

import (
	"strings"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/core/host"
)

var (
	_ host.Host     = (*World)(nil)
	_ host.Restorer = (*World)(nil)
	_ host.Node     = (*Object)(nil)
)

// KindForType infers the object kind from a type path by its root segment.
// Unrecognised roots are plain datums.
func KindForType(typeTag string) domain.Kind {
	switch {
	case hasRoot(typeTag, "/mob"):
		return domain.KindMob
	case hasRoot(typeTag, "/obj"):
		return domain.KindObj
	case hasRoot(typeTag, "/area"):
		return domain.KindArea
	case hasRoot(typeTag, "/turf"):
		return domain.KindTurf
	default:
		return domain.KindDatum
	}
}

func hasRoot(typeTag, root string) bool {
	return typeTag == root || strings.HasPrefix(typeTag, root+"/")
}
