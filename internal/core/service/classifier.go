package service

import (
	"fmt"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// Disposition is what the encoder does with a node of a given kind.
type Disposition uint8

const (
	// Unsupported kinds have no policy; the node is dropped with a warning.
	Unsupported Disposition = iota
	// Inline primitives are written at their point of reference.
	Inline
	// Skip kinds are display-only or process-bound and never persisted.
	Skip
	// Intern kinds carry an identity and go through the reference table.
	Intern
	// Bucket kinds are spatial cells routed to their layer's partition.
	Bucket
	// Sequence kinds are anonymous ordered containers encoded in place.
	Sequence
)

func (d Disposition) String() string {
	switch d {
	case Unsupported:
		return "unsupported"
	case Inline:
		return "inline"
	case Skip:
		return "skip"
	case Intern:
		return "intern"
	case Bucket:
		return "bucket"
	case Sequence:
		return "sequence"
	default:
		return fmt.Sprintf("disposition(%d)", uint8(d))
	}
}

// policy is indexed by domain.Kind. Kinds absent from the table, including
// KindUnknown, resolve to Unsupported.
var policy = map[domain.Kind]Disposition{
	domain.KindNull:   Inline,
	domain.KindNumber: Inline,
	domain.KindString: Inline,

	domain.KindAreaTypepath:     Inline,
	domain.KindClientTypepath:   Inline,
	domain.KindDatumTypepath:    Inline,
	domain.KindImageTypepath:    Inline,
	domain.KindListTypepath:     Inline,
	domain.KindMobTypepath:      Inline,
	domain.KindObjTypepath:      Inline,
	domain.KindSavefileTypepath: Inline,
	domain.KindTurfTypepath:     Inline,

	domain.KindAppearance: Skip,
	domain.KindFile:       Skip,
	domain.KindFilters:    Skip,
	domain.KindImage:      Skip,
	domain.KindPrefab:     Skip,
	domain.KindResource:   Skip,
	domain.KindSavefile:   Skip,

	domain.KindList:              Sequence,
	domain.KindListAreaContents:  Sequence,
	domain.KindListAreaVars:      Sequence,
	domain.KindListArgs:          Sequence,
	domain.KindListContents:      Sequence,
	domain.KindListGlobalVars:    Sequence,
	domain.KindListGroup:         Sequence,
	domain.KindListMobContents:   Sequence,
	domain.KindListMobVars:       Sequence,
	domain.KindListObjVars:       Sequence,
	domain.KindListOverlays:      Sequence,
	domain.KindListTurfContents:  Sequence,
	domain.KindListTurfVars:      Sequence,
	domain.KindListVars:          Sequence,
	domain.KindListWorldContents: Sequence,
	domain.KindListWorldVars:     Sequence,

	domain.KindDatum: Intern,
	domain.KindMob:   Intern,
	domain.KindObj:   Intern,
	domain.KindArea:  Intern,

	domain.KindTurf: Bucket,
}

// Classify maps a node kind to its disposition. It is total: every kind,
// including ones added to hosts later, yields a disposition.
func Classify(kind domain.Kind) Disposition {
	if d, ok := policy[kind]; ok {
		return d
	}
	return Unsupported
}
