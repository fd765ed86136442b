package domain

import "fmt"

// Kind is the tag a host attaches to every node it exposes.
//
// The set is closed: hosts that invent new tags must report KindUnknown
// (or any value outside the table), which the classifier treats as
// unsupported rather than guessing.
type Kind uint8

const (
	KindUnknown Kind = iota

	// Primitives.
	KindNull
	KindNumber
	KindString

	// Type paths are names of types, persisted as text.
	KindAreaTypepath
	KindClientTypepath
	KindDatumTypepath
	KindImageTypepath
	KindListTypepath
	KindMobTypepath
	KindObjTypepath
	KindSavefileTypepath
	KindTurfTypepath

	// Display-only or process-bound values.
	KindAppearance
	KindFile
	KindFilters
	KindImage
	KindPrefab
	KindResource
	KindSavefile

	// Ordered containers.
	KindList
	KindListAreaContents
	KindListAreaVars
	KindListArgs
	KindListContents
	KindListGlobalVars
	KindListGroup
	KindListMobContents
	KindListMobVars
	KindListObjVars
	KindListOverlays
	KindListTurfContents
	KindListTurfVars
	KindListVars
	KindListWorldContents
	KindListWorldVars

	// Identity-bearing objects.
	KindDatum
	KindMob
	KindObj
	KindArea

	// Spatial cells.
	KindTurf

	kindCount
)

var kindNames = [...]string{
	KindUnknown:           "unknown",
	KindNull:              "null",
	KindNumber:            "number",
	KindString:            "string",
	KindAreaTypepath:      "area_typepath",
	KindClientTypepath:    "client_typepath",
	KindDatumTypepath:     "datum_typepath",
	KindImageTypepath:     "image_typepath",
	KindListTypepath:      "list_typepath",
	KindMobTypepath:       "mob_typepath",
	KindObjTypepath:       "obj_typepath",
	KindSavefileTypepath:  "savefile_typepath",
	KindTurfTypepath:      "turf_typepath",
	KindAppearance:        "appearance",
	KindFile:              "file",
	KindFilters:           "filters",
	KindImage:             "image",
	KindPrefab:            "prefab",
	KindResource:          "resource",
	KindSavefile:          "savefile",
	KindList:              "list",
	KindListAreaContents:  "list_area_contents",
	KindListAreaVars:      "list_area_vars",
	KindListArgs:          "list_args",
	KindListContents:      "list_contents",
	KindListGlobalVars:    "list_global_vars",
	KindListGroup:         "list_group",
	KindListMobContents:   "list_mob_contents",
	KindListMobVars:       "list_mob_vars",
	KindListObjVars:       "list_obj_vars",
	KindListOverlays:      "list_overlays",
	KindListTurfContents:  "list_turf_contents",
	KindListTurfVars:      "list_turf_vars",
	KindListVars:          "list_vars",
	KindListWorldContents: "list_world_contents",
	KindListWorldVars:     "list_world_vars",
	KindDatum:             "datum",
	KindMob:               "mob",
	KindObj:               "obj",
	KindArea:              "area",
	KindTurf:              "turf",
}

// String returns the lowercase tag name.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is a known tag other than KindUnknown.
func (k Kind) Valid() bool {
	return k > KindUnknown && k < kindCount
}

// ParseKind resolves a tag name as produced by String.
func ParseKind(s string) (Kind, error) {
	for k := KindUnknown + 1; k < kindCount; k++ {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return KindUnknown, ErrInvalidArgument.WithDetailsf("unknown kind %q", s)
}

// Kinds returns every known tag in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, int(kindCount)-1)
	for k := KindUnknown + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}
