package service

import (
	"testing"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

func TestClassify_Total(t *testing.T) {
	for _, k := range domain.Kinds() {
		if d := Classify(k); d == Unsupported {
			t.Errorf("Classify(%s) = unsupported, want a policy", k)
		}
	}
}

func TestClassify_Unknown(t *testing.T) {
	tests := []domain.Kind{domain.KindUnknown, domain.Kind(200)}
	for _, k := range tests {
		if d := Classify(k); d != Unsupported {
			t.Errorf("Classify(%s) = %s, want unsupported", k, d)
		}
	}
}

func TestClassify_Dispositions(t *testing.T) {
	tests := []struct {
		kind domain.Kind
		want Disposition
	}{
		{domain.KindNull, Inline},
		{domain.KindNumber, Inline},
		{domain.KindString, Inline},
		{domain.KindObjTypepath, Inline},
		{domain.KindAppearance, Skip},
		{domain.KindFilters, Skip},
		{domain.KindSavefile, Skip},
		{domain.KindList, Sequence},
		{domain.KindListOverlays, Sequence},
		{domain.KindDatum, Intern},
		{domain.KindMob, Intern},
		{domain.KindObj, Intern},
		{domain.KindArea, Intern},
		{domain.KindTurf, Bucket},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := Classify(tt.kind); got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.kind, got, tt.want)
			}
		})
	}
}

func TestDisposition_String(t *testing.T) {
	if got := Bucket.String(); got != "bucket" {
		t.Errorf("Bucket.String() = %q, want %q", got, "bucket")
	}
	if got := Disposition(99).String(); got != "disposition(99)" {
		t.Errorf("Disposition(99).String() = %q", got)
	}
}
