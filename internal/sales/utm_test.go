package sales

import (
	"slices"
	"testing"

	"github.com/KasumiMercury/patotta-stone-function-revenue/internal/store"
)

func TestNormalizeUTM(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Promo-X ", "promo-x"},
		{"ABC", "abc"},
		{"", ""},
		{"\tvideo_1\n", "video_1"},
	}
	for _, tt := range tests {
		in, want := tt.in, tt.want
		got := NormalizeUTM(in)
		if got != want {
			t.Errorf("NormalizeUTM(%q) = %q, want %q", in, got, want)
		}
		if again := NormalizeUTM(got); again != got {
			t.Errorf("NormalizeUTM is not idempotent for %q: %q then %q", in, got, again)
		}
	}
}

func TestBuildIndex(t *testing.T) {
	links := []store.Link{
		{VideoID: "newest", UTMContent: "Promo"},
		{VideoID: "older", UTMContent: " promo "},
		{VideoID: "v2", UTMContent: "launch"},
		{VideoID: "v3", UTMContent: "   "},
	}
	idx := BuildIndex(links)

	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}
	l, ok := idx.Lookup("PROMO ")
	if !ok || l.VideoID != "newest" {
		t.Errorf("Lookup(PROMO) = %+v, %v; want the first link", l, ok)
	}
	if _, ok := idx.Lookup("missing"); ok {
		t.Error("Lookup(missing) found a link")
	}

	want := []string{"launch", "promo"}
	if !slices.Equal(idx.Keys(), want) {
		t.Errorf("Keys() = %v, want %v", idx.Keys(), want)
	}
}

func TestBuildIndex_Empty(t *testing.T) {
	idx := BuildIndex(nil)
	if idx.Len() != 0 || len(idx.Keys()) != 0 {
		t.Errorf("empty index = %+v", idx)
	}
}

func TestStageClassifier(t *testing.T) {
	c := NewStageClassifier([]string{"ganho", "won", "fechado"}, []string{"Perdido", " lost "})
	tests := []struct {
		stage string
		want  Stage
	}{
		{"Negócio Ganho", StageWon},
		{"closed won", StageWon},
		{"FECHADO", StageWon},
		{"Perdido", StageLost},
		{"Closed Lost", StageLost},
		{"fechado - perdido", StageWon},
		{"Qualificação", StageOther},
		{"", StageOther},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.stage); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.stage, got, tt.want)
		}
	}
}
