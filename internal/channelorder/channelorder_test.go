package channelorder

import (
	"context"
	"reflect"
	"testing"

	"github.com/gitadityakumar/LiveNews/internal/common/logger"
	"github.com/gitadityakumar/LiveNews/internal/kvstore"
	"github.com/gitadityakumar/LiveNews/pkg/models"
)

func ids(channels []models.Channel) []int {
	out := make([]int, len(channels))
	for i, c := range channels {
		out[i] = c.ID
	}
	return out
}

func TestApply(t *testing.T) {
	catalog := []models.Channel{
		{ID: 201, Name: "Bloomberg TV"},
		{ID: 202, Name: "ABC News Live"},
		{ID: 203, Name: "Yahoo Finance"},
		{ID: 204, Name: "CNN Live"},
	}

	tests := []struct {
		name  string
		saved []int
		want  []int
	}{
		{"no saved order keeps catalog order", nil, []int{201, 202, 203, 204}},
		{"full reorder", []int{204, 203, 202, 201}, []int{204, 203, 202, 201}},
		{"new channels are appended", []int{203, 201}, []int{203, 201, 202, 204}},
		{"removed channels are dropped", []int{999, 202}, []int{202, 201, 203, 204}},
		{"duplicates collapse", []int{202, 202, 201}, []int{202, 201, 203, 204}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(catalog, tt.saved))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	s := New(kv, logger.Discard())

	if got := s.Load(ctx, models.RegionUSA); got != nil {
		t.Fatalf("Load on empty store = %v, want nil", got)
	}

	s.Save(ctx, models.RegionUSA, []int{204, 201})

	raw, ok, _ := kv.Get(ctx, "channel_order_usa")
	if !ok || raw != "[204,201]" {
		t.Errorf("stored value = %q, %v", raw, ok)
	}

	if got := s.Load(ctx, models.RegionUSA); !reflect.DeepEqual(got, []int{204, 201}) {
		t.Errorf("Load = %v", got)
	}
	if got := s.Load(ctx, models.RegionIndia); got != nil {
		t.Errorf("regions must not share orders, got %v", got)
	}
}

func TestStore_MalformedValue(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	kv.Set(ctx, Key(models.RegionIndia), "not json")

	if got := New(kv, logger.Discard()).Load(ctx, models.RegionIndia); got != nil {
		t.Errorf("Load = %v, want nil", got)
	}
}
