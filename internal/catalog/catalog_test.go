package catalog

import (
	"strings"
	"testing"

	"github.com/gitadityakumar/LiveNews/internal/common/config"
	"github.com/gitadityakumar/LiveNews/pkg/models"
)

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}

	for _, r := range models.Regions {
		if len(c.Channels(r)) != 6 {
			t.Errorf("%s: expected 6 channels, got %d", r, len(c.Channels(r)))
		}
	}
}

func TestCatalog_Lookups(t *testing.T) {
	c := Default()

	t.Run("static url", func(t *testing.T) {
		u, ok := c.StaticURL(models.RegionUSA, 0)
		if !ok || !strings.Contains(u, "dai.google.com") {
			t.Errorf("StaticURL(usa, 0) = %q, %v", u, ok)
		}
		if _, ok := c.StaticURL(models.RegionUSA, 6); ok {
			t.Error("index past the end must not resolve")
		}
		if _, ok := c.StaticURL(models.RegionUSA, -1); ok {
			t.Error("negative index must not resolve")
		}
	})

	t.Run("channel by stream index", func(t *testing.T) {
		ch, ok := c.ChannelByStreamIndex(models.RegionUSA, 2)
		if !ok || ch.ID != 203 {
			t.Errorf("got %+v, %v", ch, ok)
		}
	})

	t.Run("channel by id", func(t *testing.T) {
		ch, r, ok := c.ChannelByID(104)
		if !ok || r != models.RegionIndia || ch.Name != "CNN-News18" {
			t.Errorf("got %+v, %s, %v", ch, r, ok)
		}
	})

	t.Run("page url", func(t *testing.T) {
		if p, ok := c.PageURL("204"); !ok || !strings.Contains(p, "cnn-live") {
			t.Errorf("PageURL(204) = %q, %v", p, ok)
		}
		for _, id := range []string{"206", "101", "", "abc"} {
			if _, ok := c.PageURL(id); ok {
				t.Errorf("PageURL(%q) should be unmapped", id)
			}
		}
	})

	t.Run("channels returns a copy", func(t *testing.T) {
		chs := c.Channels(models.RegionIndia)
		chs[0].Name = "changed"
		if c.Channels(models.RegionIndia)[0].Name == "changed" {
			t.Error("Channels leaked internal slice")
		}
	})
}

func TestFromConfig(t *testing.T) {
	t.Run("empty config keeps defaults", func(t *testing.T) {
		c, err := FromConfig(&config.CatalogConfig{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := c.PageURL("201"); !ok {
			t.Error("default pages lost")
		}
	})

	t.Run("overrides replace sections", func(t *testing.T) {
		c, err := FromConfig(&config.CatalogConfig{
			Streams: map[string][]string{"usa": {"https://s.example/one.m3u8"}},
			Channels: map[string][]models.Channel{
				"usa": {{ID: 900, Name: "Test", StreamIndex: 0}},
			},
			Pages: map[string]string{"900": "https://page.example/live"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u, _ := c.StaticURL(models.RegionUSA, 0); u != "https://s.example/one.m3u8" {
			t.Errorf("StaticURL = %q", u)
		}
		if _, ok := c.PageURL("201"); ok {
			t.Error("page overrides should replace the default map")
		}
		if len(c.Channels(models.RegionIndia)) != 6 {
			t.Error("india defaults should survive a usa override")
		}
	})

	t.Run("invalid overrides are rejected", func(t *testing.T) {
		cases := map[string]config.CatalogConfig{
			"unknown region": {Streams: map[string][]string{"mars": {"x"}}},
			"bad page key":   {Pages: map[string]string{"abc": "https://x"}},
			"index out of range": {Channels: map[string][]models.Channel{
				"usa": {{ID: 1, StreamIndex: 42}},
			}},
			"duplicate id": {Channels: map[string][]models.Channel{
				"usa": {{ID: 101, StreamIndex: 0}},
			}},
		}
		for name, cfg := range cases {
			cfg := cfg
			if _, err := FromConfig(&cfg); err == nil {
				t.Errorf("%s: expected error", name)
			}
		}
	})
}
