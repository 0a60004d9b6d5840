package models

import "fmt"

// Region partitions the channel catalog and the static stream lists
type Region string

const (
	RegionIndia Region = "india"
	RegionUSA   Region = "usa"
)

// Regions lists every known region in display order
var Regions = []Region{RegionIndia, RegionUSA}

// ParseRegion converts a raw string into a known Region
func ParseRegion(s string) (Region, error) {
	switch r := Region(s); r {
	case RegionIndia, RegionUSA:
		return r, nil
	}
	return "", fmt.Errorf("unknown region %q", s)
}

// Channel represents a logical news channel and its slot in the region stream list
type Channel struct {
	ID          int    `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Category    string `json:"category" mapstructure:"category"`
	StreamIndex int    `json:"streamIndex" mapstructure:"streamIndex"`
}
