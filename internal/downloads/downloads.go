// Package downloads holds download count snapshots and the baseline accumulation applied to them.
package downloads

import (
	"github.com/samber/lo"
)

// AssetCount is the cumulative download counter of a single release asset.
type AssetCount struct {
	Name  string `yaml:"name" toml:"name"`
	Count int64  `yaml:"count" toml:"count"`
}

// Snapshot is the download counters of a set of release assets at one point in time.
// Assets keep the order they were requested in.
type Snapshot []AssetCount

// New returns a snapshot of the given asset names with every count at zero.
func New(names []string) Snapshot {
	return lo.Map(names, func(name string, _ int) AssetCount {
		return AssetCount{Name: name}
	})
}

// Names returns the asset names in snapshot order.
func (s Snapshot) Names() []string {
	return lo.Map(s, func(a AssetCount, _ int) string { return a.Name })
}

// Count returns the counter of the first asset called name, and whether it was found.
func (s Snapshot) Count(name string) (int64, bool) {
	a, ok := lo.Find(s, func(a AssetCount) bool { return a.Name == name })
	return a.Count, ok
}

// Total returns the sum of every asset counter.
func (s Snapshot) Total() int64 {
	return lo.SumBy(s, func(a AssetCount) int64 { return a.Count })
}

// ApplyBaseline returns a copy of s where every asset present in baseline has its baseline value added.
// Assets absent from baseline are unchanged, and baseline entries for unknown assets are ignored.
//
// The baseline compensates for upstream counters that were reset at some point in the past.
func ApplyBaseline(s Snapshot, baseline map[string]int64) Snapshot {
	if s == nil {
		return nil
	}

	adjusted := make(Snapshot, len(s))
	copy(adjusted, s)
	for i, a := range adjusted {
		if b, ok := baseline[a.Name]; ok {
			adjusted[i].Count += b
		}
	}
	return adjusted
}
