// Package config defines the release configurations the tracker runs on.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidRelease is returned when a release configuration is incomplete.
	ErrInvalidRelease = errors.New("invalid release configuration")
	// ErrUnknownRelease is returned when selecting a release name which is not configured.
	ErrUnknownRelease = errors.New("unknown release")
)

// Release identifies an upstream release and the local files tracking its downloads.
type Release struct {
	Name     string           `mapstructure:"name" yaml:"name"`
	Owner    string           `mapstructure:"owner" yaml:"owner"`
	Repo     string           `mapstructure:"repo" yaml:"repo"`
	Tag      string           `mapstructure:"tag" yaml:"tag"`
	Assets   []string         `mapstructure:"assets" yaml:"assets"`
	Ledger   string           `mapstructure:"ledger" yaml:"ledger"`
	Chart    string           `mapstructure:"chart" yaml:"chart"`
	Baseline map[string]int64 `mapstructure:"baseline" yaml:"baseline,omitempty"`
}

// Defaults returns the built-in CARTA release configurations, in run order.
// Their ledger and chart paths are relative to the stats directory.
func Defaults() []Release {
	return []Release{
		{
			Name:   "v4",
			Owner:  "cartavis",
			Repo:   "carta",
			Tag:    "v4.0.0",
			Assets: []string{"CARTA-v4.0.0-arm64.dmg", "CARTA-v4.0.0-x64.dmg", "carta.AppImage.aarch64.tgz", "carta.AppImage.x86_64.tgz"},
			Ledger: "v4-download-stats.csv",
			Chart:  "v4-download-plot.png",
		},
		{
			Name:   "v4b1",
			Owner:  "cartavis",
			Repo:   "carta",
			Tag:    "v4.0.0-beta.1",
			Assets: []string{"CARTA-v4.0.0-beta.1-arm64.dmg", "CARTA-v4.0.0-beta.1-x64.dmg", "carta.AppImage.v4.0.0-beta.1.aarch64.tgz", "carta.AppImage.v4.0.0-beta.1.x86_64.tgz"},
			Ledger: "v4b1-download-stats.csv",
			Chart:  "v4b1-download-plot.png",
		},
		{
			Name:   "v3",
			Owner:  "cartavis",
			Repo:   "carta",
			Tag:    "v3.0.0",
			Assets: []string{"CARTA-v3.0-M1.dmg", "CARTA-v3.0-Intel.dmg", "carta.AppImage.aarch64.tgz", "carta.AppImage.x86_64.tgz", "carta-3.0.1-x86_64.AppImage"},
			Ledger: "v3-download-stats.csv",
			Chart:  "v3-download-plot.png",
			// Downloads counted before the release assets were re-uploaded.
			Baseline: map[string]int64{
				"CARTA-v3.0-M1.dmg":           389,
				"CARTA-v3.0-Intel.dmg":        447,
				"carta.AppImage.aarch64.tgz":  43,
				"carta.AppImage.x86_64.tgz":   599,
				"carta-3.0.1-x86_64.AppImage": 59,
			},
		},
	}
}

// Validate checks that the release has everything needed to be tracked.
func (r Release) Validate() error {
	fields := []struct{ name, value string }{
		{"name", r.Name}, {"owner", r.Owner}, {"repo", r.Repo}, {"tag", r.Tag}, {"ledger", r.Ledger}, {"chart", r.Chart},
	}
	missing := lo.FilterMap(fields, func(f struct{ name, value string }, _ int) (string, bool) {
		return f.name, f.value == ""
	})
	if len(r.Assets) == 0 {
		missing = append(missing, "assets")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w %q: missing %s", ErrInvalidRelease, r.Name, strings.Join(missing, ", "))
	}

	if dup := lo.FindDuplicates(r.Assets); len(dup) > 0 {
		return fmt.Errorf("%w %q: duplicated assets %s", ErrInvalidRelease, r.Name, strings.Join(dup, ", "))
	}
	if unknown := lo.Without(lo.Keys(r.Baseline), r.Assets...); len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("%w %q: baseline for untracked assets %s", ErrInvalidRelease, r.Name, strings.Join(unknown, ", "))
	}
	for a, v := range r.Baseline {
		if v < 0 {
			return fmt.Errorf("%w %q: negative baseline for %s", ErrInvalidRelease, r.Name, a)
		}
	}
	return nil
}

// ReadReleases reads the releases list of the configuration file at path.
// Files ending in .toml are read as TOML, anything else as YAML, which covers JSON.
// It returns nil when the file has no releases.
//
// Asset names are case sensitive, so releases are not read through viper, which lowercases every key.
func ReadReleases(path string) (releases []Release, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read releases: %v", err)
	}

	var raw struct {
		Releases []map[string]any `yaml:"releases" toml:"releases"`
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("could not parse releases of %q: %v", path, err)
	}
	if raw.Releases == nil {
		return nil, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       DecodeHook(),
		WeaklyTypedInput: true,
		Result:           &releases,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw.Releases); err != nil {
		return nil, fmt.Errorf("could not decode releases of %q: %v", path, err)
	}
	return releases, nil
}

// Resolve validates releases and returns copies whose relative ledger and chart paths are joined to statsDir.
func Resolve(releases []Release, statsDir string) ([]Release, error) {
	if len(releases) == 0 {
		return nil, fmt.Errorf("%w: no release configured", ErrInvalidRelease)
	}
	if dup := lo.FindDuplicates(lo.Map(releases, func(r Release, _ int) string { return r.Name })); len(dup) > 0 {
		return nil, fmt.Errorf("%w: duplicated release names %s", ErrInvalidRelease, strings.Join(dup, ", "))
	}

	resolved := make([]Release, 0, len(releases))
	for _, r := range releases {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		r.Ledger = resolvePath(statsDir, r.Ledger)
		r.Chart = resolvePath(statsDir, r.Chart)
		resolved = append(resolved, r)
	}
	return resolved, nil
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}

// Select returns the releases called names, in configuration order. All releases are returned when names is empty.
func Select(releases []Release, names []string) ([]Release, error) {
	if len(names) == 0 {
		return releases, nil
	}

	known := lo.Map(releases, func(r Release, _ int) string { return r.Name })
	if unknown, _ := lo.Difference(names, known); len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownRelease, strings.Join(unknown, ", "), strings.Join(known, ", "))
	}
	return lo.Filter(releases, func(r Release, _ int) bool { return lo.Contains(names, r.Name) }), nil
}

// DecodeHook returns the hooks used when decoding release configurations:
// comma separated strings become asset lists and "asset=count" lists become baselines.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringToBaselineHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

func stringToBaselineHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(map[string]int64{}) {
			return data, nil
		}

		s := strings.TrimSpace(data.(string))
		baseline := make(map[string]int64)
		if s == "" {
			return baseline, nil
		}
		for _, kv := range strings.Split(s, ",") {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, fmt.Errorf("invalid baseline entry %q: expected asset=count", kv)
			}
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid baseline count for %q: %v", k, err)
			}
			baseline[strings.TrimSpace(k)] = n
		}
		return baseline, nil
	}
}
