package textnorm

import (
	_ "embed"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed resources.yaml
var resourcesYAML []byte

// Resources holds the linguistic data the text utilities depend on.
type Resources struct {
	Abbreviations map[string]bool
	Units         []string
	Splitter      *SentenceSplitter
}

type resourceFile struct {
	Abbreviations []string `yaml:"abbreviations"`
	Units         []string `yaml:"units"`
}

var (
	resourcesOnce sync.Once
	resources     *Resources
	resourcesErr  error
)

// EnsureResourcesReady loads the embedded resources on first use. Later calls
// return the same value, so it is safe to call from every entry point.
func EnsureResourcesReady() (*Resources, error) {
	resourcesOnce.Do(func() {
		resources, resourcesErr = parseResources(resourcesYAML)
	})
	return resources, resourcesErr
}

func parseResources(data []byte) (*Resources, error) {
	var f resourceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "textnorm: parse resources")
	}
	if len(f.Abbreviations) == 0 {
		return nil, eris.New("textnorm: resources define no abbreviations")
	}

	r := &Resources{Abbreviations: make(map[string]bool, len(f.Abbreviations))}
	for _, a := range f.Abbreviations {
		r.Abbreviations[strings.ToLower(strings.TrimSuffix(a, "."))] = true
	}

	seen := make(map[string]bool, len(f.Units))
	for _, u := range f.Units {
		u = Normalize(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		r.Units = append(r.Units, u)
	}
	sort.Strings(r.Units)

	r.Splitter = NewSentenceSplitter(r.Abbreviations)
	return r, nil
}
