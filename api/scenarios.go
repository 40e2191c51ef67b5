/*
scenarios.go - Built-in demo data sets

PURPOSE:
  Lets the export be previewed without a RotaCloud account. Each scenario
  is a factory.DatasetJSON document embedded from scenarios/*.json and
  served through a payroll.MemorySource, so the full engine runs.

AVAILABLE SCENARIOS:
  care-home:     Homecare override rate, salaried manager on holiday,
                 on-call reconciliation, sick day, a pending request
  overtime:      Worked hours above contracted hours
  on-call-heavy: On-call above contracted hours (negative base hours)
                 and suspiciously long call-outs

USAGE VIA API:
  GET  /api/scenarios
  POST /api/scenarios/{id}/preview

ADDING NEW SCENARIOS:
  Drop a DatasetJSON file into scenarios/. It is picked up at start-up.

SEE ALSO:
  - factory/dataset.go: Document format
  - handlers.go: ListScenarios, PreviewScenario
*/
package api

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/warp/payroll-export/factory"
)

//go:embed scenarios/*.json
var scenarioFiles embed.FS

// ScenarioCatalog holds the decoded data sets, keyed by id.
type ScenarioCatalog struct {
	byID  map[string]*factory.Dataset
	order []string
}

// LoadScenarios decodes every embedded data set.
func LoadScenarios() (*ScenarioCatalog, error) {
	return loadScenarios(scenarioFiles, "scenarios")
}

func loadScenarios(fsys fs.FS, dir string) (*ScenarioCatalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}

	f := factory.NewFactory()
	c := &ScenarioCatalog{byID: make(map[string]*factory.Dataset)}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		body, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		ds, err := f.ParseDataset(body)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", e.Name(), err)
		}
		if _, dup := c.byID[ds.ID]; dup {
			return nil, fmt.Errorf("scenario %s: duplicate id %q", e.Name(), ds.ID)
		}
		c.byID[ds.ID] = ds
		c.order = append(c.order, ds.ID)
	}
	sort.Strings(c.order)
	return c, nil
}

// Get returns a scenario by id.
func (c *ScenarioCatalog) Get(id string) (*factory.Dataset, bool) {
	if c == nil {
		return nil, false
	}
	ds, ok := c.byID[id]
	return ds, ok
}

// List returns every scenario sorted by id.
func (c *ScenarioCatalog) List() []*factory.Dataset {
	if c == nil {
		return nil
	}
	out := make([]*factory.Dataset, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
