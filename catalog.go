package cutoutsched

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
)

// CatalogRow is one (component, beam) pair from the image parameters table.
// A component appears once per beam it overlaps, so component names repeat.
type CatalogRow struct {
	Component string
	Beam      string
}

// Catalog holds the jobs of one scheduling block: the unique components in
// first-occurrence order (which fixes the dense 1-based job ids) and the set
// of beams each component's cutout reads.
type Catalog struct {
	components []string
	beams      map[string]map[string]bool
}

// BuildCatalog derives the job catalog from image parameter rows.
//
// The k-th unique component name is assigned job id k. Rows repeating a
// component merge into that component's beam set. An empty row set yields an
// empty catalog; the run then completes trivially.
func BuildCatalog(rows []CatalogRow) (*Catalog, error) {
	c := &Catalog{
		beams: make(map[string]map[string]bool),
	}
	for i, row := range rows {
		if row.Component == "" {
			return nil, fmt.Errorf("catalog row %d: component name is empty", i)
		}
		if row.Beam == "" {
			return nil, fmt.Errorf("catalog row %d: beam id is empty for component %s", i, row.Component)
		}
		set, seen := c.beams[row.Component]
		if !seen {
			set = make(map[string]bool)
			c.beams[row.Component] = set
			c.components = append(c.components, row.Component)
		}
		set[row.Beam] = true
	}
	return c, nil
}

// Size returns the number of jobs in the catalog.
func (c *Catalog) Size() int {
	return len(c.components)
}

// Job returns the job for the given 1-based id.
func (c *Catalog) Job(id int) (Job, error) {
	if id < 1 || id > len(c.components) {
		return Job{}, fmt.Errorf("job id %d out of range 1..%d", id, len(c.components))
	}
	name := c.components[id-1]
	return Job{ID: id, Component: name, Beams: c.componentBeams(name)}, nil
}

// Jobs returns all jobs in id order.
func (c *Catalog) Jobs() []Job {
	jobs := make([]Job, 0, len(c.components))
	for i, name := range c.components {
		jobs = append(jobs, Job{ID: i + 1, Component: name, Beams: c.componentBeams(name)})
	}
	return jobs
}

// componentBeams returns a sorted copy of the component's beam set.
func (c *Catalog) componentBeams(name string) []string {
	set := c.beams[name]
	beams := make([]string, 0, len(set))
	for beam := range set {
		beams = append(beams, beam)
	}
	sort.Strings(beams)
	return beams
}

// LoadCatalogCSV reads catalog rows from a CSV file.
//
// The file must have a header row naming a component_name column and a
// beam_ids column; other columns are ignored.
func LoadCatalogCSV(path string) ([]CatalogRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	compCol, beamCol := -1, -1
	for i, name := range header {
		switch name {
		case "component_name":
			compCol = i
		case "beam_ids":
			beamCol = i
		}
	}
	if compCol < 0 || beamCol < 0 {
		return nil, fmt.Errorf("catalog %s: header must name component_name and beam_ids columns", path)
	}

	var rows []CatalogRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		if len(record) <= compCol || len(record) <= beamCol {
			return nil, fmt.Errorf("catalog %s: short row %v", path, record)
		}
		rows = append(rows, CatalogRow{Component: record[compCol], Beam: record[beamCol]})
	}
	return rows, nil
}
