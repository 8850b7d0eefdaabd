// Package domain describes the data domains (water, air, ...) that
// extensions make available, along with their sources, regulations and
// data types.
package domain

// Domain is one data domain. Fields keep insertion order.
type Domain struct {
	URI         string       `json:"uri"`
	Label       string       `json:"label"`
	Sources     []Source     `json:"sources"`
	Regulations []Regulation `json:"regulations"`
	DataTypes   []DataType   `json:"dataTypes"`
}

// Source is a data source within a domain.
type Source struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
}

// Regulation is a regulation ontology that applies to a domain.
type Regulation struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
}

// DataType is a renderable category of measurement or facility.
// Icon names a UI resource and may be empty.
type DataType struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
}

// New creates an empty domain.
func New(uri, label string) *Domain {
	return &Domain{
		URI:         uri,
		Label:       label,
		Sources:     []Source{},
		Regulations: []Regulation{},
		DataTypes:   []DataType{},
	}
}

// AddSource appends a source. A source with a URI already present is
// ignored.
func (d *Domain) AddSource(uri, label string) {
	for _, s := range d.Sources {
		if s.URI == uri {
			return
		}
	}
	d.Sources = append(d.Sources, Source{URI: uri, Label: label})
}

// AddRegulation appends a regulation, ignoring duplicate URIs.
func (d *Domain) AddRegulation(uri, label string) {
	for _, r := range d.Regulations {
		if r.URI == uri {
			return
		}
	}
	d.Regulations = append(d.Regulations, Regulation{URI: uri, Label: label})
}

// AddDataType appends a data type, ignoring duplicate names.
func (d *Domain) AddDataType(name, label, icon string) {
	for _, t := range d.DataTypes {
		if t.Name == name {
			return
		}
	}
	d.DataTypes = append(d.DataTypes, DataType{Name: name, Label: label, Icon: icon})
}

// Merge combines domains that share a URI, keeping first-seen order.
// The first non-empty label wins; sources, regulations and data types are
// unioned in order. Inputs are not modified.
func Merge(domains []*Domain) []*Domain {
	merged := make([]*Domain, 0, len(domains))
	byURI := make(map[string]*Domain, len(domains))

	for _, d := range domains {
		if d == nil {
			continue
		}
		target, ok := byURI[d.URI]
		if !ok {
			target = New(d.URI, d.Label)
			byURI[d.URI] = target
			merged = append(merged, target)
		}
		if target.Label == "" {
			target.Label = d.Label
		}
		for _, s := range d.Sources {
			target.AddSource(s.URI, s.Label)
		}
		for _, r := range d.Regulations {
			target.AddRegulation(r.URI, r.Label)
		}
		for _, t := range d.DataTypes {
			target.AddDataType(t.Name, t.Label, t.Icon)
		}
	}

	return merged
}
