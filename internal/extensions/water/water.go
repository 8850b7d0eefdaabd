// Package water provides the water quality domain.
//
// It flags measurement sites that are water sites, lists the data sources
// recorded in the metadata graph, and describes the water domain with its
// regulations and data types.
package water

import (
	"context"
	"fmt"

	"github.com/roach88/semanteco/internal/domain"
	"github.com/roach88/semanteco/internal/executor"
	"github.com/roach88/semanteco/internal/extensions/sites"
	"github.com/roach88/semanteco/internal/pipeline"
	"github.com/roach88/semanteco/internal/queryir"
	"github.com/roach88/semanteco/internal/results"
)

// Name is the registration name of the extension.
const Name = "water"

// Vocabulary.
const (
	NS        = "http://escience.rpi.edu/ontology/semanteco/2/0/water.owl#"
	DomainURI = NS
	WaterSite = NS + "WaterSite"

	// MetadataGraph holds one dc:source statement per data source.
	MetadataGraph = "http://sparql.tw.rpi.edu/semanteco/data-source"

	regulationBase = "http://escience.rpi.edu/ontology/semanteco/2/0/"
)

// Extension is the water data provider.
type Extension struct {
	exec executor.Executor
}

// New creates the extension. exec runs the data source query.
func New(exec executor.Executor) *Extension {
	return &Extension{exec: exec}
}

// Name implements pipeline.Extension.
func (e *Extension) Name() string { return Name }

// Description is the human-readable extension name.
func (e *Extension) Description() string { return "Water Data Provider" }

// VisitQuery projects ?isWater on SELECT queries that select measurement
// sites. Other queries are left untouched.
func (e *Extension) VisitQuery(_ context.Context, q queryir.Query, req *pipeline.Request) error {
	sel, ok := q.(*queryir.Select)
	if !ok {
		return nil
	}
	found, err := sites.FlagSites(sel, "water", NS, "isWater", WaterSite)
	if err != nil {
		return err
	}
	if found {
		req.Logger().Debug("flagged water sites")
	}
	return nil
}

// QueryMethods implements pipeline.QueryMethodProvider.
func (e *Extension) QueryMethods() map[string]pipeline.QueryMethod {
	return map[string]pipeline.QueryMethod{
		"queryForDataSources": e.QueryForDataSources,
	}
}

// DataSourcesQuery builds the data source listing:
//
//	SELECT DISTINCT ?source ?label WHERE {
//	  GRAPH <MetadataGraph> {
//	    _:b0 dc:source ?source .
//	    OPTIONAL { ?source rdfs:label ?label . }
//	  }
//	}
func DataSourcesQuery() (*queryir.Select, error) {
	q := queryir.NewSelect()
	q.SetDistinct(true)
	q.SetNamespace("dc", queryir.DCNS)
	q.SetNamespace("rdfs", queryir.RDFSNS)

	source := q.CreateVariable(queryir.VarNS + results.SourceVar)
	label := q.CreateVariable(queryir.VarNS + results.LabelVar)

	graph := q.GetNamedGraph(MetadataGraph)
	if err := graph.AddPattern(q.CreateBlankNode(), q.GetResource(queryir.DCNS+"source"), source); err != nil {
		return nil, err
	}
	opt := q.CreateOptional()
	if err := graph.AddComponent(opt); err != nil {
		return nil, err
	}
	if err := opt.AddPattern(source, q.GetResource(queryir.RDFSNS+"label"), label); err != nil {
		return nil, err
	}

	q.SetVariables([]*queryir.Variable{source, label})
	return q, nil
}

// QueryForDataSources lists the data sources in the metadata graph as
// [{"uri":...,"label":...}]. A source without rdfs:label is labelled from
// its last path segment. Execution and decode failures yield
// results.Failure().
func (e *Extension) QueryForDataSources(ctx context.Context, req *pipeline.Request) (*results.Response, error) {
	records, err := e.dataSources(ctx, req)
	if err != nil {
		req.Logger().Error("data source query failed",
			"extension", Name,
			"method", "queryForDataSources",
			"error", err,
		)
		return results.Failure(), nil
	}
	return results.OK(records), nil
}

func (e *Extension) dataSources(ctx context.Context, req *pipeline.Request) ([]results.SourceRecord, error) {
	q, err := DataSourcesQuery()
	if err != nil {
		return nil, fmt.Errorf("build data source query: %w", err)
	}

	raw, err := e.exec.Execute(ctx, q, executor.MediaJSON)
	if err != nil {
		return nil, err
	}
	req.Logger().Debug("data source results", "bytes", len(raw))

	rs, err := results.Decode(raw)
	if err != nil {
		return nil, err
	}
	return results.SourceRecords(rs)
}

// Domains implements pipeline.DomainProvider.
//
// Sources come from the data source query. When it fails the domain is
// still returned, with no sources.
func (e *Extension) Domains(ctx context.Context, req *pipeline.Request) ([]*domain.Domain, error) {
	water := domain.New(DomainURI, "Water")

	records, err := e.dataSources(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		req.Logger().Warn("water domain has no sources", "extension", Name, "error", err)
	}
	for _, r := range records {
		water.AddSource(r.URI, r.Label)
	}

	for _, r := range []struct{ file, label string }{
		{"EPA-regulation.owl", "EPA Regulation"},
		{"ca-regulation.owl", "CA Regulation"},
		{"ma-regulation.owl", "MA Regulation"},
		{"ny-regulation.owl", "NY Regulation"},
		{"ri-regulation.owl", "RI Regulation"},
	} {
		water.AddRegulation(regulationBase+r.file, r.label)
	}

	water.AddDataType("clean-water", "Clean Water", "clean-water.png")
	water.AddDataType("clean-facility", "Facility", "facility.png")
	water.AddDataType("polluted-water", "Polluted Water", "polluted-water.png")
	water.AddDataType("polluted-facility", "Polluted Facility", "polluted-facility.png")

	return []*domain.Domain{water}, nil
}
