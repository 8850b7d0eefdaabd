// Package sites is the base contributor for site queries.
//
// It adds the measurement site pattern every domain extension keys on and
// projects ?site, so it must be registered before water, air or any other
// extension that flags sites with FlagSites.
package sites

import (
	"context"
	"fmt"

	"github.com/roach88/semanteco/internal/executor"
	"github.com/roach88/semanteco/internal/pipeline"
	"github.com/roach88/semanteco/internal/queryir"
	"github.com/roach88/semanteco/internal/results"
)

// Name is the registration name of the extension.
const Name = "sites"

// PolNS is the pollution ontology shared by every site domain.
const PolNS = "http://escience.rpi.edu/ontology/semanteco/2/0/pollution.owl#"

// Well-known identifiers.
const (
	SiteVar     = queryir.VarNS + "site"
	FacilityVar = queryir.VarNS + "facility"

	MeasurementSite = PolNS + "MeasurementSite"
	Facility        = PolNS + "Facility"
)

// Extension contributes the site pattern and counts instances.
type Extension struct {
	exec executor.Executor
}

// New creates the extension. exec runs siteCounts.
func New(exec executor.Executor) *Extension {
	return &Extension{exec: exec}
}

// Name implements pipeline.Extension.
func (e *Extension) Name() string { return Name }

// VisitQuery adds `?site a pol:MeasurementSite` to SELECT queries and
// projects ?site. Visiting an already-augmented query changes nothing.
func (e *Extension) VisitQuery(_ context.Context, q queryir.Query, req *pipeline.Request) error {
	sel, ok := q.(*queryir.Select)
	if !ok {
		return nil
	}

	q.SetNamespace("pol", PolNS)
	site := q.CreateVariable(SiteVar)
	rdfType := q.GetResource(queryir.RDFNS + "type")
	class := q.GetResource(MeasurementSite)

	if len(q.FindGraphComponentsWithPattern(site, rdfType, class)) == 0 {
		if err := q.Where().AddPattern(site, rdfType, class); err != nil {
			return fmt.Errorf("add site pattern: %w", err)
		}
	}
	sel.AddVariable(site)

	req.Logger().Debug("added site pattern")
	return nil
}

// QueryMethods implements pipeline.QueryMethodProvider.
func (e *Extension) QueryMethods() map[string]pipeline.QueryMethod {
	return map[string]pipeline.QueryMethod{
		"siteCounts": e.SiteCounts,
	}
}

// CountsQuery builds the instance count query:
//
//	SELECT (COUNT(DISTINCT ?site) AS ?sites) (COUNT(DISTINCT ?facility) AS ?facilities)
//	WHERE { OPTIONAL { ?site a pol:MeasurementSite . } OPTIONAL { ?facility a pol:Facility . } }
func CountsQuery() (*queryir.Select, error) {
	q := queryir.NewSelect()
	q.SetNamespace("pol", PolNS)
	rdfType := q.GetResource(queryir.RDFNS + "type")

	for _, c := range []struct {
		id, class, count string
	}{
		{SiteVar, MeasurementSite, "sites"},
		{FacilityVar, Facility, "facilities"},
	} {
		v := q.CreateVariable(c.id)
		opt := q.CreateOptional()
		if err := q.Where().AddComponent(opt); err != nil {
			return nil, err
		}
		if err := opt.AddPattern(v, rdfType, q.GetResource(c.class)); err != nil {
			return nil, err
		}
		expr := fmt.Sprintf("COUNT(DISTINCT %s)", v)
		count, err := q.CreateVariableExpression(queryir.VarNS+c.count, expr)
		if err != nil {
			return nil, err
		}
		q.AddVariable(count)
	}
	return q, nil
}

// SiteCounts counts distinct measurement sites and facilities.
//
// Data is [{"type":"sites","count":N},{"type":"facilities","count":M}].
// Execution and decode failures yield results.Failure().
func (e *Extension) SiteCounts(ctx context.Context, req *pipeline.Request) (*results.Response, error) {
	log := req.Logger().With("extension", Name, "method", "siteCounts")

	q, err := CountsQuery()
	if err != nil {
		return nil, fmt.Errorf("build counts query: %w", err)
	}

	raw, err := e.exec.Execute(ctx, q, executor.MediaSPARQLResultsJSON)
	if err != nil {
		log.Error("site count query failed", "error", err)
		return results.Failure(), nil
	}

	rs, err := results.Decode(raw)
	if err != nil {
		log.Error("unable to decode site counts", "error", err)
		return results.Failure(), nil
	}
	if rs.Len() != 1 {
		log.Error("unexpected site count rows", "rows", rs.Len())
		return results.Failure(), nil
	}

	row := rs.Rows[0]
	records := make([]results.CountRecord, 0, 2)
	for _, name := range []string{"sites", "facilities"} {
		n, err := results.Int(row, name)
		if err != nil {
			log.Error("unable to decode site counts", "error", err)
			return results.Failure(), nil
		}
		records = append(records, results.CountRecord{Type: name, Count: n})
	}
	return results.OK(records), nil
}

// FlagSites marks measurement sites that belong to a domain class.
//
// When q already holds `?site a pol:MeasurementSite` at any depth, FlagSites
// binds prefix to ns and projects the expression variable
//
//	(EXISTS { ?site a prefix:local } AS ?name)
//
// where class is ns+local. It reports whether the site pattern was found.
// Repeating the call with the same arguments leaves q unchanged.
func FlagSites(q *queryir.Select, prefix, ns, name, class string) (bool, error) {
	if len(class) <= len(ns) || class[:len(ns)] != ns {
		return false, fmt.Errorf("flag sites: class %q is not in namespace %q", class, ns)
	}

	site := q.GetVariable(SiteVar)
	found := q.FindGraphComponentsWithPattern(site, q.GetResource(queryir.RDFNS+"type"), q.GetResource(MeasurementSite))
	if len(found) == 0 {
		return false, nil
	}

	q.SetNamespace(prefix, ns)
	expr := fmt.Sprintf("EXISTS { %s a %s:%s }", site, prefix, class[len(ns):])
	flag, err := q.CreateVariableExpression(queryir.VarNS+name, expr)
	if err != nil {
		return false, fmt.Errorf("flag sites: %w", err)
	}
	q.AddVariable(flag)
	return true, nil
}
