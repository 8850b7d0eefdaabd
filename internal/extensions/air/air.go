// Package air provides the air quality domain.
package air

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/semanteco/internal/domain"
	"github.com/roach88/semanteco/internal/executor"
	"github.com/roach88/semanteco/internal/extensions/sites"
	"github.com/roach88/semanteco/internal/pipeline"
	"github.com/roach88/semanteco/internal/queryir"
	"github.com/roach88/semanteco/internal/results"
)

// Name is the registration name of the extension.
const Name = "air"

// Vocabulary.
const (
	NS        = "http://was.tw.rpi.edu/ontology/semanteco/air/air.owl#"
	DomainURI = NS
	AirSite   = NS + "AirSite"
	UnitNS    = "http://sweet.jpl.nasa.gov/2.1/reprSciUnits.owl#"

	// MeasurementGraph holds the air measurement data.
	MeasurementGraph = "http://was.tw.rpi.edu/air-measurement-data"
)

// Request parameters read by QueryForMeasurements.
const (
	ParamState     = "state"
	ParamCounty    = "county"
	ParamStateCode = "stateCode"
)

// Measurements is the data entry returned by QueryForMeasurements.
type Measurements struct {
	Format string `json:"format"`
	Graph  string `json:"graph"`
}

// Extension is the air data provider.
type Extension struct {
	exec executor.Executor
}

// New creates the extension. exec runs the measurement query.
func New(exec executor.Executor) *Extension {
	return &Extension{exec: exec}
}

// Name implements pipeline.Extension.
func (e *Extension) Name() string { return Name }

// Description is the human-readable extension name.
func (e *Extension) Description() string { return "Air Data Provider" }

// VisitQuery projects ?isAir on SELECT queries that select measurement
// sites.
func (e *Extension) VisitQuery(_ context.Context, q queryir.Query, req *pipeline.Request) error {
	sel, ok := q.(*queryir.Select)
	if !ok {
		return nil
	}
	found, err := sites.FlagSites(sel, "air", NS, "isAir", AirSite)
	if err != nil {
		return err
	}
	if found {
		req.Logger().Debug("flagged air sites")
	}
	return nil
}

// QueryMethods implements pipeline.QueryMethodProvider.
func (e *Extension) QueryMethods() map[string]pipeline.QueryMethod {
	return map[string]pipeline.QueryMethod{
		"queryForMeasurements": e.QueryForMeasurements,
	}
}

// MeasurementsQuery builds the CONSTRUCT query for one county's air
// measurements. The template repeats the body patterns.
func MeasurementsQuery(county, stateCode string) (*queryir.Construct, error) {
	q := queryir.NewConstruct()
	q.SetNamespace("pol", sites.PolNS)
	q.SetNamespace("unit", UnitNS)

	m := q.GetVariable(queryir.VarNS + "measurement")
	triples := []struct {
		predicate string
		object    queryir.Term
	}{
		{sites.PolNS + "hasCounty", queryir.String(county)},
		{sites.PolNS + "hasState", queryir.String(stateCode)},
		{sites.PolNS + "hasCharacteristic", q.GetVariable(queryir.VarNS + "element")},
		{sites.PolNS + "hasValue", q.GetVariable(queryir.VarNS + "value")},
		{UnitNS + "hasUnit", q.GetVariable(queryir.VarNS + "unit")},
	}

	graph := q.GetNamedGraph(MeasurementGraph)
	for _, tr := range triples {
		p := q.GetResource(tr.predicate)
		if err := graph.AddPattern(m, p, tr.object); err != nil {
			return nil, err
		}
		if err := q.Template().AddPattern(m, p, tr.object); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// QueryForMeasurements fetches the air measurements of one county as a
// Turtle graph. The state, county and stateCode parameters are required;
// a missing one fails the request with a *pipeline.ConfigError before any
// query is sent. Execution failures yield results.Failure().
func (e *Extension) QueryForMeasurements(ctx context.Context, req *pipeline.Request) (*results.Response, error) {
	var missing error
	values := make(map[string]string, 3)
	for _, name := range []string{ParamState, ParamCounty, ParamStateCode} {
		v, err := req.RequireParam(name)
		if err != nil {
			missing = errors.Join(missing, err)
			continue
		}
		values[name] = v
	}
	if missing != nil {
		return nil, missing
	}

	log := req.Logger().With(
		"extension", Name,
		"method", "queryForMeasurements",
		"state", values[ParamState],
		"county", values[ParamCounty],
	)

	q, err := MeasurementsQuery(values[ParamCounty], values[ParamStateCode])
	if err != nil {
		return nil, fmt.Errorf("build measurements query: %w", err)
	}

	raw, err := e.exec.Execute(ctx, q, executor.MediaTurtle)
	if err != nil {
		log.Error("measurement query failed", "error", err)
		return results.Failure(), nil
	}

	log.Debug("measurement graph received", "bytes", len(raw))
	return results.OK([]Measurements{{Format: executor.MediaTurtle, Graph: string(raw)}}), nil
}

// Domains implements pipeline.DomainProvider.
func (e *Extension) Domains(context.Context, *pipeline.Request) ([]*domain.Domain, error) {
	air := domain.New(DomainURI, "Air")
	air.AddSource("http://sparql.tw.rpi.edu/source/epa-gov", "epa.gov")
	air.AddRegulation("http://was.tw.rpi.edu/ontology/semanteco/regulations/EPA-air-regulation.owl", "EPA Regulation")

	air.AddDataType("clean-air", "Clean Air", "clean-air.png")
	air.AddDataType("clean-air-facility", "Clean Air Facility", "clean-air-facility.png")
	air.AddDataType("polluted-air", "Polluted Air", "polluted-air.png")
	air.AddDataType("polluted-air-facility", "Polluted Air Facility", "polluted-air-facility.png")

	return []*domain.Domain{air}, nil
}
