package querysparql

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semanteco/internal/queryir"
)

const (
	polNS  = "http://escience.rpi.edu/ontology/semanteco/2/0/pollution.owl#"
	unitNS = "http://sweet.jpl.nasa.gov/2.1/reprSciUnits.owl#"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func dataSourceQuery(t *testing.T) *queryir.Select {
	t.Helper()
	q := queryir.NewSelect()
	q.SetDistinct(true)
	q.SetNamespace("dc", queryir.DCNS)
	q.SetNamespace("rdfs", queryir.RDFSNS)

	source := q.CreateVariable(queryir.VarNS + "source")
	label := q.CreateVariable(queryir.VarNS + "label")

	graph := q.GetNamedGraph("http://sparql.tw.rpi.edu/semanteco/data-source")
	require.NoError(t, graph.AddPattern(q.CreateBlankNode(), q.GetResource(queryir.DCNS+"source"), source))
	opt := q.CreateOptional()
	require.NoError(t, graph.AddComponent(opt))
	require.NoError(t, opt.AddPattern(source, q.GetResource(queryir.RDFSNS+"label"), label))

	q.SetVariables([]*queryir.Variable{source, label})
	return q
}

func TestCompile_DataSourcesGolden(t *testing.T) {
	sparql, err := Compile(dataSourceQuery(t))
	require.NoError(t, err)

	newGoldie(t).Assert(t, "water_data_sources", []byte(sparql))
}

func TestCompile_ConstructGolden(t *testing.T) {
	q := queryir.NewConstruct()
	q.SetNamespace("pol", polNS)
	q.SetNamespace("unit", unitNS)

	m := q.GetVariable(queryir.VarNS + "measurement")
	triples := []struct {
		p string
		o queryir.Term
	}{
		{polNS + "hasCounty", queryir.String("001")},
		{polNS + "hasState", queryir.String("08")},
		{polNS + "hasCharacteristic", q.GetVariable(queryir.VarNS + "element")},
		{polNS + "hasValue", q.GetVariable(queryir.VarNS + "value")},
		{unitNS + "hasUnit", q.GetVariable(queryir.VarNS + "unit")},
	}

	graph := q.GetNamedGraph("http://was.tw.rpi.edu/air-measurement-data")
	for _, tr := range triples {
		require.NoError(t, graph.AddPattern(m, q.GetResource(tr.p), tr.o))
		require.NoError(t, q.Template().AddPattern(m, q.GetResource(tr.p), tr.o))
	}

	sparql, err := Compile(q)
	require.NoError(t, err)

	newGoldie(t).Assert(t, "air_measurements", []byte(sparql))
}

func TestCompile_Deterministic(t *testing.T) {
	first, err := Compile(dataSourceQuery(t))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Compile(dataSourceQuery(t))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCompile_ExpressionProjection(t *testing.T) {
	q := queryir.NewSelect()
	q.SetNamespace("pol", polNS)

	site := q.GetVariable(queryir.VarNS + "site")
	require.NoError(t, q.Where().AddPattern(site, q.GetResource(queryir.RDFNS+"type"), q.GetResource(polNS+"MeasurementSite")))

	isWater, err := q.CreateVariableExpression(queryir.VarNS+"isWater", "EXISTS { ?site a water:WaterSite }")
	require.NoError(t, err)
	q.AddVariable(site)
	q.AddVariable(isWater)

	sparql, err := Compile(q)
	require.NoError(t, err)

	expected := "PREFIX pol: <" + polNS + ">\n" +
		"SELECT ?site (EXISTS { ?site a water:WaterSite } AS ?isWater)\n" +
		"WHERE {\n" +
		"  ?site a pol:MeasurementSite .\n" +
		"}\n"
	assert.Equal(t, expected, sparql)
}

func TestCompile_EmptyProjectionIsStar(t *testing.T) {
	q := queryir.NewSelect()
	s := q.GetVariable(queryir.VarNS + "s")
	require.NoError(t, q.Where().AddPattern(s, q.GetResource("http://example.org/p"), queryir.Int(3)))

	sparql, err := Compile(q)
	require.NoError(t, err)

	assert.Equal(t, "SELECT *\nWHERE {\n  ?s <http://example.org/p> 3 .\n}\n", sparql)
}

func TestCompile_Literals(t *testing.T) {
	tests := []struct {
		name     string
		object   queryir.Term
		expected string
	}{
		{"plain string", queryir.String("08"), `"08"`},
		{"quotes and newline", queryir.String("say \"hi\"\n"), `"say \"hi\"\n"`},
		{"backslash and tab", queryir.String("a\\b\tc"), `"a\\b\tc"`},
		{"nfc normalized", queryir.String("e\u0301"), "\"\u00e9\""},
		{"negative int", queryir.Int(-42), "-42"},
		{"bool", queryir.Bool(false), "false"},
		{"decimal", queryir.Decimal("1.50"), `"1.50"^^<http://www.w3.org/2001/XMLSchema#decimal>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := queryir.NewSelect()
			s := q.GetVariable(queryir.VarNS + "s")
			require.NoError(t, q.Where().AddPattern(s, q.GetResource("http://example.org/p"), tt.object))

			sparql, err := Compile(q)
			require.NoError(t, err)
			assert.Contains(t, sparql, "?s <http://example.org/p> "+tt.expected+" .\n")
		})
	}
}

func TestCompile_StringCannotEscapeLiteral(t *testing.T) {
	q := queryir.NewSelect()
	s := q.GetVariable(queryir.VarNS + "s")
	hostile := `x" } ; DROP ALL ; SELECT * WHERE { "`
	require.NoError(t, q.Where().AddPattern(s, q.GetResource("http://example.org/p"), queryir.String(hostile)))

	sparql, err := Compile(q)
	require.NoError(t, err)

	assert.Contains(t, sparql, `"x\" } ; DROP ALL ; SELECT * WHERE { \""`)
}

func TestCompile_PrefixedNames(t *testing.T) {
	q := queryir.NewSelect()
	q.SetNamespace("ex", "http://example.org/")
	q.SetNamespace("exa", "http://example.org/a#")
	s := q.GetVariable(queryir.VarNS + "s")
	p := q.GetResource("http://example.org/p")

	objects := []string{
		"http://example.org/a#thing",
		"http://example.org/a/b",
		"http://example.org/-dash",
		"http://other.org/x",
	}
	for _, o := range objects {
		require.NoError(t, q.Where().AddPattern(s, p, q.GetResource(o)))
	}

	sparql, err := Compile(q)
	require.NoError(t, err)

	assert.Contains(t, sparql, "?s ex:p exa:thing .\n", "longest namespace wins")
	assert.Contains(t, sparql, "?s ex:p <http://example.org/a/b> .\n")
	assert.Contains(t, sparql, "?s ex:p <http://example.org/-dash> .\n")
	assert.Contains(t, sparql, "?s ex:p <http://other.org/x> .\n")
}

func TestCompile_PrefixForms(t *testing.T) {
	q := queryir.NewSelect()
	q.SetNamespace("", "http://example.org/")
	q.SetNamespace("ex.v2-x_y", "http://example.org/v2#")
	s := q.GetVariable(queryir.VarNS + "s")
	require.NoError(t, q.Where().AddPattern(s, q.GetResource("http://example.org/v2#p"), queryir.Int(1)))

	sparql, err := Compile(q)
	require.NoError(t, err)

	assert.Contains(t, sparql, "PREFIX : <http://example.org/>\n")
	assert.Contains(t, sparql, "PREFIX ex.v2-x_y: <http://example.org/v2#>\n")
}

func TestCompile_TypeKeywordOnlyInPredicate(t *testing.T) {
	q := queryir.NewSelect()
	rdfType := q.GetResource(queryir.RDFNS + "type")
	s := q.GetVariable(queryir.VarNS + "s")
	require.NoError(t, q.Where().AddPattern(s, rdfType, rdfType))

	sparql, err := Compile(q)
	require.NoError(t, err)

	assert.Contains(t, sparql, "?s a <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> .")
}

func TestCompile_GraphQualifiedPattern(t *testing.T) {
	q := queryir.NewSelect()
	s := q.GetVariable(queryir.VarNS + "s")
	g := q.GetVariable(queryir.VarNS + "g")
	require.NoError(t, q.Where().AddPattern(s, q.GetResource("http://example.org/p"), queryir.String("v"), g))

	sparql, err := Compile(q)
	require.NoError(t, err)

	assert.Contains(t, sparql, "  GRAPH ?g { ?s <http://example.org/p> \"v\" . }\n")
}

func TestCompile_Errors(t *testing.T) {
	t.Run("nil query", func(t *testing.T) {
		_, err := Compile(nil)
		assert.Error(t, err)
	})

	t.Run("illegal IRI", func(t *testing.T) {
		q := queryir.NewSelect()
		s := q.GetVariable(queryir.VarNS + "s")
		require.NoError(t, q.Where().AddPattern(s, q.GetResource("http://example.org/a b"), queryir.Int(1)))

		_, err := Compile(q)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "illegal character")
	})

	t.Run("illegal variable name", func(t *testing.T) {
		q := queryir.NewSelect()
		s := q.GetVariable(queryir.VarNS + "has-dash")
		require.NoError(t, q.Where().AddPattern(s, q.GetResource("http://example.org/p"), queryir.Int(1)))

		_, err := Compile(q)
		assert.Error(t, err)
	})

	t.Run("illegal namespace URI", func(t *testing.T) {
		for _, uri := range []string{"http://example.org/a>b#", "http://example.org/a b#", ""} {
			q := queryir.NewSelect()
			q.SetNamespace("ex", uri)
			s := q.GetVariable(queryir.VarNS + "s")
			require.NoError(t, q.Where().AddPattern(s, q.GetResource("http://other.org/p"), queryir.Int(1)))

			_, err := Compile(q)
			assert.Error(t, err, "namespace %q", uri)
		}
	})

	t.Run("illegal prefix", func(t *testing.T) {
		for _, prefix := range []string{"1ex", "e x", "ex.", "ex:y", "-ex"} {
			q := queryir.NewSelect()
			q.SetNamespace(prefix, "http://example.org/")
			s := q.GetVariable(queryir.VarNS + "s")
			require.NoError(t, q.Where().AddPattern(s, q.GetResource("http://other.org/p"), queryir.Int(1)))

			_, err := Compile(q)
			require.Error(t, err, "prefix %q", prefix)
			assert.Contains(t, err.Error(), "PN_PREFIX")
		}
	})

	t.Run("non-pattern in template", func(t *testing.T) {
		q := queryir.NewConstruct()
		s := q.GetVariable(queryir.VarNS + "s")
		p := q.GetResource("http://example.org/p")
		require.NoError(t, q.Where().AddPattern(s, p, queryir.Int(1)))
		require.NoError(t, q.Template().AddComponent(q.CreateOptional()))

		_, err := Compile(q)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "only patterns are allowed")
	})

	t.Run("graph qualifier in template", func(t *testing.T) {
		q := queryir.NewConstruct()
		s := q.GetVariable(queryir.VarNS + "s")
		p := q.GetResource("http://example.org/p")
		require.NoError(t, q.Template().AddPattern(s, p, queryir.Int(1), q.GetResource("http://example.org/g")))

		_, err := Compile(q)
		assert.Error(t, err)
	})
}

func TestSPARQLCompiler_CustomIndent(t *testing.T) {
	c := &SPARQLCompiler{Indent: "\t"}
	q := queryir.NewSelect()
	s := q.GetVariable(queryir.VarNS + "s")
	require.NoError(t, q.Where().AddPattern(s, q.GetResource("http://example.org/p"), queryir.Int(1)))

	sparql, err := c.Compile(q)
	require.NoError(t, err)

	assert.Contains(t, sparql, "\n\t?s <http://example.org/p> 1 .\n")
}
