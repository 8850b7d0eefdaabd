package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semanteco/internal/executor"
	"github.com/roach88/semanteco/internal/extensions/air"
	"github.com/roach88/semanteco/internal/extensions/sites"
	"github.com/roach88/semanteco/internal/extensions/water"
	"github.com/roach88/semanteco/internal/pipeline"
	"github.com/roach88/semanteco/internal/queryir"
	"github.com/roach88/semanteco/internal/querysparql"
	"github.com/roach88/semanteco/internal/testutil"
)

func TestVisit_RepeatedRunIsByteIdentical(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)
	client, err := executor.New(endpoint.URL())
	require.NoError(t, err)

	p, err := pipeline.New([]pipeline.Extension{
		sites.New(client),
		water.New(client),
		air.New(client),
	}, pipeline.WithStrictComposition())
	require.NoError(t, err)

	params := map[string]string{"state": "CO", "county": "001", "stateCode": "08"}
	q := queryir.NewSelect()

	require.NoError(t, p.Visit(context.Background(), q, p.NewRequest(params)))
	first, err := querysparql.Compile(q)
	require.NoError(t, err)

	require.NoError(t, p.Visit(context.Background(), q, p.NewRequest(params)))
	second, err := querysparql.Compile(q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Empty(t, q.Conflicts())
	assert.Contains(t, first, "AS ?isWater)")
	assert.Contains(t, first, "AS ?isAir)")
	require.Len(t, q.Variables(), 3)
	assert.Empty(t, endpoint.Queries(), "visiting never executes")
}
