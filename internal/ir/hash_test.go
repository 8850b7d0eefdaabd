package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryHash(t *testing.T) {
	a := QueryHash("SELECT * WHERE { ?s ?p ?o . }")
	b := QueryHash("SELECT * WHERE { ?s ?p ?o . }")
	c := QueryHash("SELECT * WHERE { ?s ?p ?x . }")

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, QueryHash("caf\u00e9"), QueryHash("cafe\u0301"), "NFC equivalent text hashes the same")
}

func TestExecutionID(t *testing.T) {
	qh := QueryHash("SELECT * WHERE { ?s ?p ?o . }")

	id1, err := ExecutionID("req-1", 1, qh)
	require.NoError(t, err)
	id2, err := ExecutionID("req-1", 1, qh)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Regexp(t, `^[0-9a-f]{64}$`, id1)

	assert.NotEqual(t, id1, MustExecutionID("req-1", 2, qh))
	assert.NotEqual(t, id1, MustExecutionID("req-2", 1, qh))
}

func TestHashWithDomain_Separation(t *testing.T) {
	data := []byte("same")

	assert.NotEqual(t, hashWithDomain(DomainQuery, data), hashWithDomain(DomainExecution, data))
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}
