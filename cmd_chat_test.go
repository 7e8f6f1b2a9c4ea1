package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	errx "github.com/MobiAdvisor-core/server/internal/core/error"
)

func TestReadQuestions(t *testing.T) {
	in := strings.NewReader("best camera phone under 20000\n\n# comment\n  compare the first two  \n")
	qs, err := readQuestions(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"best camera phone under 20000", "compare the first two"}, qs)
}

func TestPrintAnswer(t *testing.T) {
	var buf bytes.Buffer
	printAnswer(&buf, model.GroundedAnswer{
		Message:   "I found 1 phones matching your query.",
		Phones:    []model.Phone{{ID: 4, CompanyName: "Xiaomi", ModelName: "Redmi Note 13", PriceINR: 17999}},
		Source:    model.SourceFallback,
		ErrorKind: errx.KindUpstreamUnavailable,
		Validated: true,
	})
	out := buf.String()
	assert.Contains(t, out, "(ID: 4) ₹17,999")
	assert.Contains(t, out, "source=fallback")
	assert.Contains(t, out, "error=upstream_unavailable")
	assert.NotContains(t, out, "unvalidated")
}
