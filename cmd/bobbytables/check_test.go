package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bobbytablesbot/bobbytables/internal/dispatch"
)

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	printPlan(&buf, "!327 latest", dispatch.Plan{Strict: true, Identifiers: []string{"327"}, Reply: "reply body"})
	out := buf.String()
	assert.Contains(t, out, "strict: true")
	assert.Contains(t, out, `"327" at 1`)
	assert.NotContains(t, out, "latest\"")
	assert.Contains(t, out, "comics: 327")
	assert.Contains(t, out, "reply body")

	buf.Reset()
	printPlan(&buf, "nothing", dispatch.Plan{Strict: true, Skipped: dispatch.SkipNoReferences})
	assert.Contains(t, buf.String(), "no reply: no references")
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	err := renderHTML(&buf, "**[327:](https://xkcd.com/327/)** Exploits of a Mom\n\n[Image](https://imgs.xkcd.com/comics/exploits_of_a_mom.png)\n")
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `<a href="https://xkcd.com/327/">327:</a>`)
	assert.Contains(t, buf.String(), `<a href="https://imgs.xkcd.com/comics/exploits_of_a_mom.png">Image</a>`)
}
