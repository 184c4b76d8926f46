package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVOutput(t *testing.T) {
	var out, msg bytes.Buffer
	sink := NewCSV(&out, &msg)

	sink.Header(textColumns("id", "name"))
	require.True(t, sink.Row([]string{"1", "alice"}))
	require.True(t, sink.Row([]string{"2", `say "hi"`}))
	require.True(t, sink.Flush())
	sink.Footer("2 rows in results")

	assert.Equal(t, "id,name\n1,alice\n2,\"say \"\"hi\"\"\"\n", out.String())
	assert.Equal(t, "2 rows in results\n", msg.String())
}

func TestCSVWithoutHeaders(t *testing.T) {
	var out bytes.Buffer
	sink := NewCSV(&out, nil)
	sink.Headers = false

	sink.Header(textColumns("a"))
	require.True(t, sink.Row([]string{"x"}))
	require.True(t, sink.Flush())
	sink.Footer("ignored")

	assert.Equal(t, "x\n", out.String())
}
