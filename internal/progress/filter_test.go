package progress

import (
	"testing"

	"github.com/autofx/autofx/internal/events"
	"github.com/stretchr/testify/assert"
)

func TestFilterMarkerOnly(t *testing.T) {
	f := NewFilter("pg_1", Stdout)
	got := f.Write([]byte(`<<PROGRESS>>{"profile":"p1","current":3,"total":10}<<PROGRESS>>` + "\n"))
	assert.Equal(t, []events.Message{events.Progress("pg_1", "p1", 3, 10)}, got)
}

func TestFilterHelloAndMarker(t *testing.T) {
	f := NewFilter("pg_1", Stdout)
	got := f.Write([]byte(`Hello <<PROGRESS>>{"profile":"p1","current":3,"total":10}<<PROGRESS>>` + "\n"))
	assert.Equal(t, []events.Message{
		events.Progress("pg_1", "p1", 3, 10),
		events.Stdout("pg_1", "Hello"),
	}, got)
}

func TestFilterMalformedMarker(t *testing.T) {
	f := NewFilter("pg_1", Stdout)
	got := f.Write([]byte("<<PROGRESS>>{bad<<PROGRESS>>\n"))
	assert.Equal(t, []events.Message{events.Stdout("pg_1", "<<PROGRESS>>{bad<<PROGRESS>>")}, got)
}

func TestFilterJoinsLinesAndDropsBlanks(t *testing.T) {
	f := NewFilter("a", Stdout)
	got := f.Write([]byte("one\n\n   \ntwo\r\nthree"))
	assert.Equal(t, []events.Message{events.Stdout("a", "one\ntwo")}, got)
	assert.Equal(t, []events.Message{events.Stdout("a", "three")}, f.Flush())
	assert.Nil(t, f.Flush())
}

func TestFilterKeepsOrderAroundProgress(t *testing.T) {
	f := NewFilter("a", Stdout)
	got := f.Write([]byte(
		"before\n" +
			`<<PROGRESS>>{"profile":"x","current":1,"total":2}<<PROGRESS>>` + "\n" +
			"Imagens salvas em: /tmp/out/1.png\n" +
			"after\n"))

	assert.Equal(t, []events.Message{
		events.Stdout("a", "before"),
		events.Progress("a", "x", 1, 2),
		events.Stdout("a", "Imagens salvas em: /tmp/out/1.png"),
		events.OutputFolder("a", "/tmp/out"),
		events.Stdout("a", "after"),
	}, got)
}

func TestFilterStderr(t *testing.T) {
	f := NewFilter("a", Stderr)
	got := f.Write([]byte("Traceback (most recent call last):\n  File \"x.py\"\n"))
	assert.Equal(t, []events.Message{events.Stderr("a", "Traceback (most recent call last):\n  File \"x.py\"")}, got)
	assert.Equal(t, "stderr", Stderr.String())
	assert.Equal(t, "stdout", Stdout.String())
}

func TestFilterChunkBoundaryInsideMarker(t *testing.T) {
	f := NewFilter("a", Stdout)
	assert.Empty(t, f.Write([]byte(`Hello <<PROGRESS>>{"profile":"p1",`)))
	got := f.Write([]byte(`"current":3,"total":10}<<PROGRESS>>` + "\n"))
	assert.Equal(t, []events.Message{
		events.Progress("a", "p1", 3, 10),
		events.Stdout("a", "Hello"),
	}, got)
}
