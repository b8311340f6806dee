package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goWallet "github.com/MrEthical07/goWallet"
	"github.com/MrEthical07/goWallet/metrics/export/internaldefs"
)

// MetricsSource is what the exporter reads; *goWallet.Client implements it.
type MetricsSource interface {
	MetricsSnapshot() goWallet.MetricsSnapshot
	EventsDropped() uint64
	TrackedActive() int
}

// PrometheusExporter renders client metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	source MetricsSource
}

// NewPrometheusExporter returns an exporter reading from client.
func NewPrometheusExporter(client *goWallet.Client) *PrometheusExporter {
	return &PrometheusExporter{source: client}
}

// NewPrometheusExporterFromSource returns an exporter reading from source.
func NewPrometheusExporterFromSource(source MetricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render over HTTP.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics. It returns "" when metrics are disabled
// and nothing has been recorded.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.EventsDropped()
	active := p.source.TrackedActive()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 && active == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		writeSample(&b, def.Name, def.Help, "counter", strconv.FormatUint(snapshot.Counters[def.ID], 10))
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		writeHistogram(&b, def.Name, def.Help, internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw)))
	}

	writeSample(&b, internaldefs.EventsDroppedName, "Events dropped due to dispatcher backpressure.", "counter", strconv.FormatUint(dropped, 10))
	writeSample(&b, internaldefs.TrackedActiveName, "Operations currently being polled.", "gauge", strconv.Itoa(active))

	return b.String()
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeSample(b *strings.Builder, name, help, kind, value string) {
	writeHeader(b, name, help, kind)
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	writeHeader(b, name, help, "histogram")

	for i, le := range internaldefs.HistogramBounds {
		b.WriteString(name)
		b.WriteString("_bucket{le=\"")
		b.WriteString(le)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	b.WriteByte('\n')

	// Snapshots carry bucket counts only.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
