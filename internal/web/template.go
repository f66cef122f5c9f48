package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/parking-gate/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"inc": func(i int) int { return i + 1 },
	"ms": func(v int64) string {
		if v%1000 == 0 {
			return fmt.Sprintf("%ds", v/1000)
		}
		return fmt.Sprintf("%dms", v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Parking Gate</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.free { color: green; font-weight: bold; }
.occupied { color: red; font-weight: bold; }
.full { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Parking Gate</h1>

<h2>Lot</h2>
<table>
<tr><th>Available</th><td id="available" class="{{if eq .Lot.Available 0}}full{{else}}free{{end}}">{{.Lot.Available}}/{{.Lot.Total}}</td></tr>
<tr><th>Occupied</th><td>{{.Lot.Occupied}}</td></tr>
<tr><th>Gate</th><td id="gate" class="{{if .Running}}{{else}}unknown{{end}}">{{if .Running}}{{.Lot.Gate}}{{else}}UNKNOWN{{end}}</td></tr>
</table>

<h2>Spots</h2>
<table>
{{range $i, $occ := .Lot.Occupancy}}<tr><th><a href="/spots/{{inc $i}}">Spot {{inc $i}}</a></th><td class="{{if $occ}}occupied{{else}}free{{end}}">{{if $occ}}occupied{{else}}free{{end}}</td></tr>
{{end}}</table>

<h2>Passages</h2>
<table>
<tr><th>Entries</th><td>{{.Lot.Counts.Entries}}</td></tr>
<tr><th>Exits</th><td>{{.Lot.Counts.Exits}}</td></tr>
<tr><th>Denied</th><td>{{.Lot.Counts.Denied}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Config.Influx}}<tr><th>InfluxDB</th><td>{{.Config.Influx}}</td></tr>{{end}}
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}: {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Debounce</th><td>{{ms .Config.DebounceMs}}</td></tr>
<tr><th>Passage</th><td>{{ms .Config.PassageMs}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{ms .Config.HeartbeatMs}}{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
