package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/reset-supervisor/internal/status"
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
	"resetState": status.ResetState,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Reset Supervisor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.asserted { color: red; font-weight: bold; }
.negated { color: green; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Reset Supervisor</h1>

<h2>Outputs</h2>
<table>
<tr><th>Reset</th><td id="reset-state" class="{{if .Outputs.ResetAsserted}}asserted{{else}}negated{{end}}">{{resetState .Outputs}}</td></tr>
<tr><th>Halt LED</th><td id="halt-led">{{if .Outputs.HaltLED}}on{{else}}off{{end}}</td></tr>
</table>

<h2>Switch</h2>
<table>
<tr><th>Physical</th><td id="physical">{{.Physical.State}} ({{.Physical.Timer}})</td></tr>
<tr><th>Logical</th><td id="logical">{{.Logical.State}} (hold {{.Logical.Timer}})</td></tr>
<tr><th>Ticks</th><td>{{.Ticks}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Button presses</th><td>{{.Counts.ButtonPresses}}</td></tr>
<tr><th>Resets asserted</th><td>{{.Counts.ResetAsserts}}</td></tr>
<tr><th>CPU halts</th><td>{{.Counts.CPUHalts}}</td></tr>
<tr><th>GPIO read errors</th><td>{{.ReadErrors}}</td></tr>
<tr><th>GPIO write errors</th><td>{{.WriteErrors}}</td></tr>
<tr><th>Dropped events</th><td>{{.DroppedEvents}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Chip</th><td>{{.Config.Chip}}</td></tr>
<tr><th>Pins</th><td>switch {{.Config.Pins.Switch}}, HALT {{.Config.Pins.Halt}}, RESET {{.Config.Pins.Reset}}, reset out {{.Config.Pins.ExtReset}}, LED {{.Config.Pins.LED}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/reset">reset line</a></p>
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
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
