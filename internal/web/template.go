package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/radio-node/internal/status"
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
	"orUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Radio Node</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.rx { color: green; font-weight: bold; }
.tx { color: #c60; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Radio Node</h1>

<h2>State</h2>
<table>
<tr><th>Mode</th><td class="{{if eq (orUnknown (printf "%s" .Mode)) "RECEIVE"}}rx{{else if eq (orUnknown (printf "%s" .Mode)) "TRANSMIT"}}tx{{else}}unknown{{end}}">{{orUnknown (printf "%s" .Mode)}}</td></tr>
<tr><th>Button</th><td>{{orUnknown (printf "%s" .Button)}}</td></tr>
</table>

{{if .LastPacket}}<h2>Last Packet</h2>
<table>
<tr><th>Direction</th><td>{{.LastPacket.Direction}}</td></tr>
<tr><th>Time</th><td>{{.LastPacket.Timestamp.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Length</th><td>{{.LastPacket.Length}} bytes</td></tr>
{{if eq .LastPacket.Direction "RX"}}<tr><th>RSSI</th><td>{{printf "%.1f" .LastPacket.RSSI}} dBm</td></tr>
<tr><th>LQI</th><td>{{.LastPacket.LQI}}</td></tr>{{end}}
{{if eq .LastPacket.Direction "TX"}}<tr><th>Sequence</th><td>{{.LastPacket.Seq}}</td></tr>{{end}}
</table>{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Mode changes</th><td>{{.Counts.ModeChanges}}</td></tr>
<tr><th>Packets received</th><td>{{.Counts.Received}}</td></tr>
<tr><th>Corrupt packets</th><td>{{.Counts.Corrupt}}</td></tr>
<tr><th>Receive errors</th><td>{{.Counts.RxErrors}}</td></tr>
<tr><th>Transmit OK</th><td>{{.Counts.TxOK}}</td></tr>
<tr><th>Transmit failed</th><td>{{.Counts.TxFailed}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Hold</th><td>{{.Config.HoldMs}}ms</td></tr>
<tr><th>Settle</th><td>{{.Config.SettleMs}}ms</td></tr>
<tr><th>SPI</th><td>{{.Config.SPIPort}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
{{if .Config.ConsolePort}}<tr><th>Console</th><td>{{.Config.ConsolePort}}</td></tr>{{end}}
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
