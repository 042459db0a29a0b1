package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Mode          string      `json:"mode"`
	Button        string      `json:"button"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Counts        CountsJSON  `json:"event_counts"`
	LastPacket    *PacketJSON `json:"last_packet,omitempty"`
	Config        ConfigJSON  `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	ModeChanges int `json:"mode_changes"`
	Received    int `json:"received"`
	Corrupt     int `json:"corrupt"`
	RxErrors    int `json:"rx_errors"`
	TxOK        int `json:"tx_ok"`
	TxFailed    int `json:"tx_failed"`
}

// PacketJSON is the JSON representation of the last packet exchange.
type PacketJSON struct {
	Timestamp string   `json:"timestamp"`
	Direction string   `json:"direction"`
	Length    int      `json:"length"`
	RSSI      *float64 `json:"rssi,omitempty"`
	LQI       *int     `json:"lqi,omitempty"`
	Seq       *int     `json:"seq,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HoldMs      int64  `json:"hold_ms"`
	SettleMs    int64  `json:"settle_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
	SPIPort     string `json:"spi_port"`
	ConsolePort string `json:"console_port,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	mode := string(snap.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}
	button := string(snap.Button)
	if button == "" {
		button = "UNKNOWN"
	}

	inner := StatusInner{
		Mode:          mode,
		Button:        button,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			ModeChanges: snap.Counts.ModeChanges,
			Received:    snap.Counts.Received,
			Corrupt:     snap.Counts.Corrupt,
			RxErrors:    snap.Counts.RxErrors,
			TxOK:        snap.Counts.TxOK,
			TxFailed:    snap.Counts.TxFailed,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HoldMs:      snap.Config.HoldMs,
			SettleMs:    snap.Config.SettleMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			SPIPort:     snap.Config.SPIPort,
			ConsolePort: snap.Config.ConsolePort,
		},
	}

	if p := snap.LastPacket; p != nil {
		pj := &PacketJSON{
			Timestamp: p.Timestamp.UTC().Format(time.RFC3339),
			Direction: p.Direction,
			Length:    p.Length,
		}
		switch p.Direction {
		case "RX":
			rssi, lqi := p.RSSI, p.LQI
			pj.RSSI, pj.LQI = &rssi, &lqi
		case "TX":
			seq := p.Seq
			pj.Seq = &seq
		}
		inner.LastPacket = pj
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
