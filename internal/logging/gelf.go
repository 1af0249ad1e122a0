package logging

import (
	"encoding/json"
	"net"
	"os"

	"go.uber.org/zap/zapcore"
)

// GELF is a zap core that sends each entry as one GELF 1.1 message over UDP.
// Sends are fire-and-forget; a lost datagram never fails the log call.
type GELF struct {
	zapcore.LevelEnabler
	conn    net.Conn
	host    string
	service string
	fields  []zapcore.Field
}

// NewGELF dials addr (e.g. "172.17.0.1:12201").
func NewGELF(addr, service string, level zapcore.LevelEnabler) (*GELF, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service
	}
	return &GELF{LevelEnabler: level, conn: conn, host: hostname, service: service}, nil
}

func (g *GELF) With(fields []zapcore.Field) zapcore.Core {
	clone := *g
	clone.fields = append(append([]zapcore.Field(nil), g.fields...), fields...)
	return &clone
}

func (g *GELF) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if g.Enabled(ent.Level) {
		return ce.AddCore(ent, g)
	}
	return ce
}

func (g *GELF) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range g.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	msg := map[string]interface{}{
		"version":       "1.1",
		"host":          g.host,
		"short_message": ent.Message,
		"timestamp":     float64(ent.Time.UnixNano()) / 1e9,
		"level":         syslogLevel(ent.Level),
		"_service":      g.service,
	}
	if ent.LoggerName != "" {
		msg["_logger"] = ent.LoggerName
	}
	if ent.Stack != "" {
		msg["full_message"] = ent.Stack
	}
	for k, v := range enc.Fields {
		// "_id" is reserved by GELF.
		if k == "id" {
			k = "record_id"
		}
		msg["_"+k] = v
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	_, _ = g.conn.Write(payload)
	return nil
}

func (g *GELF) Sync() error { return nil }

func (g *GELF) Close() error { return g.conn.Close() }

func syslogLevel(l zapcore.Level) int {
	switch {
	case l >= zapcore.DPanicLevel:
		return 2
	case l == zapcore.ErrorLevel:
		return 3
	case l == zapcore.WarnLevel:
		return 4
	case l == zapcore.InfoLevel:
		return 6
	}
	return 7
}
