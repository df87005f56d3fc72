// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"fmt"
	"net"
	"time"

	"grimm.is/ddosentinel/internal/errors"
)

// SyslogConfig configures forwarding of log entries to a remote syslog
// collector (RFC 3164 framing over UDP or TCP).
type SyslogConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Protocol string // "udp" or "tcp"
	Tag      string
	Facility int
}

// DefaultSyslogConfig returns the disabled-by-default syslog configuration.
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Enabled:  false,
		Port:     514,
		Protocol: "udp",
		Tag:      "ddosentinel",
		Facility: 1,
	}
}

// SyslogWriter forwards formatted log lines to a remote syslog collector.
type SyslogWriter struct {
	conn     net.Conn
	tag      string
	facility int
}

// NewSyslogWriter dials the configured syslog collector and returns a writer.
// Missing Port/Protocol/Tag are defaulted the same way DefaultSyslogConfig does.
func NewSyslogWriter(cfg SyslogConfig) (*SyslogWriter, error) {
	if cfg.Host == "" {
		return nil, errors.New(errors.KindValidation, "syslog: host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = "ddosentinel"
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	conn, err := net.Dial(cfg.Protocol, addr)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindUnavailable, "syslog: dial %s", addr)
	}

	return &SyslogWriter{conn: conn, tag: cfg.Tag, facility: cfg.Facility}, nil
}

// Write implements io.Writer, framing p as an RFC 3164 syslog message.
func (w *SyslogWriter) Write(p []byte) (int, error) {
	priority := w.facility*8 + 6 // severity: informational
	msg := fmt.Sprintf("<%d>%s %s: %s", priority, time.Now().Format(time.Stamp), w.tag, p)
	if _, err := w.conn.Write([]byte(msg)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close releases the underlying connection.
func (w *SyslogWriter) Close() error {
	return w.conn.Close()
}
