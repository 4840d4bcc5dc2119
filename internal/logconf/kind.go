package logconf

import (
	"fmt"
	"log/syslog"
	"path/filepath"
	"strings"
)

// HandlerKind is the closed set of handler targets.
type HandlerKind int

const (
	KindUnknown HandlerKind = iota
	KindConsole
	KindWatchedFile
	KindSyslog
)

var handlerClasses = map[string]HandlerKind{
	"console-stream":                      KindConsole,
	"console":                             KindConsole,
	"stream":                              KindConsole,
	"logging.StreamHandler":               KindConsole,
	"watched-file":                        KindWatchedFile,
	"logging.handlers.WatchedFileHandler": KindWatchedFile,
	"syslog":                              KindSyslog,
	"logging.handlers.SysLogHandler":      KindSyslog,
}

// ParseHandlerKind resolves a handler class name.
func ParseHandlerKind(class string) (HandlerKind, error) {
	kind, ok := handlerClasses[strings.TrimSpace(class)]
	if !ok {
		return KindUnknown, fmt.Errorf("unsupported handler class %q", class)
	}
	return kind, nil
}

func (k HandlerKind) String() string {
	switch k {
	case KindConsole:
		return "console-stream"
	case KindWatchedFile:
		return "watched-file"
	case KindSyslog:
		return "syslog"
	default:
		return "unknown"
	}
}

// Stream selects a console output stream.
type Stream int

const (
	Stderr Stream = iota
	Stdout
)

// ParseStream resolves a console stream selector. Empty selects stderr.
func ParseStream(raw string) (Stream, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "stderr", "ext://sys.stderr":
		return Stderr, nil
	case "stdout", "ext://sys.stdout":
		return Stdout, nil
	default:
		return Stderr, fmt.Errorf("unknown stream %q", raw)
	}
}

var facilities = map[string]syslog.Priority{
	"KERN":     syslog.LOG_KERN,
	"USER":     syslog.LOG_USER,
	"MAIL":     syslog.LOG_MAIL,
	"DAEMON":   syslog.LOG_DAEMON,
	"AUTH":     syslog.LOG_AUTH,
	"SYSLOG":   syslog.LOG_SYSLOG,
	"LPR":      syslog.LOG_LPR,
	"NEWS":     syslog.LOG_NEWS,
	"UUCP":     syslog.LOG_UUCP,
	"CRON":     syslog.LOG_CRON,
	"AUTHPRIV": syslog.LOG_AUTHPRIV,
	"FTP":      syslog.LOG_FTP,
	"LOCAL0":   syslog.LOG_LOCAL0,
	"LOCAL1":   syslog.LOG_LOCAL1,
	"LOCAL2":   syslog.LOG_LOCAL2,
	"LOCAL3":   syslog.LOG_LOCAL3,
	"LOCAL4":   syslog.LOG_LOCAL4,
	"LOCAL5":   syslog.LOG_LOCAL5,
	"LOCAL6":   syslog.LOG_LOCAL6,
	"LOCAL7":   syslog.LOG_LOCAL7,
}

// ParseFacility resolves a syslog facility such as LOG_USER or local0.
// Empty selects LOG_USER.
func ParseFacility(raw string) (syslog.Priority, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	if name == "" {
		return syslog.LOG_USER, nil
	}
	name = strings.TrimPrefix(name, "LOG_")
	if p, ok := facilities[name]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("unknown syslog facility %q", raw)
}

// SyslogTarget returns the network and address to dial. An empty network
// means the local syslog daemon.
func (h HandlerSpec) SyslogTarget() (network, address string, err error) {
	addr := strings.TrimSpace(h.Address)
	sock := strings.ToLower(strings.TrimSpace(h.SockType))

	switch {
	case addr == "":
		if sock != "" {
			return "", "", fmt.Errorf("socktype %q requires an address", h.SockType)
		}
		return "", "", nil
	case filepath.IsAbs(addr):
		switch sock {
		case "", "udp":
			return "unixgram", addr, nil
		case "tcp":
			return "unix", addr, nil
		}
	default:
		if !strings.Contains(addr, ":") {
			return "", "", fmt.Errorf("address %q must be host:port or an absolute socket path", addr)
		}
		switch sock {
		case "", "udp":
			return "udp", addr, nil
		case "tcp":
			return "tcp", addr, nil
		}
	}
	return "", "", fmt.Errorf("unsupported socktype %q", h.SockType)
}
