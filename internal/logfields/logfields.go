// Package logfields holds canonical slog attribute keys so that every
// package logs the same concept under the same name.
package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants.
const (
	KeyRequestID = "request_id"
	KeyMode      = "mode"
	KeyLanguage  = "language"
	KeyArtifact  = "artifact"
	KeyStage     = "stage"
	KeyTool      = "tool"
	KeyPath      = "path"
	KeyMethod    = "method"
	KeyStatus    = "status"
	KeyPages     = "pages"
	KeyBytes     = "bytes"
	KeyDuration  = "duration_ms"
	KeyImage     = "image"
	KeyRoute     = "route"
	KeyRemote    = "remote_addr"
	KeyError     = "error"
)

func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }
func Mode(m string) slog.Attr       { return slog.String(KeyMode, m) }
func Language(l string) slog.Attr   { return slog.String(KeyLanguage, l) }
func Artifact(a string) slog.Attr   { return slog.String(KeyArtifact, a) }
func Stage(s string) slog.Attr      { return slog.String(KeyStage, s) }
func Tool(t string) slog.Attr       { return slog.String(KeyTool, t) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func Method(m string) slog.Attr     { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr     { return slog.Int(KeyStatus, code) }
func Pages(n int) slog.Attr         { return slog.Int(KeyPages, n) }
func Bytes(n int) slog.Attr         { return slog.Int(KeyBytes, n) }
func Image(name string) slog.Attr   { return slog.String(KeyImage, name) }
func Route(r string) slog.Attr      { return slog.String(KeyRoute, r) }
func RemoteAddr(a string) slog.Attr { return slog.String(KeyRemote, a) }

// Duration reports d in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDuration, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
