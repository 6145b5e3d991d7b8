package models

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Request headers sent by the desktop client.
const (
	HeaderAppVersion = "x-app-version"
	HeaderClientUUID = "x-client-uuid"
)

// UnknownClient stands in for a missing version or identifier header.
// Clients older than identifier support send neither.
const UnknownClient = "UNKNOWN"

// ClientInfo identifies the installation behind a request.
type ClientInfo struct {
	Version string
	ID      string
}

// ClientInfoFromRequest extracts the client identification headers. Missing
// headers become UnknownClient. Identifiers that parse as UUIDs are reduced to
// their canonical lower-case form so one installation maps to one key.
func ClientInfoFromRequest(r *http.Request) ClientInfo {
	info := ClientInfo{
		Version: strings.TrimSpace(r.Header.Get(HeaderAppVersion)),
		ID:      strings.TrimSpace(r.Header.Get(HeaderClientUUID)),
	}
	if info.Version == "" {
		info.Version = UnknownClient
	}
	if info.ID == "" {
		info.ID = UnknownClient
	} else if id, err := uuid.Parse(info.ID); err == nil {
		info.ID = id.String()
	}
	return info
}

// Identified reports whether the client sent an identifier.
func (c ClientInfo) Identified() bool {
	return c.ID != UnknownClient
}

// VersionKnown reports whether the client sent a version.
func (c ClientInfo) VersionKnown() bool {
	return c.Version != UnknownClient
}
