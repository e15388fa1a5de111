package api

import (
	"github.com/tidwall/gjson"
)

// ConfPath is the configuration endpoint relative to the server URL.
const ConfPath = "/api/v2/conf"

// VersionInfo describes the server build.
type VersionInfo struct {
	App        string `json:"app"`
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
}

// UnmarshalJSON decodes the version object. Any other JSON value yields
// an empty VersionInfo.
func (v *VersionInfo) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	*v = VersionInfo{}
	if !res.IsObject() {
		return nil
	}
	v.App = res.Get("app").String()
	v.Version = res.Get("version").String()
	v.CommitHash = res.Get("commit_hash").String()
	return nil
}

// PluginItem describes a remote plugin script.
type PluginItem struct {
	// Source is the script URL, absolute or relative to the server.
	Source string `json:"source"`

	// Integrity is an optional subresource integrity hash.
	Integrity string `json:"integrity,omitempty"`

	// Options is the plugin options as JSON text, or "".
	Options string `json:"options,omitempty"`
}

// PluginList is the plugins section of a configuration response.
type PluginList []PluginItem

// UnmarshalJSON decodes the list leniently: a value that is not an array
// yields an empty list and entries that are not objects are skipped.
// options may be sent as a JSON string or as an inline JSON value.
func (l *PluginList) UnmarshalJSON(data []byte) error {
	*l = nil

	res := gjson.ParseBytes(data)
	if !res.IsArray() {
		return nil
	}

	res.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		p := PluginItem{
			Source:    item.Get("source").String(),
			Integrity: item.Get("integrity").String(),
		}
		switch opts := item.Get("options"); opts.Type {
		case gjson.String:
			p.Options = opts.Str
		case gjson.Null:
		default:
			p.Options = opts.Raw
		}
		*l = append(*l, p)
		return true
	})
	return nil
}

// ConfData is the body of the configuration endpoint.
type ConfData struct {
	// FrontendConf is the server-side widget configuration, or nil.
	FrontendConf map[string]any

	// Plugins lists the remote plugin scripts.
	Plugins PluginList

	// Version describes the server build.
	Version VersionInfo
}
