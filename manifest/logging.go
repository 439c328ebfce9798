package manifest

import (
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// ConfigureLogging routes the ember.* loggers to the simple backend at the
// configured verbosity. An empty file logs to stderr.
func (m *Manifest) ConfigureLogging() {
	var path *string
	if p := m.LogPath(); p != "" {
		path = &p
	}
	commonlog.Configure(m.Log.Verbosity, path)
	commonlog.GetLogger("ember.manifest").Debugf("logging configured for %s", m.describe())
}

func (m *Manifest) describe() string {
	if m.Project.Name == "" {
		return "(unnamed project)"
	}
	if m.Project.Version == "" {
		return m.Project.Name
	}
	return m.Project.Name + " " + m.Project.Version
}
