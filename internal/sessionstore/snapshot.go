package sessionstore

import (
	"github.com/regenrek/splitdesk/internal/geom"
	"github.com/regenrek/splitdesk/internal/workspace"
)

// AppSnapshot is every open window at shutdown, in window order.
type AppSnapshot struct {
	Windows []WindowRecord `json:"windows"`
}

// WindowRecord is one window's geometry and workspace tabs.
type WindowRecord struct {
	Size      geom.Size  `json:"size"`
	Pos       geom.Point `json:"pos"`
	Maximised bool       `json:"maximised"`
	Tabs      TabsInfo   `json:"tabs"`
}

type TabsInfo struct {
	ActiveTab  int                    `json:"active_tab"`
	Workspaces []workspace.Descriptor `json:"workspaces"`
}

// Normalize clamps ActiveTab and guarantees at least one workspace so a
// restored window always has a tab to show.
func (w WindowRecord) Normalize() WindowRecord {
	if len(w.Tabs.Workspaces) == 0 {
		w.Tabs.Workspaces = []workspace.Descriptor{workspace.Default()}
	}
	if w.Tabs.ActiveTab < 0 || w.Tabs.ActiveTab >= len(w.Tabs.Workspaces) {
		w.Tabs.ActiveTab = 0
	}
	if w.Size.W < 0 {
		w.Size.W = 0
	}
	if w.Size.H < 0 {
		w.Size.H = 0
	}
	return w
}
