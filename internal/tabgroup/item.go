package tabgroup

import "fmt"

// Kind identifies what an editor tab shows.
type Kind uint8

const (
	KindEditor Kind = iota + 1
	KindDiffEditor
	KindSettings
	KindThemeSettings
	KindKeymap
	KindPluginInfo
)

func (k Kind) String() string {
	switch k {
	case KindEditor:
		return "editor"
	case KindDiffEditor:
		return "diff_editor"
	case KindSettings:
		return "settings"
	case KindThemeSettings:
		return "theme_settings"
	case KindKeymap:
		return "keymap"
	case KindPluginInfo:
		return "plugin_info"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Item is the content of one tab. Settings, ThemeSettings and Keymap are
// singletons and carry no ID.
type Item struct {
	Kind Kind
	ID   string
}

func Editor(id string) Item     { return Item{Kind: KindEditor, ID: id} }
func DiffEditor(id string) Item { return Item{Kind: KindDiffEditor, ID: id} }
func Settings() Item            { return Item{Kind: KindSettings} }
func ThemeSettings() Item       { return Item{Kind: KindThemeSettings} }
func Keymap() Item              { return Item{Kind: KindKeymap} }
func PluginInfo(id string) Item { return Item{Kind: KindPluginInfo, ID: id} }

// Key is the stable identity used when reordering and de-duplicating.
func (i Item) Key() string {
	if i.ID == "" {
		return i.Kind.String()
	}
	return i.Kind.String() + ":" + i.ID
}

func (i Item) String() string {
	return i.Key()
}
