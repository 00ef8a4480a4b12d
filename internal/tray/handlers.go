package tray

import (
	"slices"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// statusItem carries the org.kde.StatusNotifierItem methods.
type statusItem struct {
	tray *Tray
}

// Activate is a primary (left) click.
func (s *statusItem) Activate(x int32, y int32) *dbus.Error {
	s.tray.send(ActionToggle)
	return nil
}

// SecondaryActivate is a middle click.
func (s *statusItem) SecondaryActivate(x int32, y int32) *dbus.Error {
	return nil
}

// ContextMenu is only called by hosts that do not render Menu themselves.
func (s *statusItem) ContextMenu(x int32, y int32) *dbus.Error {
	return nil
}

func (s *statusItem) Scroll(delta int32, orientation string) *dbus.Error {
	return nil
}

func itemSignals() []introspect.Signal {
	return []introspect.Signal{
		{Name: "NewTitle"},
		{Name: "NewIcon"},
		{Name: "NewAttentionIcon"},
		{Name: "NewOverlayIcon"},
		{Name: "NewToolTip"},
		{Name: "NewStatus", Args: []introspect.Arg{{Name: "status", Type: "s"}}},
	}
}

// dbusMenu carries the com.canonical.dbusmenu methods.
type dbusMenu struct {
	tray *Tray
}

func (m *dbusMenu) GetLayout(parentID int32, recursionDepth int32, propertyNames []string) (uint32, menuLayout, *dbus.Error) {
	view, items, revision := m.tray.snapshot()
	layout := buildLayout(items, view)
	if parentID != rootID {
		for _, child := range layout.Children {
			node := child.Value().(menuLayout)
			if node.ID == parentID {
				return revision, node, nil
			}
		}
		return revision, menuLayout{ID: parentID, Properties: map[string]dbus.Variant{}, Children: []dbus.Variant{}}, nil
	}
	if recursionDepth == 0 {
		layout.Children = []dbus.Variant{}
	}
	return revision, layout, nil
}

func (m *dbusMenu) GetGroupProperties(ids []int32, propertyNames []string) ([]menuItemProps, *dbus.Error) {
	view, items, _ := m.tray.snapshot()
	out := make([]menuItemProps, 0, len(items))
	for _, item := range items {
		if len(ids) > 0 && !slices.Contains(ids, item.id) {
			continue
		}
		out = append(out, menuItemProps{ID: item.id, Properties: itemProperties(item, view)})
	}
	return out, nil
}

func (m *dbusMenu) GetProperty(id int32, name string) (dbus.Variant, *dbus.Error) {
	view, items, _ := m.tray.snapshot()
	for _, item := range items {
		if item.id != id {
			continue
		}
		if v, ok := itemProperties(item, view)[name]; ok {
			return v, nil
		}
	}
	return dbus.MakeVariant(""), nil
}

func (m *dbusMenu) Event(id int32, eventID string, data dbus.Variant, timestamp uint32) *dbus.Error {
	if eventID != "clicked" {
		return nil
	}
	_, items, _ := m.tray.snapshot()
	if action, ok := actionFor(items, id); ok {
		m.tray.send(action)
	}
	return nil
}

func (m *dbusMenu) EventGroup(events []menuEvent) ([]int32, *dbus.Error) {
	_, items, _ := m.tray.snapshot()
	var unknown []int32
	for _, ev := range events {
		if _, ok := actionFor(items, ev.ID); !ok {
			unknown = append(unknown, ev.ID)
			continue
		}
		_ = m.Event(ev.ID, ev.EventID, ev.Data, ev.Timestamp)
	}
	return unknown, nil
}

func (m *dbusMenu) AboutToShow(id int32) (bool, *dbus.Error) {
	return false, nil
}

func (m *dbusMenu) AboutToShowGroup(ids []int32) ([]int32, []int32, *dbus.Error) {
	return []int32{}, []int32{}, nil
}

func menuSignals() []introspect.Signal {
	return []introspect.Signal{
		{Name: "ItemsPropertiesUpdated", Args: []introspect.Arg{
			{Name: "updatedProps", Type: "a(ia{sv})"},
			{Name: "removedProps", Type: "a(ias)"},
		}},
		{Name: "LayoutUpdated", Args: []introspect.Arg{
			{Name: "revision", Type: "u"},
			{Name: "parent", Type: "i"},
		}},
		{Name: "ItemActivationRequested", Args: []introspect.Arg{
			{Name: "id", Type: "i"},
			{Name: "timestamp", Type: "u"},
		}},
	}
}
