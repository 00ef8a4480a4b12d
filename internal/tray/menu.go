package tray

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/rbright/mictoggle/internal/indicator"
	"github.com/rbright/mictoggle/internal/toggle"
)

// Action is a user request raised from the tray.
type Action string

const (
	ActionToggle      Action = "toggle"
	ActionListDevices Action = "list_devices"
	ActionOpenConfig  Action = "open_config"
	ActionReload      Action = "reload"
	ActionExit        Action = "exit"
)

const rootID int32 = 0

type menuItem struct {
	id        int32
	label     string
	action    Action
	separator bool
}

// menuLayout mirrors the dbusmenu (ia{sv}av) layout node.
type menuLayout struct {
	ID         int32
	Properties map[string]dbus.Variant
	Children   []dbus.Variant
}

// menuItemProps mirrors the dbusmenu (ia{sv}) property group.
type menuItemProps struct {
	ID         int32
	Properties map[string]dbus.Variant
}

// menuEvent mirrors the dbusmenu (isvu) event tuple.
type menuEvent struct {
	ID        int32
	EventID   string
	Data      dbus.Variant
	Timestamp uint32
}

func menuItems(view toggle.View, msgs indicator.Messages) []menuItem {
	toggleLabel := msgs.MuteAction
	if view.Muted {
		toggleLabel = msgs.UnmuteAction
	}
	return []menuItem{
		{id: 1, label: toggleLabel, action: ActionToggle},
		{id: 2, label: msgs.ListDevices, action: ActionListDevices},
		{id: 3, label: msgs.OpenConfig, action: ActionOpenConfig},
		{id: 4, separator: true},
		{id: 5, label: msgs.ReloadConfig, action: ActionReload},
		{id: 6, separator: true},
		{id: 7, label: msgs.Exit, action: ActionExit},
	}
}

func itemProperties(item menuItem, view toggle.View) map[string]dbus.Variant {
	if item.separator {
		return map[string]dbus.Variant{"type": dbus.MakeVariant("separator")}
	}
	props := map[string]dbus.Variant{
		"label":   dbus.MakeVariant(item.label),
		"enabled": dbus.MakeVariant(item.action != ActionToggle || view.Bound),
		"visible": dbus.MakeVariant(true),
	}
	return props
}

func buildLayout(items []menuItem, view toggle.View) menuLayout {
	children := make([]dbus.Variant, 0, len(items))
	for _, item := range items {
		children = append(children, dbus.MakeVariant(menuLayout{
			ID:         item.id,
			Properties: itemProperties(item, view),
			Children:   []dbus.Variant{},
		}))
	}
	return menuLayout{
		ID:         rootID,
		Properties: map[string]dbus.Variant{"children-display": dbus.MakeVariant("submenu")},
		Children:   children,
	}
}

func actionFor(items []menuItem, id int32) (Action, bool) {
	for _, item := range items {
		if item.id == id && !item.separator {
			return item.action, true
		}
	}
	return "", false
}

func tooltipText(view toggle.View, msgs indicator.Messages) string {
	switch {
	case !view.Bound:
		return msgs.TooltipNoDevice
	case view.Muted:
		return fmt.Sprintf(msgs.TooltipMuted, view.DeviceName)
	default:
		return fmt.Sprintf(msgs.TooltipUnmuted, view.DeviceName)
	}
}

func iconName(view toggle.View) string {
	switch {
	case !view.Bound:
		return "microphone-sensitivity-muted-symbolic"
	case view.Muted:
		return "microphone-disabled-symbolic"
	default:
		return "audio-input-microphone-symbolic"
	}
}

func status(view toggle.View) string {
	if !view.Bound || view.Muted {
		return "NeedsAttention"
	}
	return "Active"
}
