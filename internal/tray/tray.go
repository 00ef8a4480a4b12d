// Package tray publishes the status icon and its context menu over the session bus.
package tray

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/rbright/mictoggle/internal/indicator"
	"github.com/rbright/mictoggle/internal/toggle"
)

const (
	itemInterface    = "org.kde.StatusNotifierItem"
	itemPath         = dbus.ObjectPath("/StatusNotifierItem")
	menuInterface    = "com.canonical.dbusmenu"
	menuPath         = dbus.ObjectPath("/MenuBar")
	watcherName      = "org.kde.StatusNotifierWatcher"
	watcherPath      = dbus.ObjectPath("/StatusNotifierWatcher")
	watcherRegister  = watcherName + ".RegisterStatusNotifierItem"
	introspectIface  = "org.freedesktop.DBus.Introspectable"
	actionBufferSize = 16
)

// ErrNoWatcher reports that no StatusNotifierWatcher accepted the icon.
var ErrNoWatcher = errors.New("no status notifier watcher on the session bus")

// Tray is a StatusNotifierItem with a dbusmenu context menu.
type Tray struct {
	conn     *dbus.Conn
	props    *prop.Properties
	logger   *slog.Logger
	messages indicator.Messages

	events chan Action
	done   chan struct{}

	mu       sync.Mutex
	view     toggle.View
	items    []menuItem
	revision uint32
	closed   bool
}

// New connects a private session bus connection and publishes the tray icon.
func New(view toggle.View, msgs indicator.Messages, logger *slog.Logger) (*Tray, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	t := newTray(view, msgs, logger)
	t.conn = conn
	if err := t.publish(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	t.logger.Info("tray icon published", "service", conn.Names()[0])
	return t, nil
}

func newTray(view toggle.View, msgs indicator.Messages, logger *slog.Logger) *Tray {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tray{
		logger:   logger,
		messages: msgs,
		events:   make(chan Action, actionBufferSize),
		done:     make(chan struct{}),
		view:     view,
		items:    menuItems(view, msgs),
		revision: 1,
	}
}

func (t *Tray) publish() error {
	item := &statusItem{tray: t}
	if err := t.conn.Export(item, itemPath, itemInterface); err != nil {
		return fmt.Errorf("export status item: %w", err)
	}
	menu := &dbusMenu{tray: t}
	if err := t.conn.Export(menu, menuPath, menuInterface); err != nil {
		return fmt.Errorf("export menu: %w", err)
	}

	props, err := prop.Export(t.conn, itemPath, prop.Map{itemInterface: t.itemProps()})
	if err != nil {
		return fmt.Errorf("export status item properties: %w", err)
	}
	t.props = props

	menuProps, err := prop.Export(t.conn, menuPath, prop.Map{menuInterface: menuPropMap()})
	if err != nil {
		return fmt.Errorf("export menu properties: %w", err)
	}

	itemNode := &introspect.Node{
		Name: string(itemPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       itemInterface,
				Methods:    introspect.Methods(item),
				Signals:    itemSignals(),
				Properties: props.Introspection(itemInterface),
			},
		},
	}
	if err := t.conn.Export(introspect.NewIntrospectable(itemNode), itemPath, introspectIface); err != nil {
		return fmt.Errorf("export status item introspection: %w", err)
	}

	menuNode := &introspect.Node{
		Name: string(menuPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       menuInterface,
				Methods:    introspect.Methods(menu),
				Signals:    menuSignals(),
				Properties: menuProps.Introspection(menuInterface),
			},
		},
	}
	if err := t.conn.Export(introspect.NewIntrospectable(menuNode), menuPath, introspectIface); err != nil {
		return fmt.Errorf("export menu introspection: %w", err)
	}

	name := fmt.Sprintf("org.kde.StatusNotifierItem-%d-1", os.Getpid())
	reply, err := t.conn.RequestName(name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", name)
	}

	call := t.conn.Object(watcherName, watcherPath).Call(watcherRegister, 0, name)
	if call.Err != nil {
		return fmt.Errorf("%w: %v", ErrNoWatcher, call.Err)
	}
	return nil
}

func (t *Tray) itemProps() map[string]*prop.Prop {
	t.mu.Lock()
	view := t.view
	t.mu.Unlock()

	ro := func(v interface{}) *prop.Prop {
		return &prop.Prop{Value: v, Writable: false, Emit: prop.EmitTrue}
	}
	return map[string]*prop.Prop{
		"Category":   ro("Hardware"),
		"Id":         ro("mictoggle"),
		"Title":      ro(t.messages.AppName),
		"Status":     ro(status(view)),
		"IconName":   ro(iconName(view)),
		"ToolTip":    ro(t.toolTip(view)),
		"ItemIsMenu": ro(false),
		"Menu":       ro(menuPath),
	}
}

func menuPropMap() map[string]*prop.Prop {
	ro := func(v interface{}) *prop.Prop {
		return &prop.Prop{Value: v, Writable: false, Emit: prop.EmitFalse}
	}
	return map[string]*prop.Prop{
		"Version":       ro(uint32(3)),
		"TextDirection": ro("ltr"),
		"Status":        ro("normal"),
		"IconThemePath": ro([]string{}),
	}
}

// toolTip mirrors the StatusNotifierItem (sa(iiay)ss) tooltip.
type toolTip struct {
	IconName    string
	IconPixmap  []iconPixmap
	Title       string
	Description string
}

type iconPixmap struct {
	Width  int32
	Height int32
	Data   []byte
}

func (t *Tray) toolTip(view toggle.View) toolTip {
	return toolTip{
		IconName:    iconName(view),
		IconPixmap:  []iconPixmap{},
		Title:       t.messages.AppName,
		Description: tooltipText(view, t.messages),
	}
}

// Events delivers tray actions to the session event loop.
func (t *Tray) Events() <-chan Action {
	return t.events
}

// Update refreshes icon, tooltip, and menu to reflect view.
func (t *Tray) Update(view toggle.View) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.view = view
	t.items = menuItems(view, t.messages)
	t.revision++
	revision := t.revision
	t.mu.Unlock()

	if t.conn == nil || t.props == nil {
		return
	}

	t.props.SetMust(itemInterface, "IconName", iconName(view))
	t.props.SetMust(itemInterface, "ToolTip", t.toolTip(view))
	t.props.SetMust(itemInterface, "Status", status(view))
	t.emit(itemPath, itemInterface+".NewIcon")
	t.emit(itemPath, itemInterface+".NewToolTip")
	t.emit(itemPath, itemInterface+".NewStatus", status(view))
	t.emit(menuPath, menuInterface+".LayoutUpdated", revision, rootID)
}

func (t *Tray) emit(path dbus.ObjectPath, name string, values ...interface{}) {
	if err := t.conn.Emit(path, name, values...); err != nil {
		t.logger.Debug("tray signal failed", "signal", name, "error", err.Error())
	}
}

// Close withdraws the icon and closes the bus connection. Safe to call repeatedly.
func (t *Tray) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.done)
	t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	if err := t.conn.Close(); err != nil {
		return fmt.Errorf("close tray bus connection: %w", err)
	}
	return nil
}

// send queues action unless the tray is closing.
func (t *Tray) send(action Action) {
	select {
	case t.events <- action:
	case <-t.done:
	}
}

func (t *Tray) snapshot() (toggle.View, []menuItem, uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view, t.items, t.revision
}
