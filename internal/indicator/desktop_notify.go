package indicator

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsNotify = notificationsDest + ".Notify"
)

// NotificationsObject returns the freedesktop notification server proxy on conn.
func NotificationsObject(conn *dbus.Conn) dbus.BusObject {
	return conn.Object(notificationsDest, notificationsPath)
}

// desktopNotify sends a freedesktop notification and returns its server-assigned ID.
func desktopNotify(ctx context.Context, obj dbus.BusObject, appName string, replaceID uint32, n Notice, timeoutMS int32) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(urgency(n.Level)),
		"category":      dbus.MakeVariant("device"),
		"desktop-entry": dbus.MakeVariant("mictoggle"),
	}

	call := obj.CallWithContext(ctx, notificationsNotify, 0,
		appName,
		replaceID,
		iconFor(n.Level),
		n.Summary,
		n.Body,
		[]string{},
		hints,
		timeoutMS,
	)
	if call.Err != nil {
		return 0, fmt.Errorf("desktop notify failed: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("desktop notify invalid response: %w", err)
	}
	return id, nil
}

func urgency(level Level) byte {
	switch level {
	case LevelInfo:
		return 0
	case LevelError:
		return 2
	default:
		return 1
	}
}

func iconFor(level Level) string {
	switch level {
	case LevelInfo:
		return "dialog-information"
	case LevelError:
		return "dialog-error"
	default:
		return "dialog-warning"
	}
}
