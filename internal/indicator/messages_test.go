package indicator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessagesFromEnv(t *testing.T) {
	t.Setenv("LANG", "C")
	msgs := MessagesFromEnv()
	require.Equal(t, "Mute Microphone", msgs.MuteAction)
	require.Equal(t, "🔇 MUTED - USB Mic", fmt.Sprintf(msgs.TooltipMuted, "USB Mic"))
	require.Equal(t, "🎤 UNMUTED - USB Mic", fmt.Sprintf(msgs.TooltipUnmuted, "USB Mic"))

	t.Setenv("LANG", "de_DE.UTF-8")
	require.Equal(t, msgs, MessagesFromEnv(), "unsupported locales use English")
}
