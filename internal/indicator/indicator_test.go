package indicator

import (
	"strings"
	"testing"

	"github.com/mward/glance/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	ctrl := New(config.NotifyConfig{Enable: false}, nil)
	_, isNoop := ctrl.(Noop)
	require.True(t, isNoop)
}

func TestNewReturnsDesktopNotifyWhenEnabled(t *testing.T) {
	ctrl := New(config.NotifyConfig{Enable: true, AppName: "glance"}, nil)
	_, isDesktop := ctrl.(*DesktopNotify)
	require.True(t, isDesktop)
}

func TestSummarizeCollapsesWhitespace(t *testing.T) {
	require.Equal(t, "one two three", summarize("  one\n two\t three "))
}

func TestSummarizeEmptyPlaceholder(t *testing.T) {
	require.Equal(t, "(empty)", summarize("   \n\t "))
}

func TestSummarizeTruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", 400)
	got := summarize(long)
	require.LessOrEqual(t, len(got), summaryLimit+2)
	require.True(t, strings.HasSuffix(got, "…"))
}

func TestSummarizeKeepsShortTextIntact(t *testing.T) {
	require.Equal(t, "short answer", summarize("short answer"))
}
