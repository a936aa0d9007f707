package cmd

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/permitwatch/permit-crawler/internal/archive"
	"github.com/permitwatch/permit-crawler/internal/config"
	"github.com/permitwatch/permit-crawler/internal/events"
)

func TestRunScanRejectsBadDirection(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runScan(cmd, "sideways", 0)
	require.ErrorContains(t, err, "sideways")
}

func TestBuildArchiveSinkNone(t *testing.T) {
	t.Parallel()

	sink, closeSink, err := buildArchiveSink(context.Background(), config.ArchiveConfig{Backend: "none"})
	require.NoError(t, err)
	defer closeSink()
	require.IsType(t, archive.Nop{}, sink)
}

func TestBuildArchiveSinkFS(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, closeSink, err := buildArchiveSink(context.Background(), config.ArchiveConfig{Backend: "fs", Dir: dir})
	require.NoError(t, err)
	defer closeSink()
	require.IsType(t, &archive.FSSink{}, sink)
}

func TestBuildArchiveSinkUnknownBackend(t *testing.T) {
	t.Parallel()

	_, _, err := buildArchiveSink(context.Background(), config.ArchiveConfig{Backend: "ftp"})
	require.ErrorContains(t, err, "ftp")
}

func TestBuildEventPublisherDisabled(t *testing.T) {
	t.Parallel()

	publisher, closePublisher, err := buildEventPublisher(context.Background(), config.EventsConfig{})
	require.NoError(t, err)
	defer closePublisher()
	require.IsType(t, events.Nop{}, publisher)
}
