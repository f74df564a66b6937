package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"facetimer/backend/internal/model"
	"facetimer/backend/internal/urgency"
)

var (
	nameStyle  = lipgloss.NewStyle().Bold(true).Width(24)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	levelStyle = lipgloss.NewStyle().Bold(true).Width(10)
)

func newTimersCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "timers",
		Short: "List stored timers with their urgency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, logger, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			backends, err := openStores(cmd.Context(), cfg, logger.Logger)
			if err != nil {
				return err
			}
			defer backends.Close()

			timers, err := backends.timers.ListTimers(cmd.Context())
			if err != nil {
				return fmt.Errorf("list timers: %w", err)
			}
			return renderTimers(cmd.OutOrStdout(), timers)
		},
	}
}

func renderTimers(w io.Writer, timers []model.Timer) error {
	if len(timers) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("no timers"))
		return err
	}
	for _, timer := range timers {
		if _, err := fmt.Fprintln(w, renderTimer(timer)); err != nil {
			return err
		}
	}
	return nil
}

// renderTimer formats one timer as a single line coloured by its urgency.
func renderTimer(timer model.Timer) string {
	state := urgency.Classify(timer.RemainingSeconds, timer.InitialSeconds)
	colour := lipgloss.Color(state.Hex)

	parts := []string{
		levelStyle.Foreground(colour).Render(strings.ToUpper(state.Level.String())),
		nameStyle.Render(timer.Name),
		fmt.Sprintf("%s / %s", formatSeconds(timer.RemainingSeconds), formatSeconds(timer.InitialSeconds)),
		lipgloss.NewStyle().Foreground(colour).Render(string(state.Expression)),
		mutedStyle.Render(fmt.Sprintf("%s  %s", timer.Status, timer.ID)),
	}
	return strings.Join(parts, "  ")
}

func formatSeconds(total int) string {
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
