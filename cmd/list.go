package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/keytap/internal/input"
	"github.com/bnema/keytap/internal/ui"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"list"},
	Short:   "List the input devices a session would capture",
	Long: `List the keyboards and pointers found under /dev/input. Only Linux exposes
devices; on macOS and Windows sessions capture every device of the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := input.ListDevices()
		if err != nil {
			return fmt.Errorf("failed to list devices: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderDevices(devices, input.KeyboardOnly()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

// renderDevices builds the device table. Pointers are marked skipped when
// keyboard-only is set.
func renderDevices(devices []input.DeviceInfo, keyboardOnly bool) string {
	var output strings.Builder
	output.WriteString(ui.TitleStyle.Render("INPUT DEVICES"))
	output.WriteString("\n\n")

	if len(devices) == 0 {
		output.WriteString(ui.SubtleStyle.Render("No input devices found (is your user in the 'input' group?)"))
		return output.String()
	}

	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		state := "captured"
		if keyboardOnly && d.Type == input.DeviceTypePointer {
			state = "skipped"
		}
		link := d.ByIDPath
		if link == "" {
			link = "-"
		}
		rows = append(rows, []string{d.Path, d.Type.String(), d.Name, link, state})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ui.ColorSubtle)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return ui.TableHeaderStyle
			case col == 1:
				return lipgloss.NewStyle().Foreground(ui.ColorInfo).Padding(0, 1)
			case col == 4 && rows[row][4] == "skipped":
				return lipgloss.NewStyle().Foreground(ui.ColorSubtle).Padding(0, 1)
			case col == 4:
				return lipgloss.NewStyle().Foreground(ui.ColorSuccess).Padding(0, 1)
			default:
				return ui.TableCellStyle
			}
		}).
		Headers("PATH", "TYPE", "NAME", "PERSISTENT PATH", "STATE").
		Rows(rows...)

	output.WriteString(t.String())
	output.WriteString("\n\n")
	output.WriteString(ui.SubtleStyle.Render(fmt.Sprintf("Total: %d device(s)", len(devices))))
	return output.String()
}
