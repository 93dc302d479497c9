package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Ning0612/cloudsync/internal/config"
	"github.com/Ning0612/cloudsync/internal/domain"
	"github.com/Ning0612/cloudsync/internal/registry"
)

// configFlags are the editable fields of a sync configuration
type configFlags struct {
	local       string
	cloud       string
	provider    string
	mode        string
	deleteDelay int
	disabled    bool
	user        string
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.local, "local", "", "Local folder path")
	cmd.Flags().StringVar(&f.cloud, "cloud", "", "Cloud folder path")
	cmd.Flags().StringVar(&f.provider, "provider", string(domain.ProviderGoogle), "Cloud provider (google, microsoft)")
	cmd.Flags().StringVar(&f.mode, "mode", domain.SyncModeUploadOnly.Value(), "Sync mode, see 'cloudsync config modes'")
	cmd.Flags().IntVar(&f.deleteDelay, "delete-delay", 0, "Days to wait before deleting the source copy")
	cmd.Flags().StringVar(&f.user, "user", "", "Account the configuration belongs to")
}

// parseSyncMode is strict, unlike the lenient decoding used for stored records
func parseSyncMode(value string) (domain.SyncMode, error) {
	mode := domain.SyncMode(strings.ToLower(strings.TrimSpace(value)))
	if !mode.IsValid() {
		values := make([]string, 0, len(domain.AllSyncModes()))
		for _, m := range domain.AllSyncModes() {
			values = append(values, m.Value())
		}
		return "", fmt.Errorf("%w: unknown sync mode %q (want one of %s)",
			domain.ErrInvalidConfig, value, strings.Join(values, ", "))
	}
	return mode, nil
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sync configurations",
	}
	cmd.AddCommand(
		a.configListCmd(),
		a.configShowCmd(),
		a.configAddCmd(),
		a.configUpdateCmd(),
		a.configEnableCmd(true),
		a.configEnableCmd(false),
		a.configRemoveCmd(),
		a.configModesCmd(),
	)
	return cmd
}

func (a *app) configListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sync configurations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			configs := reg.ListAll()

			if a.jsonOutput {
				return writeJSON(a.out, configs)
			}
			if len(configs) == 0 {
				fmt.Fprintln(a.out, "No sync configurations. Add one with 'cloudsync config add'.")
				return nil
			}

			rows := make([][]string, 0, len(configs))
			for _, c := range configs {
				rows = append(rows, []string{
					c.ID,
					truncate(c.LocalFolderPath, 40),
					c.Provider.DisplayName() + ":" + truncate(c.CloudFolderPath, 30),
					c.SyncMode.Label(),
					enabledText(c.Enabled),
					lastSyncText(c),
				})
			}
			renderTable(a.out, []string{"ID", "Local", "Cloud", "Mode", "Enabled", "Last Sync"}, rows)
			fmt.Fprintf(a.out, "\n%d of %d slots used\n", len(configs), registry.MaxConfigs)
			return nil
		},
	}
}

func (a *app) configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one sync configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			c, ok := reg.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrNotFound, args[0])
			}
			if a.jsonOutput {
				return writeJSON(a.out, c)
			}

			rows := [][]string{
				{"ID", c.ID},
				{"Local folder", c.LocalFolderPath},
				{"Cloud folder", c.CloudFolderPath},
				{"Provider", c.Provider.DisplayName()},
				{"Sync mode", c.SyncMode.Label()},
			}
			if c.SyncMode.DeletesSource() {
				rows = append(rows, []string{"Delete delay", fmt.Sprintf("%d days", c.DeleteDelayDays)})
			}
			rows = append(rows,
				[]string{"Enabled", enabledText(c.Enabled)},
				[]string{"Last sync", lastSyncText(c)},
			)
			if c.UserID != "" {
				rows = append(rows, []string{"User", c.UserID})
			}
			renderTable(a.out, []string{"Field", "Value"}, rows)
			return nil
		},
	}
}

func (a *app) configAddCmd() *cobra.Command {
	var f configFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a sync configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseSyncMode(f.mode)
			if err != nil {
				return err
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}

			enabled := !f.disabled
			created, err := reg.Create(domain.SyncConfigDraft{
				UserID:          f.user,
				LocalFolderPath: config.ExpandPath(f.local),
				CloudFolderPath: f.cloud,
				Provider:        domain.Provider(strings.ToLower(f.provider)),
				SyncMode:        mode,
				DeleteDelayDays: f.deleteDelay,
				Enabled:         &enabled,
			})
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return writeJSON(a.out, created)
			}
			fmt.Fprintf(a.out, "Created %s (%d slots left)\n", created.ID, reg.RemainingSlots())
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.disabled, "disabled", false, "Create the configuration disabled")
	return cmd
}

func (a *app) configUpdateCmd() *cobra.Command {
	var f configFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a sync configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			c, ok := reg.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrNotFound, args[0])
			}

			flags := cmd.Flags()
			if flags.Changed("local") {
				c.LocalFolderPath = config.ExpandPath(f.local)
			}
			if flags.Changed("cloud") {
				c.CloudFolderPath = f.cloud
			}
			if flags.Changed("provider") {
				c.Provider = domain.Provider(strings.ToLower(f.provider))
			}
			if flags.Changed("mode") {
				if c.SyncMode, err = parseSyncMode(f.mode); err != nil {
					return err
				}
			}
			if flags.Changed("delete-delay") {
				c.DeleteDelayDays = f.deleteDelay
			}
			if flags.Changed("user") {
				c.UserID = f.user
			}

			if err := reg.Update(c); err != nil {
				return err
			}
			if a.jsonOutput {
				return writeJSON(a.out, c)
			}
			fmt.Fprintf(a.out, "Updated %s\n", c.ID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) configEnableCmd(enabled bool) *cobra.Command {
	use, verb := "disable", "Disabled"
	if enabled {
		use, verb = "enable", "Enabled"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: verb + " a sync configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			if err := reg.SetEnabled(args[0], enabled); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s\n", verb, args[0])
			return nil
		},
	}
}

func (a *app) configRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a sync configuration",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			removed, err := reg.Delete(args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%w: %s", domain.ErrNotFound, args[0])
			}
			fmt.Fprintf(a.out, "Removed %s\n", args[0])
			return nil
		},
	}
}

func (a *app) configModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List the available sync modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := domain.AllSyncModes()
			if a.jsonOutput {
				type modeInfo struct {
					Value         string `json:"value"`
					Label         string `json:"label"`
					DeletesSource bool   `json:"deletesSource"`
				}
				out := make([]modeInfo, 0, len(modes))
				for _, m := range modes {
					out = append(out, modeInfo{m.Value(), m.Label(), m.DeletesSource()})
				}
				return writeJSON(a.out, out)
			}

			rows := make([][]string, 0, len(modes))
			for _, m := range modes {
				rows = append(rows, []string{m.Value(), m.Label(), strconv.FormatBool(m.DeletesSource())})
			}
			renderTable(a.out, []string{"Value", "Label", "Uses Delete Delay"}, rows)
			return nil
		},
	}
}

func enabledText(enabled bool) string {
	if enabled {
		return "yes"
	}
	return "no"
}

func lastSyncText(c domain.SyncConfig) string {
	if c.LastSyncTime == nil {
		return "never"
	}
	return humanize.Time(*c.LastSyncTime)
}
