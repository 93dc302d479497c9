package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ning0612/cloudsync/internal/adapter/local"
	"github.com/Ning0612/cloudsync/internal/domain"
	"github.com/Ning0612/cloudsync/internal/navigator"
	"github.com/Ning0612/cloudsync/internal/pathutil"
)

// browser is the part of a folder tree the interactive loop drives
type browser interface {
	State() navigator.NavigationState
	navigate(ctx context.Context, path string) (navigator.NavigationState, error)
	open(ctx context.Context, entry domain.FolderEntry) (navigator.NavigationState, error)
	up(ctx context.Context) (navigator.NavigationState, error)
	display(path string) string
}

type localBrowser struct {
	*navigator.LocalTree
}

func (b localBrowser) navigate(ctx context.Context, path string) (navigator.NavigationState, error) {
	return b.NavigateTo(ctx, path)
}

func (b localBrowser) open(ctx context.Context, entry domain.FolderEntry) (navigator.NavigationState, error) {
	return b.Open(ctx, entry)
}

func (b localBrowser) up(ctx context.Context) (navigator.NavigationState, error) {
	return b.NavigateToParent(ctx)
}

func (b localBrowser) display(path string) string { return path }

type remoteBrowser struct {
	*navigator.RemoteTree
}

func (b remoteBrowser) navigate(ctx context.Context, path string) (navigator.NavigationState, error) {
	return b.NavigateTo(ctx, path).Wait(ctx)
}

func (b remoteBrowser) open(ctx context.Context, entry domain.FolderEntry) (navigator.NavigationState, error) {
	return b.Open(ctx, entry).Wait(ctx)
}

func (b remoteBrowser) up(ctx context.Context) (navigator.NavigationState, error) {
	return b.NavigateToParent(ctx).Wait(ctx)
}

func (b remoteBrowser) display(path string) string {
	return b.Provider().DisplayName() + ":/" + pathutil.Clean(path)
}

func (a *app) browseCmd() *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse local or remote folders",
	}
	cmd.PersistentFlags().BoolVarP(&interactive, "interactive", "i", false, "Walk the tree interactively")

	localCmd := &cobra.Command{
		Use:   "local [path]",
		Short: "List the folders of a local directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lister, err := local.NewOS(local.Options{
				ShowHidden: a.cfg.Local.ShowHidden,
				Exclude:    a.cfg.Local.Exclude,
			})
			if err != nil {
				return err
			}

			start := a.cfg.Local.StartPath
			if len(args) == 1 {
				start = args[0]
			}
			if start == "" {
				if start, err = os.UserHomeDir(); err != nil {
					return err
				}
			}

			return a.browse(cmd.Context(), localBrowser{navigator.NewLocalTree(lister)}, start, interactive)
		},
	}

	var provider string
	remoteCmd := &cobra.Command{
		Use:   "remote [path]",
		Short: "List the folders of a cloud folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := domain.Provider(strings.ToLower(provider))
			if !p.IsValid() {
				return fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
			}

			lister, err := a.remoteLister(cmd.Context(), p)
			if err != nil {
				return err
			}
			tree := navigator.NewRemoteTree(lister, p)
			defer tree.Close()

			start := ""
			if len(args) == 1 {
				start = args[0]
			}
			return a.browse(cmd.Context(), remoteBrowser{tree}, start, interactive)
		},
	}
	remoteCmd.Flags().StringVarP(&provider, "provider", "p", string(domain.ProviderGoogle), "Cloud provider (google, microsoft)")

	cmd.AddCommand(localCmd, remoteCmd)
	return cmd
}

// browse lists start, then in interactive mode reads commands until quit or EOF
func (a *app) browse(ctx context.Context, b browser, start string, interactive bool) error {
	state, err := b.navigate(ctx, start)
	if err != nil {
		return err
	}
	if !interactive {
		return a.printState(b, state)
	}

	scanner := bufio.NewScanner(a.in)
	for {
		if err := a.printState(b, state); err != nil {
			return err
		}
		fmt.Fprint(a.out, "\n[number] open, [u] up, [r] reload, [q] quit > ")
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		var next navigator.NavigationState
		switch input {
		case "q", "quit":
			return nil
		case "":
			continue
		case "u", "..":
			next, err = b.up(ctx)
		case "r":
			next, err = b.navigate(ctx, state.CurrentPath)
		default:
			n, convErr := strconv.Atoi(input)
			if convErr != nil || n < 1 || n > len(state.Children) {
				fmt.Fprintf(a.out, "No entry %q\n", input)
				continue
			}
			next, err = b.open(ctx, state.Children[n-1])
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(a.out, "Error:", err)
			state = b.State()
			continue
		}
		state = next
	}
}

func (a *app) printState(b browser, state navigator.NavigationState) error {
	if a.jsonOutput {
		return writeJSON(a.out, state)
	}

	fmt.Fprintf(a.out, "%s\n", b.display(state.CurrentPath))
	if state.IsEmpty() {
		fmt.Fprintln(a.out, "No folders here.")
		if !state.HasParent {
			return nil
		}
	}

	rows := make([][]string, 0, len(state.Children))
	for i, c := range state.Children {
		rows = append(rows, []string{strconv.Itoa(i + 1), c.DisplayName})
	}
	renderTable(a.out, []string{"#", "Folder"}, rows)
	return nil
}
