package cli

import (
	"strconv"
	"strings"

	"spacenav/internal/model"
	"spacenav/internal/selection"
	"spacenav/internal/tree"
	"spacenav/internal/tui"

	"github.com/spf13/cobra"
)

type spaceState struct {
	ID       int              `json:"id"`
	Name     string           `json:"name"`
	State    model.CheckState `json:"state"`
	Selected int              `json:"selected"`
	Total    int              `json:"total"`
}

func newSpacesCmd(app *App) *cobra.Command {
	var (
		text          bool
		selectSpaces  []int
		selectStreams []int
	)

	cmd := &cobra.Command{
		Use:   "spaces",
		Short: "Show a site's space tree",
		Long: strings.TrimSpace(`
Fetch the spaces of a site and print them as a tree (spaces nested under
their parents, streams under the space that owns them).

--select-space / --select-stream evaluate a selection against the tree and
report every space's checkbox state.
`),
		Example: strings.TrimSpace(`
spacenav spaces --site 1
spacenav spaces --site 1 --text
spacenav spaces --site 1 --text --select-space 3 --select-stream 12
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID := strings.TrimSpace(app.cfg.TUI.Site)
			if siteID == "" {
				return writeErr(cmd, errMissingSite)
			}
			resp, err := app.client().ListSpaces(cmd.Context(), siteID)
			if err != nil {
				return writeErr(cmd, apiErr(err, "site", siteID))
			}
			forest := tree.BuildFromSpaces(tree.FlattenGroups(resp))

			sel := model.NewIDSet(selectStreams...)
			for _, id := range selectSpaces {
				if _, ok := tree.Find(forest, id); !ok {
					return writeErr(cmd, errNotFound("space", strconv.Itoa(id)))
				}
				sel = selection.SelectSpace(id, forest, sel)
			}
			sel = selection.Prune(forest, sel)
			hasSelection := len(selectSpaces)+len(selectStreams) > 0

			if text {
				if err := tui.SetGlyphs(app.cfg.TUI.Glyphs); err != nil {
					return writeErr(cmd, err)
				}
				return tui.WriteOutline(cmd.OutOrStdout(), forest, sel, hasSelection)
			}
			if !hasSelection {
				return writeData(cmd, app, forest, "spacenav spaces --site "+siteID+" --text")
			}
			return writeData(cmd, app, map[string]any{
				"spaces":   forest,
				"selected": selection.SelectedStreams(forest, sel),
				"states":   spaceStates(forest, sel),
			})
		},
	}

	cmd.Flags().String("site", "", "Site id (default: tui.site from config)")
	cmd.Flags().BoolVar(&text, "text", false, "Print an indented outline instead of structured output")
	cmd.Flags().IntSliceVar(&selectSpaces, "select-space", nil, "Select every stream under this space (repeatable)")
	cmd.Flags().IntSliceVar(&selectStreams, "select-stream", nil, "Select a single stream (repeatable)")
	return cmd
}

func spaceStates(forest model.Forest, sel model.IDSet) []spaceState {
	var out []spaceState
	tree.Walk(forest, func(n model.TreeNode, depth int) bool {
		selected, total := selection.Counts(n, sel)
		out = append(out, spaceState{
			ID:       n.ID,
			Name:     n.Name,
			State:    selection.CheckboxState(n, sel),
			Selected: selected,
			Total:    total,
		})
		return true
	})
	return out
}
