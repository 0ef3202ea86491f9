package cli

import (
	"fmt"

	"github.com/mwantia/feedtree/data"
	"github.com/spf13/cobra"
)

type childOutput struct {
	ID    data.ID `json:"id"`
	Name  string  `json:"name"`
	Token string  `json:"token"`
}

func newChildrenCmd(app *App) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "children",
		Short: "List the synthesized children of an owner's folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := app.runtime(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close(ctx)

			p, err := rt.selectProvider(app.Namespace)
			if err != nil {
				return writeErr(cmd, err)
			}

			folder := rt.folder(p, owner)
			ids, err := p.GetChildIDs(ctx, folder)
			if err != nil {
				return writeErr(cmd, err)
			}

			children := make([]childOutput, 0, len(ids))
			for _, id := range ids {
				row, err := rt.store.Lookup(ctx, p.Namespace(), id)
				if err != nil {
					return writeErr(cmd, err)
				}
				children = append(children, childOutput{ID: id, Name: row.Name, Token: row.Token})
			}

			return writeOut(cmd, app, map[string]any{
				"namespace": p.Namespace(),
				"owner":     owner,
				"folder":    folder,
				"children":  children,
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Feed author exposed by the folder")
	return cmd
}

func newFieldsCmd(app *App) *cobra.Command {
	var owner, id string

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Resolve a synthesized item and project its fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := data.ParseID(id)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx := cmd.Context()
			rt, err := app.runtime(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close(ctx)

			p, err := rt.selectProvider(app.Namespace)
			if err != nil {
				return writeErr(cmd, err)
			}
			rt.folder(p, owner)

			def, err := p.GetItemDefinition(ctx, itemID)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("item %s: %w", itemID, err))
			}
			parent, err := p.GetParentID(ctx, itemID)
			if err != nil {
				return writeErr(cmd, err)
			}
			versions, err := p.GetItemVersions(ctx, itemID)
			if err != nil {
				return writeErr(cmd, err)
			}
			values, err := p.GetItemFieldValues(ctx, itemID)
			if err != nil {
				return writeErr(cmd, err)
			}

			return writeOut(cmd, app, map[string]any{
				"id":       def.ID,
				"name":     def.Name,
				"template": def.TemplateID,
				"parent":   parent,
				"versions": versions,
				"fields":   values,
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Feed author of the item's folder")
	cmd.Flags().StringVar(&id, "id", "", "Item id as listed by 'children'")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
