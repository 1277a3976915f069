package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var recipesJSON bool

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Manage the recipe catalog",
}

var recipesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import recipes from a YAML file",
	Long:  "Insert or update recipes from a YAML file. Any invalid recipe rejects the whole file.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipesImport,
}

var recipesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipes in name order",
	Args:  cobra.NoArgs,
	RunE:  runRecipesList,
}

func init() {
	recipesCmd.PersistentFlags().BoolVar(&recipesJSON, "json", false,
		"Output in JSON format")

	recipesCmd.AddCommand(recipesImportCmd)
	recipesCmd.AddCommand(recipesListCmd)
}

func runRecipesImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openLocalApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := importRecipes(ctx, a.db, args[0])
	if err != nil {
		return err
	}

	if recipesJSON {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"file":     args[0],
			"imported": n,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d recipes from %s\n", n, args[0])
	return nil
}

func runRecipesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openLocalApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	recipes := a.svc.Recipes(ctx)

	if recipesJSON {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"recipes": recipes,
			"total":   len(recipes),
		})
	}

	if len(recipes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recipes found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tDIFFICULTY\tTIME\tFAVORITE")
	for _, r := range recipes {
		fav := "-"
		if r.IsFavorite {
			fav = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d min\t%s\n",
			r.ID, r.Name, r.Category, r.Difficulty, r.TotalTime(), fav)
	}
	return w.Flush()
}
