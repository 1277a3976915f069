package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/larder/internal/catalog"
	"github.com/hyperengineering/larder/internal/personalize"
	"github.com/hyperengineering/larder/internal/service"
	"github.com/hyperengineering/larder/internal/types"
)

var (
	recommendAt           string
	recommendPersonalized bool
	recommendJSON         bool
	recommendCatalog      string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print recommendations for a moment in time",
	Long:  "Generate recommendation sections from the local database without running the server.",
	Args:  cobra.NoArgs,
	RunE:  runRecommend,
}

func init() {
	recommendCmd.Flags().StringVar(&recommendAt, "at", "",
		"RFC3339 time to recommend for (default now)")
	recommendCmd.Flags().BoolVar(&recommendPersonalized, "personalized", false,
		"Apply the personalization pass")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false,
		"Output in JSON format")
	recommendCmd.Flags().StringVar(&recommendCatalog, "catalog", "",
		"Read recipes from this YAML file instead of the database")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	now := time.Now()
	if recommendAt != "" {
		parsed, err := time.Parse(time.RFC3339, recommendAt)
		if err != nil {
			return fmt.Errorf("invalid --at %q: %w", recommendAt, err)
		}
		now = parsed
	}

	a, err := openLocalApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.svc
	if recommendCatalog != "" {
		svc = service.New(a.db, catalog.NewFileCatalog(recommendCatalog), a.tracker, personalize.New(nil))
	}

	var sections []types.RecommendationSection
	if recommendPersonalized {
		sections = svc.GetPersonalizedRecommendations(ctx, now)
	} else {
		sections = svc.GetRecommendations(ctx, now)
	}
	if sections == nil {
		sections = []types.RecommendationSection{}
	}

	if recommendJSON {
		return printJSON(cmd.OutOrStdout(), types.RecommendationsResponse{
			GeneratedAt:  now.Format(time.RFC3339),
			Personalized: recommendPersonalized,
			Sections:     sections,
		})
	}

	out := cmd.OutOrStdout()
	if len(sections) == 0 {
		fmt.Fprintln(out, "No recommendations. Import some recipes first.")
		return nil
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s [%s]\n", s.Title, s.Type)
		fmt.Fprintf(out, "  %s\n", s.Subtitle)
		for _, r := range s.Recipes {
			fmt.Fprintf(out, "  - %s (%s, %d min)\n", r.Name, r.Difficulty, r.TotalTime())
		}
	}
	return nil
}
