package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var patternsJSON bool

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Show derived cooking patterns and time preferences",
	Args:  cobra.NoArgs,
	RunE:  runPatterns,
}

func init() {
	patternsCmd.Flags().BoolVar(&patternsJSON, "json", false,
		"Output in JSON format")
}

func runPatterns(cmd *cobra.Command, args []string) error {
	a, err := openLocalApp(context.Background(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p := a.svc.Patterns()
	if p.PreferredCategories == nil {
		p.PreferredCategories = []string{}
	}
	if patternsJSON {
		return printJSON(cmd.OutOrStdout(), p)
	}

	categories := "-"
	if len(p.PreferredCategories) > 0 {
		categories = strings.Join(p.PreferredCategories, ", ")
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintf(w, "Skill level:\t%s\n", p.Patterns.SkillProgressionLevel)
	fmt.Fprintf(w, "Cooking frequency:\t%s\n", p.Patterns.CookingFrequency)
	fmt.Fprintf(w, "Preferred difficulty:\t%s\n", p.PreferredDifficulty)
	fmt.Fprintf(w, "Preferred categories:\t%s\n", categories)
	fmt.Fprintf(w, "Exploration rate:\t%.2f\n", p.ExplorationRate)
	fmt.Fprintf(w, "Average session:\t%.0fs\n", p.Patterns.AverageSessionDuration)
	fmt.Fprintf(w, "Morning cooking:\t%.2f\n", p.TimePreferences.MorningCooking)
	fmt.Fprintf(w, "Weekend cooking:\t%.2f\n", p.TimePreferences.WeekendCooking)
	fmt.Fprintf(w, "Quick meals:\t%.2f\n", p.TimePreferences.QuickMeal)
	fmt.Fprintf(w, "Traditional meals:\t%.2f\n", p.TimePreferences.TraditionalMeal)
	return w.Flush()
}
