package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"dirmetrics/src/model"
)

func (h *Handler) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dirmetrics %s\n", h.cfg.Agent.Version)
		},
	}
}

func (h *Handler) languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and file extensions",
		Run: func(cmd *cobra.Command, args []string) {
			byLang := model.ExtensionsByLanguage()
			langs := make([]string, 0, len(byLang))
			for lang := range byLang {
				langs = append(langs, lang)
			}
			sort.Strings(langs)

			fmt.Println("Supported languages:")
			for _, lang := range langs {
				fmt.Printf("  - %-12s: %s\n", lang, strings.Join(byLang[lang], " "))
			}
			fmt.Println("")
			fmt.Printf("Analyzer backend: %s\n", h.cfg.Analyzer.Backend)
		},
	}
}
