package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"bookmap/internal/loader"
	"bookmap/internal/records"
	"bookmap/internal/service"
	"bookmap/internal/summarizer"
	"bookmap/internal/tui"
	"bookmap/internal/vectorstore/memory"
)

func newViewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view [file]",
		Short: "Browse a record file: filter, map neighbours and text previews",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Paths.OutputJSON
			if len(args) == 1 {
				path = args[0]
			}
			lib, err := openLibrary(a, path)
			if err != nil {
				return err
			}
			a.log.Debug("viewer ready", "records", lib.Len(), "path", path)
			p := tea.NewProgram(tui.New(lib, path), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

func openLibrary(a *app, path string) (*service.Library, error) {
	recs, err := records.Read(a.fs, path)
	if err != nil {
		return nil, err
	}
	return service.NewLibrary(recs, memory.NewStorage(), loader.New(a.fs), summarizer.NewFrequencySummarizer(summarizer.DefaultWindow))
}
