package mcp

import (
	"github.com/felixgeelhaar/nextup/adapter/cli"
	"github.com/felixgeelhaar/nextup/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container, currentUser string) *cli.App {
	cliApp := cli.NewApp(
		container.GetRecommendationHandler,
		container.GetEstimateHandler,
		container.GetAnalysisHandler,
		container.GetStatsHandler,
		container.RecordActionHandler,
		container.InvalidateCacheHandler,
	)

	cliApp.SetCurrentUserID(currentUser)

	if container.TaskWriter != nil {
		cliApp.SetTaskWriter(container.TaskWriter)
	}
	if container.WorkHistory != nil {
		cliApp.SetEnergyRecorder(container.WorkHistory)
	}

	httpAddr := ""
	if container.Config != nil {
		httpAddr = container.Config.HTTPAddr
	}
	cliApp.SetServer(httpAddr, container.Health, container.Metrics, container)
	if container.Engine != nil {
		cliApp.SetMaintenance(container)
	}

	return cliApp
}
