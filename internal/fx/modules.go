package fx

import (
	"ptcg-tracker/internal/aggregate"
	"ptcg-tracker/internal/api"
	"ptcg-tracker/internal/calendar"
	"ptcg-tracker/internal/config"
	"ptcg-tracker/internal/database"
	"ptcg-tracker/internal/domain"
	"ptcg-tracker/internal/logger"
	"ptcg-tracker/internal/repository"
	"ptcg-tracker/internal/server"
	"ptcg-tracker/internal/service"
	"ptcg-tracker/internal/suggest"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideCalendar(cfg *config.Config) (*calendar.Calendar, error) {
	return calendar.New(cfg.TimeZone)
}

func ProvideValidator(svc *service.SpeciesService) suggest.SpeciesValidator {
	return svc
}

func ProvideLiveEngine(repo *repository.LiveRepository, catalog *repository.DeckCatalogRepository, log zerolog.Logger) *aggregate.LiveEngine {
	return aggregate.NewLiveEngine(aggregate.NewEngine(domain.SourceLive, repo, repo, catalog, log))
}

func ProvidePhysicalEngine(repo *repository.PhysicalRepository, catalog *repository.DeckCatalogRepository, log zerolog.Logger) *aggregate.PhysicalEngine {
	return aggregate.NewPhysicalEngine(aggregate.NewEngine(domain.SourcePhysical, repo, repo, catalog, log))
}

func ProvideHomeService(live *repository.LiveRepository, physical *repository.PhysicalRepository, log zerolog.Logger) *service.HomeService {
	return service.NewHomeService(live, physical, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(database.Database),
	fx.Provide(ProvideCalendar),
	// repos
	fx.Provide(repository.NewLiveRepository),
	fx.Provide(repository.NewPhysicalRepository),
	fx.Provide(repository.NewRawLogRepository),
	fx.Provide(repository.NewDeckCatalogRepository),
	// aggregation
	fx.Provide(ProvideLiveEngine),
	fx.Provide(ProvidePhysicalEngine),
	// api client
	fx.Provide(api.NewPokeAPIClient),
	// svc
	fx.Provide(service.NewSpeciesCache),
	fx.Provide(service.NewSpeciesService),
	fx.Provide(ProvideValidator),
	fx.Provide(suggest.New),
	fx.Provide(service.NewMatchService),
	fx.Provide(ProvideHomeService),
	// server
	fx.Provide(server.NewTrackerServer),
)
