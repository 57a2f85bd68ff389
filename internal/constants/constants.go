package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBConnectTimeout = 10 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	LastDaysLimit          = 15
	TopDecksLimit          = 5
	TopOpponentsLimit      = 5
	RecentTournamentsLimit = 5
	RecentLogsLimit        = 10
)

const (
	SpeciesSearchLimit      = 10
	SpeciesCatalogPageLimit = 2000
	PokeAPIRequestsPerSec   = 10
	PokeAPIBurst            = 20
)

const (
	ColLiveEvents          = "live_events"
	ColLiveDays            = "live_days"
	ColLiveDecks           = "live_decks"
	ColLiveOpponents       = "live_opponents"
	ColLiveTournaments     = "live_tournaments"
	ColPhysicalEvents      = "physical_events"
	ColPhysicalDays        = "physical_days"
	ColPhysicalDecks       = "physical_decks"
	ColPhysicalOpponents   = "physical_opponents"
	ColPhysicalTournaments = "physical_tournaments"
	ColRawLogs             = "raw_logs"
	ColDeckCatalog         = "deck_catalog"
)
