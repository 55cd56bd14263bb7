package reviewengine

import (
	"log/slog"

	application "arbiter/contexts/event-review/review-engine/application"
	httpadapter "arbiter/contexts/event-review/review-engine/adapters/http"
	"arbiter/contexts/event-review/review-engine/adapters/memory"
	"arbiter/contexts/event-review/review-engine/application/commands"
	"arbiter/contexts/event-review/review-engine/application/queries"
	"arbiter/contexts/event-review/review-engine/domain/services"
	"arbiter/contexts/event-review/review-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Applications ports.ApplicationRepository
	Evaluations  ports.EvaluationRepository
	Consensus    ports.ConsensusRepository
	Catalog      ports.CriteriaCatalog
	Registry     ports.CompetencyRegistry
	Assignments  ports.AssignmentRepository
	Roles        ports.RoleVerifier
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Policy       services.ConsensusPolicy
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	computer := application.ConsensusComputer{
		Evaluations: deps.Evaluations,
		Assignments: deps.Assignments,
		Catalog:     deps.Catalog,
		Registry:    deps.Registry,
		Policy:      deps.Policy,
	}
	evaluationUseCase := commands.EvaluationUseCase{
		Evaluations:  deps.Evaluations,
		Applications: deps.Applications,
		Assignments:  deps.Assignments,
		Catalog:      deps.Catalog,
		Roles:        deps.Roles,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Logger:       deps.Logger,
	}
	decisionUseCase := commands.DecisionUseCase{
		Computer:     computer,
		Applications: deps.Applications,
		Consensus:    deps.Consensus,
		Roles:        deps.Roles,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Logger:       deps.Logger,
	}
	stageUseCase := commands.StageUseCase{
		Applications: deps.Applications,
		Consensus:    deps.Consensus,
		Roles:        deps.Roles,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Logger:       deps.Logger,
	}
	consensusQueryUseCase := queries.ConsensusQueryUseCase{
		Computer:     computer,
		Applications: deps.Applications,
		Consensus:    deps.Consensus,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		Logger:       deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Evaluations: evaluationUseCase,
			Decisions:   decisionUseCase,
			Stages:      stageUseCase,
			Consensus:   consensusQueryUseCase,
			Logger:      deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module entirely against the in-memory store.
// Used by tests and local single-process runs.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Applications: store,
		Evaluations:  store,
		Consensus:    store,
		Catalog:      store,
		Registry:     store,
		Assignments:  store,
		Roles:        store,
		Outbox:       store,
		Clock:        store,
		IDGen:        store,
		Policy:       services.DefaultPolicy(),
		Logger:       logger,
	})
	module.Store = store
	return module
}
