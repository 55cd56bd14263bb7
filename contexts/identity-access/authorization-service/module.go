package authorizationservice

import (
	"log/slog"

	httpadapter "arbiter/contexts/identity-access/authorization-service/adapters/http"
	"arbiter/contexts/identity-access/authorization-service/adapters/memory"
	"arbiter/contexts/identity-access/authorization-service/application/commands"
	"arbiter/contexts/identity-access/authorization-service/application/queries"
	"arbiter/contexts/identity-access/authorization-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Queries queries.RoleQueryUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	roleUseCase := commands.RoleUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	roleQueryUseCase := queries.RoleQueryUseCase{
		Repository: deps.Repository,
	}
	return Module{
		Handler: httpadapter.Handler{
			Roles:   roleUseCase,
			Queries: roleQueryUseCase,
			Logger:  deps.Logger,
		},
		Queries: roleQueryUseCase,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
