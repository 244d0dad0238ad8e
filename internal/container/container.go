package container

import (
	"damage-portal/config"
	app "damage-portal/internal/application"
	"damage-portal/internal/document"
	"damage-portal/internal/domain/port"
	"damage-portal/internal/infrastructure/backend"
	"damage-portal/internal/infrastructure/storage"
	"damage-portal/internal/infrastructure/vision"
	"damage-portal/internal/overlay"
)

type Container struct {
	Backend           *backend.Client
	Annotator         port.Annotator
	Renderer          *overlay.Renderer
	Documents         *document.Builder
	UserService       *app.UserService
	InspectionService *app.InspectionService
}

// New собирает зависимости приложения по конфигурации.
func New(cfg *config.Config) (*Container, error) {
	layout := document.DefaultLayout()
	if cfg.LayoutFile != "" {
		var err error
		if layout, err = document.LoadLayout(cfg.LayoutFile); err != nil {
			return nil, err
		}
	}

	client := backend.NewClient(cfg.APIBase, cfg.HTTPTimeout)
	renderer := overlay.NewRenderer()
	annotator := vision.NewAnnotator(renderer.Palette)
	documents, err := document.NewBuilder(client, annotator, layout)
	if err != nil {
		return nil, err
	}

	userService := app.NewUserService(storage.NewMemoryUserRepository())
	inspectionService := app.NewInspectionService(
		userService,
		client,
		client,
		client,
		client,
		documents,
		app.UniformDelay(cfg.PredictDelayMin, cfg.PredictDelayMax),
	)

	return &Container{
		Backend:           client,
		Annotator:         annotator,
		Renderer:          renderer,
		Documents:         documents,
		UserService:       userService,
		InspectionService: inspectionService,
	}, nil
}
