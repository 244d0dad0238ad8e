package port

import (
	"context"

	"damage-portal/internal/domain/entity"
)

// ImageSource список изображений и их байты по идентификатору.
type ImageSource interface {
	ListImages(ctx context.Context) ([]string, error)
	FetchImage(ctx context.Context, name string) ([]byte, error)
}

// Predictor сервис распознавания деталей и повреждений.
type Predictor interface {
	Predict(ctx context.Context, imageName string, task entity.Task) (*entity.PredictionResult, error)
}

// DamageAnalyzer сервис анализа повреждений; отчёт уже нормализован.
type DamageAnalyzer interface {
	Analyze(ctx context.Context, imageName string, parts []string) (*entity.CanonicalReport, error)
}

// ChatRequest всё, что уходит в чат-сервис на каждой реплике.
type ChatRequest struct {
	ImageName string
	Report    *entity.CanonicalReport
	Messages  []entity.ChatMessage
}

// ChatService внешний сервис диалога по отчёту.
type ChatService interface {
	Reply(ctx context.Context, req ChatRequest) (string, error)
}

// Annotator рисует рамки детекций на изображении в исходном разрешении.
type Annotator interface {
	// Annotate возвращает JPEG с нарисованными рамками и размер исходного изображения.
	Annotate(imageData []byte, dets []entity.Detection) ([]byte, entity.ImageMeta, error)
}
